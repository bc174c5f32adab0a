// Package fs stores images in a local directory for development setups.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/imgr-dev/imgr/client/internal/service"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
)

var (
	ErrObjectExists = errors.New("object already exists")
	ErrInvalidName  = errors.New("invalid object name")
)

type Storage struct {
	rootPath      string
	publicBaseUrl string
}

var _ service.ImageStorage = (*Storage)(nil)

func New(rootPath, publicBaseUrl string) (*Storage, error) {
	// Clean so "media/../media" and friends resolve to one root.
	p := filepath.Clean(rootPath)
	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}
	return &Storage{rootPath: p, publicBaseUrl: strings.TrimSuffix(publicBaseUrl, "/")}, nil
}

// checkName accepts flat file names only.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Upload writes data to name. Existing files are never replaced.
func (s *Storage) Upload(ctx context.Context, name string, data []byte, _ string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.rootPath, name)
	dst, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrObjectExists, name)
		}
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := dst.Write(data); err != nil {
		dst.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file data: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return s.PublicURL(name), nil
}

func (s *Storage) PublicURL(name string) string {
	return s.publicBaseUrl + "/" + url.PathEscape(name)
}

// Read opens a stored image for serving.
func (s *Storage) Read(name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, internal_errors.NewNotFound("image %s not found", name)
	}
	file, err := os.Open(filepath.Join(s.rootPath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, internal_errors.NewNotFound("image %s not found", name)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}
