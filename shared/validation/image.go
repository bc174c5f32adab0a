package validation

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
)

// ImageInfo describes an image picked for upload.
type ImageInfo struct {
	MimeType string
	Format   string // "JPG" or "PNG"
	SizeKB   int64
	Width    int
	Height   int
}

var formatNames = map[string]string{
	"image/jpeg": "JPG",
	"image/png":  "PNG",
}

// DetectImage sniffs the content type of data and checks it against the
// allowed MIME types. Dimensions are filled when the header decodes.
func DetectImage(data []byte, allowedMimes []string) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, ErrEmptyImage
	}

	mimeType := http.DetectContentType(data)
	if !BuildAllowedMimeMap(allowedMimes)[mimeType] {
		return ImageInfo{}, fmt.Errorf("%w: %s", ErrInvalidMimeType, mimeType)
	}

	info := ImageInfo{
		MimeType: mimeType,
		Format:   formatNames[mimeType],
		SizeKB:   int64(len(data)) / 1024,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		info.Width, info.Height = cfg.Width, cfg.Height
	}
	return info, nil
}

func BuildAllowedMimeMap(mimes []string) map[string]bool {
	allowed := make(map[string]bool, len(mimes))
	for _, m := range mimes {
		allowed[m] = true
	}
	return allowed
}
