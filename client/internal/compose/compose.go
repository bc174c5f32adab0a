// Package compose is the create-thread flow: validate, compress, upload and
// insert.
package compose

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/imgr-dev/imgr/client/internal/imaging"
	"github.com/imgr-dev/imgr/client/internal/state"
	"github.com/imgr-dev/imgr/shared/config"
	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/imgr-dev/imgr/shared/messages"
	"github.com/imgr-dev/imgr/shared/validation"
)

type Creator interface {
	CreateThread(ctx context.Context, title, caption string, image []byte) (domain.Thread, error)
}

// Snapshot is the create op plus the thread it produced on success.
type Snapshot struct {
	state.Op
	Thread *domain.Thread `json:"thread,omitempty"`
}

// Preview describes a picked image before it is submitted.
type Preview struct {
	Format string `json:"format"`
	SizeKB int64  `json:"size_kb"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Hint   string `json:"hint,omitempty"`
}

type Compose struct {
	creator   Creator
	validator *validation.Validator
	image     config.Image

	// held while a create runs; overlapping submits are dropped
	busy  sync.Mutex
	state *state.Store[Snapshot]
	log   *slog.Logger
}

func New(creator Creator, validator *validation.Validator, image config.Image) *Compose {
	return &Compose{
		creator:   creator,
		validator: validator,
		image:     image,
		state:     state.NewStore(Snapshot{Op: state.OpIdle()}),
		log:       logger.Component("compose"),
	}
}

func (c *Compose) State() Snapshot                    { return c.state.Get() }
func (c *Compose) Subscribe(fn func(Snapshot)) func() { return c.state.Subscribe(fn) }

func (c *Compose) Reset() {
	c.state.Set(Snapshot{Op: state.OpIdle()})
}

// InspectImage reports format, size and dimensions of a picked image, with
// a hint when it will be compressed.
func (c *Compose) InspectImage(data []byte) (Preview, error) {
	info, err := c.detect(data)
	if err != nil {
		return Preview{}, err
	}
	preview := Preview{Format: info.Format, SizeKB: info.SizeKB, Width: info.Width, Height: info.Height}
	if info.SizeKB > c.image.CompressAboveKB {
		preview.Hint = messages.ImageWillCompress(info.SizeKB, c.image.TargetKB)
	}
	return preview, nil
}

func (c *Compose) detect(data []byte) (validation.ImageInfo, error) {
	info, err := validation.DetectImage(data, c.image.AllowedMimeTypes)
	switch {
	case errors.Is(err, validation.ErrEmptyImage):
		return info, internal_errors.NewValidation(messages.ImageRequired)
	case errors.Is(err, validation.ErrInvalidMimeType):
		return info, internal_errors.NewValidation(messages.ImageFormat)
	}
	return info, err
}

// CreateThread runs the whole flow and publishes Loading then Success or
// Error. Input errors are reported before anything is compressed or sent.
// A call made while another one is still running returns without effect.
func (c *Compose) CreateThread(ctx context.Context, title, caption string, image []byte) {
	if !c.busy.TryLock() {
		c.log.Debug("create already in flight, submit ignored")
		return
	}
	defer c.busy.Unlock()

	c.state.Set(Snapshot{Op: state.OpLoading()})

	thread, err := c.create(ctx, title, caption, image)
	if err != nil {
		c.log.Warn("thread create failed", "error", err)
		c.state.Set(Snapshot{Op: state.OpError(internal_errors.Message(err, messages.ThreadCreateFailed))})
		return
	}
	c.state.Set(Snapshot{Op: state.OpSuccess(), Thread: &thread})
}

func (c *Compose) create(ctx context.Context, title, caption string, image []byte) (domain.Thread, error) {
	if err := c.validator.Title(title); err != nil {
		return domain.Thread{}, err
	}
	if err := c.validator.Caption(caption); err != nil {
		return domain.Thread{}, err
	}
	info, err := c.detect(image)
	if err != nil {
		return domain.Thread{}, err
	}

	compressed, err := imaging.Compress(image, imaging.OptionsFromConfig(c.image))
	if err != nil {
		c.log.Warn("image compression failed", "format", info.Format, "size_kb", info.SizeKB, "error", err)
		return domain.Thread{}, internal_errors.NewValidation(messages.ImageProcessFailed)
	}
	c.log.Debug("image compressed",
		"from_kb", info.SizeKB, "to_kb", compressed.SizeKB(),
		"width", compressed.Width, "height", compressed.Height, "quality", compressed.Quality)

	return c.creator.CreateThread(ctx, title, caption, compressed.Data)
}
