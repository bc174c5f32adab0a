package validation

import "errors"

// ErrInvalidMimeType is returned when an image is neither JPEG nor PNG
var ErrInvalidMimeType = errors.New("invalid MIME type")

// ErrEmptyImage is returned when no image bytes were supplied
var ErrEmptyImage = errors.New("empty image")
