// Package imaging shrinks picked images before upload: fit within the
// configured box, re-encode as JPEG and lower quality until the target
// size is met.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"

	"github.com/imgr-dev/imgr/shared/config"
	"golang.org/x/image/draw"
)

const (
	qualityStep  = 10
	qualityFloor = 30
	// decoded RGBA bytes allowed before refusing to decode
	maxDecodedBytes = 256 << 20
)

var ErrTooLarge = errors.New("image dimensions too large")

type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
	TargetKB  int64
}

func OptionsFromConfig(cfg config.Image) Options {
	return Options{MaxWidth: cfg.MaxWidth, MaxHeight: cfg.MaxHeight, Quality: cfg.Quality, TargetKB: cfg.TargetKB}
}

// Result is the compressed JPEG plus what was done to produce it.
type Result struct {
	Data    []byte
	Width   int
	Height  int
	Quality int
}

func (r Result) SizeKB() int64 {
	return int64(len(r.Data)) / 1024
}

// Compress decodes a JPEG or PNG, scales it down to fit the box and encodes
// JPEG at decreasing quality until it fits TargetKB. When even the quality
// floor is too large, the floor encoding is returned.
func Compress(data []byte, opts Options) (Result, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read image dimensions: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height)*4 > maxDecodedBytes {
		return Result{}, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode image: %w", err)
	}

	scaled := fit(flatten(src), opts.MaxWidth, opts.MaxHeight)
	bounds := scaled.Bounds()
	target := opts.TargetKB * 1024

	quality := opts.Quality
	var buf bytes.Buffer
	for {
		buf.Reset()
		if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: quality}); err != nil {
			return Result{}, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		if int64(buf.Len()) <= target || quality-qualityStep < qualityFloor {
			break
		}
		quality -= qualityStep
	}

	return Result{
		Data:    append([]byte(nil), buf.Bytes()...),
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Quality: quality,
	}, nil
}

// FitSize returns the largest size with the same aspect ratio that fits in
// maxW x maxH. Images already inside the box keep their size.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))
	return nw, nh
}

func fit(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), maxW, maxH)
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// flatten paints transparent PNGs onto white; JPEG has no alpha channel.
func flatten(src image.Image) image.Image {
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}
