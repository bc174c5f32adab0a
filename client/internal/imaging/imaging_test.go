package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noisyImage(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func defaultOptions() Options {
	return Options{MaxWidth: 1024, MaxHeight: 1024, Quality: 80, TargetKB: 500}
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, wantW, wantH int
	}{
		{800, 600, 800, 600},
		{2048, 1024, 1024, 512},
		{1000, 4000, 256, 1024},
		{1024, 1024, 1024, 1024},
		{5000, 1, 1024, 1},
	}
	for _, tt := range tests {
		w, h := FitSize(tt.w, tt.h, 1024, 1024)
		assert.Equal(t, tt.wantW, w, "%dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, h, "%dx%d", tt.w, tt.h)
	}
}

func TestCompress_Downscales(t *testing.T) {
	res, err := Compress(encodePNG(t, noisyImage(2048, 1024)), defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1024, res.Width)
	assert.Equal(t, 512, res.Height)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1024, cfg.Width)
}

func TestCompress_StepsQualityDown(t *testing.T) {
	opts := defaultOptions()
	opts.TargetKB = 1

	res, err := Compress(encodePNG(t, noisyImage(300, 300)), opts)
	require.NoError(t, err)
	assert.Equal(t, qualityFloor, res.Quality, "noise never fits 1KB so the floor is used")
}

func TestCompress_MeetsTarget(t *testing.T) {
	flat := image.NewRGBA(image.Rect(0, 0, 1500, 1500))
	for i := range flat.Pix {
		flat.Pix[i] = 200
	}
	var src bytes.Buffer
	require.NoError(t, jpeg.Encode(&src, flat, &jpeg.Options{Quality: 100}))

	res, err := Compress(src.Bytes(), defaultOptions())
	require.NoError(t, err)
	assert.LessOrEqual(t, res.SizeKB(), int64(500))
	assert.Equal(t, 80, res.Quality)
	assert.Equal(t, 1024, res.Width)
}

func TestCompress_FlattensTransparency(t *testing.T) {
	transparent := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	transparent.Set(0, 0, color.NRGBA{A: 0})

	res, err := Compress(encodePNG(t, transparent), defaultOptions())
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(5, 5).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestCompress_InvalidInput(t *testing.T) {
	_, err := Compress([]byte("definitely not an image"), defaultOptions())
	assert.Error(t, err)
}
