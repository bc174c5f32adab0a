package compose

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"sync"
	"testing"

	"github.com/imgr-dev/imgr/client/internal/state"
	"github.com/imgr-dev/imgr/shared/config"
	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/messages"
	"github.com/imgr-dev/imgr/shared/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockCreator struct {
	mu sync.Mutex

	CreateThreadFunc func(title, caption string, image []byte) (domain.Thread, error)
	Calls            int
	LastImage        []byte
}

func (m *MockCreator) CreateThread(_ context.Context, title, caption string, image []byte) (domain.Thread, error) {
	m.mu.Lock()
	m.Calls++
	m.LastImage = image
	m.mu.Unlock()
	if m.CreateThreadFunc == nil {
		return domain.Thread{Id: "t1", Title: title}, nil
	}
	return m.CreateThreadFunc(title, caption, image)
}

func newCompose(creator Creator) *Compose {
	defaults := config.Defaults()
	return New(creator, validation.New(defaults.Limits), defaults.Image)
}

func pngBytes(t *testing.T, w, h int, noisy bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r := rand.New(rand.NewSource(1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255}
			if noisy {
				c = color.RGBA{R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256)), A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCreateThread(t *testing.T) {
	creator := &MockCreator{}
	c := newCompose(creator)

	var ops []state.Status
	c.Subscribe(func(s Snapshot) { ops = append(ops, s.Status) })
	c.CreateThread(context.Background(), "hello", "caption", pngBytes(t, 64, 48, false))

	assert.Equal(t, []state.Status{state.Loading, state.Success}, ops)
	snap := c.State()
	require.NotNil(t, snap.Thread)
	assert.Equal(t, "t1", snap.Thread.Id)
	assert.Equal(t, 1, creator.Calls)
	assert.Equal(t, "image/jpeg", detectMime(creator.LastImage), "uploads are re-encoded as JPEG")

	c.Reset()
	assert.Equal(t, Snapshot{Op: state.OpIdle()}, c.State())
}

func TestCreateThreadPassesTextAsTyped(t *testing.T) {
	var gotTitle, gotCaption string
	creator := &MockCreator{CreateThreadFunc: func(title, caption string, _ []byte) (domain.Thread, error) {
		gotTitle, gotCaption = title, caption
		return domain.Thread{Id: "t1", Title: title}, nil
	}}
	c := newCompose(creator)

	c.CreateThread(context.Background(), "if a<b then c", "use <img> tag", pngBytes(t, 8, 8, false))

	assert.Equal(t, state.OpSuccess(), c.State().Op)
	assert.Equal(t, "if a<b then c", gotTitle)
	assert.Equal(t, "use <img> tag", gotCaption)
}

func TestCreateThreadIgnoresOverlappingSubmit(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	creator := &MockCreator{CreateThreadFunc: func(title, _ string, _ []byte) (domain.Thread, error) {
		if title == "first" {
			close(started)
			<-release
		}
		return domain.Thread{Id: "t1", Title: title}, nil
	}}
	c := newCompose(creator)
	image := pngBytes(t, 8, 8, false)

	done := make(chan struct{})
	go func() {
		c.CreateThread(context.Background(), "first", "", image)
		close(done)
	}()
	<-started
	assert.Equal(t, state.Loading, c.State().Status)

	c.CreateThread(context.Background(), "second", "", image)
	close(release)
	<-done

	assert.Equal(t, 1, creator.Calls)
	snap := c.State()
	assert.Equal(t, state.OpSuccess(), snap.Op)
	require.NotNil(t, snap.Thread)
	assert.Equal(t, "first", snap.Thread.Title)

	c.CreateThread(context.Background(), "third", "", image)
	assert.Equal(t, 2, creator.Calls, "a later submit runs once the first has finished")
}

func detectMime(data []byte) string {
	info, err := validation.DetectImage(data, []string{"image/jpeg", "image/png"})
	if err != nil {
		return ""
	}
	return info.MimeType
}

func TestCreateThreadValidation(t *testing.T) {
	img := []byte{}
	tests := []struct {
		name    string
		title   string
		caption string
		image   func(t *testing.T) []byte
		want    string
	}{
		{"short title", "ab", "", func(t *testing.T) []byte { return pngBytes(t, 8, 8, false) }, messages.TitleTooShort},
		{"blank title", "   ", "", func(t *testing.T) []byte { return pngBytes(t, 8, 8, false) }, messages.TitleEmpty},
		{"long caption", "hello", string(bytes.Repeat([]byte("x"), 501)), func(t *testing.T) []byte { return pngBytes(t, 8, 8, false) }, messages.CaptionTooLong(500)},
		{"no image", "hello", "", func(*testing.T) []byte { return img }, messages.ImageRequired},
		{"gif", "hello", "", func(*testing.T) []byte { return []byte("GIF89a\x01\x00\x01\x00") }, messages.ImageFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &MockCreator{}
			c := newCompose(creator)

			c.CreateThread(context.Background(), tt.title, tt.caption, tt.image(t))

			assert.Equal(t, state.OpError(tt.want), c.State().Op)
			assert.Nil(t, c.State().Thread)
			assert.Equal(t, 0, creator.Calls, "creator must not be called on invalid input")
		})
	}
}

func TestCreateThreadUndecodableImage(t *testing.T) {
	creator := &MockCreator{}
	c := newCompose(creator)

	// a PNG signature with a broken body sniffs as PNG but cannot be decoded
	broken := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	c.CreateThread(context.Background(), "hello", "", broken)

	assert.Equal(t, state.OpError(messages.ImageProcessFailed), c.State().Op)
	assert.Equal(t, 0, creator.Calls)
}

func TestCreateThreadBackendFailure(t *testing.T) {
	creator := &MockCreator{CreateThreadFunc: func(string, string, []byte) (domain.Thread, error) {
		return domain.Thread{}, internal_errors.NewAuth(messages.NotLoggedIn)
	}}
	c := newCompose(creator)

	c.CreateThread(context.Background(), "hello", "", pngBytes(t, 8, 8, false))
	assert.Equal(t, state.OpError("User belum login"), c.State().Op)
}

func TestInspectImage(t *testing.T) {
	c := newCompose(&MockCreator{})

	preview, err := c.InspectImage(pngBytes(t, 40, 30, false))
	require.NoError(t, err)
	assert.Equal(t, "PNG", preview.Format)
	assert.Equal(t, 40, preview.Width)
	assert.Equal(t, 30, preview.Height)
	assert.Empty(t, preview.Hint)

	c.image.CompressAboveKB = 1
	big := pngBytes(t, 256, 256, true)
	preview, err = c.InspectImage(big)
	require.NoError(t, err)
	assert.Equal(t, messages.ImageWillCompress(int64(len(big))/1024, 500), preview.Hint)

	_, err = c.InspectImage([]byte("plain text"))
	assert.True(t, internal_errors.Is[*internal_errors.ValidationError](err))
	assert.EqualError(t, err, messages.ImageFormat)
}
