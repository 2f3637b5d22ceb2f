package session

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobooth/internal/capture"
	"photobooth/internal/render"
)

func testPhoto() *capture.Image {
	img := image.NewRGBA(image.Rect(0, 0, 20, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 20; x++ {
			img.SetRGBA(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	return &capture.Image{Pixels: img, Device: "test", Taken: time.Now()}
}

func TestSession_FlowOrderEnforced(t *testing.T) {
	s := New()
	r := render.New(20, 32, 90)

	t.Run("capture before selection", func(t *testing.T) {
		err := s.AttachPhoto(testPhoto())
		assert.ErrorIs(t, err, ErrNoFrameSelection)
	})
	t.Run("composite before selection", func(t *testing.T) {
		_, err := s.Composite(r)
		assert.ErrorIs(t, err, ErrNoFrameSelection)
	})
	t.Run("composite before capture", func(t *testing.T) {
		s.SelectFrame(nil)
		_, err := s.Composite(r)
		assert.ErrorIs(t, err, ErrNoPhoto)
	})
	t.Run("full order succeeds", func(t *testing.T) {
		s.SelectFrame(nil)
		require.NoError(t, s.AttachPhoto(testPhoto()))
		a, err := s.Composite(r)
		require.NoError(t, err)
		assert.Equal(t, 20, a.Width)
		assert.Equal(t, 32, a.Height)
	})
}

func TestSession_NewCaptureSupersedes(t *testing.T) {
	s := New()
	s.SelectFrame(nil)

	first := testPhoto()
	second := testPhoto()
	require.NoError(t, s.AttachPhoto(first))
	require.NoError(t, s.AttachPhoto(second))
	assert.Same(t, second, s.Photo())
}

func TestSession_ReselectingFrameRestartsFlow(t *testing.T) {
	s := New()
	s.SelectFrame(nil)
	require.NoError(t, s.AttachPhoto(testPhoto()))

	s.SelectFrame(nil)
	assert.Nil(t, s.Photo(), "a new selection drops the stale capture")
}

func TestSession_Reset(t *testing.T) {
	s := New()
	s.SelectFrame(nil)
	require.NoError(t, s.AttachPhoto(testPhoto()))

	s.Reset()
	assert.ErrorIs(t, s.AttachPhoto(testPhoto()), ErrNoFrameSelection)
}
