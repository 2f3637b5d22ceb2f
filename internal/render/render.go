// Package render flattens a captured photo and a frame overlay into a
// single JPEG artifact on a fixed output canvas.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"photobooth/internal/capture"
	"photobooth/internal/frames"
)

// ErrRenderFailed means no artifact could be produced. Retryable with
// the same inputs.
var ErrRenderFailed = errors.New("render failed")

// Artifact is the flattened, encoded composite. It is regenerated on
// demand, never cached.
type Artifact struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Renderer draws onto a fixed canvas. Every artifact it produces has
// exactly Width x Height pixels regardless of the source dimensions.
type Renderer struct {
	Width   int
	Height  int
	Quality int
}

// New returns a renderer with the booth's portrait canvas defaults.
func New(width, height, quality int) *Renderer {
	if width <= 0 || height <= 0 {
		width, height = 750, 1200
	}
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &Renderer{Width: width, Height: height, Quality: quality}
}

// Render composites photo under frame and encodes the result. A nil
// frame yields the photo alone, cover-scaled and re-encoded to the
// same canvas.
func (r *Renderer) Render(photo *capture.Image, frame *frames.Frame) (*Artifact, error) {
	if photo == nil || photo.Pixels == nil {
		return nil, fmt.Errorf("%w: no captured image", ErrRenderFailed)
	}
	src := photo.Pixels
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty captured image", ErrRenderFailed)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.CatmullRom.Scale(canvas, canvas.Bounds(), src, coverCrop(src.Bounds(), r.Width, r.Height), draw.Src, nil)

	if frame != nil {
		overlay, err := frame.Overlay()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
		// Overlay assets are authored for the canvas aspect; stretch
		// them edge to edge and let alpha do the rest.
		draw.CatmullRom.Scale(canvas, canvas.Bounds(), overlay, overlay.Bounds(), draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: r.Quality}); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrRenderFailed, err)
	}
	return &Artifact{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  r.Width,
		Height: r.Height,
	}, nil
}

// coverCrop returns the centered sub-rectangle of src whose aspect
// ratio matches outW:outH, so scaling fills the canvas without
// letterboxing (the "cover" fit).
func coverCrop(src image.Rectangle, outW, outH int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	// compare sw/sh with outW/outH using cross multiplication
	if sw*outH > outW*sh {
		// source is wider: crop left and right
		cw := sh * outW / outH
		x0 := src.Min.X + (sw-cw)/2
		return image.Rect(x0, src.Min.Y, x0+cw, src.Max.Y)
	}
	// source is taller or equal: crop top and bottom
	ch := sw * outH / outW
	y0 := src.Min.Y + (sh-ch)/2
	return image.Rect(src.Min.X, y0, src.Max.X, y0+ch)
}
