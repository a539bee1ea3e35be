package render

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// Thumbnailer turns the first page of a PDF into a width-bounded PNG
type Thumbnailer struct {
	rasterizer Rasterizer
	maxWidth   int
}

// NewThumbnailer creates a thumbnailer on top of a rasterizer
func NewThumbnailer(rasterizer Rasterizer, maxWidth int) *Thumbnailer {
	return &Thumbnailer{rasterizer: rasterizer, maxWidth: maxWidth}
}

// Thumbnail renders pdfPath and writes the PNG encoding to w
func (t *Thumbnailer) Thumbnail(ctx context.Context, pdfPath string, w io.Writer) error {
	start := time.Now()

	img, err := t.rasterizer.RenderFirstPage(ctx, pdfPath)
	if err != nil {
		return err
	}

	thumb := resizeToMaxWidth(img, t.maxWidth)
	if err := png.Encode(w, thumb); err != nil {
		return fmt.Errorf("encode png thumbnail: %w", err)
	}

	log.Debug().
		Str("path", pdfPath).
		Int("width", thumb.Bounds().Dx()).
		Int("height", thumb.Bounds().Dy()).
		Dur("duration", time.Since(start)).
		Msg("thumbnail rendered")
	return nil
}

// resizeToMaxWidth scales an image so its width is at most maxWidth pixels,
// preserving aspect ratio. If the image is already smaller it is returned as-is.
func resizeToMaxWidth(src image.Image, maxWidth int) image.Image {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	if maxWidth <= 0 || srcW <= maxWidth {
		return src
	}

	newW := maxWidth
	newH := srcH * maxWidth / srcW
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
