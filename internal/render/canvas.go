package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/HugoSmits86/nativewebp"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// Surface is what the registration workflow draws on.
type Surface interface {
	Clear()
	DrawOutline(outline models.Outline, c color.Color)
	DrawMarker(p models.Point, c color.Color)
	DrawCross(p models.Point, c color.Color)
	DrawTarget(p models.Point, radius float64, c color.Color)
}

// Canvas is an in-memory raster Surface.
type Canvas struct {
	img   *image.RGBA
	scale float64
}

// NewCanvas allocates a white canvas for a width x height surface drawn at
// the given scale.
func NewCanvas(width, height int, scale float64) *Canvas {
	c := &Canvas{
		img:   image.NewRGBA(image.Rect(0, 0, int(float64(width)*scale), int(float64(height)*scale))),
		scale: scale,
	}
	c.Clear()
	return c
}

// Clear resets the canvas to white.
func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.White, image.Point{}, draw.Src)
}

func (c *Canvas) DrawOutline(outline models.Outline, col color.Color) {
	Outline(c.img, outline, c.scale, col)
}

func (c *Canvas) DrawMarker(p models.Point, col color.Color) {
	Marker(c.img, p, c.scale, col)
}

func (c *Canvas) DrawCross(p models.Point, col color.Color) {
	Cross(c.img, p, c.scale, col)
}

func (c *Canvas) DrawTarget(p models.Point, radius float64, col color.Color) {
	TargetDisc(c.img, p, radius, c.scale, col)
}

// Image exposes the backing raster.
func (c *Canvas) Image() image.Image {
	return c.img
}

// EncodeWebP writes the canvas as a lossless WebP image.
func (c *Canvas) EncodeWebP(w io.Writer) error {
	if err := nativewebp.Encode(w, c.img, nil); err != nil {
		return fmt.Errorf("encode surface: %w", err)
	}
	return nil
}

// RowMajor adapts a Surface to outlines given as (row, column) pairs by
// swapping each outline point's axes before drawing. Other drawing calls
// pass through unchanged.
type RowMajor struct {
	Surface
}

func (r RowMajor) DrawOutline(outline models.Outline, c color.Color) {
	swapped := make(models.Outline, len(outline))
	for i, p := range outline {
		swapped[i] = models.Point{X: p.Y, Y: p.X}
	}
	r.Surface.DrawOutline(swapped, c)
}
