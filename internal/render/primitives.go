// Package render draws the registration surfaces. The primitives are plain
// functions over a draw.Image; all sizes are in surface pixels and are
// multiplied by the caller's scale factor.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

const (
	markerHalfSize = 3.0
	crossHalfSize  = 5.0
	strokeWidth    = 1.5
	discSegments   = 48
)

// Palette used by the registration workflow.
var (
	OutlineColor  = color.RGBA{R: 0xd0, G: 0x10, B: 0x10, A: 0xff}
	MovingColor   = color.RGBA{R: 0x12, G: 0x5a, B: 0xde, A: 0xff}
	FixedColor    = color.RGBA{R: 0x10, G: 0x9a, B: 0x3c, A: 0xff}
	ClickColor    = color.RGBA{A: 0xff}
	TargetColor   = color.RGBA{R: 0xf0, G: 0xa0, B: 0x00, A: 0xc0}
	EstimateColor = color.RGBA{R: 0x80, G: 0x20, B: 0xa0, A: 0xa0}
)

func scaled(p models.Point, scale float64) (float32, float32) {
	return float32(p.X * scale), float32(p.Y * scale)
}

func fill(dst draw.Image, z *vector.Rasterizer, c color.Color) {
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

func newRasterizer(dst draw.Image) *vector.Rasterizer {
	b := dst.Bounds()
	return vector.NewRasterizer(b.Dx(), b.Dy())
}

// segment adds a filled quad of the given width from a to b.
func segment(z *vector.Rasterizer, ax, ay, bx, by, width float32) {
	dx, dy := bx-ax, by-ay
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	z.MoveTo(ax+nx, ay+ny)
	z.LineTo(bx+nx, by+ny)
	z.LineTo(bx-nx, by-ny)
	z.LineTo(ax-nx, ay-ny)
	z.ClosePath()
}

// Marker draws a filled square centred on p.
func Marker(dst draw.Image, p models.Point, scale float64, c color.Color) {
	z := newRasterizer(dst)
	x, y := scaled(p, scale)
	h := float32(markerHalfSize * scale)
	z.MoveTo(x-h, y-h)
	z.LineTo(x+h, y-h)
	z.LineTo(x+h, y+h)
	z.LineTo(x-h, y+h)
	z.ClosePath()
	fill(dst, z, c)
}

// Cross draws an upright plus sign centred on p.
func Cross(dst draw.Image, p models.Point, scale float64, c color.Color) {
	z := newRasterizer(dst)
	x, y := scaled(p, scale)
	h := float32(crossHalfSize * scale)
	w := float32(strokeWidth * scale)
	segment(z, x-h, y, x+h, y, w)
	segment(z, x, y-h, x, y+h, w)
	fill(dst, z, c)
}

// TargetDisc draws a filled disc of the given radius centred on p.
func TargetDisc(dst draw.Image, p models.Point, radius, scale float64, c color.Color) {
	if radius <= 0 {
		return
	}
	z := newRasterizer(dst)
	x, y := scaled(p, scale)
	r := radius * scale
	for i := 0; i <= discSegments; i++ {
		a := 2 * math.Pi * float64(i) / discSegments
		px := x + float32(r*math.Cos(a))
		py := y + float32(r*math.Sin(a))
		if i == 0 {
			z.MoveTo(px, py)
			continue
		}
		z.LineTo(px, py)
	}
	z.ClosePath()
	fill(dst, z, c)
}

// Outline strokes the polyline through pts, closing it back to the start.
func Outline(dst draw.Image, pts []models.Point, scale float64, c color.Color) {
	if len(pts) < 2 {
		return
	}
	z := newRasterizer(dst)
	w := float32(strokeWidth * scale)
	for i := range pts {
		ax, ay := scaled(pts[i], scale)
		bx, by := scaled(pts[(i+1)%len(pts)], scale)
		segment(z, ax, ay, bx, by, w)
	}
	fill(dst, z, c)
}
