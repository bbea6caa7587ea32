package render

import (
	"image/color"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// Op is one recorded drawing call.
type Op struct {
	Kind   string
	Points []models.Point
	Radius float64
	Color  color.Color
}

// Recorder is a Surface that remembers what was drawn since the last Clear.
// Tests use it in place of a Canvas.
type Recorder struct {
	Ops    []Op
	Clears int
}

func (r *Recorder) Clear() {
	r.Ops = nil
	r.Clears++
}

func (r *Recorder) DrawOutline(outline models.Outline, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: "outline", Points: append([]models.Point(nil), outline...), Color: c})
}

func (r *Recorder) DrawMarker(p models.Point, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: "marker", Points: []models.Point{p}, Color: c})
}

func (r *Recorder) DrawCross(p models.Point, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: "cross", Points: []models.Point{p}, Color: c})
}

func (r *Recorder) DrawTarget(p models.Point, radius float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: "target", Points: []models.Point{p}, Radius: radius, Color: c})
}

// Count returns how many ops of a kind were recorded.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}
