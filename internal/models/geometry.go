package models

import (
	"encoding/json"
	"fmt"
)

// Point is a 2D position in surface pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// MarshalJSON encodes the point as the 3-vector the planning service expects.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{p.X, p.Y, 0})
}

// UnmarshalJSON accepts any nesting of numeric arrays ([x,y], [x,y,z],
// [[x,y,z]] or a column vector [[x],[y],[z]]) and keeps the first two values.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	var flat []float64
	if err := flatten(raw, &flat); err != nil {
		return err
	}
	if len(flat) < 2 {
		return fmt.Errorf("point: need at least 2 coordinates, got %d", len(flat))
	}
	p.X, p.Y = flat[0], flat[1]
	return nil
}

func flatten(v any, out *[]float64) error {
	switch t := v.(type) {
	case float64:
		*out = append(*out, t)
	case []any:
		for _, item := range t {
			if err := flatten(item, out); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("point: unexpected element %T", v)
	}
	return nil
}

// Outline is the organ boundary polyline, in the order the service returned it.
type Outline []Point

// Vector3 is a per-axis triple (x, y, z).
type Vector3 [3]float64

// FLEParameters holds one trial's simulated fiducial localisation error.
// Systematic offsets decode to the zero vector when the service omits them.
type FLEParameters struct {
	MovingSD         Vector3 `json:"moving_fle_sd"`
	FixedSD          Vector3 `json:"fixed_fle_sd"`
	MovingEAV        float64 `json:"moving_fle_eav"`
	FixedEAV         float64 `json:"fixed_fle_eav"`
	MovingSystematic Vector3 `json:"moving_fle_sys"`
	FixedSystematic  Vector3 `json:"fixed_fle_sys"`
}

// FiducialPair is one accepted placement after the service perturbed it.
type FiducialPair struct {
	Moving Point
	Fixed  Point
}
