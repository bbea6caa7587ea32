package planning

import (
	"encoding/json"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// PlacementRequest asks the service to perturb one click.
type PlacementRequest struct {
	X   float64
	Y   float64
	FLE models.FLEParameters
}

// MarshalJSON emits the positional array the service reads:
// [x, y, moving_sd, fixed_sd, moving_sys, fixed_sys].
func (r PlacementRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.X, r.Y, r.FLE.MovingSD, r.FLE.FixedSD, r.FLE.MovingSystematic, r.FLE.FixedSystematic})
}

// Placement is the service's answer to a click. Moving and Fixed are only
// meaningful when Accepted is true.
type Placement struct {
	Accepted bool
	Moving   models.Point
	Fixed    models.Point
}

type placementResponse struct {
	Valid  bool          `json:"valid_fid"`
	Moving *models.Point `json:"moving_fid"`
	Fixed  *models.Point `json:"fixed_fid"`
}

// RegisterRequest carries the whole trial so far; the service registers
// from scratch on every call.
type RegisterRequest struct {
	Target    models.Point
	MovingEAV float64
	FixedEAV  float64
	Moving    []models.Point
	Fixed     []models.Point
}

// MarshalJSON emits [target, moving_eav, fixed_eav, moving_fids, fixed_fids].
func (r RegisterRequest) MarshalJSON() ([]byte, error) {
	moving := r.Moving
	if moving == nil {
		moving = []models.Point{}
	}
	fixed := r.Fixed
	if fixed == nil {
		fixed = []models.Point{}
	}
	return json.Marshal([]any{r.Target, r.MovingEAV, r.FixedEAV, moving, fixed})
}

type registerResponse struct {
	Success           bool          `json:"success"`
	TransformedTarget *models.Point `json:"transformed_target"`
	ActualTRE         float64       `json:"actual_tre"`
	FRE               float64       `json:"fre"`
	ExpectedTRE       float64       `json:"expected_tre"`
	ExpectedFRE       float64       `json:"expected_fre"`
	MeanFLE           float64       `json:"mean_fle"`
	FiducialCount     int           `json:"no_fids"`
}

// ScoreRequest describes one simulated ablation.
type ScoreRequest struct {
	Target          models.Point `json:"target"`
	EstimatedTarget models.Point `json:"est_target"`
	TargetRadius    float64      `json:"target_radius"`
	Margin          float64      `json:"margin"`
}

type scoreResponse struct {
	Score *float64 `json:"score"`
}

type outlineResponse struct {
	Contour models.Outline `json:"contour"`
}

type targetResponse struct {
	Target *models.Point `json:"target"`
}

type correlationResponse struct {
	Success      bool         `json:"success"`
	Coefficients []float64    `json:"corr_coeffs"`
	Xs           [][2]float64 `json:"xs"`
	Ys           [][2]float64 `json:"ys"`
}

type initResponse struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
}

type trialRecordRequest struct {
	Reference string
	Result    models.TrialResult
}

// MarshalJSON emits [reference, actual_tre, fre, expected_tre,
// expected_fre, mean_fle, no_fids].
func (r trialRecordRequest) MarshalJSON() ([]byte, error) {
	res := r.Result
	return json.Marshal([]any{r.Reference, res.ActualTRE, res.FRE, res.ExpectedTRE, res.ExpectedFRE, res.MeanFLE, res.FiducialCount})
}

type gameRecordRequest struct {
	Reference             string  `json:"reference"`
	State                 string  `json:"state"`
	Score                 float64 `json:"score"`
	Margin                float64 `json:"margin"`
	RegistrationReference string  `json:"reg_reference"`
}
