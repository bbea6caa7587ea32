package models

// TrialResult is the outcome of one successful registration. Field order
// matches the export columns and the rows sent for correlation.
type TrialResult struct {
	ActualTRE     float64 `json:"actual_tre"`
	FRE           float64 `json:"fre"`
	ExpectedTRE   float64 `json:"expected_tre"`
	ExpectedFRE   float64 `json:"expected_fre"`
	MeanFLE       float64 `json:"mean_fle"`
	FiducialCount int     `json:"no_fids"`
}

// Row returns the result as a numeric row, actual TRE first.
func (r TrialResult) Row() []float64 {
	return []float64{r.ActualTRE, r.FRE, r.ExpectedTRE, r.ExpectedFRE, r.MeanFLE, float64(r.FiducialCount)}
}

// Registration is what the service returned for the latest registration.
type Registration struct {
	Success           bool
	TransformedTarget Point
	Result            TrialResult
}

// CorrelationMetric is one metric compared against actual TRE.
type CorrelationMetric struct {
	Key   string
	Label string
}

// CorrelationMetrics lists the tracked metrics in service column order.
var CorrelationMetrics = []CorrelationMetric{
	{Key: "fre", Label: "Fiducial Registration Error"},
	{Key: "expected_tre", Label: "Expected Target Registration Error"},
	{Key: "expected_fre", Label: "Expected Fiducial Registration Error"},
	{Key: "mean_fle", Label: "Mean Fiducial Localisation Error"},
	{Key: "no_fids", Label: "Number of Fiducials"},
}

// FitLine is a two-point sample of a best-fit line.
type FitLine struct {
	X [2]float64
	Y [2]float64
}

// CorrelationSummary is the service's cross-trial analysis of a results snapshot.
type CorrelationSummary struct {
	Success      bool
	Coefficients []float64
	Fits         []FitLine
}
