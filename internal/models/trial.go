package models

import "fmt"

// TrialConfig selects which metrics a game trial shows. It never changes
// which metrics are computed or stored.
type TrialConfig int

const (
	TrialConfigNone TrialConfig = iota
	ActualTRE
	FLEAndFiducials
	ExpectedFRE
	ExpectedTRE
	ActualFRE
)

// TrialConfigs lists the game configurations; the first is the baseline.
var TrialConfigs = []TrialConfig{ActualTRE, FLEAndFiducials, ExpectedFRE, ExpectedTRE, ActualFRE}

var trialConfigLabels = map[TrialConfig]string{
	TrialConfigNone: "None",
	ActualTRE:       "Actual TRE",
	FLEAndFiducials: "FLE and no fids",
	ExpectedFRE:     "Expected FRE",
	ExpectedTRE:     "Expected TRE",
	ActualFRE:       "Actual FRE",
}

var trialConfigKeys = map[TrialConfig]string{
	TrialConfigNone: "none",
	ActualTRE:       "actual_tre",
	FLEAndFiducials: "fle_and_fids",
	ExpectedFRE:     "expected_fre",
	ExpectedTRE:     "expected_tre",
	ActualFRE:       "actual_fre",
}

// String returns the label shown to players and written to audit records.
func (c TrialConfig) String() string {
	if label, ok := trialConfigLabels[c]; ok {
		return label
	}
	return fmt.Sprintf("TrialConfig(%d)", int(c))
}

// Key returns the stable identifier used in config files and JSON.
func (c TrialConfig) Key() string {
	return trialConfigKeys[c]
}

// ParseTrialConfig maps a key back to its configuration.
func ParseTrialConfig(key string) (TrialConfig, error) {
	for c, k := range trialConfigKeys {
		if k == key {
			return c, nil
		}
	}
	return TrialConfigNone, fmt.Errorf("unknown trial config %q", key)
}

func (c TrialConfig) MarshalText() ([]byte, error) {
	return []byte(c.Key()), nil
}

func (c *TrialConfig) UnmarshalText(text []byte) error {
	parsed, err := ParseTrialConfig(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MetricField is one of the on-screen metric boxes.
type MetricField string

const (
	FieldFiducialCount MetricField = "no_fids"
	FieldActualTRE     MetricField = "actual_tre"
	FieldMeanFLE       MetricField = "mean_fle"
	FieldExpectedTRE   MetricField = "expected_tre"
	FieldExpectedFRE   MetricField = "expected_fre"
	FieldActualFRE     MetricField = "fre"
)

// MetricFields lists every metric box in display order.
var MetricFields = []MetricField{
	FieldFiducialCount,
	FieldActualTRE,
	FieldMeanFLE,
	FieldExpectedTRE,
	FieldExpectedFRE,
	FieldActualFRE,
}

func (f MetricField) valid() bool {
	for _, known := range MetricFields {
		if f == known {
			return true
		}
	}
	return false
}

// Value picks the field's value out of a result.
func (f MetricField) Value(r TrialResult) float64 {
	switch f {
	case FieldFiducialCount:
		return float64(r.FiducialCount)
	case FieldActualTRE:
		return r.ActualTRE
	case FieldMeanFLE:
		return r.MeanFLE
	case FieldExpectedTRE:
		return r.ExpectedTRE
	case FieldExpectedFRE:
		return r.ExpectedFRE
	case FieldActualFRE:
		return r.FRE
	}
	return 0
}
