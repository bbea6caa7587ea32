package models

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed display.yaml
var defaultDisplayYAML []byte

// DisplayFilter lists the metric boxes one trial configuration reveals.
type DisplayFilter struct {
	Config TrialConfig   `yaml:"config"`
	Fields []MetricField `yaml:"fields"`
}

// DisplayFilters maps every game configuration to its visible fields.
type DisplayFilters struct {
	Filters []DisplayFilter `yaml:"filters"`
}

// LoadDisplayFilters reads a filters file, falling back to the embedded
// defaults when path is empty.
func LoadDisplayFilters(path string) (*DisplayFilters, error) {
	data := defaultDisplayYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read display filters: %w", err)
		}
	}
	return ParseDisplayFilters(data)
}

// ParseDisplayFilters decodes and validates filter YAML.
func ParseDisplayFilters(data []byte) (*DisplayFilters, error) {
	var filters DisplayFilters
	if err := yaml.Unmarshal(data, &filters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal display filters: %w", err)
	}
	seen := make(map[TrialConfig]bool, len(filters.Filters))
	for _, f := range filters.Filters {
		if f.Config == TrialConfigNone {
			return nil, fmt.Errorf("display filter without a trial config")
		}
		for _, field := range f.Fields {
			if !field.valid() {
				return nil, fmt.Errorf("display filter %s: unknown field %q", f.Config.Key(), field)
			}
		}
		seen[f.Config] = true
	}
	for _, c := range TrialConfigs {
		if !seen[c] {
			return nil, fmt.Errorf("display filters: missing config %s", c.Key())
		}
	}
	return &filters, nil
}

// Visible returns the fields shown for a configuration. With no active
// configuration (interactive mode) every field is shown.
func (d *DisplayFilters) Visible(c TrialConfig) []MetricField {
	if c == TrialConfigNone || d == nil {
		return MetricFields
	}
	for _, f := range d.Filters {
		if f.Config == c {
			return f.Fields
		}
	}
	return nil
}
