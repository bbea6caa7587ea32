package correlation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/planning/planningtest"
)

func results(n int) []models.TrialResult {
	out := make([]models.TrialResult, n)
	for i := range out {
		out[i] = models.TrialResult{
			ActualTRE:     float64(i + 1),
			FRE:           float64(i) / 2,
			ExpectedTRE:   float64(i),
			ExpectedFRE:   1,
			MeanFLE:       2,
			FiducialCount: i + 3,
		}
	}
	return out
}

func summary() models.CorrelationSummary {
	s := models.CorrelationSummary{Success: true}
	for i := range models.CorrelationMetrics {
		s.Coefficients = append(s.Coefficients, 0.5-float64(i)*0.25)
		s.Fits = append(s.Fits, models.FitLine{X: [2]float64{0, 10}, Y: [2]float64{1, float64(i)}})
	}
	return s
}

func TestEnterBelowThresholdMakesNoRequest(t *testing.T) {
	fake := planningtest.NewFake()
	v := NewView(zap.NewNop(), fake)
	for n := 0; n < MinResults; n++ {
		_, err := v.Enter(context.Background(), results(n))
		require.ErrorIs(t, err, ErrInsufficientData)
	}
	require.Empty(t, fake.Correlations)
	require.False(t, v.Ready())
	require.Nil(t, v.Charts())
}

func TestEnterSubmitsSnapshot(t *testing.T) {
	fake := planningtest.NewFake()
	fake.Summary = summary()
	v := NewView(zap.NewNop(), fake)

	snap := results(MinResults)
	got, err := v.Enter(context.Background(), snap)
	require.NoError(t, err)
	require.Equal(t, fake.Summary, got)
	require.True(t, v.Ready())
	require.Len(t, fake.Correlations, 1)
	require.Equal(t, snap, fake.Correlations[0])
}

func TestEnterFailureClearsSummary(t *testing.T) {
	fake := planningtest.NewFake()
	fake.Summary = summary()
	v := NewView(zap.NewNop(), fake)
	_, err := v.Enter(context.Background(), results(5))
	require.NoError(t, err)

	boom := errors.New("down")
	fake.Fail("correlate", boom)
	_, err = v.Enter(context.Background(), results(6))
	require.ErrorIs(t, err, boom)
	require.False(t, v.Ready())
}

func TestChartsAndOptions(t *testing.T) {
	fake := planningtest.NewFake()
	fake.Summary = summary()
	v := NewView(zap.NewNop(), fake)
	_, err := v.Enter(context.Background(), results(5))
	require.NoError(t, err)

	require.Len(t, v.Charts(), len(models.CorrelationMetrics))

	raw, err := v.OptionsJSON()
	require.NoError(t, err)
	var options []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &options))
	require.Len(t, options, len(models.CorrelationMetrics))

	text := string(raw)
	require.Contains(t, text, "Correlation coefficient = 0.500")
	require.Contains(t, text, "Correlation coefficient = -0.500")
	require.Contains(t, text, "Number of Fiducials")

	series, ok := options[0]["series"].([]interface{})
	require.True(t, ok)
	require.Len(t, series, 2)
}

func TestDegenerateSummaryStillRenders(t *testing.T) {
	fake := planningtest.NewFake()
	fake.Summary = models.CorrelationSummary{
		Success:      false,
		Coefficients: make([]float64, len(models.CorrelationMetrics)),
		Fits:         make([]models.FitLine, len(models.CorrelationMetrics)),
	}
	v := NewView(zap.NewNop(), fake)
	got, err := v.Enter(context.Background(), results(4))
	require.NoError(t, err)
	require.False(t, got.Success)
	require.True(t, v.Ready())

	var buf bytes.Buffer
	require.NoError(t, v.Render(&buf))
	require.True(t, strings.Contains(buf.String(), "<html"))
}
