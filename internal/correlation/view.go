// Package correlation compares every tracked metric against actual TRE
// across all registrations of the session.
package correlation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// MinResults is the fewest results worth correlating.
const MinResults = 4

// ErrInsufficientData is returned by Enter when there are too few results;
// no request is made.
var ErrInsufficientData = errors.New("correlation: not enough results")

// Correlator computes a correlation summary for a results snapshot.
type Correlator interface {
	Correlate(ctx context.Context, snapshot []models.TrialResult) (models.CorrelationSummary, error)
}

// View holds the latest summary and the snapshot it was computed from.
type View struct {
	log    *zap.Logger
	client Correlator

	ready    bool
	snapshot []models.TrialResult
	summary  models.CorrelationSummary
}

func NewView(log *zap.Logger, client Correlator) *View {
	return &View{log: log.Named("correlation"), client: client}
}

// Enter requests a fresh summary for snapshot. Any previous summary is
// dropped first, so a failed request leaves nothing to show.
func (v *View) Enter(ctx context.Context, snapshot []models.TrialResult) (models.CorrelationSummary, error) {
	v.ready = false
	v.snapshot = nil
	v.summary = models.CorrelationSummary{}

	if len(snapshot) < MinResults {
		return models.CorrelationSummary{}, ErrInsufficientData
	}
	summary, err := v.client.Correlate(ctx, snapshot)
	if err != nil {
		return models.CorrelationSummary{}, fmt.Errorf("correlate: %w", err)
	}
	if !summary.Success {
		v.log.Warn("Correlation reported degenerate fits", zap.Int("results", len(snapshot)))
	}

	v.ready = true
	v.snapshot = append([]models.TrialResult(nil), snapshot...)
	v.summary = summary
	return summary, nil
}

// Ready reports whether a summary is available.
func (v *View) Ready() bool { return v.ready }

func (v *View) Summary() models.CorrelationSummary { return v.summary }

// Charts builds one chart per metric. Charts are rebuilt on every call.
func (v *View) Charts() []*charts.Scatter {
	if !v.ready {
		return nil
	}
	out := make([]*charts.Scatter, 0, len(models.CorrelationMetrics))
	for i, metric := range models.CorrelationMetrics {
		var coeff float64
		if i < len(v.summary.Coefficients) {
			coeff = v.summary.Coefficients[i]
		}
		var fit *models.FitLine
		if i < len(v.summary.Fits) {
			fit = &v.summary.Fits[i]
		}
		out = append(out, metricChart(metric, i+1, coeff, fit, v.snapshot))
	}
	return out
}

// Render writes all charts as one HTML page.
func (v *View) Render(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = "Correlation with actual TRE"
	page.SetLayout(components.PageFlexLayout)
	for _, c := range v.Charts() {
		page.AddCharts(c)
	}
	return page.Render(w)
}

// OptionsJSON returns the chart options as a JSON array, one entry per
// metric, for a front end that draws the charts itself.
func (v *View) OptionsJSON() ([]byte, error) {
	built := v.Charts()
	options := make([]map[string]interface{}, 0, len(built))
	for _, c := range built {
		c.Validate()
		options = append(options, c.JSON())
	}
	return json.Marshal(options)
}
