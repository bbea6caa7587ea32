package correlation

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// maxTRE fixes the y axis so charts are comparable between visits.
const maxTRE = 20

// metricChart plots actual TRE against the metric in column col of each
// result row and overlays the fitted line.
func metricChart(metric models.CorrelationMetric, col int, coeff float64, fit *models.FitLine, snapshot []models.TrialResult) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Correlation coefficient = %.3f", coeff),
			Subtitle: metric.Label,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:  "value",
			Name:  metric.Label,
			Scale: opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Name: "Actual TRE",
			Min:  0,
			Max:  maxTRE,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	items := make([]opts.ScatterData, 0, len(snapshot))
	for _, r := range snapshot {
		row := r.Row()
		items = append(items, opts.ScatterData{Value: []interface{}{row[col], row[0]}})
	}
	scatter.AddSeries(metric.Label, items)

	if fit != nil {
		line := charts.NewLine()
		line.AddSeries("Best fit", []opts.LineData{
			{Value: []interface{}{fit.X[0], fit.Y[0]}},
			{Value: []interface{}{fit.X[1], fit.Y[1]}},
		}).SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
		scatter.Overlap(line)
	}
	return scatter
}
