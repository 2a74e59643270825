package surface

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/library"
)

// TrendChart builds a line chart of an explorer report with the criterion's
// bounds drawn as dashed mark lines.
func TrendChart(rep *explore.Report) *charts.Line {
	c := rep.Criterion()

	xAxis := make([]string, 0, len(rep.Rows))
	yData := make([]opts.LineData, 0, len(rep.Rows))
	for i, v := range rep.ChartValues() {
		xAxis = append(xAxis, fmt.Sprintf("#%d", i+1))
		yData = append(yData, opts.LineData{Value: v})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: rep.Title,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    rep.Title,
			Subtitle: string(rep.Outcome.Severity),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: rep.YLabel,
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			ShowSymbol: opts.Bool(true),
		}),
	}

	// Bounds are in percent; they only apply when the plot is too.
	if c.Mode != library.ModePercentageChange || rep.Percent {
		if items := boundLines(c.Bounds); len(items) > 0 {
			seriesOpts = append(seriesOpts, func(s *charts.SingleSeries) {
				s.MarkLines = &opts.MarkLines{
					Data: items,
					MarkLineStyle: opts.MarkLineStyle{
						Symbol: []string{"none", "none"},
						LineStyle: &opts.LineStyle{
							Color: "rgba(128, 128, 128, 0.6)",
							Type:  "dashed",
							Width: 1.5,
						},
					},
				}
			})
		}
	}

	line.SetXAxis(xAxis).
		AddSeries(c.Label, yData).
		SetSeriesOptions(seriesOpts...)
	return line
}

func boundLines(b library.Bounds) []interface{} {
	var items []interface{}
	add := func(name string, v *float64) {
		if v != nil {
			items = append(items, opts.MarkLineNameYAxisItem{Name: name, YAxis: *v})
		}
	}
	add("Minimum", b.Minimum)
	add("Investigate below", b.InvestigateBelow)
	add("Investigate above", b.InvestigateAbove)
	add("Maximum", b.Maximum)
	return items
}

// RenderChart writes the trend chart as a standalone HTML page.
func RenderChart(w io.Writer, rep *explore.Report) error {
	if err := TrendChart(rep).Render(w); err != nil {
		return fmt.Errorf("rendering chart for %s: %w", rep.CriterionID, err)
	}
	return nil
}

// ChartHTML renders the trend chart to memory.
func ChartHTML(rep *explore.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderChart(&buf, rep); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
