// Package chart renders the dashboard and history charts with go-echarts.
// Each chart is a self-contained HTML fragment ready to drop into a page.
package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// MonthLabels are the x axis categories of the monthly chart.
var MonthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

const height = "350px"

// MonthlyBar renders twelve monthly totals as a bar chart.
func MonthlyBar(title string, year int, totals [12]int) (template.HTML, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: height}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d", year)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Glucose Test Results"}),
	)

	data := make([]opts.BarData, 0, len(totals))
	for _, v := range totals {
		data = append(data, opts.BarData{Value: v})
	}
	bar.SetXAxis(MonthLabels).AddSeries("Test Results", data)
	return render(bar)
}

// Point is one measurement on a history chart.
type Point struct {
	Label string
	Value float64
}

// History renders measurements as a line with min/max markers and the
// normal range drawn as dashed lines. An empty series renders nothing.
func History(title, unit string, points []Point, low, high float64) (template.HTML, error) {
	if len(points) == 0 {
		return "", nil
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: height}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{Name: unit}),
	)

	x := make([]string, 0, len(points))
	y := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		x = append(x, p.Label)
		y = append(y, opts.LineData{Value: p.Value})
	}

	line.SetXAxis(x).
		AddSeries(title, y).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(true)}),
			charts.WithMarkPointNameTypeItemOpts(
				opts.MarkPointNameTypeItem{Name: "Max", Type: "max"},
				opts.MarkPointNameTypeItem{Name: "Min", Type: "min"},
			),
			func(s *charts.SingleSeries) {
				s.MarkLines = &opts.MarkLines{
					Data: []interface{}{
						opts.MarkLineNameYAxisItem{Name: "Low", YAxis: low},
						opts.MarkLineNameYAxisItem{Name: "High", YAxis: high},
					},
					MarkLineStyle: opts.MarkLineStyle{
						Symbol:    []string{"none", "none"},
						LineStyle: &opts.LineStyle{Color: "rgba(128, 128, 128, 0.6)", Type: "dashed", Width: 1.5},
					},
				}
			},
		)
	return render(line)
}

func render(c interface{ Render(io.Writer) error }) (template.HTML, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}
	return template.HTML(buf.String()), nil
}
