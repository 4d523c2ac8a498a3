// Package charts renders simulation result history as interactive HTML
// charts.
package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kmorwood/drawsim-companion/internal/storage"
)

// ChartConfig holds presentation settings for rendered charts.
type ChartConfig struct {
	Title    string
	Subtitle string
	Width    string
	Height   string
	Smooth   bool
	Colors   []string
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Title:    "Simulation history",
		Subtitle: "Success and brick rates per recorded run",
		Width:    "900px",
		Height:   "500px",
		Smooth:   true,
		Colors:   []string{"#5470C6", "#EE6666"},
	}
}

// RenderSuccessRateHistory writes a line chart of success and brick rates
// over the recorded runs, oldest first.
func RenderSuccessRateHistory(records []*storage.ResultRecord, w io.Writer) error {
	return RenderSuccessRateHistoryWithConfig(records, DefaultChartConfig(), w)
}

// RenderSuccessRateHistoryWithConfig is RenderSuccessRateHistory with
// explicit presentation settings.
func RenderSuccessRateHistoryWithConfig(records []*storage.ResultRecord, config ChartConfig, w io.Writer) error {
	if len(records) == 0 {
		return fmt.Errorf("no results to chart")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Rate (%)",
		}),
		charts.WithColorsOpts(opts.Colors{config.Colors[0], config.Colors[1]}),
	)

	// Records arrive newest first; charts read better oldest first.
	labels := make([]string, len(records))
	success := make([]opts.LineData, len(records))
	brick := make([]opts.LineData, len(records))
	for i, record := range records {
		j := len(records) - 1 - i
		labels[j] = record.CreatedAt.Format("01-02 15:04:05")
		success[j] = opts.LineData{Value: record.SuccessRate}
		brick[j] = opts.LineData{Value: record.BrickRate}
	}

	line.SetXAxis(labels).
		AddSeries("Success rate", success).
		AddSeries("Brick rate", brick).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{
			Smooth: opts.Bool(config.Smooth),
		}))

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render line chart: %w", err)
	}
	return nil
}
