package render

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/Armin-kho/gold-live-rates/internal/db"
)

const (
	colorGold       = "#d97706"
	colorBackground = "#fffbeb"
	colorText       = "#78350f"
)

// Chart writes a standalone HTML page with the gold rate line for the given points.
func Chart(w io.Writer, pts []db.Point, rangeLabel, title string) error {
	if title == "" {
		title = "Live Gold Rate"
	}
	xAxis := make([]string, 0, len(pts))
	data := make([]opts.LineData, 0, len(pts))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		xAxis = append(xAxis, p.Time)
		data = append(data, opts.LineData{Value: p.Rate})
		lo = math.Min(lo, p.Rate)
		hi = math.Max(hi, p.Rate)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       title,
			Theme:           types.ThemeWesteros,
			Width:           "100%",
			Height:          "420px",
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      title,
			Subtitle:   fmt.Sprintf("%s · last %d points", rangeLabel, len(pts)),
			TitleStyle: &opts.TextStyle{Color: colorText},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(yAxis(lo, hi)),
	)
	line.SetXAxis(xAxis).AddSeries("Gold", data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorGold, Width: 2}),
	)
	return line.Render(w)
}

// yAxis pads the value range by 5% so a flat line stays visible.
func yAxis(lo, hi float64) opts.YAxis {
	y := opts.YAxis{Scale: opts.Bool(true)}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return y
	}
	pad := (hi - lo) * 0.05
	if pad <= 0 {
		pad = math.Max(1, math.Abs(hi)*0.01)
	}
	y.Min = math.Floor(lo - pad)
	y.Max = math.Ceil(hi + pad)
	return y
}
