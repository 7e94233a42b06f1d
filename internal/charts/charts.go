// Package charts renders spending visualizations as PNG images.
package charts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/HeadAech/ExpenseTracker/internal/core"
)

// Generator renders charts for a single currency.
type Generator struct {
	currency string
}

func NewGenerator(currency string) *Generator {
	return &Generator{currency: currency}
}

func (g *Generator) formatAmount(v interface{}) string {
	return fmt.Sprintf("%.2f %s", v.(float64), g.currency)
}

// WeeklyBarChart renders one bar per day bucket. Zero buckets still get a
// bar slot, so a quiet week reads as seven flat bars rather than a gap.
// Returns nil bytes when the series is empty.
func (g *Generator) WeeklyBarChart(series []core.DayBucket) ([]byte, error) {
	if len(series) == 0 {
		return nil, nil
	}

	bars := make([]chart.Value, 0, len(series))
	for _, bucket := range series {
		bars = append(bars, chart.Value{
			Label: bucket.Day.Format("Mon 02.01"),
			Value: bucket.Total.Units(),
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				FillColor:   chart.ColorBlue.WithAlpha(180),
			},
		})
	}

	graph := chart.BarChart{
		Title: "Last 7 days",
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:    800,
		Height:   400,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			ValueFormatter: g.formatAmount,
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render weekly chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// MonthComparisonChart renders current versus previous month totals as two bars.
func (g *Generator) MonthComparisonChart(current, previous core.Money) ([]byte, error) {
	bars := []chart.Value{
		{
			Label: fmt.Sprintf("Previous: %.2f %s", previous.Units(), g.currency),
			Value: previous.Units(),
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				FillColor:   chart.ColorBlue.WithAlpha(100),
			},
		},
		{
			Label: fmt.Sprintf("Current: %.2f %s", current.Units(), g.currency),
			Value: current.Units(),
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				FillColor:   chart.ColorBlue,
			},
		},
	}

	graph := chart.BarChart{
		Title: "Month comparison",
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:    800,
		Height:   400,
		BarWidth: 100,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			ValueFormatter: g.formatAmount,
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render month comparison chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// RangeLineChart renders a daily spending line over an arbitrary range.
// Returns nil bytes when fewer than two days carry spend; a single point
// does not make a line.
func (g *Generator) RangeLineChart(series []core.DayBucket) ([]byte, error) {
	if len(series) < 2 {
		return nil, nil
	}

	xValues := make([]time.Time, len(series))
	yValues := make([]float64, len(series))
	for i, bucket := range series {
		xValues[i] = bucket.Day
		yValues[i] = bucket.Total.Units()
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("02.01"),
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: g.formatAmount,
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Spending",
				XValues: xValues,
				YValues: yValues,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render range chart: %w", err)
	}
	return buffer.Bytes(), nil
}
