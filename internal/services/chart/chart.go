// Package chart renders price series as PNG line charts.
package chart

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/mjcarson/folio/internal/common"
	"github.com/mjcarson/folio/internal/interfaces"
	"github.com/mjcarson/folio/internal/models"
)

// Service renders charts from cached price data.
type Service struct {
	market interfaces.MarketDataService
	logger *common.Logger
}

// NewService creates the chart service.
func NewService(market interfaces.MarketDataService, logger *common.Logger) *Service {
	return &Service{market: market, logger: logger}
}

// RenderPriceChart fetches the series for symbol, restricts it to the given
// period ("1w", "6m", or the default "1y"), and returns raw PNG bytes.
func (s *Service) RenderPriceChart(ctx context.Context, symbol, period string) ([]byte, error) {
	series, err := s.market.GetSeries(ctx, symbol)
	if err != nil {
		return nil, err
	}

	filtered := series.FilterPeriod(period, time.Now().UTC())
	s.logger.Debug().Str("symbol", symbol).Str("period", period).Int("points", len(filtered.Points)).Msg("Rendering price chart")

	return RenderPriceSeries(filtered)
}

// RenderPriceSeries renders a PNG line chart of daily closing prices.
// One series: Close (blue solid). Returns raw PNG bytes.
func RenderPriceSeries(series *models.PriceSeries) ([]byte, error) {
	if len(series.Points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points for '%s', got %d", series.Symbol, len(series.Points))
	}

	xValues := make([]time.Time, len(series.Points))
	yValues := make([]float64, len(series.Points))
	for i, p := range series.Points {
		xValues[i] = p.Date
		yValues[i], _ = p.Close.Float64()
	}

	closeSeries := chart.TimeSeries{
		Name: series.Symbol,
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Daily Close", series.Symbol),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			closeSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
