package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily closing price.
type PricePoint struct {
	Date  time.Time
	Close decimal.Decimal
}

// PriceSeries is a time-ordered (oldest→newest) sequence of daily closing
// prices for one symbol. Cached series are append-only entries: once fetched
// they are served unchanged, never partially invalidated and never expired.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// Latest returns the most recent point of the series.
func (s *PriceSeries) Latest() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// SortAscending orders points oldest→newest.
func (s *PriceSeries) SortAscending() {
	sort.Slice(s.Points, func(i, j int) bool {
		return s.Points[i].Date.Before(s.Points[j].Date)
	})
}

// FilterPeriod returns the sub-series no older than the given period
// relative to now. Recognized periods: "1w", "6m", "1y" (default).
func (s *PriceSeries) FilterPeriod(period string, now time.Time) *PriceSeries {
	var start time.Time
	switch period {
	case "1w":
		start = now.AddDate(0, 0, -7)
	case "6m":
		start = now.AddDate(0, 0, -180)
	default: // "1y"
		start = now.AddDate(0, 0, -365)
	}

	out := &PriceSeries{Symbol: s.Symbol}
	for _, p := range s.Points {
		if !p.Date.Before(start) {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// priceSeriesJSON is the persisted/wire form of a cached series: parallel
// date and price arrays, prices as decimal strings.
type priceSeriesJSON struct {
	Symbol string   `json:"symbol"`
	Dates  []string `json:"dates"`
	Prices []string `json:"prices"`
}

const priceDateFormat = "2006-01-02"

// MarshalJSON encodes the series as parallel dates/prices arrays.
func (s PriceSeries) MarshalJSON() ([]byte, error) {
	out := priceSeriesJSON{
		Symbol: s.Symbol,
		Dates:  make([]string, len(s.Points)),
		Prices: make([]string, len(s.Points)),
	}
	for i, p := range s.Points {
		out.Dates[i] = p.Date.Format(priceDateFormat)
		out.Prices[i] = p.Close.String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the parallel-array form back into points.
func (s *PriceSeries) UnmarshalJSON(data []byte) error {
	var in priceSeriesJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Dates) != len(in.Prices) {
		return fmt.Errorf("price series for '%s': %d dates but %d prices", in.Symbol, len(in.Dates), len(in.Prices))
	}

	s.Symbol = in.Symbol
	s.Points = make([]PricePoint, len(in.Dates))
	for i := range in.Dates {
		date, err := time.Parse(priceDateFormat, in.Dates[i])
		if err != nil {
			return fmt.Errorf("price series for '%s': bad date %q: %w", in.Symbol, in.Dates[i], err)
		}
		close, err := decimal.NewFromString(in.Prices[i])
		if err != nil {
			return fmt.Errorf("price series for '%s': bad price %q: %w", in.Symbol, in.Prices[i], err)
		}
		s.Points[i] = PricePoint{Date: date, Close: close}
	}
	return nil
}
