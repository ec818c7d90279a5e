package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testSeries() *PriceSeries {
	return &PriceSeries{
		Symbol: "ACME",
		Points: []PricePoint{
			{Date: day("2025-03-03"), Close: d("41.20")},
			{Date: day("2025-09-01"), Close: d("44.75")},
			{Date: day("2026-02-27"), Close: d("49.10")},
			{Date: day("2026-03-02"), Close: d("50")},
		},
	}
}

func TestLatest(t *testing.T) {
	s := testSeries()
	p, ok := s.Latest()
	require.True(t, ok)
	assert.True(t, p.Close.Equal(d("50")))

	empty := &PriceSeries{Symbol: "ACME"}
	_, ok = empty.Latest()
	assert.False(t, ok)
}

func TestFilterPeriod(t *testing.T) {
	s := testSeries()
	now := day("2026-03-02")

	tests := []struct {
		period string
		want   int
	}{
		{"1w", 2},
		{"6m", 3},
		{"1y", 3},
		{"", 3},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got := s.FilterPeriod(tt.period, now)
			assert.Len(t, got.Points, tt.want)
			assert.Equal(t, "ACME", got.Symbol)
		})
	}
}

func TestPriceSeriesJSONRoundTrip(t *testing.T) {
	s := testSeries()

	data, err := json.Marshal(s)
	require.NoError(t, err)

	// Wire form is parallel dates/prices arrays with prices as strings.
	var wire struct {
		Symbol string   `json:"symbol"`
		Dates  []string `json:"dates"`
		Prices []string `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "ACME", wire.Symbol)
	assert.Equal(t, []string{"2025-03-03", "2025-09-01", "2026-02-27", "2026-03-02"}, wire.Dates)
	assert.Equal(t, "41.2", wire.Prices[0])

	var back PriceSeries
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back.Points, 4)
	assert.True(t, back.Points[3].Close.Equal(d("50")))
	assert.Equal(t, s.Points[0].Date, back.Points[0].Date)
}

func TestPriceSeriesUnmarshal_MismatchedArrays(t *testing.T) {
	var s PriceSeries
	err := json.Unmarshal([]byte(`{"symbol":"ACME","dates":["2026-01-02"],"prices":[]}`), &s)
	assert.Error(t, err)
}

func TestSortAscending(t *testing.T) {
	s := &PriceSeries{
		Symbol: "ACME",
		Points: []PricePoint{
			{Date: day("2026-03-02"), Close: d("50")},
			{Date: day("2026-02-27"), Close: d("49.10")},
		},
	}
	s.SortAscending()
	assert.Equal(t, day("2026-02-27"), s.Points[0].Date)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.True(t, latest.Close.Equal(d("50")))
}
