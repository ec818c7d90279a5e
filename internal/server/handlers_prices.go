package server

import (
	"net/http"
	"time"
)

// handlePriceSeries handles GET /api/prices/{symbol}?period=1w|6m|1y.
func (s *Server) handlePriceSeries(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	series, err := s.app.MarketService.GetSeries(r.Context(), symbol)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	if period := r.URL.Query().Get("period"); period != "" {
		series = series.FilterPeriod(period, time.Now().UTC())
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   series,
	})
}

// handlePriceChart handles GET /api/prices/{symbol}/chart.png?period=1w|6m|1y.
func (s *Server) handlePriceChart(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	period := r.URL.Query().Get("period")
	png, err := s.app.ChartService.RenderPriceChart(r.Context(), symbol, period)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handlePriceRefresh handles POST /api/prices/{symbol}/refresh — force a
// provider re-fetch, bypassing the cache.
func (s *Server) handlePriceRefresh(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	series, err := s.app.MarketService.RefreshSeries(r.Context(), symbol)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   series,
	})
}
