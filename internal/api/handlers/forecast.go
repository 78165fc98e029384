package handlers

import (
	"net/http"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/pkg/logger"
)

// ForecastHandler exposes the shared forecaster
type ForecastHandler struct {
	scanner Scanner
	logger  *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(scanner Scanner, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{scanner: scanner, logger: log}
}

// ForecastResponse is the forecaster output
type ForecastResponse struct {
	Risk    float64                    `json:"risk"`
	Windows []contracts.ForecastWindow `json:"windows"`
	State   string                     `json:"state"`
}

// Update feeds one aggregate point
// POST /api/forecast
func (h *ForecastHandler) Update(w http.ResponseWriter, r *http.Request) {
	var point contracts.AggregatePoint
	if err := decodeJSON(w, r, &point); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	risk, state := h.scanner.UpdateForecast(point)

	h.logger.WithFields(map[string]interface{}{
		"risk":  risk.Value,
		"state": string(state),
	}).Debug("Forecast updated via API")

	respondJSON(w, http.StatusOK, ForecastResponse{Risk: risk.Value, Windows: risk.Windows, State: string(state)})
}

// Current returns the current risk index
// GET /api/forecast
func (h *ForecastHandler) Current(w http.ResponseWriter, r *http.Request) {
	risk, state := h.scanner.Risk()
	respondJSON(w, http.StatusOK, ForecastResponse{Risk: risk.Value, Windows: risk.Windows, State: string(state)})
}
