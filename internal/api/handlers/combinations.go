package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/wonny/limitrade/internal/combination"
	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/strategyconfig"
	"github.com/wonny/limitrade/pkg/logger"
	"github.com/wonny/limitrade/pkg/redis"
)

// CombinationHandler exposes the combination search
type CombinationHandler struct {
	generator *combination.Generator
	store     *strategyconfig.Store
	limiter   *redis.RateLimiter
	logger    *logger.Logger
}

// NewCombinationHandler creates a new combination handler. limiter may be nil.
func NewCombinationHandler(generator *combination.Generator, store *strategyconfig.Store, limiter *redis.RateLimiter, log *logger.Logger) *CombinationHandler {
	return &CombinationHandler{generator: generator, store: store, limiter: limiter, logger: log}
}

// CombinationRequest is the body of POST /api/combinations.
// Params fields left out keep the active strategy's values.
// pool_ceiling and max_partitions can only be lowered.
type CombinationRequest struct {
	Scored []contracts.ScoredItem `json:"scored"`
	Params json.RawMessage        `json:"params,omitempty"`
}

// CombinationResponse is the ranked output
type CombinationResponse struct {
	Params       combination.Params           `json:"params"`
	Combinations []contracts.TradeCombination `json:"combinations"`
}

// Find runs one bounded search
// POST /api/combinations
func (h *CombinationHandler) Find(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil {
		allowed, remaining, err := h.limiter.Allow(r.Context(), redis.CombinationsRateLimit.ForClient(clientID(r)))
		if err != nil {
			h.logger.WithError(err).Warn("Rate limiter unavailable")
		} else {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
	}

	var req CombinationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	base := h.store.Config().Combinations
	params := base
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			respondError(w, http.StatusBadRequest, "invalid params: "+err.Error())
			return
		}
		params = params.CappedBy(base)
	}

	combos, err := h.generator.Find(req.Scored, params)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CombinationResponse{Params: params, Combinations: combos})
}
