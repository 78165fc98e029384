package handlers

import (
	"net/http"
	"strconv"

	"github.com/wonny/limitrade/internal/pipeline"
	"github.com/wonny/limitrade/pkg/logger"
	"github.com/wonny/limitrade/pkg/redis"
)

// ScanHandler serves scan results and manual triggers
type ScanHandler struct {
	scanner Scanner
	cache   ScanCache
	limiter *redis.RateLimiter
	logger  *logger.Logger
}

const (
	defaultRecentScans = 20
	maxRecentScans     = 50
)

// NewScanHandler creates a new scan handler. cache and limiter may be nil.
func NewScanHandler(scanner Scanner, cache ScanCache, limiter *redis.RateLimiter, log *logger.Logger) *ScanHandler {
	return &ScanHandler{scanner: scanner, cache: cache, limiter: limiter, logger: log}
}

// Latest returns the most recent scan
// GET /api/scan/latest
func (h *ScanHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if result := h.scanner.Latest(); result != nil {
		respondJSON(w, http.StatusOK, result)
		return
	}

	if h.cache != nil {
		result, err := h.cache.Latest(r.Context())
		if err != nil {
			h.logger.WithError(err).Warn("Failed to load cached scan")
		}
		if result != nil {
			respondJSON(w, http.StatusOK, result)
			return
		}
	}

	respondError(w, http.StatusNotFound, "no scan has completed yet")
}

// Recent lists summaries of the latest scans, newest first
// GET /api/scan/recent?limit=20
func (h *ScanHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentScans
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecentScans)
	}

	summaries := []pipeline.ScanSummary{}
	if h.cache != nil {
		recent, err := h.cache.Recent(r.Context(), int64(limit))
		if err != nil {
			h.logger.WithError(err).Warn("Failed to load recent scans")
			respondError(w, http.StatusServiceUnavailable, "scan history unavailable")
			return
		}
		summaries = append(summaries, recent...)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scans": summaries,
		"count": len(summaries),
	})
}

// Trigger runs one scan synchronously
// POST /api/scan
func (h *ScanHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil {
		allowed, _, err := h.limiter.Allow(r.Context(), redis.ScanTriggerRateLimit)
		if err == nil && !allowed {
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
	}

	result, err := h.scanner.Scan(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Manual scan failed")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
