package handlers

import (
	"net/http"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/scoring"
	"github.com/wonny/limitrade/internal/strategyconfig"
	"github.com/wonny/limitrade/pkg/logger"
)

// ScoreHandler exposes the scoring engine
type ScoreHandler struct {
	engine  *scoring.Engine
	store   *strategyconfig.Store
	scanner Scanner
	logger  *logger.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(engine *scoring.Engine, store *strategyconfig.Store, scanner Scanner, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{engine: engine, store: store, scanner: scanner, logger: log}
}

// ScoreRequest is the body of POST /api/score
type ScoreRequest struct {
	Snapshots []contracts.ItemSnapshot      `json:"snapshots"`
	Profile   *strategyconfig.ProfileConfig `json:"profile,omitempty"`
	Risk      *float64                      `json:"risk,omitempty"`
}

// ScoreResponse is the ranked output
type ScoreResponse struct {
	Profile contracts.StrategyProfile `json:"profile"`
	Risk    float64                   `json:"risk"`
	Items   []contracts.ScoredItem    `json:"items"`
}

// Score ranks a snapshot set
// POST /api/score
func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.resolveProfile(req.Profile)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	risk := contracts.NeutralRisk
	if req.Risk != nil {
		risk = *req.Risk
	} else if h.scanner != nil {
		current, _ := h.scanner.Risk()
		risk = current.Value
	}

	items, err := h.engine.ScoreItems(req.Snapshots, profile, risk)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ScoreResponse{Profile: profile, Risk: risk, Items: items})
}

func (h *ScoreHandler) resolveProfile(p *strategyconfig.ProfileConfig) (contracts.StrategyProfile, error) {
	if p == nil {
		return h.store.Profile()
	}
	mode, err := strategyconfig.ParseMode(p.Mode)
	if err != nil {
		return contracts.StrategyProfile{}, err
	}
	return strategyconfig.Custom(mode, p.Name, p.Weights)
}
