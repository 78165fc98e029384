package handlers

import (
	"net/http"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/strategyconfig"
	"github.com/wonny/limitrade/pkg/logger"
)

// ConfigHandler reads and switches the active strategy profile
type ConfigHandler struct {
	store  *strategyconfig.Store
	logger *logger.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(store *strategyconfig.Store, log *logger.Logger) *ConfigHandler {
	return &ConfigHandler{store: store, logger: log}
}

// ProfileResponse describes the active profile
type ProfileResponse struct {
	Config     strategyconfig.ProfileConfig `json:"config"`
	Profile    contracts.StrategyProfile    `json:"profile"`
	ConfigHash string                       `json:"config_hash"`
}

// GetProfile returns the active profile
// GET /api/config/profile
func (h *ConfigHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.Profile()
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ProfileResponse{
		Config:     h.store.Config().Profile,
		Profile:    profile,
		ConfigHash: h.store.Hash(),
	})
}

// PutProfile switches mode and overrides; the next scan uses them
// PUT /api/config/profile
func (h *ConfigHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	var req strategyconfig.ProfileConfig
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.store.SetProfile(req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"profile": profile.Name,
		"hash":    h.store.Hash(),
	}).Info("Strategy profile switched")

	respondJSON(w, http.StatusOK, ProfileResponse{
		Config:     h.store.Config().Profile,
		Profile:    profile,
		ConfigHash: h.store.Hash(),
	})
}
