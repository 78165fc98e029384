package strategyconfig

import (
	"sync"

	"github.com/wonny/limitrade/internal/contracts"
)

// Store holds the active strategy configuration for concurrent readers.
// Writers swap in a fully validated copy; readers always get their own copy.
type Store struct {
	mu   sync.RWMutex
	cfg  *Config
	hash string
}

// NewStore creates a store from a validated config
func NewStore(cfg *Config) (*Store, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{cfg: cfg.Clone(), hash: hash}, nil
}

// Config returns a copy of the active configuration
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// Hash returns the hash of the active configuration
func (s *Store) Hash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hash
}

// Profile returns the active profile by value
func (s *Store) Profile() (contracts.StrategyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ResolveProfile()
}

// SetProfile switches mode and overrides. Nothing changes if the result is invalid.
func (s *Store) SetProfile(p ProfileConfig) (contracts.StrategyProfile, error) {
	mode, err := ParseMode(p.Mode)
	if err != nil {
		return contracts.StrategyProfile{}, err
	}
	profile, err := Custom(mode, p.Name, p.Weights)
	if err != nil {
		return contracts.StrategyProfile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	next.Profile = ProfileConfig{Mode: string(mode), Name: p.Name, Weights: cloneOverrides(p.Weights)}
	hash, err := Hash(next)
	if err != nil {
		return contracts.StrategyProfile{}, err
	}
	s.cfg, s.hash = next, hash
	return profile, nil
}

// Replace swaps in a whole new configuration after validating it
func (s *Store) Replace(cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	hash, err := Hash(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg, s.hash = cfg.Clone(), hash
	return nil
}
