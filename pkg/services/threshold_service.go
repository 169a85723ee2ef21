package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hydromon/pump-gateway/pkg/models"
	"github.com/hydromon/pump-gateway/pkg/postgres"
)

// ErrInvalidSecret is returned when a configuration write carries the wrong
// access secret
var ErrInvalidSecret = errors.New("invalid access secret")

// ThresholdService reads and writes the single active threshold configuration.
// Reads fall back to the last known values when the backend is unreachable so
// an evaluation cycle never runs without limits.
type ThresholdService struct {
	store postgres.Store

	mu     sync.RWMutex
	cached models.ThresholdConfig
}

// NewThresholdService creates a threshold service seeded with fallback limits
func NewThresholdService(store postgres.Store, fallback models.ThresholdConfig) *ThresholdService {
	return &ThresholdService{
		store:  store,
		cached: fallback,
	}
}

// Current returns the active thresholds. A backend failure or an empty
// configuration table yields the cached values instead of an error.
func (s *ThresholdService) Current(ctx context.Context) models.ThresholdConfig {
	if s.store == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.cached
	}

	limits, err := s.store.GetThresholds(ctx)
	if err != nil {
		logrus.Warnf("Using cached thresholds after backend read failure: %v", err)
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.cached
	}
	if limits == (models.ThresholdConfig{}) {
		// nothing stored yet
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.cached
	}

	s.mu.Lock()
	s.cached = limits
	s.mu.Unlock()
	return limits
}

// Update replaces the stored thresholds after checking the access secret
// against the one in the configuration table. A wrong secret writes nothing.
func (s *ThresholdService) Update(ctx context.Context, secret string, limits models.ThresholdConfig) error {
	if s.store == nil {
		return errors.New("configuration backend unavailable")
	}

	stored, err := s.store.GetSecret(ctx)
	if err != nil {
		return err
	}
	if stored == "" || secret != stored {
		return ErrInvalidSecret
	}

	if err := s.store.SetThresholds(ctx, limits); err != nil {
		return err
	}

	s.mu.Lock()
	s.cached = limits
	s.mu.Unlock()
	logrus.Infof("Threshold configuration updated")
	return nil
}
