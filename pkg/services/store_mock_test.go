package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hydromon/pump-gateway/pkg/models"
	"github.com/hydromon/pump-gateway/pkg/postgres"
)

// MockStore is a mock implementation of the postgres.Store interface
type MockStore struct {
	mock.Mock
}

// Ensure MockStore implements Store
var _ postgres.Store = (*MockStore)(nil)

func (m *MockStore) UpsertLatest(ctx context.Context, sample models.Sample) error {
	args := m.Called(ctx, sample)
	return args.Error(0)
}

func (m *MockStore) InsertHistory(ctx context.Context, sample models.Sample) error {
	args := m.Called(ctx, sample)
	return args.Error(0)
}

func (m *MockStore) ListLatest(ctx context.Context) ([]models.Sample, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Sample), args.Error(1)
}

func (m *MockStore) ListHistory(ctx context.Context, deviceID string, limit int) ([]models.Sample, error) {
	args := m.Called(ctx, deviceID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Sample), args.Error(1)
}

func (m *MockStore) InsertAlert(ctx context.Context, alert models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockStore) ListAlerts(ctx context.Context, deviceID string) ([]models.Alert, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Alert), args.Error(1)
}

func (m *MockStore) AcknowledgeAlert(ctx context.Context, alertID, acknowledgedBy string, at time.Time) error {
	args := m.Called(ctx, alertID, acknowledgedBy, at)
	return args.Error(0)
}

func (m *MockStore) GetThresholds(ctx context.Context) (models.ThresholdConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.ThresholdConfig), args.Error(1)
}

func (m *MockStore) SetThresholds(ctx context.Context, thresholds models.ThresholdConfig) error {
	args := m.Called(ctx, thresholds)
	return args.Error(0)
}

func (m *MockStore) GetSecret(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() {
	m.Called()
}
