package postgres

import (
	"context"
	"time"

	"github.com/hydromon/pump-gateway/pkg/models"
)

// Store defines the interface for the durable persistence backend
// This allows us to mock the backend for testing
type Store interface {
	UpsertLatest(ctx context.Context, sample models.Sample) error
	InsertHistory(ctx context.Context, sample models.Sample) error
	ListLatest(ctx context.Context) ([]models.Sample, error)
	ListHistory(ctx context.Context, deviceID string, limit int) ([]models.Sample, error)

	InsertAlert(ctx context.Context, alert models.Alert) error
	ListAlerts(ctx context.Context, deviceID string) ([]models.Alert, error)
	AcknowledgeAlert(ctx context.Context, alertID, acknowledgedBy string, at time.Time) error

	GetThresholds(ctx context.Context) (models.ThresholdConfig, error)
	SetThresholds(ctx context.Context, thresholds models.ThresholdConfig) error
	GetSecret(ctx context.Context) (string, error)

	Ping(ctx context.Context) error
	Close()
}

// Ensure Client implements Store
var _ Store = (*Client)(nil)
