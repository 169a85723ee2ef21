package livestate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hydromon/pump-gateway/pkg/config"
	"github.com/hydromon/pump-gateway/pkg/models"
)

// PublishChannel carries one JSON message per mirrored sample for external
// dashboard consumers.
const PublishChannel = "pumps:telemetry"

// stateTTL keeps stale device keys from lingering after a pump goes quiet
const stateTTL = 2 * time.Minute

// Mirror pushes the latest sample per device into Redis on a best-effort basis.
// It exists purely for external consumers; the gateway itself never reads it
// back.
type Mirror struct {
	client *redis.Client
}

// NewMirror connects to Redis and verifies the connection
func NewMirror(ctx context.Context, cfg *config.RedisConfig) (*Mirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Mirror{client: client}, nil
}

// Close releases the Redis connection
func (m *Mirror) Close() error {
	return m.client.Close()
}

// Publish mirrors one sample: a hash of the device's latest state with a TTL,
// plus a pub/sub message on the shared telemetry channel.
func (m *Mirror) Publish(ctx context.Context, sample models.Sample) error {
	stateData := map[string]interface{}{
		"device_id":    sample.DeviceID,
		"vx":           sample.Vx,
		"vy":           sample.Vy,
		"vz":           sample.Vz,
		"bearing_temp": sample.BearingTemp,
		"oil_temp":     sample.OilTemp,
		"pressure":     sample.Pressure,
		"rms":          sample.VibrationRMS,
		"received_at":  sample.ReceivedAt.Unix(),
	}

	payload, err := json.Marshal(stateData)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	stateKey := fmt.Sprintf("pump:%s:state", sample.DeviceID)

	pipe := m.client.Pipeline()
	pipe.HSet(ctx, stateKey, stateData)
	pipe.Expire(ctx, stateKey, stateTTL)
	pipe.Publish(ctx, PublishChannel, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}
