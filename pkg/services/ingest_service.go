package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hydromon/pump-gateway/pkg/livestate"
	"github.com/hydromon/pump-gateway/pkg/metrics"
	"github.com/hydromon/pump-gateway/pkg/models"
	"github.com/hydromon/pump-gateway/pkg/postgres"
	"github.com/hydromon/pump-gateway/pkg/state"
)

// ErrUnknownDevice is returned when a reading names a device id outside the
// configured set. It is the only ingestion failure surfaced to the sender.
var ErrUnknownDevice = errors.New("unknown device id")

// RawReading is one telemetry push as it arrives from a sensor unit, after
// defensive parsing but before normalization.
type RawReading struct {
	DeviceID    string
	Vx          float64
	Vy          float64
	Vz          float64
	BearingTemp float64
	OilTemp     float64
	Pressure    float64
}

// ParseReading extracts a reading from request query parameters. The wire keys
// are the ones the deployed sensor firmware sends: id, vx, vy, vz, mancal
// (bearing temp), oleo (oil temp), pressao (pressure). Missing or non-numeric
// values resolve to 0 rather than rejecting the sample; the sender is an
// uncontrolled embedded device.
func ParseReading(get func(string) string) RawReading {
	safeFloat := func(key string) float64 {
		v, err := strconv.ParseFloat(get(key), 64)
		if err != nil {
			return 0
		}
		return v
	}

	return RawReading{
		DeviceID:    get("id"),
		Vx:          safeFloat("vx"),
		Vy:          safeFloat("vy"),
		Vz:          safeFloat("vz"),
		BearingTemp: safeFloat("mancal"),
		OilTemp:     safeFloat("oleo"),
		Pressure:    safeFloat("pressao"),
	}
}

// VibrationRMS computes the root-mean-square magnitude of the three-axis
// vibration vector.
func VibrationRMS(vx, vy, vz float64) float64 {
	return math.Sqrt((vx*vx + vy*vy + vz*vz) / 3)
}

// IngestService normalizes incoming readings and fans them out to the
// in-process state store, the durable backend and the live-state mirror.
type IngestService struct {
	state  *state.DeviceStateStore
	store  postgres.Store
	mirror *livestate.Mirror
	now    func() time.Time
}

// NewIngestService creates an ingest service. The mirror may be nil, which
// disables live-state publishing.
func NewIngestService(stateStore *state.DeviceStateStore, store postgres.Store, mirror *livestate.Mirror) *IngestService {
	return &IngestService{
		state:  stateStore,
		store:  store,
		mirror: mirror,
		now:    time.Now,
	}
}

// Ingest processes one reading. Rejections only happen for unknown device ids;
// every other failure mode is absorbed so the embedded sender always gets a
// timely response. Durable and mirror writes are fire-and-forget.
func (s *IngestService) Ingest(ctx context.Context, reading RawReading) (models.Sample, error) {
	if !s.state.Known(reading.DeviceID) {
		metrics.SamplesRejected.Inc()
		return models.Sample{}, fmt.Errorf("%w: %q", ErrUnknownDevice, reading.DeviceID)
	}

	sample := models.Sample{
		DeviceID:     reading.DeviceID,
		Vx:           reading.Vx,
		Vy:           reading.Vy,
		Vz:           reading.Vz,
		BearingTemp:  reading.BearingTemp,
		OilTemp:      reading.OilTemp,
		Pressure:     reading.Pressure,
		VibrationRMS: VibrationRMS(reading.Vx, reading.Vy, reading.Vz),
		ReceivedAt:   s.now().UTC(),
	}

	s.state.RecordSample(sample)
	metrics.SamplesIngested.Inc()

	if s.store != nil {
		if err := s.store.UpsertLatest(ctx, sample); err != nil {
			metrics.PersistFailures.Inc()
			logrus.Warnf("Dropping latest-telemetry write for %s: %v", sample.DeviceID, err)
		}
		if err := s.store.InsertHistory(ctx, sample); err != nil {
			metrics.PersistFailures.Inc()
			logrus.Warnf("Dropping history write for %s: %v", sample.DeviceID, err)
		}
	}

	if s.mirror != nil {
		if err := s.mirror.Publish(ctx, sample); err != nil {
			metrics.MirrorFailures.Inc()
			logrus.Debugf("Dropping live-state mirror write for %s: %v", sample.DeviceID, err)
		}
	}

	return sample, nil
}
