package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydromon/pump-gateway/pkg/models"
	"github.com/hydromon/pump-gateway/pkg/state"
)

func testLimits() models.ThresholdConfig {
	return models.ThresholdConfig{
		MaxBearingTemp:  70,
		MaxOilTemp:      65,
		MaxVibrationRMS: 2.8,
		MaxPressure:     10,
		MinPressure:     2,
	}
}

func TestDetectViolations(t *testing.T) {
	tests := []struct {
		name       string
		sample     models.Sample
		wantMetric string
		wantKind   models.ViolationKind
		wantNone   bool
	}{
		{
			name:       "bearing temp above limit",
			sample:     models.Sample{BearingTemp: 75, Pressure: 5},
			wantMetric: models.MetricBearingTemp,
			wantKind:   models.ViolationTooHigh,
		},
		{
			name:       "oil temp above limit",
			sample:     models.Sample{OilTemp: 66, Pressure: 5},
			wantMetric: models.MetricOilTemp,
			wantKind:   models.ViolationTooHigh,
		},
		{
			name:       "vibration RMS above limit",
			sample:     models.Sample{VibrationRMS: 3.1, Pressure: 5},
			wantMetric: models.MetricVibrationRMS,
			wantKind:   models.ViolationTooHigh,
		},
		{
			name:       "pressure above maximum",
			sample:     models.Sample{Pressure: 11.5},
			wantMetric: models.MetricPressure,
			wantKind:   models.ViolationTooHigh,
		},
		{
			name:       "pressure below minimum",
			sample:     models.Sample{Pressure: 1.5},
			wantMetric: models.MetricPressure,
			wantKind:   models.ViolationTooLow,
		},
		{
			name:     "zero pressure means no signal, not too low",
			sample:   models.Sample{Pressure: 0},
			wantNone: true,
		},
		{
			name:     "pressure just inside the exclusion band",
			sample:   models.Sample{Pressure: 0.1},
			wantNone: true,
		},
		{
			name:     "everything nominal",
			sample:   models.Sample{BearingTemp: 55, OilTemp: 48, VibrationRMS: 1.2, Pressure: 6},
			wantNone: true,
		},
		{
			name:     "value exactly at the limit does not violate",
			sample:   models.Sample{BearingTemp: 70, Pressure: 5},
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := DetectViolations(tt.sample, testLimits())
			if tt.wantNone {
				assert.Empty(t, violations)
				return
			}
			require.Len(t, violations, 1)
			assert.Equal(t, tt.wantMetric, violations[0].Metric)
			assert.Equal(t, tt.wantKind, violations[0].Kind)
		})
	}
}

func TestEvaluateRaisesSingleAlert(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	svc := NewAlertService(stateStore, nil, time.Minute)

	stateStore.RecordSample(models.Sample{
		DeviceID:    "jacutinga_b01",
		BearingTemp: 75,
		Pressure:    5,
		ReceivedAt:  time.Now(),
	})

	raised := svc.Evaluate(context.Background(), "jacutinga_b01", testLimits())
	require.Len(t, raised, 1)
	assert.Equal(t, models.MetricBearingTemp, raised[0].Metric)
	assert.Equal(t, models.ViolationTooHigh, raised[0].Kind)
	assert.Equal(t, 75.0, raised[0].Value)
	assert.False(t, raised[0].Acknowledged)
	assert.NotEmpty(t, raised[0].ID)
}

func TestEvaluateDeduplicates(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	svc := NewAlertService(stateStore, nil, time.Minute)

	stateStore.RecordSample(models.Sample{
		DeviceID: "jacutinga_b01", BearingTemp: 75, Pressure: 5, ReceivedAt: time.Now(),
	})

	first := svc.Evaluate(context.Background(), "jacutinga_b01", testLimits())
	require.Len(t, first, 1)

	// Same condition still active: no second unacknowledged alert
	second := svc.Evaluate(context.Background(), "jacutinga_b01", testLimits())
	assert.Empty(t, second)
	assert.Len(t, stateStore.Alerts("jacutinga_b01"), 1)
}

func TestEvaluateIdempotent(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	svc := NewAlertService(stateStore, nil, time.Minute)

	stateStore.RecordSample(models.Sample{
		DeviceID: "jacutinga_b01", BearingTemp: 75, Pressure: 1.5, ReceivedAt: time.Now(),
	})

	svc.Evaluate(context.Background(), "jacutinga_b01", testLimits())
	before := stateStore.Alerts("jacutinga_b01")

	svc.Evaluate(context.Background(), "jacutinga_b01", testLimits())
	after := stateStore.Alerts("jacutinga_b01")

	assert.Equal(t, before, after, "re-evaluating unchanged state must change nothing")
}

func TestAcknowledgeThenRetriggerRaisesFreshAlert(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	svc := NewAlertService(stateStore, nil, time.Minute)

	stateStore.RecordSample(models.Sample{
		DeviceID: "jacutinga_b01", BearingTemp: 75, Pressure: 5, ReceivedAt: time.Now(),
	})

	raised := svc.Evaluate(context.Background(), "jacutinga_b01", testLimits())
	require.Len(t, raised, 1)

	acked, err := svc.Acknowledge(context.Background(), raised[0].ID, "operador")
	require.NoError(t, err)
	assert.True(t, acked.Acknowledged)
	assert.Equal(t, "operador", acked.AcknowledgedBy)
	require.NotNil(t, acked.AcknowledgedAt)

	// The condition re-triggers on a later sample
	stateStore.RecordSample(models.Sample{
		DeviceID: "jacutinga_b01", BearingTemp: 76, Pressure: 5, ReceivedAt: time.Now(),
	})
	again := svc.Evaluate(context.Background(), "jacutinga_b01", testLimits())
	require.Len(t, again, 1, "an acknowledged condition must re-alert when detected again")
	assert.NotEqual(t, raised[0].ID, again[0].ID)

	alerts := stateStore.Alerts("jacutinga_b01")
	require.Len(t, alerts, 2)
	// Most recent first
	assert.Equal(t, again[0].ID, alerts[0].ID)
}

func TestAcknowledgeUnknownAlert(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	svc := NewAlertService(stateStore, nil, time.Minute)

	_, err := svc.Acknowledge(context.Background(), "nope", "operador")
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestEvaluateWithoutSample(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	svc := NewAlertService(stateStore, nil, time.Minute)

	assert.Empty(t, svc.Evaluate(context.Background(), "jacutinga_b01", testLimits()))
}

func TestStatus(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	svc := NewAlertService(stateStore, nil, 60*time.Second)

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// Never reported: unknown, not offline
	assert.Equal(t, models.DeviceStatusUnknown, svc.Status("jacutinga_b01"))

	stateStore.RecordSample(models.Sample{
		DeviceID: "jacutinga_b01", ReceivedAt: now.Add(-59 * time.Second),
	})
	assert.Equal(t, models.DeviceStatusOnline, svc.Status("jacutinga_b01"))

	stateStore.SyncLatest(models.Sample{
		DeviceID: "jacutinga_b01", ReceivedAt: now.Add(-61 * time.Second),
	})
	assert.Equal(t, models.DeviceStatusOffline, svc.Status("jacutinga_b01"))
}

func TestSummarizeSignalsAreIndependent(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	svc := NewAlertService(stateStore, nil, time.Minute)
	device := models.Device{ID: "jacutinga_b01", Name: "Bomba 01", Site: "Jacutinga"}

	stateStore.RecordSample(models.Sample{
		DeviceID: "jacutinga_b01", BearingTemp: 75, Pressure: 5, ReceivedAt: time.Now(),
	})
	raised := svc.Evaluate(context.Background(), "jacutinga_b01", testLimits())
	require.Len(t, raised, 1)

	summary := svc.Summarize(device, testLimits())
	assert.True(t, summary.HasActiveViolation)
	assert.True(t, summary.HasUnacknowledged)

	// Acknowledged but still violating: the audit signal clears, the live one stays
	_, err := svc.Acknowledge(context.Background(), raised[0].ID, "operador")
	require.NoError(t, err)

	summary = svc.Summarize(device, testLimits())
	assert.True(t, summary.HasActiveViolation)
	assert.False(t, summary.HasUnacknowledged)

	// Condition clears while the alert stays unacknowledged on another device path
	stateStore.RecordSample(models.Sample{
		DeviceID: "jacutinga_b01", BearingTemp: 50, Pressure: 5, ReceivedAt: time.Now(),
	})
	summary = svc.Summarize(device, testLimits())
	assert.False(t, summary.HasActiveViolation)
}
