package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hydromon/pump-gateway/pkg/metrics"
	"github.com/hydromon/pump-gateway/pkg/models"
	"github.com/hydromon/pump-gateway/pkg/postgres"
	"github.com/hydromon/pump-gateway/pkg/state"
)

// ErrAlertNotFound is returned when acknowledging an alert id that does not exist
var ErrAlertNotFound = errors.New("alert not found")

// Violation messages. The dedup key includes the message text, so these must
// stay stable across evaluations.
const (
	msgPressureHigh = "pressure above maximum limit"
	msgPressureLow  = "pressure below minimum limit"
	msgBearingHigh  = "bearing temperature above limit"
	msgOilHigh      = "oil temperature above limit"
	msgVibrationRMS = "vibration RMS above limit"
)

// DetectViolations compares the sample's current values against the limits and
// returns every rule that is violated right now. It is a pure function with no
// memory of previous samples. A pressure reading of exactly 0 means no signal
// and is excluded from the too-low rule so an absent reading never alarms.
func DetectViolations(sample models.Sample, limits models.ThresholdConfig) []models.Violation {
	var violations []models.Violation

	if sample.Pressure > limits.MaxPressure {
		violations = append(violations, models.Violation{
			Metric:  models.MetricPressure,
			Kind:    models.ViolationTooHigh,
			Message: msgPressureHigh,
			Value:   sample.Pressure,
		})
	}
	if sample.Pressure > 0.1 && sample.Pressure < limits.MinPressure {
		violations = append(violations, models.Violation{
			Metric:  models.MetricPressure,
			Kind:    models.ViolationTooLow,
			Message: msgPressureLow,
			Value:   sample.Pressure,
		})
	}
	if sample.BearingTemp > limits.MaxBearingTemp {
		violations = append(violations, models.Violation{
			Metric:  models.MetricBearingTemp,
			Kind:    models.ViolationTooHigh,
			Message: msgBearingHigh,
			Value:   sample.BearingTemp,
		})
	}
	if sample.OilTemp > limits.MaxOilTemp {
		violations = append(violations, models.Violation{
			Metric:  models.MetricOilTemp,
			Kind:    models.ViolationTooHigh,
			Message: msgOilHigh,
			Value:   sample.OilTemp,
		})
	}
	if sample.VibrationRMS > limits.MaxVibrationRMS {
		violations = append(violations, models.Violation{
			Metric:  models.MetricVibrationRMS,
			Kind:    models.ViolationTooHigh,
			Message: msgVibrationRMS,
			Value:   sample.VibrationRMS,
		})
	}

	return violations
}

// AlertService turns detected violations into deduplicated alert records and
// answers the derived per-device signals (alarm state, liveness).
type AlertService struct {
	state        *state.DeviceStateStore
	store        postgres.Store
	offlineAfter time.Duration
	now          func() time.Time
}

// NewAlertService creates an alert service. offlineAfter is the liveness
// window: a device whose latest sample is older than this is reported offline.
func NewAlertService(stateStore *state.DeviceStateStore, store postgres.Store, offlineAfter time.Duration) *AlertService {
	return &AlertService{
		state:        stateStore,
		store:        store,
		offlineAfter: offlineAfter,
		now:          time.Now,
	}
}

// Evaluate runs the rule table against the device's latest sample and raises an
// alert for each violation that has no unacknowledged alert with the same
// (device, metric, message) key. New alerts go to the head of the device's
// list. It returns the newly raised alerts; re-evaluating an unchanged state
// returns none. A device with no sample yet never raises.
func (s *AlertService) Evaluate(ctx context.Context, deviceID string, limits models.ThresholdConfig) []models.Alert {
	sample, ok := s.state.Latest(deviceID)
	if !ok {
		return nil
	}

	var raised []models.Alert
	for _, v := range DetectViolations(sample, limits) {
		alert := models.Alert{
			ID:          uuid.New().String(),
			DeviceID:    deviceID,
			Metric:      v.Metric,
			Kind:        v.Kind,
			Message:     v.Message,
			Value:       v.Value,
			TriggeredAt: s.now().UTC(),
		}
		if s.state.UnacknowledgedExists(alert.DedupKey()) {
			continue
		}

		s.state.InsertAlert(alert)
		metrics.AlertsRaised.Inc()
		logrus.Infof("Alert raised for %s: %s (%s, value %.2f)", deviceID, v.Message, v.Kind, v.Value)

		if s.store != nil {
			if err := s.store.InsertAlert(ctx, alert); err != nil {
				metrics.PersistFailures.Inc()
				logrus.Warnf("Dropping alert write for %s: %v", deviceID, err)
			}
		}

		raised = append(raised, alert)
	}
	return raised
}

// Acknowledge flips the acknowledged flag on one alert instance. It does not
// suppress future re-detection of the same condition.
func (s *AlertService) Acknowledge(ctx context.Context, alertID, acknowledgedBy string) (models.Alert, error) {
	ackAt := s.now().UTC()
	alert, found := s.state.Acknowledge(alertID, acknowledgedBy, ackAt)
	if !found {
		return models.Alert{}, ErrAlertNotFound
	}

	if s.store != nil {
		if err := s.store.AcknowledgeAlert(ctx, alertID, acknowledgedBy, ackAt); err != nil {
			metrics.PersistFailures.Inc()
			logrus.Warnf("Dropping acknowledgment write for alert %s: %v", alertID, err)
		}
	}

	return alert, nil
}

// Status derives the device's liveness purely from the age of its latest
// sample. A device that never reported is unknown, not offline.
func (s *AlertService) Status(deviceID string) models.DeviceStatus {
	sample, ok := s.state.Latest(deviceID)
	if !ok {
		return models.DeviceStatusUnknown
	}
	if s.now().Sub(sample.ReceivedAt) < s.offlineAfter {
		return models.DeviceStatusOnline
	}
	return models.DeviceStatusOffline
}

// Summarize builds the per-device API view: latest sample, liveness, the
// currently active violations and both alarm signals. HasUnacknowledged tracks
// the acknowledgment lifecycle; HasActiveViolation ignores it.
func (s *AlertService) Summarize(device models.Device, limits models.ThresholdConfig) models.DeviceSummary {
	summary := models.DeviceSummary{
		Device:           device,
		Status:           s.Status(device.ID),
		ActiveViolations: []models.Violation{},
	}

	if sample, ok := s.state.Latest(device.ID); ok {
		cp := sample
		summary.Latest = &cp
		summary.ActiveViolations = DetectViolations(sample, limits)
		if summary.ActiveViolations == nil {
			summary.ActiveViolations = []models.Violation{}
		}
	}

	summary.HasActiveViolation = len(summary.ActiveViolations) > 0
	summary.HasUnacknowledged = s.state.HasUnacknowledged(device.ID)
	return summary
}
