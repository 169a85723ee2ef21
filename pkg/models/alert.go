package models

import (
	"time"
)

// Metric names used in alerts and threshold rules
const (
	MetricPressure     = "pressure"
	MetricBearingTemp  = "bearing_temp"
	MetricOilTemp      = "oil_temp"
	MetricVibrationRMS = "vibration_rms"
)

// ViolationKind represents the direction of a threshold violation
type ViolationKind string

const (
	ViolationTooHigh ViolationKind = "too_high"
	ViolationTooLow  ViolationKind = "too_low"
)

// Violation is one threshold comparison result for the current sample. It is
// independent of alert/acknowledgment bookkeeping.
type Violation struct {
	Metric  string        `json:"metric"`
	Kind    ViolationKind `json:"kind"`
	Message string        `json:"message"`
	Value   float64       `json:"value"`
}

// Alert represents a persisted record of a detected violation with its own
// acknowledgment lifecycle. Alerts are never deleted; acknowledging one does not
// suppress a later re-detection of the same condition.
type Alert struct {
	ID             string        `json:"id"`
	DeviceID       string        `json:"deviceId"`
	Metric         string        `json:"metric"`
	Kind           ViolationKind `json:"kind"`
	Message        string        `json:"message"`
	Value          float64       `json:"value"`
	TriggeredAt    time.Time     `json:"triggeredAt"`
	Acknowledged   bool          `json:"acknowledged"`
	AcknowledgedAt *time.Time    `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy string        `json:"acknowledgedBy,omitempty"`
}

// DedupKey identifies the condition an alert reports. At most one
// unacknowledged alert may exist per key at any time.
func (a *Alert) DedupKey() string {
	return a.DeviceID + "|" + a.Metric + "|" + a.Message
}

// AcknowledgeAlertRequest represents the request payload for acknowledging an alert
type AcknowledgeAlertRequest struct {
	AcknowledgedBy string `json:"acknowledgedBy"`
}
