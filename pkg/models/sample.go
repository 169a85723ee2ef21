package models

import (
	"time"
)

// Sample represents one normalized telemetry reading from a device
type Sample struct {
	DeviceID     string    `json:"deviceId"`
	Vx           float64   `json:"vx"`
	Vy           float64   `json:"vy"`
	Vz           float64   `json:"vz"`
	BearingTemp  float64   `json:"bearingTemp"`
	OilTemp      float64   `json:"oilTemp"`
	Pressure     float64   `json:"pressure"`
	VibrationRMS float64   `json:"vibrationRms"`
	ReceivedAt   time.Time `json:"receivedAt"` // server-assigned, client time is never trusted
}
