package models

// ThresholdConfig holds the single active set of alarm limits. Pressure has
// both bounds; the temperatures and vibration RMS only have a maximum.
type ThresholdConfig struct {
	MaxBearingTemp  float64 `json:"maxBearingTemp"`
	MaxOilTemp      float64 `json:"maxOilTemp"`
	MaxVibrationRMS float64 `json:"maxVibrationRms"`
	MaxPressure     float64 `json:"maxPressure"`
	MinPressure     float64 `json:"minPressure"`
}

// UpdateThresholdsRequest represents the request payload for replacing the
// active threshold configuration. The secret is checked against the one stored
// in the configuration table.
type UpdateThresholdsRequest struct {
	Secret     string          `json:"secret"`
	Thresholds ThresholdConfig `json:"thresholds"`
}
