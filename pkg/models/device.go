package models

// Device represents one configured pump asset. The device set is fixed at
// deployment; there is no dynamic registration.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Site string `json:"site"`
}

// DeviceStatus is the liveness judgment derived from the age of the latest sample
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
	// DeviceStatusUnknown means no sample has ever been ingested for the device
	DeviceStatusUnknown DeviceStatus = "unknown"
)

// DeviceSummary is the per-device view returned by the API: identity, the
// latest sample (nil if none was ever seen) and the derived alarm signals.
type DeviceSummary struct {
	Device             Device       `json:"device"`
	Latest             *Sample      `json:"latest,omitempty"`
	Status             DeviceStatus `json:"status"`
	ActiveViolations   []Violation  `json:"activeViolations"`
	HasUnacknowledged  bool         `json:"hasUnacknowledged"`
	HasActiveViolation bool         `json:"hasActiveViolation"`
}
