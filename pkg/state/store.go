package state

import (
	"sync"
	"time"

	"github.com/hydromon/pump-gateway/pkg/models"
)

// deviceState is the mutable per-device slice of the store: the latest sample
// slot, the bounded history buffer and the alert list (most recent first).
type deviceState struct {
	device  models.Device
	latest  *models.Sample
	history []models.Sample
	alerts  []models.Alert
}

// DeviceStateStore owns all in-process device state. It is constructed once at
// process start and injected into the services that need it; ingestion writes
// and poll-cycle reads may interleave freely.
type DeviceStateStore struct {
	mu           sync.RWMutex
	devices      map[string]*deviceState
	order        []string
	historyLimit int
}

// NewDeviceStateStore creates a store for a fixed device set
func NewDeviceStateStore(devices []models.Device, historyLimit int) *DeviceStateStore {
	s := &DeviceStateStore{
		devices:      make(map[string]*deviceState, len(devices)),
		order:        make([]string, 0, len(devices)),
		historyLimit: historyLimit,
	}
	for _, d := range devices {
		s.devices[d.ID] = &deviceState{
			device:  d,
			history: make([]models.Sample, 0, historyLimit),
		}
		s.order = append(s.order, d.ID)
	}
	return s
}

// Known reports whether the device id belongs to the configured set
func (s *DeviceStateStore) Known(deviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.devices[deviceID]
	return ok
}

// Devices returns the configured devices in their configured order
func (s *DeviceStateStore) Devices() []models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Device, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.devices[id].device)
	}
	return out
}

// RecordSample overwrites the latest-sample slot and appends to the bounded
// history, evicting the oldest entry when the cap is exceeded. Unknown devices
// are ignored.
func (s *DeviceStateStore) RecordSample(sample models.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.devices[sample.DeviceID]
	if !ok {
		return
	}
	cp := sample
	ds.latest = &cp
	if len(ds.history) >= s.historyLimit {
		ds.history = ds.history[1:]
	}
	ds.history = append(ds.history, sample)
}

// SyncLatest overwrites only the latest-sample slot. Used by the poll cycle
// when reading the backend's latest table back into memory; a read-back must
// not grow the local history.
func (s *DeviceStateStore) SyncLatest(sample models.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.devices[sample.DeviceID]
	if !ok {
		return
	}
	cp := sample
	ds.latest = &cp
}

// Latest returns a copy of the latest sample for the device, if any
func (s *DeviceStateStore) Latest(deviceID string) (models.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.devices[deviceID]
	if !ok || ds.latest == nil {
		return models.Sample{}, false
	}
	return *ds.latest, true
}

// History returns up to n samples for the device in arrival order, oldest
// first. n <= 0 returns the whole buffer. The result is a copy.
func (s *DeviceStateStore) History(deviceID string, n int) []models.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.devices[deviceID]
	if !ok {
		return nil
	}
	if n <= 0 || n > len(ds.history) {
		n = len(ds.history)
	}
	out := make([]models.Sample, n)
	copy(out, ds.history[len(ds.history)-n:])
	return out
}

// Alerts returns a copy of the device's alert list, most recent first
func (s *DeviceStateStore) Alerts(deviceID string) []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.devices[deviceID]
	if !ok {
		return nil
	}
	out := make([]models.Alert, len(ds.alerts))
	copy(out, ds.alerts)
	return out
}

// AllAlerts returns every alert across all devices, grouped by device in
// configured order, most recent first within a device
func (s *DeviceStateStore) AllAlerts() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Alert
	for _, id := range s.order {
		out = append(out, s.devices[id].alerts...)
	}
	return out
}

// HasUnacknowledged reports whether any unacknowledged alert exists for the device
func (s *DeviceStateStore) HasUnacknowledged(deviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.devices[deviceID]
	if !ok {
		return false
	}
	for _, a := range ds.alerts {
		if !a.Acknowledged {
			return true
		}
	}
	return false
}

// UnacknowledgedExists reports whether an unacknowledged alert with the given
// dedup key already exists. This is what keeps a still-violating condition from
// flooding the alert list.
func (s *DeviceStateStore) UnacknowledgedExists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ds := range s.devices {
		for _, a := range ds.alerts {
			if !a.Acknowledged && a.DedupKey() == key {
				return true
			}
		}
	}
	return false
}

// InsertAlert prepends the alert to its device's list. Unknown devices are ignored.
func (s *DeviceStateStore) InsertAlert(alert models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.devices[alert.DeviceID]
	if !ok {
		return
	}
	ds.alerts = append([]models.Alert{alert}, ds.alerts...)
}

// Acknowledge flips the acknowledged flag on one alert instance. It returns the
// updated alert and whether the id was found. Acknowledging an already
// acknowledged alert is a no-op that still reports found.
func (s *DeviceStateStore) Acknowledge(alertID, by string, at time.Time) (models.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ds := range s.devices {
		for i := range ds.alerts {
			if ds.alerts[i].ID != alertID {
				continue
			}
			if !ds.alerts[i].Acknowledged {
				ds.alerts[i].Acknowledged = true
				ds.alerts[i].AcknowledgedBy = by
				ackAt := at
				ds.alerts[i].AcknowledgedAt = &ackAt
			}
			return ds.alerts[i], true
		}
	}
	return models.Alert{}, false
}
