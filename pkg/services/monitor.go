package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hydromon/pump-gateway/pkg/metrics"
	"github.com/hydromon/pump-gateway/pkg/postgres"
	"github.com/hydromon/pump-gateway/pkg/state"
)

// Monitor runs the fixed-interval poll cycle: pull the latest-telemetry table
// back into memory, then re-run the alert evaluator for every device. Each
// cycle runs to completion or fails independently of prior cycles; there is no
// backoff and no retry.
type Monitor struct {
	state      *state.DeviceStateStore
	store      postgres.Store
	alerts     *AlertService
	thresholds *ThresholdService
	interval   time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a poll-cycle monitor
func NewMonitor(stateStore *state.DeviceStateStore, store postgres.Store, alerts *AlertService, thresholds *ThresholdService, interval time.Duration) *Monitor {
	return &Monitor{
		state:      stateStore,
		store:      store,
		alerts:     alerts,
		thresholds: thresholds,
		interval:   interval,
		done:       make(chan struct{}),
	}
}

// Start launches the poll loop. The first cycle runs immediately.
func (m *Monitor) Start(ctx context.Context) error {
	logrus.Infof("Starting monitor with %s poll interval", m.interval)

	ctx, m.cancel = context.WithCancel(ctx)
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.RunCycle(ctx)
		for {
			select {
			case <-ticker.C:
				m.RunCycle(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Shutdown stops the poll loop and waits for the in-flight cycle to finish
func (m *Monitor) Shutdown() {
	logrus.Info("Shutting down monitor")
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}

// RunCycle executes one poll cycle. A backend read failure keeps the previous
// in-memory values; evaluation still runs against them so the alarm state stays
// current even during an outage.
func (m *Monitor) RunCycle(ctx context.Context) {
	if m.store != nil {
		samples, err := m.store.ListLatest(ctx)
		if err != nil {
			metrics.PollFailures.Inc()
			logrus.Warnf("Poll cycle keeping stale state after backend read failure: %v", err)
		} else {
			for _, sample := range samples {
				if m.state.Known(sample.DeviceID) {
					m.state.SyncLatest(sample)
				}
			}
		}
	}

	limits := m.thresholds.Current(ctx)
	for _, device := range m.state.Devices() {
		m.alerts.Evaluate(ctx, device.ID, limits)
	}
}
