package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hydromon/pump-gateway/pkg/models"
	"github.com/hydromon/pump-gateway/pkg/postgres"
	"github.com/hydromon/pump-gateway/pkg/state"
)

func newTestMonitor(stateStore *state.DeviceStateStore, store *MockStore) *Monitor {
	var backend postgres.Store
	if store != nil {
		backend = store
	}
	alerts := NewAlertService(stateStore, nil, time.Minute)
	thresholds := NewThresholdService(nil, testLimits())
	return NewMonitor(stateStore, backend, alerts, thresholds, time.Second)
}

func TestRunCycleSyncsLatestFromBackend(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	mockStore := new(MockStore)
	mockStore.On("ListLatest", mock.Anything).Return([]models.Sample{
		{DeviceID: "jacutinga_b01", Pressure: 6.2, ReceivedAt: time.Now()},
		{DeviceID: "desconhecida_b09", Pressure: 3.0, ReceivedAt: time.Now()},
	}, nil)

	monitor := newTestMonitor(stateStore, mockStore)
	monitor.RunCycle(context.Background())

	latest, ok := stateStore.Latest("jacutinga_b01")
	require.True(t, ok)
	assert.Equal(t, 6.2, latest.Pressure)

	// Unknown ids coming back from the table are ignored
	_, ok = stateStore.Latest("desconhecida_b09")
	assert.False(t, ok)

	// A read-back never grows the local history
	assert.Empty(t, stateStore.History("jacutinga_b01", 0))
	mockStore.AssertExpectations(t)
}

func TestRunCycleKeepsStaleStateOnReadFailure(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	stateStore.RecordSample(models.Sample{
		DeviceID: "jacutinga_b01", Pressure: 4.5, ReceivedAt: time.Now(),
	})

	mockStore := new(MockStore)
	mockStore.On("ListLatest", mock.Anything).Return(nil, fmt.Errorf("backend down"))

	monitor := newTestMonitor(stateStore, mockStore)
	monitor.RunCycle(context.Background())

	latest, ok := stateStore.Latest("jacutinga_b01")
	require.True(t, ok, "a failed poll must not clear cached state")
	assert.Equal(t, 4.5, latest.Pressure)
}

func TestRunCycleEvaluatesAlerts(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	mockStore := new(MockStore)
	mockStore.On("ListLatest", mock.Anything).Return([]models.Sample{
		{DeviceID: "jacutinga_b01", BearingTemp: 80, Pressure: 5, ReceivedAt: time.Now()},
	}, nil)

	monitor := newTestMonitor(stateStore, mockStore)
	monitor.RunCycle(context.Background())

	alerts := stateStore.Alerts("jacutinga_b01")
	require.Len(t, alerts, 1)
	assert.Equal(t, models.MetricBearingTemp, alerts[0].Metric)

	// A second cycle against the same backend state raises nothing new
	monitor.RunCycle(context.Background())
	assert.Len(t, stateStore.Alerts("jacutinga_b01"), 1)
}

func TestMonitorStartShutdown(t *testing.T) {
	stateStore := state.NewDeviceStateStore(testDevices(), 10)
	monitor := newTestMonitor(stateStore, nil)
	// nil store: the cycle skips the backend sync and only evaluates

	require.NoError(t, monitor.Start(context.Background()))
	monitor.Shutdown()
}
