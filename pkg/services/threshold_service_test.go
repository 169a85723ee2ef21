package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hydromon/pump-gateway/pkg/models"
)

func TestCurrentReadsBackend(t *testing.T) {
	stored := models.ThresholdConfig{
		MaxBearingTemp: 80, MaxOilTemp: 70, MaxVibrationRMS: 3.5,
		MaxPressure: 12, MinPressure: 1,
	}
	mockStore := new(MockStore)
	mockStore.On("GetThresholds", mock.Anything).Return(stored, nil)

	svc := NewThresholdService(mockStore, testLimits())
	assert.Equal(t, stored, svc.Current(context.Background()))
}

func TestCurrentFallsBackOnReadFailure(t *testing.T) {
	mockStore := new(MockStore)
	mockStore.On("GetThresholds", mock.Anything).Return(models.ThresholdConfig{}, fmt.Errorf("backend down"))

	svc := NewThresholdService(mockStore, testLimits())
	assert.Equal(t, testLimits(), svc.Current(context.Background()))
}

func TestCurrentFallsBackOnEmptyConfiguration(t *testing.T) {
	mockStore := new(MockStore)
	mockStore.On("GetThresholds", mock.Anything).Return(models.ThresholdConfig{}, nil)

	svc := NewThresholdService(mockStore, testLimits())
	assert.Equal(t, testLimits(), svc.Current(context.Background()))
}

func TestCurrentCachesLastGoodRead(t *testing.T) {
	stored := models.ThresholdConfig{
		MaxBearingTemp: 80, MaxOilTemp: 70, MaxVibrationRMS: 3.5,
		MaxPressure: 12, MinPressure: 1,
	}
	mockStore := new(MockStore)
	mockStore.On("GetThresholds", mock.Anything).Return(stored, nil).Once()
	mockStore.On("GetThresholds", mock.Anything).Return(models.ThresholdConfig{}, fmt.Errorf("backend down"))

	svc := NewThresholdService(mockStore, testLimits())
	require.Equal(t, stored, svc.Current(context.Background()))

	// The outage serves the last good values, not the seed defaults
	assert.Equal(t, stored, svc.Current(context.Background()))
}

func TestUpdateRejectsWrongSecret(t *testing.T) {
	mockStore := new(MockStore)
	mockStore.On("GetSecret", mock.Anything).Return("segredo", nil)

	svc := NewThresholdService(mockStore, testLimits())
	err := svc.Update(context.Background(), "errado", testLimits())
	assert.ErrorIs(t, err, ErrInvalidSecret)
	mockStore.AssertNotCalled(t, "SetThresholds", mock.Anything, mock.Anything)
}

func TestUpdateWritesWithCorrectSecret(t *testing.T) {
	next := models.ThresholdConfig{
		MaxBearingTemp: 72, MaxOilTemp: 66, MaxVibrationRMS: 3.0,
		MaxPressure: 11, MinPressure: 2.5,
	}
	mockStore := new(MockStore)
	mockStore.On("GetSecret", mock.Anything).Return("segredo", nil)
	mockStore.On("SetThresholds", mock.Anything, next).Return(nil)

	svc := NewThresholdService(mockStore, testLimits())
	require.NoError(t, svc.Update(context.Background(), "segredo", next))

	// The cache reflects the write even if the backend drops afterwards
	mockStore.ExpectedCalls = mockStore.ExpectedCalls[:0]
	mockStore.On("GetThresholds", mock.Anything).Return(models.ThresholdConfig{}, fmt.Errorf("backend down"))
	assert.Equal(t, next, svc.Current(context.Background()))
}
