package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/hydromon/pump-gateway/pkg/models"
	"github.com/hydromon/pump-gateway/pkg/postgres"
	"github.com/hydromon/pump-gateway/pkg/services"
	"github.com/hydromon/pump-gateway/pkg/state"
)

// IngestOKResponse is the exact plain-text token the deployed sensor firmware
// expects back on a successful push.
const IngestOKResponse = "DADO_SALVO"

const defaultHistoryLimit = 100

// APIHandler handles HTTP API requests
type APIHandler struct {
	ingest     *services.IngestService
	alerts     *services.AlertService
	thresholds *services.ThresholdService
	state      *state.DeviceStateStore
	store      postgres.Store
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(ingest *services.IngestService, alerts *services.AlertService, thresholds *services.ThresholdService, stateStore *state.DeviceStateStore, store postgres.Store) *APIHandler {
	return &APIHandler{
		ingest:     ingest,
		alerts:     alerts,
		thresholds: thresholds,
		state:      stateStore,
		store:      store,
	}
}

// Ingest receives one telemetry sample via query parameters. The response is
// plain text because the sender is an embedded device with minimal parsing
// capability: DADO_SALVO on success, an error string otherwise.
func (h *APIHandler) Ingest(c echo.Context) error {
	reading := services.ParseReading(c.QueryParam)
	if reading.DeviceID == "" {
		return c.String(http.StatusBadRequest, "ERRO: parametro id ausente")
	}

	_, err := h.ingest.Ingest(c.Request().Context(), reading)
	if errors.Is(err, services.ErrUnknownDevice) {
		return c.String(http.StatusBadRequest, "ERRO: dispositivo desconhecido")
	}
	if err != nil {
		logrus.Errorf("Error ingesting sample for %s: %v", reading.DeviceID, err)
		return c.String(http.StatusInternalServerError, "ERRO: falha interna")
	}

	return c.String(http.StatusOK, IngestOKResponse)
}

// GetDevices returns every configured device with its latest sample, liveness
// status and alarm signals
func (h *APIHandler) GetDevices(c echo.Context) error {
	limits := h.thresholds.Current(c.Request().Context())
	devices := h.state.Devices()

	summaries := make([]models.DeviceSummary, 0, len(devices))
	for _, device := range devices {
		summaries = append(summaries, h.alerts.Summarize(device, limits))
	}
	return c.JSON(http.StatusOK, summaries)
}

// GetDeviceHistory returns the bounded sample history for a device. The
// in-process buffer is served first; an empty buffer (fresh process) falls back
// to the durable history table.
func (h *APIHandler) GetDeviceHistory(c echo.Context) error {
	id := c.Param("id")
	if !h.state.Known(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Device with ID %s not found", id)})
	}

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	history := h.state.History(id, limit)
	if len(history) == 0 && h.store != nil {
		stored, err := h.store.ListHistory(c.Request().Context(), id, limit)
		if err != nil {
			logrus.Warnf("Serving empty history for %s after backend read failure: %v", id, err)
		} else {
			history = stored
		}
	}

	return c.JSON(http.StatusOK, history)
}

// GetDeviceAlerts returns the alert list for one device, most recent first
func (h *APIHandler) GetDeviceAlerts(c echo.Context) error {
	id := c.Param("id")
	if !h.state.Known(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Device with ID %s not found", id)})
	}
	return c.JSON(http.StatusOK, h.state.Alerts(id))
}

// GetAlerts returns all alerts, optionally only the unacknowledged ones
func (h *APIHandler) GetAlerts(c echo.Context) error {
	alerts := h.state.AllAlerts()
	if v, _ := strconv.ParseBool(c.QueryParam("unacknowledged")); v {
		filtered := make([]models.Alert, 0, len(alerts))
		for _, a := range alerts {
			if !a.Acknowledged {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return c.JSON(http.StatusOK, alerts)
}

// AcknowledgeAlert acknowledges an alert
func (h *APIHandler) AcknowledgeAlert(c echo.Context) error {
	id := c.Param("id")
	var req models.AcknowledgeAlertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	alert, err := h.alerts.Acknowledge(c.Request().Context(), id, req.AcknowledgedBy)
	if errors.Is(err, services.ErrAlertNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Alert with ID %s not found", id)})
	}
	if err != nil {
		logrus.Errorf("Error acknowledging alert %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("Failed to acknowledge alert: %v", err)})
	}

	return c.JSON(http.StatusOK, alert)
}

// GetThresholds returns the active threshold configuration
func (h *APIHandler) GetThresholds(c echo.Context) error {
	return c.JSON(http.StatusOK, h.thresholds.Current(c.Request().Context()))
}

// UpdateThresholds replaces the threshold configuration. The request must carry
// the access secret stored in the configuration table.
func (h *APIHandler) UpdateThresholds(c echo.Context) error {
	var req models.UpdateThresholdsRequest
	if err := c.Bind(&req); err != nil {
		logrus.Errorf("Error binding threshold update request: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	err := h.thresholds.Update(c.Request().Context(), req.Secret, req.Thresholds)
	if errors.Is(err, services.ErrInvalidSecret) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid access secret"})
	}
	if err != nil {
		logrus.Errorf("Error updating thresholds: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("Failed to update thresholds: %v", err)})
	}

	return c.JSON(http.StatusOK, req.Thresholds)
}

// SetupRoutes sets up the API routes
func (h *APIHandler) SetupRoutes(e *echo.Echo) {
	// Sensor-facing ingestion endpoint
	e.GET("/ingest", h.Ingest)

	// Device endpoints
	e.GET("/api/devices", h.GetDevices)
	e.GET("/api/devices/:id/history", h.GetDeviceHistory)
	e.GET("/api/devices/:id/alerts", h.GetDeviceAlerts)

	// Alert endpoints
	e.GET("/api/alerts", h.GetAlerts)
	e.POST("/api/alerts/:id/acknowledge", h.AcknowledgeAlert)

	// Threshold configuration endpoints
	e.GET("/api/thresholds", h.GetThresholds)
	e.PUT("/api/thresholds", h.UpdateThresholds)
}
