// Package handler provides HTTP handlers for the flightscope API.
package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/flightscope/flightscope/internal/api/models"
	"github.com/flightscope/flightscope/internal/api/response"
	"github.com/flightscope/flightscope/internal/provider/resilience"
)

// TableSizer reports how many airports the coordinate table holds.
type TableSizer interface {
	Len() int
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	table     TableSizer
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. table and registry may be nil.
func NewOpsHandler(version, buildTime string, table TableSizer, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		table:     table,
		registry:  registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. An empty coordinate table only
// disables map geometry, so it reports DEGRADED with a 200.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	size := h.tableSize()
	status := models.HealthStatusOK
	if size == 0 {
		status = models.HealthStatusDegraded
	}
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:  status,
		Time:    models.Timestamp(time.Now()),
		Details: map[string]any{"airportCoordinates": size},
	})
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{h.coordinateStatus()},
		Providers:  []models.ProviderStatus{},
	}
	if status.Subsystems[0].Status != models.HealthStatusOK {
		status.Status = models.HealthStatusDegraded
	}

	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			ps := providerStatus(ph)
			status.Providers = append(status.Providers, ps)
			status.Status = worst(status.Status, ps.Status)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) tableSize() int {
	if h.table == nil {
		return 0
	}
	return h.table.Len()
}

func (h *OpsHandler) coordinateStatus() models.SubsystemStatus {
	size := h.tableSize()
	if size == 0 {
		return models.SubsystemStatus{
			Name:   "airport-coordinates",
			Status: models.HealthStatusDegraded,
			Detail: "coordinate table is empty; map geometry is unavailable",
		}
	}
	return models.SubsystemStatus{
		Name:   "airport-coordinates",
		Status: models.HealthStatusOK,
		Detail: fmt.Sprintf("%d airports", size),
	}
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:     ph.Name,
		Status:       models.HealthStatus(ph.Status()),
		CircuitState: ph.CircuitState.String(),
		Message:      ph.LastError,
	}
	if ph.LastSuccessAt != nil {
		ps.LastSuccessAt = models.NewTimestamp(*ph.LastSuccessAt)
	}
	if ph.LastFailureAt != nil {
		ps.LastFailureAt = models.NewTimestamp(*ph.LastFailureAt)
	}
	return ps
}

// worst returns the more severe of two statuses. A failed provider only
// degrades the service as a whole.
func worst(current, provider models.HealthStatus) models.HealthStatus {
	if provider == models.HealthStatusOK || current == models.HealthStatusFail {
		return current
	}
	return models.HealthStatusDegraded
}
