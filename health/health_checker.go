// Package health provides health checking for the dead stock service.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/noine32/deadstock-search-replit/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	records   interfaces.RecordStore
}

var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(dataStore interfaces.DataStore, records interfaces.RecordStore) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		records:   records,
	}
}

// HealthCheck returns HTTP-specific health data for the /health endpoint.
// The database being unreachable is the only unhealthy condition; a service
// that has not reconciled anything yet is still healthy, just idle.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dbErr := h.records.Ping(ctx)
	lastUpdate := h.dataStore.LastUpdated()

	switch {
	case dbErr != nil:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"database_ok": dbErr == nil,
		"is_updating": h.dataStore.IsUpdating(),
	}
	if lastUpdate.IsZero() {
		data["last_run"] = nil
	} else {
		data["last_run"] = lastUpdate.Format(time.RFC3339)
		data["last_run_age_hours"] = math.Round(time.Since(lastUpdate).Hours()*10) / 10
	}

	return status, data, httpStatus
}
