// Package interfaces defines the seams between the service's long-lived
// components, so health checking and scheduled maintenance can be tested with
// fakes instead of real stores.
package interfaces

import (
	"context"
	"time"
)

// DataStore is the published-run state the health checker inspects.
type DataStore interface {
	LastUpdated() time.Time
	IsUpdating() bool
}

// RecordStore is the persistence surface used outside request handling.
type RecordStore interface {
	Ping(ctx context.Context) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// HealthChecker reports service health for the /health endpoint.
type HealthChecker interface {
	HealthCheck() (status string, data map[string]any, httpStatus int)
}
