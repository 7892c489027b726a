// Package data provides thread-safe storage for the latest reconciliation
// result. An atomic pointer swap publishes a finished run without blocking
// readers of the previous one.
package data

import (
	"sync/atomic"
	"time"

	"github.com/noine32/deadstock-search-replit/report"
	"github.com/noine32/deadstock-search-replit/stockparser"
	"github.com/noine32/deadstock-search-replit/stockparser/entities"
	"github.com/noine32/deadstock-search-replit/validation"
)

// RunResult is the published outcome of one reconciliation run.
type RunResult struct {
	Records     []entities.ReconciledRecord `json:"records"`
	Groups      []stockparser.FacilityGroup `json:"groups"`
	Quality     validation.QualityReport    `json:"quality"`
	Warnings    []report.Warning            `json:"warnings"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// Container holds the latest run with atomic operations.
type Container struct {
	lastRun  atomic.Value // *RunResult
	updating atomic.Bool
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{}
}

// LastRun returns the latest published result, or nil when no run finished yet.
func (c *Container) LastRun() *RunResult {
	if v := c.lastRun.Load(); v != nil {
		if run, ok := v.(*RunResult); ok {
			return run
		}
	}
	return nil
}

// StoreRun publishes a finished run.
func (c *Container) StoreRun(run *RunResult) {
	c.lastRun.Store(run)
}

// LastUpdated returns when the latest run was published, zero when never.
func (c *Container) LastUpdated() time.Time {
	if run := c.LastRun(); run != nil {
		return run.GeneratedAt
	}
	return time.Time{}
}

// BeginUpdate marks a run as in progress; returns false when one already is.
func (c *Container) BeginUpdate() bool {
	return c.updating.CompareAndSwap(false, true)
}

// EndUpdate clears the in-progress flag.
func (c *Container) EndUpdate() {
	c.updating.Store(false)
}

// IsUpdating reports whether a run is in progress.
func (c *Container) IsUpdating() bool {
	return c.updating.Load()
}
