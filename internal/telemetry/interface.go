// Package telemetry keeps an optional sqlite history of control cycles.
package telemetry

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, record *CycleRecord) error
	Close() error
}

// Repository defines the interface for cycle history storage
type Repository interface {
	Record(record *CycleRecord) error
	Close() error
}

// CycleRecord is one stored control cycle.
type CycleRecord struct {
	Timestamp time.Time
	Path      string
	Outcome   string
	Reason    string
	Raw       string
	Percent   float64
	Ratio     float64
}
