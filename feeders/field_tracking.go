package feeders

import "sync"

// FieldPopulation represents a single field population event
type FieldPopulation struct {
	FieldPath  string // Full path to the field (e.g., "Bfrops.InitialSize")
	FieldName  string
	FieldType  string
	FeederType string // Type of feeder that populated it
	SourceType string // Type of source (env, yaml, etc.)
	SourceKey  string // Source key that was used (e.g., "PMIX_MCA_BFROPS")
	Value      any
}

// FieldTracker interface allows feeders to report which fields they populate
type FieldTracker interface {
	// RecordFieldPopulation records that a field was populated by a feeder
	RecordFieldPopulation(fp FieldPopulation)
}

// DefaultFieldTracker is a basic implementation of FieldTracker
type DefaultFieldTracker struct {
	mu          sync.Mutex
	populations []FieldPopulation
}

// NewDefaultFieldTracker creates a new DefaultFieldTracker
func NewDefaultFieldTracker() *DefaultFieldTracker {
	return &DefaultFieldTracker{}
}

// RecordFieldPopulation records that a field was populated by a feeder
func (t *DefaultFieldTracker) RecordFieldPopulation(fp FieldPopulation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.populations = append(t.populations, fp)
}

// GetFieldPopulations returns all recorded field populations
func (t *DefaultFieldTracker) GetFieldPopulations() []FieldPopulation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]FieldPopulation(nil), t.populations...)
}
