// Package monitoring tracks in-process pipeline diagnostics. An excluded
// observation or a failed persistence write must not fail a validation,
// so the counters here are the only place those events stay visible.
package monitoring

import "sync/atomic"

// Metrics holds pipeline counters. The zero value is ready to use; a nil
// *Metrics is also safe so callers can opt out.
type Metrics struct {
	validationsTotal    atomic.Int64
	sourceFailures      atomic.Int64
	conversionErrors    atomic.Int64
	persistenceFailures atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	ValidationsTotal    int64 `json:"validations_total"`
	SourceFailures      int64 `json:"source_failures"`
	ConversionErrors    int64 `json:"conversion_errors"`
	PersistenceFailures int64 `json:"persistence_failures"`
}

// IncValidations counts a validation request.
func (m *Metrics) IncValidations() {
	if m != nil {
		m.validationsTotal.Add(1)
	}
}

// IncSourceFailures counts a failed source extraction.
func (m *Metrics) IncSourceFailures() {
	if m != nil {
		m.sourceFailures.Add(1)
	}
}

// IncConversionErrors counts an observation dropped because its currency
// could not be converted.
func (m *Metrics) IncConversionErrors() {
	if m != nil {
		m.conversionErrors.Add(1)
	}
}

// IncPersistenceFailures counts a persistence write that was logged and
// swallowed.
func (m *Metrics) IncPersistenceFailures() {
	if m != nil {
		m.persistenceFailures.Add(1)
	}
}

// Collect returns a snapshot of all counters.
func (m *Metrics) Collect() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		ValidationsTotal:    m.validationsTotal.Load(),
		SourceFailures:      m.sourceFailures.Load(),
		ConversionErrors:    m.conversionErrors.Load(),
		PersistenceFailures: m.persistenceFailures.Load(),
	}
}
