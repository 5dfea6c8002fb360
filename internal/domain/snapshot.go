package domain

import "time"

// Snapshot is what a single polling cycle hands to presenters and the journal.
// Either Indicators is set, or Pending is true and FailureKind explains why.
type Snapshot struct {
	ID          int64 // Journal row ID (0 if not persisted)
	Ticker      string
	Quote       *Quote
	Indicators  *IndicatorSet
	Pending     bool
	FailureKind string
	Err         error
	Session     SessionState
	UpdatedAt   time.Time
}

// IsComputed reports whether the snapshot carries indicators.
func (s *Snapshot) IsComputed() bool {
	return !s.Pending && s.Indicators != nil && s.Quote != nil
}
