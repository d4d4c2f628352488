package driven

import "github.com/policyledger/fedledger/internal/core/domain"

// MetricsRecorder observes batch outcomes.
type MetricsRecorder interface {
	// ObserveBatch records the counts and duration of a finished batch.
	ObserveBatch(result *domain.BatchResult)

	// Flush exports the collected metrics, if an export target is configured.
	Flush() error
}
