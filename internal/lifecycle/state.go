// Package lifecycle owns the audit record state machine: creation with a
// fixed TTL, the pending -> processing -> completed/failed transitions,
// TTL extension, and the expiry sweep.
package lifecycle

import (
	"fmt"

	"github.com/rivalworks/rivalaudit/internal/domain"
)

// ValidateTransition checks if a status transition is valid.
// Returns an error if the transition is not allowed.
func ValidateTransition(from, to domain.Status) error {
	validTransitions := map[domain.Status][]domain.Status{
		domain.StatusPending: {
			domain.StatusProcessing, // Worker picked up the audit
			domain.StatusFailed,     // Startup failure before any crawl
		},
		domain.StatusProcessing: {
			domain.StatusCompleted, // Full assembly persisted
			domain.StatusFailed,    // Crawl or evaluation error
		},
		domain.StatusCompleted: {
			domain.StatusProcessing, // Continuation run resumes a truncated audit
		},
		// Terminal state (failed audits are never retried in place)
		domain.StatusFailed: {},
	}

	allowedStates, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown source status: %s", from)
	}

	for _, allowed := range allowedStates {
		if allowed == to {
			return nil
		}
	}

	return fmt.Errorf("invalid status transition from %s to %s", from, to)
}

// IsTerminalStatus checks if a status allows no further processing.
// Completed is not terminal: a truncated audit can be continued.
func IsTerminalStatus(status domain.Status) bool {
	return status == domain.StatusFailed
}

// IsActiveStatus checks if an audit is currently being processed.
func IsActiveStatus(status domain.Status) bool {
	return status == domain.StatusProcessing
}
