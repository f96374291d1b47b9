// Package store persists surfaced opportunities on behalf of the CLI, which
// owns deal memory across runs. The planning pipeline itself never touches
// it; memory is handed to the planner as a plain read-only slice.
package store

import (
	"context"

	"github.com/dealhawk/deals-cli/internal/model"
)

// Store defines the persistence interface for opportunity memory.
type Store interface {
	// SaveOpportunity records an evaluated opportunity. Alerted marks
	// whether a push notification fired for it.
	SaveOpportunity(ctx context.Context, opp model.Opportunity, alerted bool) (*model.OpportunityRecord, error)

	// ListOpportunities returns records newest-first. A non-positive limit
	// returns everything.
	ListOpportunities(ctx context.Context, limit int) ([]model.OpportunityRecord, error)

	// Memory returns all stored opportunities oldest-first, in the shape
	// the planner consumes for deduplication.
	Memory(ctx context.Context) ([]model.Opportunity, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
