// Package sagas holds the compensation helpers for multi-item writes.
// The store has no cross-partition transactions in the paths used here, so
// paired writes are sequenced with an explicit reversal on the failure branch.
package sagas

import (
	"context"

	"go.uber.org/zap"
)

// TwoPhase sequences a primary write and a dependent secondary write.
// When the secondary write fails, the primary is reversed so no orphaned
// state is left behind. The reversal itself is best-effort: its failure is
// logged and the secondary error is still returned.
type TwoPhase struct {
	Name string

	// Attempt performs the primary write
	Attempt func(ctx context.Context) error

	// Follow performs the dependent secondary write
	Follow func(ctx context.Context) error

	// Reverse undoes the primary write when Follow fails
	Reverse func(ctx context.Context) error
}

// Run executes the two phases. The error returned is the first failure
// encountered; callers inspect it to decide how to surface the outcome.
func (t *TwoPhase) Run(ctx context.Context, logger *zap.Logger) error {
	if err := t.Attempt(ctx); err != nil {
		return err
	}

	err := t.Follow(ctx)
	if err == nil {
		return nil
	}

	logger.Warn("Secondary write failed, reversing primary",
		zap.String("operation", t.Name),
		zap.Error(err),
	)

	if t.Reverse != nil {
		if revErr := t.Reverse(ctx); revErr != nil {
			// The primary write survives with the secondary missing; the
			// inconsistency window is accepted and visible in the logs
			logger.Error("Compensating reversal failed",
				zap.String("operation", t.Name),
				zap.Error(revErr),
			)
		}
	}

	return err
}
