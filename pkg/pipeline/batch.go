package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds parallel runs in RunBatch.
const DefaultBatchConcurrency = 4

// Batch entry statuses.
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// BatchEntry records the result of one item in a batch.
type BatchEntry struct {
	LegislationID string   `json:"legislation_id" yaml:"legislation_id"`
	Status        string   `json:"status" yaml:"status"`
	Error         string   `json:"error,omitempty" yaml:"error,omitempty"`
	Outcome       *Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// BatchReport summarises a RunBatch call. Entries keep the input order.
type BatchReport struct {
	Attempted int          `json:"attempted" yaml:"attempted"`
	Succeeded int          `json:"succeeded" yaml:"succeeded"`
	Failed    int          `json:"failed" yaml:"failed"`
	Entries   []BatchEntry `json:"entries" yaml:"entries"`
}

// RunBatch runs every item in legislationIDs with at most concurrency runs
// in flight. A failed item is recorded on its entry; only cancellation of
// ctx fails the whole batch.
func (pipeline *Pipeline) RunBatch(ctx context.Context, legislationIDs []string, opts Options, concurrency int) (*BatchReport, error) {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	entries := make([]BatchEntry, len(legislationIDs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for index, legislationID := range legislationIDs {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			entry := BatchEntry{LegislationID: legislationID, Status: StatusProcessed}
			outcome, err := pipeline.Run(groupCtx, legislationID, opts)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				pipeline.logger.Warn("batch item failed",
					zap.String("legislation_id", legislationID), zap.Error(err))
				entry.Status = StatusFailed
				entry.Error = err.Error()
			}
			entry.Outcome = outcome
			entries[index] = entry
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	batchReport := &BatchReport{Attempted: len(entries), Entries: entries}
	for _, entry := range entries {
		switch entry.Status {
		case StatusProcessed:
			batchReport.Succeeded++
		case StatusFailed:
			batchReport.Failed++
		}
	}
	return batchReport, nil
}
