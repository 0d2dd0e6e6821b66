package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/expense-ocr/constants"
	"github.com/joseph-ayodele/expense-ocr/internal/common"
	"github.com/joseph-ayodele/expense-ocr/internal/extract"
)

// ProcessBatch processes docs and returns exactly one Result per document in input
// order. With more than one worker, documents are processed concurrently but each
// worker writes only its own slot. Once ctx is done the remaining documents are
// recorded as FAILED.
func (p *Processor) ProcessBatch(ctx context.Context, docs []extract.Document) ResultSet {
	start := time.Now()
	logger := p.logger
	if id := common.RequestIDFromContext(ctx); id != "" {
		logger = logger.With("batch_id", id)
	}
	logger.Info("batch.started", "documents", len(docs), "workers", p.workers)

	out := make(ResultSet, len(docs))
	if p.workers == 1 {
		for i, doc := range docs {
			out[i] = p.ProcessDocument(ctx, doc)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(p.workers)
		for i, doc := range docs {
			g.Go(func() error {
				out[i] = p.ProcessDocument(ctx, doc)
				return nil
			})
		}
		_ = g.Wait()
	}

	counts := out.Counts()
	logger.Info("batch.finished",
		"documents", len(out),
		"ok", counts[constants.StatusOK],
		"decode_errors", counts[constants.StatusDecodeError],
		"unsupported", counts[constants.StatusUnsupportedType],
		"failed", counts[constants.StatusFailed],
		"duration", time.Since(start),
	)
	return out
}
