package worker

import (
	"context"
	"fmt"
	"time"

	"budget/internal/amqp"
	"budget/internal/log"
	"budget/internal/services"
)

// ImportWorker runs queued CSV imports through the ingestion pipeline.
type ImportWorker struct {
	importer *services.Importer
	timeout  time.Duration
}

func NewImportWorker(importer *services.Importer, timeout time.Duration) *ImportWorker {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ImportWorker{
		importer: importer,
		timeout:  timeout,
	}
}

// HandleImportJob processes a single import job message from AMQP.
// Errors wrapping core.ErrInvalidArgument or core.ErrNotFound mark the job
// as permanently failed.
func (w *ImportWorker) HandleImportJob(ctx context.Context, msg *amqp.ImportJobMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("import job %s: %w", msg.JobID, err)
	}

	logger := log.FromContext(ctx).With(log.NewFields().
		WithOperation(log.OpImport).
		WithUser(msg.UserID).
		WithJob(msg.JobID, msg.Path).
		ToSlice()...)
	logger.InfoContext(ctx, "Processing import job",
		"queued_for", time.Since(msg.RequestedAt).Round(time.Millisecond))

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	report, err := w.importer.ImportFile(ctx, msg.UserID, msg.Path)
	if err != nil {
		logger.ErrorContext(ctx, "Import job failed", log.FieldError, err)
		return fmt.Errorf("import job %s: %w", msg.JobID, err)
	}

	for _, skipped := range report.Skipped {
		logger.DebugContext(ctx, "Import job skipped row",
			log.FieldLine, skipped.Line,
			log.FieldError, skipped.Err)
	}

	logger.InfoContext(ctx, "Import job completed",
		log.FieldBatchID, report.BatchID,
		"imported", len(report.Imported),
		"skipped", len(report.Skipped),
		"accounts", len(report.Accounts))

	return nil
}
