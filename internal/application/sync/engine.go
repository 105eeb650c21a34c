package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/chansync/backend/internal/domain/report"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Engine consumes a remote channel's response for a batch, joins it against
// the integration-action ledger and the content-type registry, settles every
// ledger row, and drives the batch request to its terminal state.
//
// Precondition: only one reconciliation process may run against a given
// local batch id at a time. Cross-batch isolation comes from the ledger
// scoping; same-batch mutual exclusion is the caller's contract.
type Engine struct {
	registry  Registry
	ledger    ledger.Repository
	lifecycle *LifecycleController
	reporter  report.Sink
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewEngine creates a reconciliation engine
func NewEngine(
	registry Registry,
	ledgerRepo ledger.Repository,
	lifecycle *LifecycleController,
	reporter report.Sink,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry:  registry,
		ledger:    ledgerRepo,
		lifecycle: lifecycle,
		reporter:  reporter,
		logger:    logger,
		tracer:    otel.Tracer("sync/engine"),
	}
}

// Reconcile finalizes a batch against the channel's response.
//
// Structural failures (empty scoped ledger, load errors, persistence errors)
// are recovered here: the batch transitions to fail with a nulled manifest,
// one error report is written, and no error is returned. Per-record failures
// are expressed inside the manifest and the batch still reaches done. Only a
// registry misconfiguration propagates as a fatal error.
//
// Running Reconcile again on an already finalized batch is a no-op, which
// makes retried runs after a crash or a duplicated trigger safe.
func (e *Engine) Reconcile(ctx context.Context, b *batch.BatchRequest, response []channel.ResponseItem) (batch.Status, error) {
	ctx, span := e.tracer.Start(ctx, "engine.reconcile", trace.WithAttributes(
		attribute.String("batch.local_batch_id", b.LocalBatchID.String()),
		attribute.String("batch.content_type", b.ContentType.String()),
		attribute.Int("response.items", len(response)),
	))
	defer span.End()

	if b.Status.IsTerminal() {
		e.logger.Info("batch already finalized, skipping reconciliation",
			zap.String("batch_id", b.ID.String()),
			zap.String("status", string(b.Status)))
		return b.Status, nil
	}

	// [1] Fetch the ledger rows scoped to this batch. An empty result means
	// there is nothing to reconcile and the batch is structurally invalid.
	actions, err := e.ledger.ListProcessingByBatch(ctx, b.ChannelID, b.LocalBatchID)
	if err != nil {
		return e.failBatch(ctx, b, "LEDGER_QUERY_FAILED", fmt.Sprintf("Ledger query failed: %v", err))
	}
	if len(actions) == 0 {
		return e.failBatch(ctx, b, "EMPTY_BATCH", "No processing ledger rows found for batch")
	}

	// [2] Partition the rows by content type.
	groups := groupByContentType(actions)

	// [4] prep: index the response by correlation key up front. Duplicate
	// keys are ambiguous input and flagged, never silently resolved.
	index, duplicates := indexResponse(response)

	reconciled := make([]ReconciledRecord, 0, len(actions))
	for contentType, group := range groups {
		handler, err := e.registry.Handler(contentType)
		if err != nil {
			// Registry misconfiguration is fatal, not structural: it must
			// surface to the operator instead of flipping batches to fail.
			return b.Status, err
		}

		// [3] Bulk-load the records for this group.
		ids := make([]uuid.UUID, 0, len(group))
		for _, action := range group {
			ids = append(ids, action.ObjectID)
		}
		records, err := handler.Load(ctx, ids)
		if err != nil {
			return e.failBatch(ctx, b, "RECORD_LOAD_FAILED",
				fmt.Sprintf("Bulk load for content type %s failed: %v", contentType, err))
		}

		// [4+5] Correlate each record and compute its outcome.
		for _, action := range group {
			rr := ReconciledRecord{Action: action, Record: records[action.ObjectID]}
			rr.Outcome = e.resolveOutcome(ctx, b.ChannelID, handler, rr, index, duplicates)
			reconciled = append(reconciled, rr)
		}
	}

	// [6] Settle the ledger rows and report per-record failures.
	if err := e.settleLedger(ctx, reconciled); err != nil {
		return e.failBatch(ctx, b, "LEDGER_UPDATE_FAILED", fmt.Sprintf("Ledger update failed: %v", err))
	}
	e.reportFailures(ctx, b, reconciled)

	// [7] Finalize. Per-record failures live inside the manifest; the batch
	// itself is done.
	manifest := BuildCommitObjects(reconciled)
	if err := e.lifecycle.ToDone(ctx, b, manifest); err != nil {
		return e.failBatch(ctx, b, "FINALIZE_FAILED", fmt.Sprintf("Finalizing batch failed: %v", err))
	}

	e.logger.Info("batch reconciled",
		zap.String("batch_id", b.ID.String()),
		zap.String("local_batch_id", b.LocalBatchID.String()),
		zap.Int("records", len(reconciled)),
		zap.Int("failures", countFailures(reconciled)))
	return batch.StatusDone, nil
}

// resolveOutcome computes the outcome of a single record against the indexed
// response.
func (e *Engine) resolveOutcome(
	ctx context.Context,
	channelID uuid.UUID,
	handler Handler,
	rr ReconciledRecord,
	index map[string]channel.ResponseItem,
	duplicates map[string]bool,
) Outcome {
	objectID := rr.Action.ObjectID

	if rr.Record == nil {
		// Ledger row survives a locally deleted record (Scenario B).
		return Outcome{
			FailedReason: channel.FailedReasonChannelApp,
			Message:      fmt.Sprintf("Local record not found. ID is %s", objectID),
		}
	}

	key, err := handler.CorrelationKey(ctx, channelID, rr.Record, rr.Action)
	if err != nil || key == "" {
		return Outcome{
			FailedReason: channel.FailedReasonChannelApp,
			Message:      fmt.Sprintf("No correlation key could be resolved. ID is %s", objectID),
		}
	}
	if duplicates[key] {
		return Outcome{
			FailedReason: channel.FailedReasonChannelApp,
			Message:      fmt.Sprintf("Channel response contains multiple items for key %q", key),
		}
	}
	item, ok := index[key]
	if !ok {
		return Outcome{
			FailedReason: channel.FailedReasonChannelApp,
			Message:      fmt.Sprintf("This item information was not sent from the channel. ID is %s", objectID),
		}
	}
	if item.Status == channel.ResponseStatusFail {
		return Outcome{
			FailedReason: channel.FailedReasonChannelApp,
			Message:      item.Message,
		}
	}
	return Outcome{RemoteID: item.RemoteID}
}

// settleLedger applies the computed outcomes to the scoped ledger rows in one
// bulk update. The write is an upsert by row id, so re-running it is safe.
func (e *Engine) settleLedger(ctx context.Context, reconciled []ReconciledRecord) error {
	actions := make([]*ledger.IntegrationAction, 0, len(reconciled))
	for _, rr := range reconciled {
		if rr.Outcome.Failed() {
			if err := rr.Action.Reject(rr.Outcome.FailedReason); err != nil {
				return err
			}
		} else {
			if err := rr.Action.Confirm(rr.Outcome.RemoteID); err != nil {
				return err
			}
		}
		actions = append(actions, rr.Action)
	}
	return e.ledger.UpdateBatch(ctx, actions)
}

// reportFailures writes one error report per failed record
func (e *Engine) reportFailures(ctx context.Context, b *batch.BatchRequest, reconciled []ReconciledRecord) {
	for _, rr := range reconciled {
		if !rr.Outcome.Failed() {
			continue
		}
		r := report.NewErrorReport(
			b.ChannelID,
			rr.Action.ContentType,
			rr.Action.ObjectID,
			rr.Action.VersionDate,
			fmt.Sprintf("%s-reconcile", b.LocalBatchID),
			fmt.Sprintf("%s-%s", rr.Outcome.FailedReason, rr.Outcome.Message),
		)
		if err := e.reporter.Report(ctx, r); err != nil {
			e.logger.Error("failed to write error report",
				zap.String("object_id", rr.Action.ObjectID.String()),
				zap.Error(err))
		}
	}
}

// failBatch handles a structural failure: one report, manifest nulled, batch
// to fail. The failure is recovered here and never raised past the engine.
func (e *Engine) failBatch(ctx context.Context, b *batch.BatchRequest, code, description string) (batch.Status, error) {
	e.logger.Error("batch reconciliation failed",
		zap.String("batch_id", b.ID.String()),
		zap.String("local_batch_id", b.LocalBatchID.String()),
		zap.String("code", code),
		zap.String("description", description))

	r := report.NewErrorReport(
		b.ChannelID,
		channel.ContentTypeBatchRequest,
		b.ID,
		time.Now(),
		fmt.Sprintf("%s-reconcile", b.LocalBatchID),
		description,
	)
	r.ErrorCode = fmt.Sprintf("%s-%s", b.LocalBatchID, code)
	if err := e.reporter.Report(ctx, r); err != nil {
		e.logger.Error("failed to write structural error report", zap.Error(err))
	}

	releaseLedgerRows(ctx, e.ledger, e.logger, b)

	if err := e.lifecycle.ToFail(ctx, b); err != nil {
		if !errors.Is(err, batch.ErrAlreadyFinalized) {
			e.logger.Error("failed to transition batch to fail",
				zap.String("batch_id", b.ID.String()), zap.Error(err))
		}
	}
	return batch.StatusFail, nil
}

// releaseLedgerRows settles every processing row still claimed by a failing
// batch as a channel_app error. Without this the claim would outlive the
// batch and keep the records out of candidate selection forever; settled as
// error they are picked up again by the next export cycle.
func releaseLedgerRows(ctx context.Context, repo ledger.Repository, logger *zap.Logger, b *batch.BatchRequest) {
	rows, err := repo.ListProcessingByBatch(ctx, b.ChannelID, b.LocalBatchID)
	if err != nil {
		logger.Error("failed to list ledger rows of failing batch",
			zap.String("local_batch_id", b.LocalBatchID.String()), zap.Error(err))
		return
	}
	if len(rows) == 0 {
		return
	}
	for _, row := range rows {
		if err := row.Reject(channel.FailedReasonChannelApp); err != nil {
			logger.Error("failed to release ledger row",
				zap.String("object_id", row.ObjectID.String()), zap.Error(err))
		}
	}
	if err := repo.UpdateBatch(ctx, rows); err != nil {
		logger.Error("failed to persist released ledger rows",
			zap.String("local_batch_id", b.LocalBatchID.String()), zap.Error(err))
	}
}

// groupByContentType partitions ledger rows by their content type
func groupByContentType(actions []*ledger.IntegrationAction) map[channel.ContentType][]*ledger.IntegrationAction {
	groups := make(map[channel.ContentType][]*ledger.IntegrationAction)
	for _, action := range actions {
		groups[action.ContentType] = append(groups[action.ContentType], action)
	}
	return groups
}

// indexResponse builds the correlation-key index over the response. The first
// occurrence wins for unique keys; keys seen more than once are recorded as
// duplicates so the join can flag them as ambiguous.
func indexResponse(items []channel.ResponseItem) (map[string]channel.ResponseItem, map[string]bool) {
	index := make(map[string]channel.ResponseItem, len(items))
	duplicates := make(map[string]bool)
	for _, item := range items {
		if item.Key == "" {
			continue
		}
		if _, seen := index[item.Key]; seen {
			duplicates[item.Key] = true
			continue
		}
		index[item.Key] = item
	}
	return index, duplicates
}

func countFailures(reconciled []ReconciledRecord) int {
	n := 0
	for _, rr := range reconciled {
		if rr.Outcome.Failed() {
			n++
		}
	}
	return n
}
