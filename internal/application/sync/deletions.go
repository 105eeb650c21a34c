package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/report"
	"go.uber.org/zap"
)

// deletableContentTypes are the content types whose ledger rows may be
// removed outright once the channel confirms the deletion.
var deletableContentTypes = map[channel.ContentType]bool{
	channel.ContentTypeProduct:      true,
	channel.ContentTypeProductPrice: true,
	channel.ContentTypeProductStock: true,
	channel.ContentTypeProductImage: true,
}

// ReconcileDeletions finalizes a deletion batch. Deletions invert the usual
// correlation: the remote id is already known, so response items are joined
// against the ledger by remote id directly.
//
// Rows confirmed deleted by the channel are removed from the ledger, which
// re-opens the (channel, content type, object) slot for future exports. Rows
// the channel refused to delete are flagged and committed in the manifest so
// the next pass retries them.
func (e *Engine) ReconcileDeletions(ctx context.Context, b *batch.BatchRequest, response []channel.ResponseItem) (batch.Status, error) {
	ctx, span := e.tracer.Start(ctx, "engine.reconcile_deletions")
	defer span.End()

	if b.Status.IsTerminal() {
		return b.Status, nil
	}

	var succeeded, failed []string
	messages := make(map[string]string)
	for _, item := range response {
		if item.RemoteID == "" {
			continue
		}
		if item.Status == channel.ResponseStatusSuccess {
			succeeded = append(succeeded, item.RemoteID)
		} else {
			failed = append(failed, item.RemoteID)
			messages[item.RemoteID] = item.Message
		}
	}

	if len(succeeded) > 0 {
		actions, err := e.ledger.ListByRemoteIDs(ctx, b.ChannelID, succeeded)
		if err != nil {
			return e.failBatch(ctx, b, "LEDGER_QUERY_FAILED", fmt.Sprintf("Ledger query by remote ids failed: %v", err))
		}
		for _, action := range actions {
			if !deletableContentTypes[action.ContentType] {
				continue
			}
			if err := e.ledger.Delete(ctx, action.ID); err != nil {
				return e.failBatch(ctx, b, "LEDGER_DELETE_FAILED", fmt.Sprintf("Ledger row deletion failed: %v", err))
			}
		}
		e.logger.Info("deleted ledger rows for confirmed deletions",
			zap.String("batch_id", b.ID.String()),
			zap.Int("rows", len(actions)))
	}

	var manifest []batch.Object
	if len(failed) > 0 {
		actions, err := e.ledger.ListByRemoteIDs(ctx, b.ChannelID, failed)
		if err != nil {
			return e.failBatch(ctx, b, "LEDGER_QUERY_FAILED", fmt.Sprintf("Ledger query by remote ids failed: %v", err))
		}
		reconciled := make([]ReconciledRecord, 0, len(actions))
		for _, action := range actions {
			remoteID := ""
			if action.RemoteID != nil {
				remoteID = *action.RemoteID
			}
			reconciled = append(reconciled, ReconciledRecord{
				Action: action,
				Outcome: Outcome{
					FailedReason: channel.FailedReasonChannelApp,
					Message:      messages[remoteID],
				},
			})
		}
		e.reportDeletionFailures(ctx, b, reconciled)
		manifest = buildDeletionManifest(reconciled)
	}

	if err := e.lifecycle.ToDone(ctx, b, manifest); err != nil {
		return e.failBatch(ctx, b, "FINALIZE_FAILED", fmt.Sprintf("Finalizing deletion batch failed: %v", err))
	}
	return batch.StatusDone, nil
}

// buildDeletionManifest emits manifest entries under the integrationaction
// content type: the object being retried is the ledger row itself.
func buildDeletionManifest(reconciled []ReconciledRecord) []batch.Object {
	objects := make([]batch.Object, 0, len(reconciled))
	for _, rr := range reconciled {
		objects = append(objects, batch.Object{
			ObjectID:         rr.Action.ID,
			ContentType:      channel.ContentTypeIntegrationAction,
			VersionDate:      rr.Action.VersionDate,
			FailedReasonType: rr.Outcome.FailedReason,
		})
	}
	return objects
}

func (e *Engine) reportDeletionFailures(ctx context.Context, b *batch.BatchRequest, reconciled []ReconciledRecord) {
	for _, rr := range reconciled {
		r := report.NewErrorReport(
			b.ChannelID,
			channel.ContentTypeIntegrationAction,
			rr.Action.ID,
			time.Now(),
			fmt.Sprintf("%s-reconcile-deletions", b.LocalBatchID),
			fmt.Sprintf("%s-%s", rr.Outcome.FailedReason, rr.Outcome.Message),
		)
		if err := e.reporter.Report(ctx, r); err != nil {
			e.logger.Error("failed to write deletion error report", zap.Error(err))
		}
	}
}
