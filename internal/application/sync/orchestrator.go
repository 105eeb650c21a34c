package sync

import (
	"context"
	"fmt"

	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/catalog"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/chansync/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Orchestrator drives the submission side of a batch: candidate selection,
// ledger tagging, commit, hand-off to the channel adapter, and polling of
// asynchronous handles. Reconciliation of the channel's answer is delegated
// to the Engine.
type Orchestrator struct {
	lifecycle *LifecycleController
	engine    *Engine
	registry  Registry
	ledger    ledger.Repository
	adapter   channel.Adapter
	products  catalog.ProductStore
	prices    catalog.PriceStore
	stocks    catalog.StockStore
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(
	lifecycle *LifecycleController,
	engine *Engine,
	registry Registry,
	ledgerRepo ledger.Repository,
	adapter channel.Adapter,
	products catalog.ProductStore,
	prices catalog.PriceStore,
	stocks catalog.StockStore,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		lifecycle: lifecycle,
		engine:    engine,
		registry:  registry,
		ledger:    ledgerRepo,
		adapter:   adapter,
		products:  products,
		prices:    prices,
		stocks:    stocks,
		logger:    logger,
	}
}

// SubmitProducts selects products pending export to the channel, opens a
// batch for them and hands the payload to the channel adapter. Returns nil
// without error when there is nothing to export.
func (o *Orchestrator) SubmitProducts(ctx context.Context, ch *channel.Channel, limit int) (*batch.BatchRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "orchestrator", "submit_products",
		telemetry.WithAttribute(telemetry.SpanAttrChannelID, ch.ID.String()))
	defer span.End()

	products, err := o.products.ListPendingExport(ctx, ch.ID, limit)
	if err != nil {
		err = fmt.Errorf("listing products pending export: %w", err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrItemCount, len(products))
	if len(products) == 0 {
		return nil, nil
	}
	records := make([]catalog.Record, len(products))
	for i, p := range products {
		records[i] = p
	}
	return o.submit(ctx, ch, channel.ContentTypeProduct, records)
}

// SubmitPrices runs the submission flow for price records pending export.
func (o *Orchestrator) SubmitPrices(ctx context.Context, ch *channel.Channel, limit int) (*batch.BatchRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "orchestrator", "submit_prices",
		telemetry.WithAttribute(telemetry.SpanAttrChannelID, ch.ID.String()))
	defer span.End()

	prices, err := o.prices.ListPendingExport(ctx, ch.ID, limit)
	if err != nil {
		err = fmt.Errorf("listing prices pending export: %w", err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrItemCount, len(prices))
	if len(prices) == 0 {
		return nil, nil
	}
	records := make([]catalog.Record, len(prices))
	for i, p := range prices {
		records[i] = p
	}
	return o.submit(ctx, ch, channel.ContentTypeProductPrice, records)
}

// SubmitStocks runs the submission flow for stock records pending export.
func (o *Orchestrator) SubmitStocks(ctx context.Context, ch *channel.Channel, limit int) (*batch.BatchRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "orchestrator", "submit_stocks",
		telemetry.WithAttribute(telemetry.SpanAttrChannelID, ch.ID.String()))
	defer span.End()

	stocks, err := o.stocks.ListPendingExport(ctx, ch.ID, limit)
	if err != nil {
		err = fmt.Errorf("listing stocks pending export: %w", err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrItemCount, len(stocks))
	if len(stocks) == 0 {
		return nil, nil
	}
	records := make([]catalog.Record, len(stocks))
	for i, s := range stocks {
		records[i] = s
	}
	return o.submit(ctx, ch, channel.ContentTypeProductStock, records)
}

// submit runs the shared submission flow for a set of records of one content
// type: create the batch, claim processing ledger rows scoped to it, commit
// the manifest, then call the adapter. A synchronous adapter answer is
// reconciled immediately; an asynchronous handle parks the batch in
// sent_to_remote for a later poll.
func (o *Orchestrator) submit(ctx context.Context, ch *channel.Channel, contentType channel.ContentType, records []catalog.Record) (*batch.BatchRequest, error) {
	handler, err := o.registry.Handler(contentType)
	if err != nil {
		return nil, err
	}

	b, err := o.lifecycle.Create(ctx, ch.ID, contentType)
	if err != nil {
		return nil, err
	}

	actions, err := o.claimLedgerRows(ctx, ch.ID, contentType, b.LocalBatchID, records)
	if err != nil {
		return b, o.abort(ctx, b, fmt.Errorf("tagging ledger rows: %w", err))
	}

	if err := o.lifecycle.ToCommit(ctx, b, BuildProcessingObjects(records, contentType)); err != nil {
		return b, o.abort(ctx, b, fmt.Errorf("committing batch: %w", err))
	}

	payload := make([]channel.BatchPayloadItem, 0, len(records))
	for i, rec := range records {
		key, err := handler.CorrelationKey(ctx, ch.ID, rec, actions[i])
		if err != nil {
			return b, o.abort(ctx, b, fmt.Errorf("resolving correlation key: %w", err))
		}
		payload = append(payload, channel.BatchPayloadItem{
			ObjectID:    rec.RecordID(),
			ContentType: contentType,
			Key:         key,
		})
	}

	result, err := o.adapter.SubmitBatch(ctx, ch, b.LocalBatchID, payload)
	if err != nil {
		return b, o.abort(ctx, b, fmt.Errorf("submitting batch to channel: %w", err))
	}

	if result.Completed {
		// Synchronous channel: the response is already here.
		if _, err := o.engine.Reconcile(ctx, b, result.Items); err != nil {
			return b, err
		}
		return b, nil
	}

	if err := o.lifecycle.ToSentToRemote(ctx, b, result.RemoteBatchID); err != nil {
		return b, o.abort(ctx, b, fmt.Errorf("recording remote handle: %w", err))
	}
	o.logger.Info("batch sent to remote",
		zap.String("batch_id", b.ID.String()),
		zap.String("remote_batch_id", result.RemoteBatchID),
		zap.Int("records", len(records)))
	return b, nil
}

// Poll checks an asynchronous batch's remote handle. Work still in progress
// moves the batch to ongoing; a finished batch is reconciled.
func (o *Orchestrator) Poll(ctx context.Context, ch *channel.Channel, b *batch.BatchRequest) (batch.Status, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "orchestrator", "poll",
		telemetry.WithAttribute(telemetry.SpanAttrChannelID, ch.ID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrLocalBatchID, b.LocalBatchID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrBatchStatus, string(b.Status)))
	defer span.End()

	if b.Status.IsTerminal() {
		return b.Status, nil
	}
	if b.RemoteBatchID == nil {
		return b.Status, fmt.Errorf("batch %s has no remote handle to poll", b.ID)
	}

	result, err := o.adapter.CheckBatch(ctx, ch, *b.RemoteBatchID)
	if err != nil {
		releaseLedgerRows(ctx, o.ledger, o.logger, b)
		if failErr := o.lifecycle.ToFail(ctx, b); failErr != nil {
			o.logger.Error("failed to fail batch after poll error",
				zap.String("batch_id", b.ID.String()), zap.Error(failErr))
		}
		return batch.StatusFail, nil
	}

	if result.Running {
		if err := o.lifecycle.ToOngoing(ctx, b); err != nil {
			return b.Status, err
		}
		return batch.StatusOngoing, nil
	}
	return o.engine.Reconcile(ctx, b, result.Items)
}

// claimLedgerRows tags every record with a processing row owned by the batch.
// A record exported before keeps its existing row, reclaimed with the new
// batch id and version date; a record never exported gets a fresh row. This
// keeps the ledger at one row per (channel, content type, object).
func (o *Orchestrator) claimLedgerRows(
	ctx context.Context,
	channelID uuid.UUID,
	contentType channel.ContentType,
	localBatchID uuid.UUID,
	records []catalog.Record,
) ([]*ledger.IntegrationAction, error) {
	ids := make([]uuid.UUID, len(records))
	for i, rec := range records {
		ids[i] = rec.RecordID()
	}
	existing, err := o.ledger.ListByObjects(ctx, channelID, contentType, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving existing ledger rows: %w", err)
	}
	byObject := make(map[uuid.UUID]*ledger.IntegrationAction, len(existing))
	for _, row := range existing {
		byObject[row.ObjectID] = row
	}

	actions := make([]*ledger.IntegrationAction, 0, len(records))
	created := make([]*ledger.IntegrationAction, 0, len(records))
	reclaimed := make([]*ledger.IntegrationAction, 0, len(existing))
	for _, rec := range records {
		if row, ok := byObject[rec.RecordID()]; ok {
			if err := row.Reclaim(rec.RecordModifiedDate(), localBatchID); err != nil {
				return nil, err
			}
			reclaimed = append(reclaimed, row)
			actions = append(actions, row)
			continue
		}
		row, err := ledger.NewIntegrationAction(
			channelID, contentType, rec.RecordID(), rec.RecordModifiedDate(), localBatchID)
		if err != nil {
			return nil, err
		}
		created = append(created, row)
		actions = append(actions, row)
	}
	if len(created) > 0 {
		if err := o.ledger.CreateBatch(ctx, created); err != nil {
			return nil, err
		}
	}
	if len(reclaimed) > 0 {
		if err := o.ledger.UpdateBatch(ctx, reclaimed); err != nil {
			return nil, err
		}
	}
	return actions, nil
}

// abort releases the batch's ledger rows, finalizes the batch as failed and
// preserves the underlying error for the caller.
func (o *Orchestrator) abort(ctx context.Context, b *batch.BatchRequest, cause error) error {
	releaseLedgerRows(ctx, o.ledger, o.logger, b)
	if err := o.lifecycle.ToFail(ctx, b); err != nil {
		o.logger.Error("failed to fail batch after submission error",
			zap.String("batch_id", b.ID.String()), zap.Error(err))
	}
	return cause
}
