package sync

import (
	"context"
	"sort"
	"sync"

	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/catalog"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/chansync/backend/internal/domain/report"
	"github.com/chansync/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// fakeBatchRepo is an in-memory batch.Repository with the terminal-write
// guard of the real store.
type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*batch.BatchRequest

	createErr error
	updateErr error
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[uuid.UUID]*batch.BatchRequest)}
}

func cloneBatch(b *batch.BatchRequest) *batch.BatchRequest {
	clone := *b
	if b.Objects != nil {
		clone.Objects = append([]batch.Object(nil), b.Objects...)
	}
	if b.RemoteBatchID != nil {
		remote := *b.RemoteBatchID
		clone.RemoteBatchID = &remote
	}
	return &clone
}

func (r *fakeBatchRepo) Create(_ context.Context, b *batch.BatchRequest) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[b.ID] = cloneBatch(b)
	return nil
}

func (r *fakeBatchRepo) Update(_ context.Context, b *batch.BatchRequest) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.batches[b.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Status.IsTerminal() {
		return batch.ErrAlreadyFinalized
	}
	r.batches[b.ID] = cloneBatch(b)
	return nil
}

func (r *fakeBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*batch.BatchRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneBatch(b), nil
}

func (r *fakeBatchRepo) FindByLocalBatchID(_ context.Context, channelID, localBatchID uuid.UUID) (*batch.BatchRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.ChannelID == channelID && b.LocalBatchID == localBatchID {
			return cloneBatch(b), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeBatchRepo) FindAll(_ context.Context, channelID uuid.UUID, filter batch.Filter) ([]batch.BatchRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []batch.BatchRequest
	for _, b := range r.batches {
		if b.ChannelID != channelID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, *cloneBatch(b))
	}
	return out, int64(len(out)), nil
}

// fakeLedgerRepo is an in-memory ledger.Repository.
type fakeLedgerRepo struct {
	mu      sync.Mutex
	actions map[uuid.UUID]*ledger.IntegrationAction

	listErr   error
	updateErr error
	deleteErr error
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{actions: make(map[uuid.UUID]*ledger.IntegrationAction)}
}

func cloneAction(a *ledger.IntegrationAction) *ledger.IntegrationAction {
	clone := *a
	if a.RemoteID != nil {
		remote := *a.RemoteID
		clone.RemoteID = &remote
	}
	return &clone
}

func (r *fakeLedgerRepo) CreateBatch(_ context.Context, actions []*ledger.IntegrationAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range actions {
		r.actions[a.ID] = cloneAction(a)
	}
	return nil
}

func (r *fakeLedgerRepo) Update(_ context.Context, a *ledger.IntegrationAction) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actions[a.ID]; !ok {
		return shared.ErrNotFound
	}
	r.actions[a.ID] = cloneAction(a)
	return nil
}

func (r *fakeLedgerRepo) UpdateBatch(ctx context.Context, actions []*ledger.IntegrationAction) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	for _, a := range actions {
		if err := r.Update(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeLedgerRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actions, id)
	return nil
}

func (r *fakeLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.IntegrationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneAction(a), nil
}

func (r *fakeLedgerRepo) ListProcessingByBatch(_ context.Context, channelID, localBatchID uuid.UUID) ([]*ledger.IntegrationAction, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.IntegrationAction
	for _, a := range r.actions {
		if a.ChannelID == channelID && a.LocalBatchID == localBatchID && a.Status == ledger.ActionStatusProcessing {
			out = append(out, cloneAction(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeLedgerRepo) ListByRemoteIDs(_ context.Context, channelID uuid.UUID, remoteIDs []string) ([]*ledger.IntegrationAction, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(remoteIDs))
	for _, id := range remoteIDs {
		wanted[id] = true
	}
	var out []*ledger.IntegrationAction
	for _, a := range r.actions {
		if a.ChannelID == channelID && a.RemoteID != nil && wanted[*a.RemoteID] {
			out = append(out, cloneAction(a))
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) FindByObject(_ context.Context, channelID uuid.UUID, contentType channel.ContentType, objectID uuid.UUID) (*ledger.IntegrationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.actions {
		if a.ChannelID == channelID && a.ContentType == contentType && a.ObjectID == objectID {
			return cloneAction(a), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeLedgerRepo) ListByObjects(_ context.Context, channelID uuid.UUID, contentType channel.ContentType, objectIDs []uuid.UUID) ([]*ledger.IntegrationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(objectIDs))
	for _, id := range objectIDs {
		wanted[id] = true
	}
	var out []*ledger.IntegrationAction
	for _, a := range r.actions {
		if a.ChannelID == channelID && a.ContentType == contentType && wanted[a.ObjectID] {
			out = append(out, cloneAction(a))
		}
	}
	return out, nil
}

// snapshot returns a deterministic copy of every ledger row, used for
// idempotency assertions.
func (r *fakeLedgerRepo) snapshot() []ledger.IntegrationAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ledger.IntegrationAction, 0, len(r.actions))
	for _, a := range r.actions {
		clone := cloneAction(a)
		out = append(out, *clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// fakeSink collects error reports.
type fakeSink struct {
	mu      sync.Mutex
	reports []report.ErrorReport
}

func (s *fakeSink) Report(_ context.Context, r *report.ErrorReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, *r)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

// fakeProductStore serves products from a map.
type fakeProductStore struct {
	products map[uuid.UUID]*catalog.Product
	pending  []*catalog.Product
	loadErr  error
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[uuid.UUID]*catalog.Product)}
}

func (s *fakeProductStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	var out []*catalog.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeProductStore) ListPendingExport(_ context.Context, _ uuid.UUID, limit int) ([]*catalog.Product, error) {
	if limit > 0 && len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

type fakeStockStore struct {
	stocks  map[uuid.UUID]*catalog.ProductStock
	pending []*catalog.ProductStock
}

func (s *fakeStockStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*catalog.ProductStock, error) {
	var out []*catalog.ProductStock
	for _, id := range ids {
		if st, ok := s.stocks[id]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *fakeStockStore) ListPendingExport(_ context.Context, _ uuid.UUID, limit int) ([]*catalog.ProductStock, error) {
	if limit > 0 && len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

type fakePriceStore struct {
	prices  map[uuid.UUID]*catalog.ProductPrice
	pending []*catalog.ProductPrice
}

func (s *fakePriceStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*catalog.ProductPrice, error) {
	var out []*catalog.ProductPrice
	for _, id := range ids {
		if p, ok := s.prices[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePriceStore) ListPendingExport(_ context.Context, _ uuid.UUID, limit int) ([]*catalog.ProductPrice, error) {
	if limit > 0 && len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

type fakeImageStore struct {
	images map[uuid.UUID]*catalog.ProductImage
}

func (s *fakeImageStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*catalog.ProductImage, error) {
	var out []*catalog.ProductImage
	for _, id := range ids {
		if img, ok := s.images[id]; ok {
			out = append(out, img)
		}
	}
	return out, nil
}

type fakeOrderStore struct {
	orders map[uuid.UUID]*catalog.Order
}

func (s *fakeOrderStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*catalog.Order, error) {
	var out []*catalog.Order
	for _, id := range ids {
		if o, ok := s.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

// fakeConfProvider serves channel configuration from a map.
type fakeConfProvider struct {
	conf map[uuid.UUID]map[string]string
}

func (p *fakeConfProvider) Conf(_ context.Context, channelID uuid.UUID) (map[string]string, error) {
	if p.conf == nil {
		return map[string]string{}, nil
	}
	c, ok := p.conf[channelID]
	if !ok {
		return map[string]string{}, nil
	}
	return c, nil
}

// fakeAdapter returns scripted results.
type fakeAdapter struct {
	submitResult *channel.SubmitResult
	submitErr    error
	checkResult  *channel.CheckResult
	checkErr     error

	submitted [][]channel.BatchPayloadItem
	polled    []string
}

func (a *fakeAdapter) SubmitBatch(_ context.Context, _ *channel.Channel, _ uuid.UUID, items []channel.BatchPayloadItem) (*channel.SubmitResult, error) {
	a.submitted = append(a.submitted, items)
	if a.submitErr != nil {
		return nil, a.submitErr
	}
	return a.submitResult, nil
}

func (a *fakeAdapter) CheckBatch(_ context.Context, _ *channel.Channel, remoteBatchID string) (*channel.CheckResult, error) {
	a.polled = append(a.polled, remoteBatchID)
	if a.checkErr != nil {
		return nil, a.checkErr
	}
	return a.checkResult, nil
}
