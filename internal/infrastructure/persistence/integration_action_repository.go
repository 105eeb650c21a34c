package persistence

import (
	"context"
	"errors"

	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/chansync/backend/internal/domain/shared"
	"github.com/chansync/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// listPageSize pages scoped ledger scans so one oversized batch cannot pull
// the whole table into memory at once.
const listPageSize = 500

// GormIntegrationActionRepository implements ledger.Repository using GORM
type GormIntegrationActionRepository struct {
	db *gorm.DB
}

// NewGormIntegrationActionRepository creates a new GormIntegrationActionRepository
func NewGormIntegrationActionRepository(db *gorm.DB) *GormIntegrationActionRepository {
	return &GormIntegrationActionRepository{db: db}
}

// CreateBatch persists a set of ledger rows in one insert
func (r *GormIntegrationActionRepository) CreateBatch(ctx context.Context, actions []*ledger.IntegrationAction) error {
	if len(actions) == 0 {
		return nil
	}
	actionModels := make([]models.IntegrationActionModel, len(actions))
	for i, a := range actions {
		actionModels[i].FromDomain(a)
	}
	return r.db.WithContext(ctx).Create(&actionModels).Error
}

// Update writes one ledger row
func (r *GormIntegrationActionRepository) Update(ctx context.Context, a *ledger.IntegrationAction) error {
	model := models.IntegrationActionModelFromDomain(a)
	result := r.db.WithContext(ctx).
		Model(&models.IntegrationActionModel{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"remote_id":     model.RemoteID,
			"status":        model.Status,
			"failed_reason": model.FailedReason,
			"version_date":  model.VersionDate,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateBatch writes a set of ledger rows in one transaction, so a
// reconciliation either settles all its rows or none of them
func (r *GormIntegrationActionRepository) UpdateBatch(ctx context.Context, actions []*ledger.IntegrationAction) error {
	if len(actions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := &GormIntegrationActionRepository{db: tx}
		for _, a := range actions {
			if err := scoped.Update(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes one ledger row, re-opening its object's slot for future exports
func (r *GormIntegrationActionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.IntegrationActionModel{}, "id = ?", id).Error
}

// FindByID finds a ledger row by its ID
func (r *GormIntegrationActionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.IntegrationAction, error) {
	var model models.IntegrationActionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListProcessingByBatch returns every processing row scoped to the batch,
// paging internally until the result is exhausted
func (r *GormIntegrationActionRepository) ListProcessingByBatch(ctx context.Context, channelID, localBatchID uuid.UUID) ([]*ledger.IntegrationAction, error) {
	var out []*ledger.IntegrationAction
	for offset := 0; ; offset += listPageSize {
		var actionModels []models.IntegrationActionModel
		if err := r.db.WithContext(ctx).
			Where("channel_id = ? AND local_batch_id = ? AND status = ?",
				channelID, localBatchID, ledger.ActionStatusProcessing).
			Order("created_at ASC").
			Offset(offset).
			Limit(listPageSize).
			Find(&actionModels).Error; err != nil {
			return nil, err
		}
		for i := range actionModels {
			out = append(out, actionModels[i].ToDomain())
		}
		if len(actionModels) < listPageSize {
			return out, nil
		}
	}
}

// ListByRemoteIDs returns rows matching the given remote identifiers
func (r *GormIntegrationActionRepository) ListByRemoteIDs(ctx context.Context, channelID uuid.UUID, remoteIDs []string) ([]*ledger.IntegrationAction, error) {
	if len(remoteIDs) == 0 {
		return nil, nil
	}
	var actionModels []models.IntegrationActionModel
	if err := r.db.WithContext(ctx).
		Where("channel_id = ? AND remote_id IN ?", channelID, remoteIDs).
		Find(&actionModels).Error; err != nil {
		return nil, err
	}
	out := make([]*ledger.IntegrationAction, len(actionModels))
	for i := range actionModels {
		out[i] = actionModels[i].ToDomain()
	}
	return out, nil
}

// FindByObject returns the ledger row for one local record on a channel
func (r *GormIntegrationActionRepository) FindByObject(ctx context.Context, channelID uuid.UUID, contentType channel.ContentType, objectID uuid.UUID) (*ledger.IntegrationAction, error) {
	var model models.IntegrationActionModel
	if err := r.db.WithContext(ctx).
		First(&model, "channel_id = ? AND content_type = ? AND object_id = ?",
			channelID, contentType, objectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByObjects bulk-resolves ledger rows for a set of local records
func (r *GormIntegrationActionRepository) ListByObjects(ctx context.Context, channelID uuid.UUID, contentType channel.ContentType, objectIDs []uuid.UUID) ([]*ledger.IntegrationAction, error) {
	if len(objectIDs) == 0 {
		return nil, nil
	}
	var actionModels []models.IntegrationActionModel
	if err := r.db.WithContext(ctx).
		Where("channel_id = ? AND content_type = ? AND object_id IN ?",
			channelID, contentType, objectIDs).
		Find(&actionModels).Error; err != nil {
		return nil, err
	}
	out := make([]*ledger.IntegrationAction, len(actionModels))
	for i := range actionModels {
		out[i] = actionModels[i].ToDomain()
	}
	return out, nil
}
