package persistence

import (
	"context"
	"errors"

	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/shared"
	"github.com/chansync/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// terminalStatuses guard every update against overwriting a finalized row.
var terminalStatuses = []batch.Status{batch.StatusDone, batch.StatusFail}

// GormBatchRequestRepository implements batch.Repository using GORM
type GormBatchRequestRepository struct {
	db *gorm.DB
}

// NewGormBatchRequestRepository creates a new GormBatchRequestRepository
func NewGormBatchRequestRepository(db *gorm.DB) *GormBatchRequestRepository {
	return &GormBatchRequestRepository{db: db}
}

// Create persists a new batch request
func (r *GormBatchRequestRepository) Create(ctx context.Context, b *batch.BatchRequest) error {
	model := models.BatchRequestModelFromDomain(b)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update writes the aggregate's current state. The write is conditioned on
// the stored row not being terminal yet; losing that race surfaces as
// batch.ErrAlreadyFinalized so the caller can decide whether the conflict is
// benign.
func (r *GormBatchRequestRepository) Update(ctx context.Context, b *batch.BatchRequest) error {
	model := models.BatchRequestModelFromDomain(b)

	result := r.db.WithContext(ctx).
		Model(&models.BatchRequestModel{}).
		Where("id = ? AND status NOT IN ?", b.ID, terminalStatuses).
		Updates(map[string]interface{}{
			"remote_batch_id": model.RemoteBatchID,
			"status":          model.Status,
			"objects":         model.ObjectsJSON,
			"updated_at":      model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.BatchRequestModel{}).
			Where("id = ?", b.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return batch.ErrAlreadyFinalized
	}
	return nil
}

// FindByID finds a batch request by its ID
func (r *GormBatchRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*batch.BatchRequest, error) {
	var model models.BatchRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByLocalBatchID finds a batch request by its client-generated batch id
func (r *GormBatchRequestRepository) FindByLocalBatchID(ctx context.Context, channelID, localBatchID uuid.UUID) (*batch.BatchRequest, error) {
	var model models.BatchRequestModel
	if err := r.db.WithContext(ctx).
		First(&model, "channel_id = ? AND local_batch_id = ?", channelID, localBatchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll lists batch requests for a channel with filtering and pagination
func (r *GormBatchRequestRepository) FindAll(ctx context.Context, channelID uuid.UUID, filter batch.Filter) ([]batch.BatchRequest, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BatchRequestModel{}).
		Where("channel_id = ?", channelID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ContentType != nil {
		query = query.Where("content_type = ?", *filter.ContentType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var batchModels []models.BatchRequestModel
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&batchModels).Error; err != nil {
		return nil, 0, err
	}

	batches := make([]batch.BatchRequest, len(batchModels))
	for i := range batchModels {
		b, err := batchModels[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		batches[i] = *b
	}
	return batches, total, nil
}
