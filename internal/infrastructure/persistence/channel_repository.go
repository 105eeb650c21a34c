package persistence

import (
	"context"
	"errors"

	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/shared"
	"github.com/chansync/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormChannelRepository implements channel.Repository using GORM
type GormChannelRepository struct {
	db *gorm.DB
}

// NewGormChannelRepository creates a new GormChannelRepository
func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

// FindByID finds a channel by its ID
func (r *GormChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.Channel, error) {
	var model models.ChannelModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a channel by its unique code
func (r *GormChannelRepository) FindByCode(ctx context.Context, code string) (*channel.Channel, error) {
	var model models.ChannelModel
	if err := r.db.WithContext(ctx).First(&model, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive lists every active channel
func (r *GormChannelRepository) FindActive(ctx context.Context) ([]channel.Channel, error) {
	var channelModels []models.ChannelModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&channelModels).Error; err != nil {
		return nil, err
	}
	channels := make([]channel.Channel, len(channelModels))
	for i, model := range channelModels {
		channels[i] = *model.ToDomain()
	}
	return channels, nil
}

// Save upserts a channel
func (r *GormChannelRepository) Save(ctx context.Context, ch *channel.Channel) error {
	model := models.ChannelModelFromDomain(ch)
	return r.db.WithContext(ctx).Save(model).Error
}
