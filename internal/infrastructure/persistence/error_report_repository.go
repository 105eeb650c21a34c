package persistence

import (
	"context"

	"github.com/chansync/backend/internal/domain/report"
	"github.com/chansync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormErrorReportRepository implements report.Repository using GORM
type GormErrorReportRepository struct {
	db *gorm.DB
}

// NewGormErrorReportRepository creates a new GormErrorReportRepository
func NewGormErrorReportRepository(db *gorm.DB) *GormErrorReportRepository {
	return &GormErrorReportRepository{db: db}
}

// Report appends one error report
func (r *GormErrorReportRepository) Report(ctx context.Context, rep *report.ErrorReport) error {
	model := &models.ErrorReportModel{}
	model.FromDomain(rep)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindAll lists error reports with filtering and pagination
func (r *GormErrorReportRepository) FindAll(ctx context.Context, filter report.Filter) ([]report.ErrorReport, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ErrorReportModel{})

	if filter.ChannelID != nil {
		query = query.Where("channel_id = ?", *filter.ChannelID)
	}
	if filter.ContentType != nil {
		query = query.Where("content_type = ?", *filter.ContentType)
	}
	if filter.IsOK != nil {
		query = query.Where("is_ok = ?", *filter.IsOK)
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

	var reportModels []models.ErrorReportModel
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reportModels).Error; err != nil {
		return nil, 0, err
	}

	reports := make([]report.ErrorReport, len(reportModels))
	for i, model := range reportModels {
		reports[i] = *model.ToDomain()
	}
	return reports, total, nil
}
