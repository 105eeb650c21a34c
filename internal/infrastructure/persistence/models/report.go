package models

import (
	"time"

	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/report"
	"github.com/google/uuid"
)

// ErrorReportModel is the persistence model for ErrorReport.
type ErrorReportModel struct {
	BaseModel
	ChannelID        uuid.UUID           `gorm:"type:uuid;not null;index:idx_error_reports_channel"`
	ContentType      channel.ContentType `gorm:"type:varchar(30);not null"`
	ObjectID         uuid.UUID           `gorm:"type:uuid;not null;index:idx_error_reports_object"`
	ObjectModifiedAt time.Time           `gorm:"not null"`
	ErrorCode        string              `gorm:"type:varchar(100);not null"`
	ErrorDescription string              `gorm:"type:text"`
	RawRequest       string              `gorm:"type:text"`
	RawResponse      string              `gorm:"type:text"`
	IsOK             bool                `gorm:"not null;default:false;column:is_ok"`
}

// TableName returns the table name for GORM
func (ErrorReportModel) TableName() string {
	return "error_reports"
}

// ToDomain converts the persistence model to a domain ErrorReport.
func (m *ErrorReportModel) ToDomain() *report.ErrorReport {
	return &report.ErrorReport{
		BaseEntity:       m.BaseModel.ToDomain(),
		ChannelID:        m.ChannelID,
		ContentType:      m.ContentType,
		ObjectID:         m.ObjectID,
		ObjectModifiedAt: m.ObjectModifiedAt,
		ErrorCode:        m.ErrorCode,
		ErrorDescription: m.ErrorDescription,
		RawRequest:       m.RawRequest,
		RawResponse:      m.RawResponse,
		IsOK:             m.IsOK,
	}
}

// FromDomain populates the persistence model from a domain ErrorReport.
func (m *ErrorReportModel) FromDomain(r *report.ErrorReport) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.ChannelID = r.ChannelID
	m.ContentType = r.ContentType
	m.ObjectID = r.ObjectID
	m.ObjectModifiedAt = r.ObjectModifiedAt
	m.ErrorCode = r.ErrorCode
	m.ErrorDescription = r.ErrorDescription
	m.RawRequest = r.RawRequest
	m.RawResponse = r.RawResponse
	m.IsOK = r.IsOK
}
