package models

import (
	"time"

	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/google/uuid"
)

// IntegrationActionModel is the persistence model for ledger rows. The
// partial unique constraint keeping at most one processing row per
// (channel, content type, object) lives in the migrations.
type IntegrationActionModel struct {
	BaseModel
	ChannelID    uuid.UUID                `gorm:"type:uuid;not null;index:idx_integration_actions_scope,priority:1"`
	ContentType  channel.ContentType      `gorm:"type:varchar(30);not null;index:idx_integration_actions_object,priority:2"`
	ObjectID     uuid.UUID                `gorm:"type:uuid;not null;index:idx_integration_actions_object,priority:3"`
	RemoteID     *string                  `gorm:"type:varchar(100);index:idx_integration_actions_remote"`
	VersionDate  time.Time                `gorm:"not null"`
	Status       ledger.ActionStatus      `gorm:"type:varchar(20);not null;index:idx_integration_actions_scope,priority:3"`
	LocalBatchID uuid.UUID                `gorm:"type:uuid;not null;index:idx_integration_actions_scope,priority:2"`
	FailedReason channel.FailedReasonType `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (IntegrationActionModel) TableName() string {
	return "integration_actions"
}

// ToDomain converts the persistence model to a domain IntegrationAction.
func (m *IntegrationActionModel) ToDomain() *ledger.IntegrationAction {
	return &ledger.IntegrationAction{
		BaseEntity:   m.BaseModel.ToDomain(),
		ChannelID:    m.ChannelID,
		ContentType:  m.ContentType,
		ObjectID:     m.ObjectID,
		RemoteID:     m.RemoteID,
		VersionDate:  m.VersionDate,
		Status:       m.Status,
		LocalBatchID: m.LocalBatchID,
		FailedReason: m.FailedReason,
	}
}

// FromDomain populates the persistence model from a domain IntegrationAction.
func (m *IntegrationActionModel) FromDomain(a *ledger.IntegrationAction) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.ChannelID = a.ChannelID
	m.ContentType = a.ContentType
	m.ObjectID = a.ObjectID
	m.RemoteID = a.RemoteID
	m.VersionDate = a.VersionDate
	m.Status = a.Status
	m.LocalBatchID = a.LocalBatchID
	m.FailedReason = a.FailedReason
}

// IntegrationActionModelFromDomain creates a new persistence model from a domain IntegrationAction.
func IntegrationActionModelFromDomain(a *ledger.IntegrationAction) *IntegrationActionModel {
	m := &IntegrationActionModel{}
	m.FromDomain(a)
	return m
}
