package models

import (
	"encoding/json"
	"fmt"

	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/google/uuid"
)

// BatchRequestModel is the persistence model for the BatchRequest aggregate.
// ObjectsJSON holds the commit manifest; a SQL NULL distinguishes a nulled
// manifest (failed batch) from an empty one.
type BatchRequestModel struct {
	BaseModel
	ChannelID     uuid.UUID           `gorm:"type:uuid;not null;index:idx_batch_requests_channel"`
	LocalBatchID  uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_batch_requests_local_batch"`
	RemoteBatchID *string             `gorm:"type:varchar(100)"`
	ContentType   channel.ContentType `gorm:"type:varchar(30);not null"`
	Status        batch.Status        `gorm:"type:varchar(20);not null;index:idx_batch_requests_status"`
	ObjectsJSON   *string             `gorm:"type:jsonb;column:objects"`
}

// TableName returns the table name for GORM
func (BatchRequestModel) TableName() string {
	return "batch_requests"
}

// ToDomain converts the persistence model to a domain BatchRequest aggregate.
// A manifest that no longer parses is surfaced as an error rather than
// silently read back as a nulled manifest.
func (m *BatchRequestModel) ToDomain() (*batch.BatchRequest, error) {
	b := &batch.BatchRequest{
		BaseEntity:    m.BaseModel.ToDomain(),
		ChannelID:     m.ChannelID,
		LocalBatchID:  m.LocalBatchID,
		RemoteBatchID: m.RemoteBatchID,
		ContentType:   m.ContentType,
		Status:        m.Status,
	}
	if m.ObjectsJSON != nil && *m.ObjectsJSON != "" {
		var objects []batch.Object
		if err := json.Unmarshal([]byte(*m.ObjectsJSON), &objects); err != nil {
			return nil, fmt.Errorf("decoding manifest of batch %s: %w", m.ID, err)
		}
		b.Objects = objects
	}
	return b, nil
}

// FromDomain populates the persistence model from a domain BatchRequest.
func (m *BatchRequestModel) FromDomain(b *batch.BatchRequest) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.ChannelID = b.ChannelID
	m.LocalBatchID = b.LocalBatchID
	m.RemoteBatchID = b.RemoteBatchID
	m.ContentType = b.ContentType
	m.Status = b.Status
	if b.Objects == nil {
		m.ObjectsJSON = nil
	} else if raw, err := json.Marshal(b.Objects); err == nil {
		s := string(raw)
		m.ObjectsJSON = &s
	}
}

// BatchRequestModelFromDomain creates a new persistence model from a domain BatchRequest.
func BatchRequestModelFromDomain(b *batch.BatchRequest) *BatchRequestModel {
	m := &BatchRequestModel{}
	m.FromDomain(b)
	return m
}
