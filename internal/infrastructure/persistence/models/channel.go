package models

import (
	"encoding/json"

	"github.com/chansync/backend/internal/domain/channel"
)

// ChannelModel is the persistence model for the Channel domain entity.
type ChannelModel struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);not null"`
	Code     string `gorm:"type:varchar(50);not null;uniqueIndex:idx_channels_code"`
	IsActive bool   `gorm:"not null;default:true"`
	ConfJSON string `gorm:"type:jsonb;column:conf"`
}

// TableName returns the table name for GORM
func (ChannelModel) TableName() string {
	return "channels"
}

// ToDomain converts the persistence model to a domain Channel entity.
func (m *ChannelModel) ToDomain() *channel.Channel {
	ch := &channel.Channel{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Code:       m.Code,
		IsActive:   m.IsActive,
		Conf:       make(map[string]string),
	}
	if m.ConfJSON != "" {
		var conf map[string]string
		if err := json.Unmarshal([]byte(m.ConfJSON), &conf); err == nil {
			ch.Conf = conf
		}
	}
	return ch
}

// FromDomain populates the persistence model from a domain Channel entity.
func (m *ChannelModel) FromDomain(ch *channel.Channel) {
	m.FromDomainBaseEntity(ch.BaseEntity)
	m.Name = ch.Name
	m.Code = ch.Code
	m.IsActive = ch.IsActive
	if len(ch.Conf) > 0 {
		if b, err := json.Marshal(ch.Conf); err == nil {
			m.ConfJSON = string(b)
		}
	} else {
		m.ConfJSON = "{}"
	}
}

// ChannelModelFromDomain creates a new persistence model from a domain Channel entity.
func ChannelModelFromDomain(ch *channel.Channel) *ChannelModel {
	m := &ChannelModel{}
	m.FromDomain(ch)
	return m
}
