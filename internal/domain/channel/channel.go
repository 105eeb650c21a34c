package channel

import (
	"context"

	"github.com/chansync/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ConfKeyRemoteIDAttribute, when present in a channel's configuration, names a
// nested attribute path ("attributes__barcode") to use as the correlation key
// for products instead of the default SKU field.
const ConfKeyRemoteIDAttribute = "remote_id_attribute"

// Channel represents one external marketplace this application synchronizes
// catalog and order data with.
type Channel struct {
	shared.BaseEntity
	Name     string            `json:"name"`
	Code     string            `json:"code"`
	IsActive bool              `json:"is_active"`
	Conf     map[string]string `json:"conf"`
}

// NewChannel creates a new channel
func NewChannel(name, code string) (*Channel, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CHANNEL_NAME", "Channel name cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CHANNEL_CODE", "Channel code cannot be empty")
	}
	return &Channel{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Code:       code,
		IsActive:   true,
		Conf:       make(map[string]string),
	}, nil
}

// ConfValue returns a configuration value, empty string when unset
func (c *Channel) ConfValue(key string) string {
	if c.Conf == nil {
		return ""
	}
	return c.Conf[key]
}

// Repository defines persistence operations for channels
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Channel, error)
	FindByCode(ctx context.Context, code string) (*Channel, error)
	FindActive(ctx context.Context) ([]Channel, error)
	Save(ctx context.Context, ch *Channel) error
}

// ConfProvider supplies channel configuration to callers that must not take a
// hard dependency on the persistence layer, e.g. the content-type registry's
// correlation-key extractors. Implementations may cache.
type ConfProvider interface {
	Conf(ctx context.Context, channelID uuid.UUID) (map[string]string, error)
}
