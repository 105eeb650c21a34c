package report

import (
	"context"
	"time"

	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrorReport is one inspection record written whenever a batch or one of its
// records fails. Reports are append-only; nothing is ever silently dropped
// except the duplicate-terminal-write conflict the lifecycle controller
// swallows.
type ErrorReport struct {
	shared.BaseEntity
	ChannelID        uuid.UUID           `json:"channel_id"`
	ContentType      channel.ContentType `json:"content_type"`
	ObjectID         uuid.UUID           `json:"object_id"`
	ObjectModifiedAt time.Time           `json:"object_modified_at"`
	ErrorCode        string              `json:"error_code"`
	ErrorDescription string              `json:"error_description"`
	RawRequest       string              `json:"raw_request,omitempty"`
	RawResponse      string              `json:"raw_response,omitempty"`
	IsOK             bool                `json:"is_ok"`
}

// NewErrorReport creates an error report
func NewErrorReport(
	channelID uuid.UUID,
	contentType channel.ContentType,
	objectID uuid.UUID,
	objectModifiedAt time.Time,
	errorCode, errorDescription string,
) *ErrorReport {
	return &ErrorReport{
		BaseEntity:       shared.NewBaseEntity(),
		ChannelID:        channelID,
		ContentType:      contentType,
		ObjectID:         objectID,
		ObjectModifiedAt: objectModifiedAt,
		ErrorCode:        errorCode,
		ErrorDescription: errorDescription,
		IsOK:             false,
	}
}

// Filter defines filter criteria for listing error reports
type Filter struct {
	ChannelID   *uuid.UUID
	ContentType *channel.ContentType
	IsOK        *bool
	Page        int
	PageSize    int
}

// Sink accepts error reports for later inspection
type Sink interface {
	Report(ctx context.Context, r *ErrorReport) error
}

// Repository extends the sink with read access for the inspection surface
type Repository interface {
	Sink
	FindAll(ctx context.Context, filter Filter) ([]ErrorReport, int64, error)
}
