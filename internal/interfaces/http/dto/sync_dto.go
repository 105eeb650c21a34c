package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/report"
)

// CreateBatchRequest is the body for opening a new batch request
type CreateBatchRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// Reconcile operations. Upsert responses correlate by business key; delete
// responses correlate by remote id and prune the ledger.
const (
	ReconcileOperationUpsert = "upsert"
	ReconcileOperationDelete = "delete"
)

// ReconcileRequest carries a remote channel's batch response for reconciliation
type ReconcileRequest struct {
	Operation string                `json:"operation" binding:"omitempty,oneof=upsert delete"`
	Items     []ResponseItemRequest `json:"items" binding:"required"`
}

// ResponseItemRequest is one record of a remote batch response
type ResponseItemRequest struct {
	Status   string `json:"status" binding:"required,oneof=SUCCESS FAIL"`
	Key      string `json:"key"`
	RemoteID string `json:"remote_id"`
	Message  string `json:"message"`
}

// ToDomain converts the request items to domain response items
func (r *ReconcileRequest) ToDomain() []channel.ResponseItem {
	items := make([]channel.ResponseItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, channel.ResponseItem{
			Status:   channel.ResponseStatus(item.Status),
			Key:      item.Key,
			RemoteID: item.RemoteID,
			Message:  item.Message,
		})
	}
	return items
}

// ListBatchesRequest holds query parameters for the batch listing endpoint
type ListBatchesRequest struct {
	ListRequest
	Status      string `form:"status" binding:"omitempty,oneof=initialized commit sent_to_remote ongoing done fail"`
	ContentType string `form:"content_type"`
}

// BatchObjectResponse is one manifest entry of a batch request
type BatchObjectResponse struct {
	ObjectID         uuid.UUID `json:"object_id"`
	VersionDate      time.Time `json:"version_date"`
	ContentType      string    `json:"content_type"`
	FailedReasonType string    `json:"failed_reason_type,omitempty"`
	RemoteID         string    `json:"remote_id,omitempty"`
}

// BatchResponse represents a batch request in API responses
type BatchResponse struct {
	ID            uuid.UUID             `json:"id"`
	ChannelID     uuid.UUID             `json:"channel_id"`
	LocalBatchID  uuid.UUID             `json:"local_batch_id"`
	RemoteBatchID *string               `json:"remote_batch_id,omitempty"`
	ContentType   string                `json:"content_type"`
	Status        string                `json:"status"`
	Objects       []BatchObjectResponse `json:"objects,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// NewBatchResponse builds a BatchResponse from the domain aggregate
func NewBatchResponse(b *batch.BatchRequest) BatchResponse {
	resp := BatchResponse{
		ID:            b.ID,
		ChannelID:     b.ChannelID,
		LocalBatchID:  b.LocalBatchID,
		RemoteBatchID: b.RemoteBatchID,
		ContentType:   b.ContentType.String(),
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	for _, obj := range b.Objects {
		resp.Objects = append(resp.Objects, BatchObjectResponse{
			ObjectID:         obj.ObjectID,
			VersionDate:      obj.VersionDate,
			ContentType:      obj.ContentType.String(),
			FailedReasonType: string(obj.FailedReasonType),
			RemoteID:         obj.RemoteID,
		})
	}
	return resp
}

// ListErrorReportsRequest holds query parameters for the error report listing
type ListErrorReportsRequest struct {
	ListRequest
	ChannelID   string `form:"channel_id" binding:"omitempty,uuid"`
	ContentType string `form:"content_type"`
	IsOK        *bool  `form:"is_ok"`
}

// ErrorReportResponse represents an error report in API responses
type ErrorReportResponse struct {
	ID               uuid.UUID `json:"id"`
	ChannelID        uuid.UUID `json:"channel_id"`
	ContentType      string    `json:"content_type"`
	ObjectID         uuid.UUID `json:"object_id"`
	ObjectModifiedAt time.Time `json:"object_modified_at"`
	ErrorCode        string    `json:"error_code"`
	ErrorDescription string    `json:"error_description"`
	IsOK             bool      `json:"is_ok"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewErrorReportResponse builds an ErrorReportResponse from the domain entity
func NewErrorReportResponse(r *report.ErrorReport) ErrorReportResponse {
	return ErrorReportResponse{
		ID:               r.ID,
		ChannelID:        r.ChannelID,
		ContentType:      r.ContentType.String(),
		ObjectID:         r.ObjectID,
		ObjectModifiedAt: r.ObjectModifiedAt,
		ErrorCode:        r.ErrorCode,
		ErrorDescription: r.ErrorDescription,
		IsOK:             r.IsOK,
		CreatedAt:        r.CreatedAt,
	}
}

// CreateChannelRequest is the body for registering a new channel
type CreateChannelRequest struct {
	Name string            `json:"name" binding:"required"`
	Code string            `json:"code" binding:"required"`
	Conf map[string]string `json:"conf"`
}

// ChannelResponse represents a channel in API responses
type ChannelResponse struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Code      string            `json:"code"`
	IsActive  bool              `json:"is_active"`
	Conf      map[string]string `json:"conf,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewChannelResponse builds a ChannelResponse from the domain entity
func NewChannelResponse(ch *channel.Channel) ChannelResponse {
	return ChannelResponse{
		ID:        ch.ID,
		Name:      ch.Name,
		Code:      ch.Code,
		IsActive:  ch.IsActive,
		Conf:      ch.Conf,
		CreatedAt: ch.CreatedAt,
		UpdatedAt: ch.UpdatedAt,
	}
}
