package channel

import (
	"context"

	"github.com/google/uuid"
)

// ResponseStatus is the per-item outcome reported by a remote channel
type ResponseStatus string

const (
	ResponseStatusSuccess ResponseStatus = "SUCCESS"
	ResponseStatusFail    ResponseStatus = "FAIL"
)

// IsValid checks if the response status is valid
func (s ResponseStatus) IsValid() bool {
	return s == ResponseStatusSuccess || s == ResponseStatusFail
}

// ResponseItem is one record of a remote channel's batch response. Key carries
// the business correlation key (SKU for catalog records, order number for
// orders) shared by both systems; RemoteID is only present on success because
// learning it for the first time is the point of reconciliation.
type ResponseItem struct {
	Status   ResponseStatus `json:"status"`
	RemoteID string         `json:"remote_id,omitempty"`
	Key      string         `json:"key"`
	Message  string         `json:"message,omitempty"`
}

// SubmitResult is what a channel adapter returns for a batch submission.
// Synchronous channels answer with Completed=true and the items inline;
// asynchronous channels hand back a remote batch handle to poll later.
type SubmitResult struct {
	Completed     bool
	RemoteBatchID string
	Items         []ResponseItem
}

// CheckResult is what a channel adapter returns when an asynchronous batch
// handle is polled.
type CheckResult struct {
	Running bool
	Items   []ResponseItem
}

// BatchPayloadItem is one record of the payload handed to a channel adapter
// on submission.
type BatchPayloadItem struct {
	ObjectID    uuid.UUID              `json:"object_id"`
	ContentType ContentType            `json:"content_type"`
	Key         string                 `json:"key"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Adapter is the port to one remote marketplace. Implementations own
// transport, authentication and per-channel DTO mapping; timeout policy
// belongs to them as well.
type Adapter interface {
	// SubmitBatch hands a batch payload to the channel
	SubmitBatch(ctx context.Context, ch *Channel, localBatchID uuid.UUID, items []BatchPayloadItem) (*SubmitResult, error)
	// CheckBatch polls a previously returned remote batch handle
	CheckBatch(ctx context.Context, ch *Channel, remoteBatchID string) (*CheckResult, error)
}
