package batch

import (
	"fmt"
	"time"

	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status represents the lifecycle state of a batch request. Batch requests
// work as a state machine: transitions are one-way and done/fail are terminal.
type Status string

const (
	// StatusInitialized is the initial state of every batch request
	StatusInitialized Status = "initialized"
	// StatusCommit records that objects were selected and their ledger rows
	// tagged as processing, before any remote I/O
	StatusCommit Status = "commit"
	// StatusSentToRemote records that the channel accepted the payload and
	// returned a remote handle
	StatusSentToRemote Status = "sent_to_remote"
	// StatusOngoing records that the remote handle was polled and work is
	// still in progress on the channel side
	StatusOngoing Status = "ongoing"
	// StatusDone is terminal success; individual objects may still carry a
	// failure reason inside the manifest
	StatusDone Status = "done"
	// StatusFail is terminal failure of the whole batch
	StatusFail Status = "fail"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusInitialized, StatusCommit, StatusSentToRemote, StatusOngoing,
		StatusDone, StatusFail:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFail
}

// transitions holds the allowed forward edges of the state machine.
var transitions = map[Status][]Status{
	StatusInitialized:  {StatusCommit, StatusFail},
	StatusCommit:       {StatusSentToRemote, StatusOngoing, StatusDone, StatusFail},
	StatusSentToRemote: {StatusOngoing, StatusDone, StatusFail},
	StatusOngoing:      {StatusOngoing, StatusDone, StatusFail},
}

// CanTransitionTo reports whether the state machine allows moving to next
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Object is one entry of the commit manifest attached to a batch request:
// the outcome tuple for a single local record.
type Object struct {
	ObjectID         uuid.UUID                `json:"object_id"`
	VersionDate      time.Time                `json:"version_date"`
	ContentType      channel.ContentType      `json:"content_type"`
	FailedReasonType channel.FailedReasonType `json:"failed_reason_type,omitempty"`
	RemoteID         string                   `json:"remote_id,omitempty"`
}

// BatchRequest is one unit of synchronization work with its own lifecycle
// status and object manifest. LocalBatchID is the client-generated
// correlation UUID that scopes every integration action created during this
// batch; it never changes after creation and is the sole key used for ledger
// lookups during reconciliation.
type BatchRequest struct {
	shared.BaseEntity
	ChannelID     uuid.UUID           `json:"channel_id"`
	LocalBatchID  uuid.UUID           `json:"local_batch_id"`
	RemoteBatchID *string             `json:"remote_batch_id,omitempty"`
	ContentType   channel.ContentType `json:"content_type"`
	Status        Status              `json:"status"`
	Objects       []Object            `json:"objects,omitempty"`
}

// NewBatchRequest creates a new batch request in initialized state
func NewBatchRequest(channelID uuid.UUID, contentType channel.ContentType) (*BatchRequest, error) {
	if channelID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel ID cannot be empty")
	}
	if !contentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE", fmt.Sprintf("Invalid content type: %s", contentType))
	}
	return &BatchRequest{
		BaseEntity:   shared.NewBaseEntity(),
		ChannelID:    channelID,
		LocalBatchID: uuid.New(),
		ContentType:  contentType,
		Status:       StatusInitialized,
	}, nil
}

// transition moves the batch to the next state, enforcing the one-way rule
func (b *BatchRequest) transition(next Status) error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Batch request is already finalized as %s", b.Status))
	}
	if !b.Status.CanTransitionTo(next) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot transition from %s to %s", b.Status, next))
	}
	b.Status = next
	b.Touch()
	return nil
}

// MarkCommit records that the objects were selected and tagged; the manifest
// carries the processing entries written to the ledger.
func (b *BatchRequest) MarkCommit(objects []Object) error {
	if err := b.transition(StatusCommit); err != nil {
		return err
	}
	b.Objects = objects
	return nil
}

// MarkSentToRemote records that the channel accepted the payload. The remote
// handle is optional: some channels acknowledge without one.
func (b *BatchRequest) MarkSentToRemote(remoteBatchID string) error {
	if err := b.transition(StatusSentToRemote); err != nil {
		return err
	}
	if remoteBatchID != "" {
		b.RemoteBatchID = &remoteBatchID
	}
	return nil
}

// MarkOngoing records that the remote handle was polled and the channel is
// still working. May be applied repeatedly.
func (b *BatchRequest) MarkOngoing() error {
	return b.transition(StatusOngoing)
}

// MarkDone finalizes the batch with per-object outcomes. Objects carrying a
// failure reason do not change the overall status.
func (b *BatchRequest) MarkDone(objects []Object) error {
	if err := b.transition(StatusDone); err != nil {
		return err
	}
	b.Objects = objects
	return nil
}

// MarkFail finalizes the batch as failed. The manifest is nulled to signal
// that nothing could be committed.
func (b *BatchRequest) MarkFail() error {
	if err := b.transition(StatusFail); err != nil {
		return err
	}
	b.Objects = nil
	return nil
}
