package ledger

import (
	"fmt"
	"time"

	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ActionStatus is the lifecycle status of a ledger row
type ActionStatus string

const (
	// ActionStatusProcessing marks a row claimed by an in-flight batch. At
	// most one row per (channel, content type, object) should be processing
	// at a time.
	ActionStatusProcessing ActionStatus = "processing"
	// ActionStatusSuccess marks a row whose record was confirmed by the
	// channel; RemoteID is known from this point on
	ActionStatusSuccess ActionStatus = "success"
	// ActionStatusError marks a row whose record the channel rejected or
	// never addressed
	ActionStatusError ActionStatus = "error"
)

// IsValid checks if the status is valid
func (s ActionStatus) IsValid() bool {
	switch s {
	case ActionStatusProcessing, ActionStatusSuccess, ActionStatusError:
		return true
	}
	return false
}

// IntegrationAction is one row of the correlation ledger: the link between a
// local record and its remote counterpart on a channel. LocalBatchID scopes
// the row to exactly one in-flight batch, which is what keeps concurrent
// batches from touching each other's rows during reconciliation.
type IntegrationAction struct {
	shared.BaseEntity
	ChannelID    uuid.UUID                `json:"channel_id"`
	ContentType  channel.ContentType      `json:"content_type"`
	ObjectID     uuid.UUID                `json:"object_id"`
	RemoteID     *string                  `json:"remote_id,omitempty"`
	VersionDate  time.Time                `json:"version_date"`
	Status       ActionStatus             `json:"status"`
	LocalBatchID uuid.UUID                `json:"local_batch_id"`
	FailedReason channel.FailedReasonType `json:"failed_reason,omitempty"`
}

// NewIntegrationAction creates a processing ledger row claimed by the given batch
func NewIntegrationAction(
	channelID uuid.UUID,
	contentType channel.ContentType,
	objectID uuid.UUID,
	versionDate time.Time,
	localBatchID uuid.UUID,
) (*IntegrationAction, error) {
	if channelID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel ID cannot be empty")
	}
	if !contentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE", fmt.Sprintf("Invalid content type: %s", contentType))
	}
	if objectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OBJECT", "Object ID cannot be empty")
	}
	if localBatchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BATCH", "Local batch ID cannot be empty")
	}
	return &IntegrationAction{
		BaseEntity:   shared.NewBaseEntity(),
		ChannelID:    channelID,
		ContentType:  contentType,
		ObjectID:     objectID,
		VersionDate:  versionDate,
		Status:       ActionStatusProcessing,
		LocalBatchID: localBatchID,
	}, nil
}

// Confirm records the remote identifier learned from the channel's response
// and settles the row as success.
func (a *IntegrationAction) Confirm(remoteID string) error {
	if a.Status != ActionStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm action in state %s", a.Status))
	}
	if remoteID == "" {
		return shared.NewDomainError("INVALID_REMOTE_ID", "Remote ID cannot be empty on confirmation")
	}
	a.Status = ActionStatusSuccess
	a.RemoteID = &remoteID
	a.FailedReason = ""
	a.Touch()
	return nil
}

// Reject settles the row as error with the reason the record could not be
// processed. A remote identifier earned by an earlier export is kept.
func (a *IntegrationAction) Reject(reason channel.FailedReasonType) error {
	if a.Status != ActionStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject action in state %s", a.Status))
	}
	if !reason.IsValid() {
		return shared.NewDomainError("INVALID_REASON", fmt.Sprintf("Invalid failed reason: %s", reason))
	}
	a.Status = ActionStatusError
	a.FailedReason = reason
	a.Touch()
	return nil
}

// Reclaim moves a settled row back to processing on behalf of a new batch,
// carrying a fresh version date. The remote identifier earned by an earlier
// export is kept so correlation by remote id keeps working. A row claimed by
// an in-flight batch cannot be reclaimed.
func (a *IntegrationAction) Reclaim(versionDate time.Time, localBatchID uuid.UUID) error {
	if a.Status == ActionStatusProcessing {
		return shared.NewDomainError("ALREADY_CLAIMED", fmt.Sprintf("Action already claimed by batch %s", a.LocalBatchID))
	}
	if localBatchID == uuid.Nil {
		return shared.NewDomainError("INVALID_BATCH", "Local batch ID cannot be empty")
	}
	a.Status = ActionStatusProcessing
	a.VersionDate = versionDate
	a.LocalBatchID = localBatchID
	a.FailedReason = ""
	a.Touch()
	return nil
}

// IsStale reports whether the local record changed after this row was last
// synchronized, meaning the record is a candidate for re-export.
func (a *IntegrationAction) IsStale(modifiedDate time.Time) bool {
	return modifiedDate.After(a.VersionDate)
}
