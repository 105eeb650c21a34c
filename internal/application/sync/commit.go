package sync

import (
	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/catalog"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
)

// Outcome is what reconciliation learned about one record: either the remote
// identifier assigned by the channel, or the reason the record failed.
type Outcome struct {
	RemoteID     string
	FailedReason channel.FailedReasonType
	Message      string
}

// Failed reports whether the outcome is a failure
func (o Outcome) Failed() bool {
	return o.FailedReason != ""
}

// ReconciledRecord pairs a ledger row with its loaded record and the outcome
// computed for it. Record is nil when the local record no longer exists.
// Outcomes live here instead of being patched onto loaded records, so the
// data flow from correlation onward stays explicit.
type ReconciledRecord struct {
	Record  catalog.Record
	Action  *ledger.IntegrationAction
	Outcome Outcome
}

// BuildCommitObjects assembles the wire manifest attached to a batch request
// at finalization: one outcome tuple per reconciled record. Pure
// transformation, no I/O.
func BuildCommitObjects(records []ReconciledRecord) []batch.Object {
	objects := make([]batch.Object, 0, len(records))
	for _, r := range records {
		obj := batch.Object{
			ObjectID:         r.Action.ObjectID,
			ContentType:      r.Action.ContentType,
			VersionDate:      r.Action.VersionDate,
			FailedReasonType: r.Outcome.FailedReason,
			RemoteID:         r.Outcome.RemoteID,
		}
		if r.Record != nil {
			obj.VersionDate = r.Record.RecordModifiedDate()
		}
		objects = append(objects, obj)
	}
	return objects
}

// BuildProcessingObjects assembles the manifest attached when records are
// first tagged as processing, before any remote I/O.
func BuildProcessingObjects(records []catalog.Record, contentType channel.ContentType) []batch.Object {
	objects := make([]batch.Object, 0, len(records))
	for _, r := range records {
		objects = append(objects, batch.Object{
			ObjectID:    r.RecordID(),
			ContentType: contentType,
			VersionDate: r.RecordModifiedDate(),
		})
	}
	return objects
}
