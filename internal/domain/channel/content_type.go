package channel

// ContentType identifies which kind of local record a ledger row, manifest
// entry or batch request refers to. The set is closed: the reconciliation
// engine fails fast on any value that has no registered handler.
type ContentType string

const (
	ContentTypeBatchRequest      ContentType = "batchrequest"
	ContentTypeProduct           ContentType = "product"
	ContentTypeProductPrice      ContentType = "productprice"
	ContentTypeProductStock      ContentType = "productstock"
	ContentTypeProductImage      ContentType = "productimage"
	ContentTypeOrder             ContentType = "order"
	ContentTypeIntegrationAction ContentType = "integrationaction"
)

// contentTypeIDs maps content type tags to their stable numeric identifiers
// used on the wire. The pairing mirrors what the local system reports.
var contentTypeIDs = map[ContentType]int{
	ContentTypeBatchRequest:      1,
	ContentTypeProduct:           2,
	ContentTypeProductPrice:      3,
	ContentTypeProductStock:      4,
	ContentTypeProductImage:      5,
	ContentTypeOrder:             6,
	ContentTypeIntegrationAction: 7,
}

// IsValid checks if the content type is a known tag
func (c ContentType) IsValid() bool {
	_, ok := contentTypeIDs[c]
	return ok
}

// NumericID returns the stable numeric identifier paired with the tag
func (c ContentType) NumericID() int {
	return contentTypeIDs[c]
}

// String returns the string representation of the content type
func (c ContentType) String() string {
	return string(c)
}

// FailedReasonType classifies why a record could not be processed. A value is
// only set for failures local to a run; a missing value means the record went
// through cleanly.
type FailedReasonType string

const (
	// FailedReasonMapping indicates the record could not be mapped to the
	// channel's shape before submission
	FailedReasonMapping FailedReasonType = "mapping"
	// FailedReasonRemote indicates the remote side rejected the record during
	// submission
	FailedReasonRemote FailedReasonType = "remote"
	// FailedReasonChannelApp indicates the failure was detected by this
	// application while reconciling the channel's response
	FailedReasonChannelApp FailedReasonType = "channel_app"
)

// IsValid checks if the failed reason type is valid
func (f FailedReasonType) IsValid() bool {
	switch f {
	case FailedReasonMapping, FailedReasonRemote, FailedReasonChannelApp:
		return true
	}
	return false
}
