package decision

import "time"

// OutcomeKind classifies how one reasoning attempt settled.
type OutcomeKind string

const (
	// OutcomeDecoded means the raw text parsed into a typed value.
	OutcomeDecoded OutcomeKind = "decoded"
	// OutcomeUnknown means the model signalled the answer cannot be
	// determined. Unknown attempts count toward quorum accounting but
	// never vote.
	OutcomeUnknown OutcomeKind = "unknown"
	// OutcomeParseRejected means the raw text failed typed decoding.
	OutcomeParseRejected OutcomeKind = "parse_rejected"
	// OutcomeTransportFailed means the generation call failed after
	// retries.
	OutcomeTransportFailed OutcomeKind = "transport_failed"
	// OutcomeCancelled means the batch deadline expired before the
	// attempt completed.
	OutcomeCancelled OutcomeKind = "cancelled"
)

// RejectReason is the structured cause of a parse rejection.
type RejectReason string

const (
	RejectAmbiguousBoolean RejectReason = "AmbiguousBoolean"
	RejectNoIntegerFound   RejectReason = "NoIntegerFound"
	RejectOutOfBounds      RejectReason = "OutOfBounds"
	RejectNotInAllowedSet  RejectReason = "NotInAllowedSet"
	RejectEmptyResponse    RejectReason = "EmptyResponse"
)

// Attempt is one independent invocation of the generation collaborator
// plus its decoded outcome. It is created by the runner, immutable once
// settled, and consumed only by aggregation.
type Attempt struct {
	Index       int           `json:"index"`
	Temperature float64       `json:"temperature"`
	RawText     string        `json:"raw_text,omitempty"`
	Outcome     OutcomeKind   `json:"outcome"`
	Value       Value         `json:"value,omitempty"`
	Reason      RejectReason  `json:"reason,omitempty"`
	Failure     string        `json:"failure,omitempty"`
	Elapsed     time.Duration `json:"elapsed,omitempty"`
}

// Voted reports whether the attempt contributes a vote.
func (a Attempt) Voted() bool { return a.Outcome == OutcomeDecoded }

// QuorumEligible reports whether the attempt reached the decoder at all
// (decoded, unknown, or parse-rejected). Transport failures and
// cancellations never reached a usable response.
func (a Attempt) QuorumEligible() bool {
	switch a.Outcome {
	case OutcomeDecoded, OutcomeUnknown, OutcomeParseRejected:
		return true
	}
	return false
}
