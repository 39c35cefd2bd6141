package decision

import "time"

// Status is the terminal state of one decide call.
type Status string

const (
	// StatusResolved means a majority value met the confidence
	// threshold.
	StatusResolved Status = "resolved"
	// StatusLowConfidenceResolved means a majority value exists below
	// the threshold and the caller opted out of "no answer".
	StatusLowConfidenceResolved Status = "low_confidence_resolved"
	// StatusUnresolved means quorum was not met, the vote tied, or all
	// attempts declared the answer undeterminable.
	StatusUnresolved Status = "unresolved"
	// StatusFailed means the request was invalid or no attempt produced
	// a usable response.
	StatusFailed Status = "failed"
)

// VoteDistribution maps each normalized decoded value to the count of
// supporting attempts. Insertion order is irrelevant.
type VoteDistribution map[string]int

// Clone returns a copy of the distribution.
func (d VoteDistribution) Clone() VoteDistribution {
	if d == nil {
		return nil
	}
	out := make(VoteDistribution, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Result is the outcome of one decide call. It is produced once,
// immutable, and owned by the caller.
type Result struct {
	// DecisionID uniquely identifies the decide call.
	DecisionID string `json:"decision_id"`

	Status Status `json:"status"`

	// Value is present only for Resolved and LowConfidenceResolved.
	Value *Value `json:"value,omitempty"`

	// Confidence is winner votes / total decoded attempts, in [0,1].
	Confidence float64 `json:"confidence"`

	Votes VoteDistribution `json:"votes,omitempty"`

	// Traces holds a bounded sample of reasoning traces from decoded
	// attempts, for explainability.
	Traces []string `json:"traces,omitempty"`

	// AttemptsUsed counts attempts that voted; AttemptsRejected counts
	// attempts excluded from the vote (parse-rejected, transport-failed,
	// cancelled, unknown).
	AttemptsUsed     int `json:"attempts_used"`
	AttemptsRejected int `json:"attempts_rejected"`

	Elapsed   time.Duration `json:"elapsed"`
	FromCache bool          `json:"from_cache,omitempty"`
}
