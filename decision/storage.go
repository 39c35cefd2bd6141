package decision

import (
	"context"
	"time"
)

// Record is the audit row persisted for one terminal decision. The vote
// distribution is serialized by the store implementation.
type Record struct {
	DecisionID       string           `json:"decision_id"`
	RequestDigest    string           `json:"request_digest"`
	Status           Status           `json:"status"`
	ValueKey         string           `json:"value_key,omitempty"`
	Confidence       float64          `json:"confidence"`
	Votes            VoteDistribution `json:"votes,omitempty"`
	AttemptsUsed     int              `json:"attempts_used"`
	AttemptsRejected int              `json:"attempts_rejected"`
	Elapsed          time.Duration    `json:"elapsed"`
	CreatedAt        time.Time        `json:"created_at"`
}

// AuditStore persists decision records. Writes are best effort: a store
// failure is logged and counted, never surfaced to the caller.
type AuditStore interface {
	SaveRecord(ctx context.Context, rec *Record) error
}

// ResultCache serves previously computed results for identical requests
// (matched by request digest).
type ResultCache interface {
	Get(ctx context.Context, digest string) (*Result, bool)
	Set(ctx context.Context, digest string, result *Result)
}
