package llm

import (
	"context"
	"time"

	"github.com/BaSui01/decisionflow/types"
)

// GenerateRequest is one synchronous generation call. Temperature is set
// per attempt by the reasoning runner; a request never carries state from
// other attempts.
type GenerateRequest struct {
	TraceID     string            `json:"trace_id,omitempty"`
	Model       string            `json:"model,omitempty"`
	Prompt      string            `json:"prompt"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Stop        []string          `json:"stop,omitempty"`
	Timeout     time.Duration     `json:"timeout,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// GenerateUsage reports token consumption for one call.
type GenerateUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// GenerateResponse is the raw text produced by the collaborator.
type GenerateResponse struct {
	ID           string        `json:"id,omitempty"`
	Provider     string        `json:"provider,omitempty"`
	Model        string        `json:"model,omitempty"`
	Text         string        `json:"text"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Usage        GenerateUsage `json:"usage,omitempty"`
	CreatedAt    time.Time     `json:"created_at,omitempty"`
}

// HealthStatus reports the result of a provider health probe.
type HealthStatus struct {
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency"`
	ErrorRate float64       `json:"error_rate"`
}

// Provider is the generation capability the decision engine consumes.
// Implementations must be safe for concurrent use; the engine fans out
// many Generate calls at once.
type Provider interface {
	// Generate performs one synchronous text generation.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// HealthCheck performs a lightweight availability probe.
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// Name returns the provider's unique identifier.
	Name() string
}

// TransportError builds a retryable transport error attributed to a provider.
func TransportError(provider string, cause error) *types.Error {
	return types.NewError(types.ErrUpstreamError, "generation call failed").
		WithProvider(provider).
		WithRetryable(true).
		WithCause(cause)
}
