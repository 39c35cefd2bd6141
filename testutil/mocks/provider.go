// Package mocks provides test doubles for the generation provider.
//
// MockProvider supports fixed responses, per-call response sequences,
// error injection, and latency simulation.
package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BaSui01/decisionflow/llm"
)

// MockProvider is a configurable llm.Provider for tests.
type MockProvider struct {
	mu sync.RWMutex

	// response configuration
	response  string
	responses []string
	err       error

	// token usage reported on every response
	promptTokens     int
	completionTokens int

	// call recording
	calls        []MockProviderCall
	generateFunc func(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error)

	// behavior control
	delay     time.Duration
	failAfter int
	callCount int
}

// MockProviderCall records a single Generate invocation.
type MockProviderCall struct {
	Request  *llm.GenerateRequest
	Response *llm.GenerateResponse
	Error    error
}

// NewMockProvider creates a MockProvider with a fixed default response.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		response:         "Mock response",
		promptTokens:     10,
		completionTokens: 20,
	}
}

// WithResponse sets a fixed response returned on every call.
func (m *MockProvider) WithResponse(response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithResponses sets a per-call response sequence. Call i gets
// responses[i]; calls past the end repeat the last entry.
func (m *MockProvider) WithResponses(responses ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = responses
	return m
}

// WithError makes every call fail with err.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithTokenUsage sets the token counts reported on responses.
func (m *MockProvider) WithTokenUsage(prompt, completion int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promptTokens = prompt
	m.completionTokens = completion
	return m
}

// WithDelay makes every call sleep before answering, honoring the
// context.
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithFailAfter makes calls after the n-th fail.
func (m *MockProvider) WithFailAfter(n int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// WithGenerateFunc installs a custom Generate implementation. Calls are
// still counted and recorded.
func (m *MockProvider) WithGenerateFunc(fn func(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateFunc = fn
	return m
}

// Name implements llm.Provider.
func (m *MockProvider) Name() string {
	return "mock"
}

// HealthCheck implements llm.Provider.
func (m *MockProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{
		Healthy: true,
		Latency: 10 * time.Millisecond,
	}, nil
}

// Generate implements llm.Provider.
func (m *MockProvider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	m.mu.Lock()
	m.callCount++
	call := m.callCount
	delay := m.delay
	fn := m.generateFunc
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if fn != nil {
		resp, err := fn(ctx, req)
		m.record(MockProviderCall{Request: req, Response: resp, Error: err})
		return resp, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAfter > 0 && call > m.failAfter {
		err := errors.New("mock provider: configured to fail after N calls")
		m.calls = append(m.calls, MockProviderCall{Request: req, Error: err})
		return nil, err
	}

	if m.err != nil {
		m.calls = append(m.calls, MockProviderCall{Request: req, Error: m.err})
		return nil, m.err
	}

	text := m.response
	if len(m.responses) > 0 {
		idx := call - 1
		if idx >= len(m.responses) {
			idx = len(m.responses) - 1
		}
		text = m.responses[idx]
	}

	resp := &llm.GenerateResponse{
		ID:           "mock-response-id",
		Provider:     "mock",
		Model:        req.Model,
		Text:         text,
		FinishReason: "stop",
		Usage: llm.GenerateUsage{
			PromptTokens:     m.promptTokens,
			CompletionTokens: m.completionTokens,
			TotalTokens:      m.promptTokens + m.completionTokens,
		},
		CreatedAt: time.Now(),
	}
	m.calls = append(m.calls, MockProviderCall{Request: req, Response: resp})
	return resp, nil
}

func (m *MockProvider) record(call MockProviderCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// GetCalls returns a copy of all recorded calls.
func (m *MockProvider) GetCalls() []MockProviderCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]MockProviderCall{}, m.calls...)
}

// GetCallCount returns the number of Generate invocations.
func (m *MockProvider) GetCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.callCount
}

// GetLastCall returns the most recent call, or nil.
func (m *MockProvider) GetLastCall() *MockProviderCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears recorded calls and injected errors.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.callCount = 0
	m.err = nil
}

// NewSuccessProvider creates a provider that always answers response.
func NewSuccessProvider(response string) *MockProvider {
	return NewMockProvider().WithResponse(response)
}

// NewErrorProvider creates a provider that always fails with err.
func NewErrorProvider(err error) *MockProvider {
	return NewMockProvider().WithError(err)
}

// NewFlakeyProvider creates a provider that succeeds failAfter times and
// fails afterwards.
func NewFlakeyProvider(failAfter int, response string) *MockProvider {
	return NewMockProvider().
		WithResponse(response).
		WithFailAfter(failAfter)
}
