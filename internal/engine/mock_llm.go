package engine

import (
	"context"
	"fmt"
	"sync"
)

// MockModel is a test implementation of the Model interface. It replays
// canned responses in order, or delegates to RespondFn when set, and
// records every prompt it receives.
type MockModel struct {
	// RespondFn overrides the canned responses when non-nil.
	RespondFn func(prompt string) (string, error)
	// Responses are returned one per call, in order.
	Responses []string
	// Prompts records every prompt passed to Ask.
	Prompts []string

	calls int
	mu    sync.Mutex
}

// NewMockModel creates a mock that replays the given responses.
func NewMockModel(responses ...string) *MockModel {
	return &MockModel{Responses: responses}
}

// Ask implements the Model interface.
func (m *MockModel) Ask(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)

	if m.RespondFn != nil {
		return m.RespondFn(prompt)
	}

	if m.calls < len(m.Responses) {
		response := m.Responses[m.calls]
		m.calls++
		return response, nil
	}

	return "", fmt.Errorf("no more mock responses (call %d, responses: %d)", m.calls, len(m.Responses))
}

// Calls returns how many times Ask has been invoked.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
