package healthcheck

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// MockChecker provides a configurable mock checker for testing
type MockChecker struct {
	name      string
	status    Status
	message   string
	metadata  interface{}
	delay     time.Duration
	callCount int
	mu        sync.Mutex
}

// NewMockChecker creates a new mock checker
func NewMockChecker(name string) *MockChecker {
	return &MockChecker{
		name:   name,
		status: StatusHealthy,
	}
}

// WithStatus sets the status to return
func (m *MockChecker) WithStatus(status Status) *MockChecker {
	m.status = status
	return m
}

// WithMessage sets the message to return
func (m *MockChecker) WithMessage(message string) *MockChecker {
	m.message = message
	return m
}

// WithMetadata sets the metadata to return
func (m *MockChecker) WithMetadata(metadata interface{}) *MockChecker {
	m.metadata = metadata
	return m
}

// WithDelay sets a delay before returning the check result
func (m *MockChecker) WithDelay(delay time.Duration) *MockChecker {
	m.delay = delay
	return m
}

// Check implements the Checker interface
func (m *MockChecker) Check(ctx context.Context) Check {
	m.mu.Lock()
	m.callCount++
	delay := m.delay
	m.mu.Unlock()

	start := time.Now()
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return Check{
				Name:        m.name,
				Status:      StatusUnhealthy,
				Message:     "Context cancelled",
				LastChecked: start,
				Duration:    time.Since(start),
			}
		}
	}

	return Check{
		Name:        m.name,
		Status:      m.status,
		Message:     m.message,
		LastChecked: start,
		Duration:    time.Since(start),
		Metadata:    m.metadata,
	}
}

// GetCallCount returns the number of times Check was called
func (m *MockChecker) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// stubPinger answers HealthCheck with a fixed error
type stubPinger struct {
	err error
}

func (p stubPinger) HealthCheck(context.Context) error {
	return p.err
}

var errBucketMissing = errors.New("bucket does not exist")

// AssertCheckResult validates a check result
func AssertCheckResult(t *testing.T, check Check, expectedStatus Status, expectedName string) {
	t.Helper()
	assert.Equal(t, expectedName, check.Name)
	assert.Equal(t, expectedStatus, check.Status)
	assert.False(t, check.LastChecked.IsZero())
}

// AssertResponseStructure validates the overall response
func AssertResponseStructure(t *testing.T, response Response) {
	t.Helper()
	assert.NotEmpty(t, response.Version)
	assert.False(t, response.Timestamp.IsZero())
	assert.NotNil(t, response.Checks)
}
