// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyenclave.
//
// go-keyenclave is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package mocks

import (
	"context"
	"sync"

	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
)

// MockSession is a mock implementation of enclave.Session for testing.
// It honors the one-shot contract: once finished or aborted, every call
// fails with enclave.ErrSessionClosed.
type MockSession struct {
	mu sync.Mutex

	token string

	// Configurable behavior
	UpdateFunc func(ctx context.Context, data []byte) ([]byte, error)
	FinishFunc func(ctx context.Context, data []byte) ([]byte, error)
	AbortFunc  func(ctx context.Context) error

	// Result is what the default Finish behavior returns.
	Result []byte

	// Call tracking
	UpdateCalls [][]byte
	FinishCalls [][]byte
	AbortCalls  int

	// State
	closed bool
}

// NewMockSession creates a new MockSession with the given token.
func NewMockSession(token string) *MockSession {
	return &MockSession{token: token}
}

// Token returns the session token.
func (m *MockSession) Token() string {
	return m.token
}

// Update records the chunk and returns no output by default.
func (m *MockSession) Update(ctx context.Context, data []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, copyBytes(data))

	if m.closed {
		return nil, enclave.ErrSessionClosed
	}

	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, data)
	}
	return nil, nil
}

// Finish records the final chunk, closes the session and returns Result.
func (m *MockSession) Finish(ctx context.Context, data []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FinishCalls = append(m.FinishCalls, copyBytes(data))

	if m.closed {
		return nil, enclave.ErrSessionClosed
	}
	m.closed = true

	if m.FinishFunc != nil {
		return m.FinishFunc(ctx, data)
	}
	return copyBytes(m.Result), nil
}

// Abort closes the session.
func (m *MockSession) Abort(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AbortCalls++

	if m.closed {
		return enclave.ErrSessionClosed
	}
	m.closed = true

	if m.AbortFunc != nil {
		return m.AbortFunc(ctx)
	}
	return nil
}

// Closed reports whether the session has been finished or aborted.
func (m *MockSession) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Submitted returns the bytes handed to Finish, or nil if Finish was
// never called.
func (m *MockSession) Submitted() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.FinishCalls) == 0 {
		return nil
	}
	return copyBytes(m.FinishCalls[len(m.FinishCalls)-1])
}

// Reset clears all state and call tracking.
func (m *MockSession) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = nil
	m.FinishCalls = nil
	m.AbortCalls = 0
	m.closed = false
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Verify interface compliance
var _ enclave.Session = (*MockSession)(nil)
