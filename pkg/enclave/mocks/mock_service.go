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
	"fmt"
	"sync"

	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// BeginCall records a single call to MockService.Begin.
type BeginCall struct {
	Alias   string
	Mode    types.OperationMode
	Params  *enclave.Arguments
	Entropy int
}

// MockService is a mock implementation of enclave.Service for testing.
type MockService struct {
	mu sync.RWMutex

	// Storage
	characteristics map[string]*enclave.Arguments

	// Configurable behavior
	KeyCharacteristicsFunc func(ctx context.Context, alias string) (*enclave.Arguments, error)
	BeginFunc              func(ctx context.Context, alias string, mode types.OperationMode, params *enclave.Arguments, entropy int) (enclave.Session, error)

	// Call tracking
	KeyCharacteristicsCalls []string
	BeginCalls              []BeginCall

	// Sessions handed out by the default Begin behavior, in order.
	Sessions []*MockSession
}

// NewMockService creates a new MockService with no registered keys.
func NewMockService() *MockService {
	return &MockService{
		characteristics: make(map[string]*enclave.Arguments),
	}
}

// RegisterRSAKey records characteristics for an RSA key of the given bit
// length so the default KeyCharacteristics behavior can resolve it.
func (m *MockService) RegisterRSAKey(alias string, bits int) {
	args := enclave.NewArguments()
	args.AddString(enclave.TagAlgorithm, types.AlgorithmRSA.String())
	args.AddInt(enclave.TagKeySize, bits)
	m.RegisterKey(alias, args)
}

// RegisterKey records arbitrary characteristics for an alias.
func (m *MockService) RegisterKey(alias string, chars *enclave.Arguments) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.characteristics[alias] = chars
}

// KeyCharacteristics returns the registered characteristics for an alias.
func (m *MockService) KeyCharacteristics(ctx context.Context, alias string) (*enclave.Arguments, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.KeyCharacteristicsCalls = append(m.KeyCharacteristicsCalls, alias)

	if m.KeyCharacteristicsFunc != nil {
		return m.KeyCharacteristicsFunc(ctx, alias)
	}

	chars, ok := m.characteristics[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", enclave.ErrKeyNotFound, alias)
	}
	return chars.Clone(), nil
}

// Begin starts a new mock session.
func (m *MockService) Begin(ctx context.Context, alias string, mode types.OperationMode,
	params *enclave.Arguments, entropy int) (enclave.Session, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.BeginCalls = append(m.BeginCalls, BeginCall{
		Alias:   alias,
		Mode:    mode,
		Params:  params.Clone(),
		Entropy: entropy,
	})

	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, alias, mode, params, entropy)
	}

	if _, ok := m.characteristics[alias]; !ok {
		return nil, fmt.Errorf("%w: %s", enclave.ErrKeyNotFound, alias)
	}

	session := NewMockSession(fmt.Sprintf("mock-session-%d", len(m.Sessions)+1))
	m.Sessions = append(m.Sessions, session)
	return session, nil
}

// LastBegin returns the most recent Begin call, or nil if none occurred.
func (m *MockService) LastBegin() *BeginCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.BeginCalls) == 0 {
		return nil
	}
	call := m.BeginCalls[len(m.BeginCalls)-1]
	return &call
}

// LastSession returns the most recent session handed out by the default
// Begin behavior, or nil if none exists.
func (m *MockService) LastSession() *MockSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.Sessions) == 0 {
		return nil
	}
	return m.Sessions[len(m.Sessions)-1]
}

// Reset clears all state and call tracking.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.characteristics = make(map[string]*enclave.Arguments)
	m.KeyCharacteristicsCalls = nil
	m.BeginCalls = nil
	m.Sessions = nil
}

// Verify interface compliance
var _ enclave.Service = (*MockService)(nil)
var _ enclave.CharacteristicsSource = (*MockService)(nil)
