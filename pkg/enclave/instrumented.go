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

package enclave

import (
	"context"
	"errors"
	"time"

	"github.com/jeremyhahn/go-keyenclave/pkg/metrics"
	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// InstrumentedService decorates a Service with Prometheus metrics: operation
// counts, durations, error types and in-flight session tracking. The wrapped
// service is otherwise untouched; errors pass through unchanged.
type InstrumentedService struct {
	service Service
	name    string
}

var _ Service = (*InstrumentedService)(nil)

// NewInstrumentedService wraps service with metrics recording. name is the
// service label on every metric (e.g. "software").
func NewInstrumentedService(service Service, name string) *InstrumentedService {
	return &InstrumentedService{service: service, name: name}
}

// KeyCharacteristics records the characteristics lookup.
func (s *InstrumentedService) KeyCharacteristics(ctx context.Context, alias string) (*Arguments, error) {
	start := time.Now()
	chars, err := s.service.KeyCharacteristics(ctx, alias)
	record(metrics.OpCharacteristics, s.name, start, err)
	return chars, err
}

// Begin records the session start and returns a session wrapper that keeps
// the active-session gauge and per-call metrics up to date.
func (s *InstrumentedService) Begin(ctx context.Context, alias string, mode types.OperationMode,
	params *Arguments, entropy int) (Session, error) {

	start := time.Now()
	session, err := s.service.Begin(ctx, alias, mode, params, entropy)
	record(metrics.OpBegin, s.name, start, err)
	if err != nil {
		return nil, err
	}

	metrics.IncrementActiveSessions(s.name)
	return &instrumentedSession{session: session, name: s.name}, nil
}

// instrumentedSession forwards to the wrapped session and decrements the
// active-session gauge exactly once when the session completes.
type instrumentedSession struct {
	session Session
	name    string
	done    bool
}

func (s *instrumentedSession) Token() string {
	return s.session.Token()
}

func (s *instrumentedSession) Update(ctx context.Context, data []byte) ([]byte, error) {
	start := time.Now()
	out, err := s.session.Update(ctx, data)
	record(metrics.OpUpdate, s.name, start, err)
	return out, err
}

func (s *instrumentedSession) Finish(ctx context.Context, data []byte) ([]byte, error) {
	start := time.Now()
	out, err := s.session.Finish(ctx, data)
	record(metrics.OpFinish, s.name, start, err)
	s.complete()
	return out, err
}

func (s *instrumentedSession) Abort(ctx context.Context) error {
	start := time.Now()
	err := s.session.Abort(ctx)
	record(metrics.OpAbort, s.name, start, err)
	s.complete()
	return err
}

// complete marks the session finished. Finish and Abort both close the
// underlying session even on error, so the first call wins.
func (s *instrumentedSession) complete() {
	if s.done {
		return
	}
	s.done = true
	metrics.DecrementActiveSessions(s.name)
}

// InstrumentedKeyManager decorates a KeyManager with the same metrics as
// InstrumentedService plus the key lifecycle operations. The keys-total
// gauge is refreshed on every successful ListKeys.
type InstrumentedKeyManager struct {
	InstrumentedService
	manager KeyManager
}

var _ KeyManager = (*InstrumentedKeyManager)(nil)

// NewInstrumentedKeyManager wraps manager with metrics recording.
func NewInstrumentedKeyManager(manager KeyManager, name string) *InstrumentedKeyManager {
	return &InstrumentedKeyManager{
		InstrumentedService: InstrumentedService{service: manager, name: name},
		manager:             manager,
	}
}

// GenerateKey records the key generation.
func (m *InstrumentedKeyManager) GenerateKey(ctx context.Context, alias string, spec *KeySpec) error {
	start := time.Now()
	err := m.manager.GenerateKey(ctx, alias, spec)
	record(metrics.OpGenerate, m.name, start, err)
	return err
}

// ImportPKCS8 records the key import.
func (m *InstrumentedKeyManager) ImportPKCS8(ctx context.Context, alias string, pemBytes []byte,
	passphrase []byte, spec *KeySpec) error {

	start := time.Now()
	err := m.manager.ImportPKCS8(ctx, alias, pemBytes, passphrase, spec)
	record(metrics.OpImport, m.name, start, err)
	return err
}

// DeleteKey records the key deletion.
func (m *InstrumentedKeyManager) DeleteKey(ctx context.Context, alias string) error {
	start := time.Now()
	err := m.manager.DeleteKey(ctx, alias)
	record(metrics.OpDelete, m.name, start, err)
	return err
}

// ListKeys records the listing and refreshes the keys-total gauge.
func (m *InstrumentedKeyManager) ListKeys(ctx context.Context) ([]KeyInfo, error) {
	start := time.Now()
	infos, err := m.manager.ListKeys(ctx)
	record(metrics.OpList, m.name, start, err)
	if err == nil {
		metrics.SetKeysTotal(m.name, float64(len(infos)))
	}
	return infos, err
}

// Close closes the wrapped manager.
func (m *InstrumentedKeyManager) Close() error {
	return m.manager.Close()
}

// record emits the count, duration and, on failure, the error type for one
// operation.
func record(operation, name string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		metrics.RecordError(operation, name, errorType(err))
	}
	metrics.RecordOperation(operation, name, status, time.Since(start).Seconds())
}

// errorType maps service errors to stable metric label values.
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return "key_not_found"
	case errors.Is(err, ErrKeyAlreadyExists):
		return "key_already_exists"
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return "unsupported_algorithm"
	case errors.Is(err, ErrIncompatiblePurpose):
		return "incompatible_purpose"
	case errors.Is(err, ErrIncompatiblePadding):
		return "incompatible_padding"
	case errors.Is(err, ErrIncompatibleDigest):
		return "incompatible_digest"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrDecryptFailed):
		return "decrypt_failed"
	case errors.Is(err, ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, ErrThrottled):
		return "throttled"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "other"
	}
}
