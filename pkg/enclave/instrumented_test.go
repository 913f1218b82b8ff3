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

package enclave_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
	"github.com/jeremyhahn/go-keyenclave/pkg/enclave/mocks"
	"github.com/jeremyhahn/go-keyenclave/pkg/enclave/software"
	"github.com/jeremyhahn/go-keyenclave/pkg/metrics"
	"github.com/jeremyhahn/go-keyenclave/pkg/storage"
	"github.com/jeremyhahn/go-keyenclave/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// resetMetrics clears the collector state so each test asserts exact values.
func resetMetrics() {
	metrics.Enable()
	metrics.OperationsTotal.Reset()
	metrics.OperationDuration.Reset()
	metrics.ErrorsTotal.Reset()
	metrics.SessionsActive.Reset()
	metrics.KeysTotal.Reset()
}

func operationCount(op, service, status string) float64 {
	return testutil.ToFloat64(metrics.OperationsTotal.WithLabelValues(op, service, status))
}

func errorCount(op, service, errorType string) float64 {
	return testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues(op, service, errorType))
}

func activeSessions(service string) float64 {
	return testutil.ToFloat64(metrics.SessionsActive.WithLabelValues(service))
}

func TestInstrumentedService_OperationCounters(t *testing.T) {
	resetMetrics()

	mock := mocks.NewMockService()
	mock.RegisterRSAKey("alias", 2048)
	svc := enclave.NewInstrumentedService(mock, "mock")
	ctx := context.Background()

	if _, err := svc.KeyCharacteristics(ctx, "alias"); err != nil {
		t.Fatalf("KeyCharacteristics failed: %v", err)
	}
	if got := operationCount(metrics.OpCharacteristics, "mock", metrics.StatusSuccess); got != 1 {
		t.Errorf("Expected 1 characteristics success, got %v", got)
	}

	sess, err := svc.Begin(ctx, "alias", types.OperationEncrypt, enclave.NewArguments(), 0)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if got := operationCount(metrics.OpBegin, "mock", metrics.StatusSuccess); got != 1 {
		t.Errorf("Expected 1 begin success, got %v", got)
	}
	if got := activeSessions("mock"); got != 1 {
		t.Errorf("Expected 1 active session, got %v", got)
	}

	if _, err := sess.Update(ctx, []byte("data")); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := sess.Finish(ctx, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if got := operationCount(metrics.OpUpdate, "mock", metrics.StatusSuccess); got != 1 {
		t.Errorf("Expected 1 update success, got %v", got)
	}
	if got := operationCount(metrics.OpFinish, "mock", metrics.StatusSuccess); got != 1 {
		t.Errorf("Expected 1 finish success, got %v", got)
	}
	if got := activeSessions("mock"); got != 0 {
		t.Errorf("Expected 0 active sessions after finish, got %v", got)
	}

	// Aborting a finished session reports the closed-session error but must
	// not decrement the gauge a second time.
	if err := sess.Abort(ctx); !errors.Is(err, enclave.ErrSessionClosed) {
		t.Fatalf("Expected ErrSessionClosed, got %v", err)
	}
	if got := errorCount(metrics.OpAbort, "mock", "session_closed"); got != 1 {
		t.Errorf("Expected 1 session_closed abort error, got %v", got)
	}
	if got := activeSessions("mock"); got != 0 {
		t.Errorf("Expected gauge to stay at 0, got %v", got)
	}
}

func TestInstrumentedService_ErrorTypes(t *testing.T) {
	resetMetrics()

	mock := mocks.NewMockService()
	svc := enclave.NewInstrumentedService(mock, "mock")
	ctx := context.Background()

	if _, err := svc.KeyCharacteristics(ctx, "missing"); err == nil {
		t.Fatal("Expected characteristics lookup to fail")
	}
	if got := operationCount(metrics.OpCharacteristics, "mock", metrics.StatusError); got != 1 {
		t.Errorf("Expected 1 characteristics error, got %v", got)
	}
	if got := errorCount(metrics.OpCharacteristics, "mock", "key_not_found"); got != 1 {
		t.Errorf("Expected 1 key_not_found error, got %v", got)
	}

	if _, err := svc.Begin(ctx, "missing", types.OperationEncrypt, enclave.NewArguments(), 0); err == nil {
		t.Fatal("Expected begin to fail")
	}
	if got := errorCount(metrics.OpBegin, "mock", "key_not_found"); got != 1 {
		t.Errorf("Expected 1 key_not_found begin error, got %v", got)
	}
	if got := activeSessions("mock"); got != 0 {
		t.Errorf("Expected no active sessions after failed begin, got %v", got)
	}
}

func TestInstrumentedService_AbortDecrementsGauge(t *testing.T) {
	resetMetrics()

	mock := mocks.NewMockService()
	mock.RegisterRSAKey("alias", 2048)
	svc := enclave.NewInstrumentedService(mock, "mock")
	ctx := context.Background()

	sess, err := svc.Begin(ctx, "alias", types.OperationEncrypt, enclave.NewArguments(), 0)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if got := activeSessions("mock"); got != 1 {
		t.Errorf("Expected 1 active session, got %v", got)
	}

	if err := sess.Abort(ctx); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}
	if got := operationCount(metrics.OpAbort, "mock", metrics.StatusSuccess); got != 1 {
		t.Errorf("Expected 1 abort success, got %v", got)
	}
	if got := activeSessions("mock"); got != 0 {
		t.Errorf("Expected 0 active sessions after abort, got %v", got)
	}
}

func TestInstrumentedKeyManager_Lifecycle(t *testing.T) {
	resetMetrics()

	sw, err := software.New(&software.Config{
		Storage:      storage.NewMemory(),
		MasterSecret: []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("Failed to create software enclave: %v", err)
	}
	mgr := enclave.NewInstrumentedKeyManager(sw, "software")
	defer mgr.Close()
	ctx := context.Background()

	if err := mgr.GenerateKey(ctx, "key", nil); err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if got := operationCount(metrics.OpGenerate, "software", metrics.StatusSuccess); got != 1 {
		t.Errorf("Expected 1 generate success, got %v", got)
	}

	if err := mgr.GenerateKey(ctx, "key", nil); !errors.Is(err, enclave.ErrKeyAlreadyExists) {
		t.Fatalf("Expected ErrKeyAlreadyExists, got %v", err)
	}
	if got := errorCount(metrics.OpGenerate, "software", "key_already_exists"); got != 1 {
		t.Errorf("Expected 1 key_already_exists error, got %v", got)
	}

	infos, err := mgr.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("Expected 1 key, got %d", len(infos))
	}
	if got := testutil.ToFloat64(metrics.KeysTotal.WithLabelValues("software")); got != 1 {
		t.Errorf("Expected keys gauge 1, got %v", got)
	}

	if err := mgr.DeleteKey(ctx, "key"); err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}
	if got := operationCount(metrics.OpDelete, "software", metrics.StatusSuccess); got != 1 {
		t.Errorf("Expected 1 delete success, got %v", got)
	}

	if _, err := mgr.ListKeys(ctx); err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if got := testutil.ToFloat64(metrics.KeysTotal.WithLabelValues("software")); got != 0 {
		t.Errorf("Expected keys gauge 0 after delete, got %v", got)
	}
}
