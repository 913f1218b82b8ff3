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

// Package metrics provides Prometheus instrumentation for enclave operations.
// It exposes operation counters, latency histograms, error counters and
// session/key gauges so service health can be monitored. Collection can be
// toggled at runtime; libraries record through the helper functions, which
// become no-ops when collection is disabled.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all enclave metrics
	Namespace = "keyenclave"

	// Label names
	LabelOperation = "operation"
	LabelService   = "service"
	LabelStatus    = "status"
	LabelErrorType = "error_type"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpCharacteristics = "characteristics"
	OpBegin           = "begin"
	OpUpdate          = "update"
	OpFinish          = "finish"
	OpAbort           = "abort"
	OpGenerate        = "generate"
	OpImport          = "import"
	OpDelete          = "delete"
	OpList            = "list"
)

var (
	// OperationsTotal tracks the total number of enclave operations by type,
	// service, and status. Use RecordOperation to increment this counter.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of enclave operations by type, service, and status",
		},
		[]string{LabelOperation, LabelService, LabelStatus},
	)

	// OperationDuration tracks the duration of enclave operations in seconds.
	// Buckets are optimized for typical cryptographic operation latencies.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of enclave operations in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{LabelOperation, LabelService},
	)

	// ErrorsTotal tracks the total number of errors by operation, service, and
	// error type. Error types should be specific (e.g. "key_not_found",
	// "decrypt_failed", "throttled").
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation, service, and error type",
		},
		[]string{LabelOperation, LabelService, LabelErrorType},
	)

	// SessionsActive tracks the number of in-flight begin/finish sessions per
	// service.
	SessionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "sessions_active",
			Help:      "Number of in-flight enclave sessions by service",
		},
		[]string{LabelService},
	)

	// KeysTotal tracks the total number of keys stored in each service.
	KeysTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "keys_total",
			Help:      "Total number of keys stored in each service",
		},
		[]string{LabelService},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records an enclave operation with its duration and status.
// This is the primary function for tracking operational metrics.
//
// Parameters:
//   - operation: The operation name (use Op* constants)
//   - service: The service identifier (e.g. "software")
//   - status: The operation status (use Status* constants)
//   - duration: The operation duration in seconds
func RecordOperation(operation, service, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, service, status).Inc()
	OperationDuration.WithLabelValues(operation, service).Observe(duration)
}

// RecordError records an error event with context about where it occurred.
//
// Parameters:
//   - operation: The operation during which the error occurred (use Op* constants)
//   - service: The service where the error occurred
//   - errorType: A specific error type identifier (e.g. "key_not_found")
func RecordError(operation, service, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, service, errorType).Inc()
}

// IncrementActiveSessions increments the active session count for a service.
func IncrementActiveSessions(service string) {
	if !enabled.Load() {
		return
	}
	SessionsActive.WithLabelValues(service).Inc()
}

// DecrementActiveSessions decrements the active session count for a service.
func DecrementActiveSessions(service string) {
	if !enabled.Load() {
		return
	}
	SessionsActive.WithLabelValues(service).Dec()
}

// SetKeysTotal sets the total number of keys for a service.
func SetKeysTotal(service string, count float64) {
	if !enabled.Load() {
		return
	}
	KeysTotal.WithLabelValues(service).Set(count)
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
