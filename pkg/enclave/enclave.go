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

// Package enclave defines the contracts between cipher adapters and an
// isolated key-management service. Keys live inside the service and are
// referenced by alias; callers stream data through begin/update/finish
// sessions and never observe key material.
//
// The package also provides decorators (instrumentation, throttling) that
// wrap any Service implementation. The in-process reference implementation
// lives in pkg/enclave/software; hand-written test doubles live in
// pkg/enclave/mocks.
package enclave

import (
	"context"
	"time"

	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// =============================================================================
// Service Contracts
// =============================================================================

// CharacteristicsSource resolves the characteristics recorded for a key at
// generation or import time. Cipher adapters use it to learn the modulus size
// of an aliased key without ever touching the key itself.
type CharacteristicsSource interface {
	// KeyCharacteristics returns the tagged characteristics of the key stored
	// under alias (algorithm, key size, authorized purposes, origin).
	// Returns ErrKeyNotFound if no key exists under alias.
	KeyCharacteristics(ctx context.Context, alias string) (*Arguments, error)
}

// Service is the operation surface of an isolated key-management service.
//
// Implementations must be thread-safe. A Session returned by Begin is owned
// by a single caller and is not required to be thread-safe.
type Service interface {
	CharacteristicsSource

	// Begin starts a keyed operation against the key stored under alias.
	//
	// params carries the operation arguments (algorithm, padding scheme,
	// OAEP digest). The service checks them against the key's authorization
	// list and returns ErrIncompatiblePurpose, ErrIncompatiblePadding or
	// ErrIncompatibleDigest when the key does not permit the operation.
	//
	// entropy is an advisory hint, in bytes, of how much caller-side
	// randomness the operation is expected to consume. Services that mix
	// caller entropy into their DRBG draw this many bytes up front; the hint
	// is never cause for failure.
	Begin(ctx context.Context, alias string, mode types.OperationMode,
		params *Arguments, entropy int) (Session, error)
}

// Session is a single in-flight keyed operation. Sessions are one-shot:
// after Finish or Abort returns, every method reports ErrSessionClosed.
type Session interface {
	// Token returns the service-assigned identifier for this session.
	Token() string

	// Update streams a chunk of operation input. The returned bytes are any
	// output the service produced so far; RSA operations typically buffer
	// and return nil until Finish.
	Update(ctx context.Context, data []byte) ([]byte, error)

	// Finish streams the final chunk (may be empty), completes the keyed
	// transform and returns its output. The session is closed afterwards
	// whether or not an error occurred.
	Finish(ctx context.Context, data []byte) ([]byte, error)

	// Abort discards the session without completing the operation.
	Abort(ctx context.Context) error
}

// KeyManager extends Service with the key lifecycle operations the CLI and
// provisioning tools need. Only implementations that own key storage (such as
// the software enclave) provide it.
type KeyManager interface {
	Service

	// GenerateKey creates a new key pair under alias with the given
	// authorization spec. Returns ErrKeyAlreadyExists if alias is taken.
	GenerateKey(ctx context.Context, alias string, spec *KeySpec) error

	// ImportPKCS8 imports PEM-encoded PKCS#8 private key material under
	// alias. passphrase decrypts encrypted PKCS#8; pass nil for unencrypted
	// input. Returns ErrKeyAlreadyExists if alias is taken.
	ImportPKCS8(ctx context.Context, alias string, pemBytes []byte, passphrase []byte, spec *KeySpec) error

	// DeleteKey removes the key stored under alias.
	// Returns ErrKeyNotFound if no key exists under alias.
	DeleteKey(ctx context.Context, alias string) error

	// ListKeys returns summary information for every stored key.
	ListKeys(ctx context.Context) ([]KeyInfo, error)

	// Close releases held resources. After Close, all operations return
	// ErrClosed.
	Close() error
}

// =============================================================================
// Key Metadata
// =============================================================================

// Key origin values recorded under TagOrigin.
const (
	// OriginGenerated marks keys created inside the service.
	OriginGenerated = "GENERATED"

	// OriginImported marks keys whose material was supplied by the caller.
	OriginImported = "IMPORTED"
)

// KeyInfo summarizes a stored key for listings. It is derived from the key's
// characteristics and never includes key material.
type KeyInfo struct {
	// Alias is the name the key is stored under.
	Alias string `json:"alias"`

	// Algorithm is the key's algorithm identifier.
	Algorithm types.KeyAlgorithm `json:"algorithm"`

	// Bits is the key size in bits, 0 if unrecorded.
	Bits int `json:"bits,omitempty"`

	// Origin is OriginGenerated or OriginImported.
	Origin string `json:"origin,omitempty"`

	// CreatedAt is when the key was generated or imported.
	CreatedAt time.Time `json:"created_at,omitempty"`
}
