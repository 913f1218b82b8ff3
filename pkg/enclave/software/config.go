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

package software

import (
	"github.com/jeremyhahn/go-keyenclave/pkg/crypto/rand"
	"github.com/jeremyhahn/go-keyenclave/pkg/logging"
	"github.com/jeremyhahn/go-keyenclave/pkg/storage"
)

// minMasterSecretBytes is the smallest master secret accepted for sealing.
const minMasterSecretBytes = 16

// Config contains configuration for the software enclave.
type Config struct {
	// Storage holds sealed key blobs under keys/ and characteristics
	// records under meta/. This can be file-based, memory-based, or any
	// implementation of the storage.Backend interface. The enclave takes
	// ownership and closes it on Close.
	Storage storage.Backend

	// MasterSecret is the root secret every per-key sealing key is derived
	// from. Must be at least 16 bytes. The enclave keeps its own copy and
	// wipes it on Close.
	MasterSecret []byte

	// Random supplies all randomness (key generation, nonces, operation
	// DRBG seeds). If nil, a software resolver is created.
	Random rand.Resolver

	// Logger receives debug logs for key lifecycle and session activity.
	// If nil, a default logger is used.
	Logger *logging.Logger
}

// Validate checks if the Config is valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigRequired
	}
	if c.Storage == nil {
		return ErrStorageRequired
	}
	if len(c.MasterSecret) < minMasterSecretBytes {
		return ErrMasterSecretTooShort
	}
	return nil
}
