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

import "errors"

var (
	// ErrConfigRequired is returned when creating an enclave without a config.
	ErrConfigRequired = errors.New("software: config is required")

	// ErrStorageRequired is returned when the config has no storage backend.
	ErrStorageRequired = errors.New("software: storage backend is required")

	// ErrMasterSecretTooShort is returned when the sealing master secret is
	// absent or shorter than 16 bytes.
	ErrMasterSecretTooShort = errors.New("software: master secret of at least 16 bytes is required")

	// ErrUnsealFailed is returned when a sealed key blob cannot be decrypted,
	// typically because the master secret changed or the blob is corrupt.
	ErrUnsealFailed = errors.New("software: failed to unseal key material")
)
