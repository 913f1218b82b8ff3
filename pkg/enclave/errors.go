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

import "errors"

var (
	// ErrKeyNotFound is returned when no key exists under the requested alias.
	ErrKeyNotFound = errors.New("enclave: key not found")

	// ErrKeyAlreadyExists is returned when generating or importing a key under
	// an alias that is already taken.
	ErrKeyAlreadyExists = errors.New("enclave: key already exists")

	// ErrUnsupportedAlgorithm is returned when the operation arguments name an
	// algorithm the service or key does not support.
	ErrUnsupportedAlgorithm = errors.New("enclave: unsupported algorithm")

	// ErrIncompatiblePurpose is returned by Begin when the key's authorization
	// list does not permit the requested operation mode.
	ErrIncompatiblePurpose = errors.New("enclave: purpose not authorized for key")

	// ErrIncompatiblePadding is returned by Begin when the key's authorization
	// list does not permit the requested padding scheme.
	ErrIncompatiblePadding = errors.New("enclave: padding scheme not authorized for key")

	// ErrIncompatibleDigest is returned by Begin when the key's authorization
	// list does not permit the requested digest.
	ErrIncompatibleDigest = errors.New("enclave: digest not authorized for key")

	// ErrInvalidInput is returned when the operation input does not fit the
	// key, such as unpadded data longer than the modulus.
	ErrInvalidInput = errors.New("enclave: invalid input length")

	// ErrInvalidArgument is returned when an operation argument is malformed
	// or out of range, such as a raw plaintext numerically at or above the
	// modulus.
	ErrInvalidArgument = errors.New("enclave: invalid argument")

	// ErrDecryptFailed is returned when padding verification fails during
	// decryption. All padding failures map to this single error so the cause
	// is not observable by callers.
	ErrDecryptFailed = errors.New("enclave: decryption failed")

	// ErrSessionClosed is returned when using a session after Finish or Abort.
	ErrSessionClosed = errors.New("enclave: session closed")

	// ErrClosed is returned when using a service after Close.
	ErrClosed = errors.New("enclave: service closed")

	// ErrThrottled is returned when an operation exceeds the service's rate
	// limits, modeling hardware operation throttling.
	ErrThrottled = errors.New("enclave: operation rate limit exceeded")
)
