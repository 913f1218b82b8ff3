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

package rsa

import "errors"

var (
	// ErrNotInitialized is returned when sizing or streaming is attempted
	// before a key has been bound through Configure.
	ErrNotInitialized = errors.New("rsa cipher: not initialized")

	// ErrUnsupportedKey is returned when the key handle is nil, its algorithm
	// is not RSA, or it is not a recognized handle variant.
	ErrUnsupportedKey = errors.New("rsa cipher: unsupported key")

	// ErrKeyOperationMismatch is returned when the key role does not match
	// the operation mode: private keys serve DECRYPT/UNWRAP, public keys
	// serve ENCRYPT/WRAP.
	ErrKeyOperationMismatch = errors.New("rsa cipher: key does not support operation mode")

	// ErrUnsupportedOperationMode is returned when the operation mode is not
	// one of ENCRYPT, DECRYPT, WRAP or UNWRAP.
	ErrUnsupportedOperationMode = errors.New("rsa cipher: unsupported operation mode")

	// ErrInvalidKey is returned when the key characteristics lookup fails.
	// The lookup failure is preserved in the error chain.
	ErrInvalidKey = errors.New("rsa cipher: invalid key")

	// ErrKeySizeUnknown is returned when the key characteristics lookup
	// succeeds but carries no key size.
	ErrKeySizeUnknown = errors.New("rsa cipher: key size not available in characteristics")

	// ErrUnsupportedPadding is returned when constructing a cipher with an
	// unknown padding scheme.
	ErrUnsupportedPadding = errors.New("rsa cipher: unsupported padding scheme")

	// ErrUnsupportedParameters is returned when parameters are supplied to a
	// padding scheme that permits none.
	ErrUnsupportedParameters = errors.New("rsa cipher: parameters not supported by padding scheme")

	// ErrUnsupportedMGF is returned when the OAEP mask generation function is
	// not MGF1.
	ErrUnsupportedMGF = errors.New("rsa cipher: unsupported mask generation function")

	// ErrUnsupportedDigest is returned when the OAEP digest is outside the
	// supported set.
	ErrUnsupportedDigest = errors.New("rsa cipher: unsupported digest")

	// ErrMissingMGFParameters is returned when OAEP parameters omit the MGF1
	// digest descriptor.
	ErrMissingMGFParameters = errors.New("rsa cipher: missing MGF parameters")

	// ErrUnsupportedMGF1Digest is returned when the MGF1 digest is not SHA-1.
	ErrUnsupportedMGF1Digest = errors.New("rsa cipher: unsupported MGF1 digest")

	// ErrUnsupportedPSource is returned when the OAEP source of encoding
	// input is not "specified" with an empty value.
	ErrUnsupportedPSource = errors.New("rsa cipher: unsupported source of encoding input")

	// ErrRemoteOperation is returned when the enclave service fails during
	// begin, update or finish. The service status is preserved in the error
	// chain and is never retried or downgraded here.
	ErrRemoteOperation = errors.New("rsa cipher: remote operation failed")
)
