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

package rand

import (
	"crypto/sha512"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// operationReaderInfo is the HKDF info string for operation randomness.
const operationReaderInfo = "keyenclave-operation-drbg-v1"

// localEntropyBytes is how much local randomness seeds every operation
// reader, independent of what the caller contributes.
const localEntropyBytes = 64

// NewOperationReader returns an io.Reader producing the randomness for a
// single keyed operation. The stream is expanded with HKDF-SHA512 from
// locally drawn randomness folded with caller-provided entropy, so callers
// can contribute to, but never fully determine, an operation's randomness.
//
// callerEntropy may be nil or empty. The reader serves at most 255 SHA-512
// blocks (about 16 KB), which covers any single RSA operation.
func NewOperationReader(resolver Resolver, callerEntropy []byte) (io.Reader, error) {
	if resolver == nil {
		return nil, fmt.Errorf("rand: resolver is required")
	}

	local, err := resolver.Rand(localEntropyBytes)
	if err != nil {
		return nil, fmt.Errorf("rand: failed to draw local entropy: %w", err)
	}

	secret := make([]byte, 0, len(local)+len(callerEntropy))
	secret = append(secret, local...)
	secret = append(secret, callerEntropy...)

	return hkdf.New(sha512.New, secret, nil, []byte(operationReaderInfo)), nil
}
