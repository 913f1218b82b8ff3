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

import (
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// =============================================================================
// OAEP Parameter Descriptors
// =============================================================================

// MGF1 is the only supported mask generation function name.
const MGF1 = "MGF1"

// PSourceSpecified is the only supported kind of OAEP encoding input source.
const PSourceSpecified = "specified"

// PSource describes the OAEP source of encoding input P.
// The zero value means "specified, empty", the only configuration the
// enclave supports.
type PSource struct {
	// Kind is the source kind. Empty is treated as PSourceSpecified.
	Kind string

	// Value is the encoding input. Must be absent or empty.
	Value []byte
}

// OAEPParams is the OAEP parameter descriptor the cipher both parses from
// callers and reconstructs when asked to describe its configuration.
type OAEPParams struct {
	// Digest is the main OAEP digest.
	Digest types.HashName

	// MGF is the mask generation function name. Only MGF1 is supported.
	MGF string

	// MGFDigest is the digest of the MGF1 sub-descriptor. Only SHA-1 is
	// supported. An empty value means the sub-descriptor is missing.
	MGFDigest types.HashName

	// Source is the source of encoding input P.
	Source PSource
}

// DefaultOAEPParams returns the full descriptor for an OAEP configuration
// with the given digest: MGF1 masking with a SHA-1 digest and an empty
// specified source. The descriptor is derived from the digest alone.
func DefaultOAEPParams(digest types.HashName) *OAEPParams {
	return &OAEPParams{
		Digest:    digest,
		MGF:       MGF1,
		MGFDigest: types.HashSHA1,
		Source:    PSource{Kind: PSourceSpecified},
	}
}

// oaepDigests is the set of digests the enclave accepts for OAEP.
var oaepDigests = map[types.HashName]bool{
	types.HashSHA1:   true,
	types.HashSHA224: true,
	types.HashSHA256: true,
	types.HashSHA384: true,
	types.HashSHA512: true,
}

// =============================================================================
// Padding Policy Table
// =============================================================================
// Per-scheme behavior is data-driven: each padding scheme contributes its
// parameter validation, its encryption-side entropy formula, its descriptor
// reconstruction and whether encrypt input is accumulated locally.

type paddingPolicy struct {
	// validate resolves caller-supplied parameters into the concrete OAEP
	// digest for this configuration. current is the digest already in effect
	// (used when params is nil); schemes without a digest return "".
	validate func(params *OAEPParams, current types.HashName) (types.HashName, error)

	// encryptEntropy returns the entropy hint, in bytes, for encryption-side
	// modes. Decryption-side modes always hint 0.
	encryptEntropy func(modulusSize int, digest types.HashName) int

	// describe reconstructs the parameter descriptor from the concrete
	// digest. Schemes without parameters return nil.
	describe func(digest types.HashName) *OAEPParams

	// buffersEncryptInput selects the zero-pad accumulator for encryption.
	buffersEncryptInput bool
}

var paddingPolicies = map[types.RSAPadding]*paddingPolicy{
	types.RSAPaddingNone: {
		validate:            validateNoParams,
		encryptEntropy:      func(int, types.HashName) int { return 0 },
		describe:            func(types.HashName) *OAEPParams { return nil },
		buffersEncryptInput: true,
	},
	types.RSAPaddingPKCS1: {
		validate: validateNoParams,
		// Random padding bytes fill the block, so a full modulus worth.
		encryptEntropy: func(modulusSize int, _ types.HashName) int { return modulusSize },
		describe:       func(types.HashName) *OAEPParams { return nil },
	},
	types.RSAPaddingOAEP: {
		validate: validateOAEPParams,
		// The OAEP seed is one hash output wide.
		encryptEntropy: func(_ int, digest types.HashName) int { return digest.Size() },
		describe:       DefaultOAEPParams,
	},
}

// policyFor returns the policy for a padding scheme.
func policyFor(padding types.RSAPadding) (*paddingPolicy, error) {
	policy, ok := paddingPolicies[padding]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPadding, padding)
	}
	return policy, nil
}

// validateNoParams serves the schemes that permit no runtime parameters.
func validateNoParams(params *OAEPParams, _ types.HashName) (types.HashName, error) {
	if params != nil {
		return "", fmt.Errorf("%w: unexpected OAEP parameters", ErrUnsupportedParameters)
	}
	return "", nil
}

// validateOAEPParams checks every constraint of the OAEP descriptor in order
// and resolves the concrete digest. A nil descriptor keeps the digest already
// in effect.
func validateOAEPParams(params *OAEPParams, current types.HashName) (types.HashName, error) {
	if params == nil {
		return current, nil
	}

	if !strings.EqualFold(params.MGF, MGF1) {
		return "", fmt.Errorf("%w: %q. Only %s supported", ErrUnsupportedMGF, params.MGF, MGF1)
	}

	digest := types.ParseHashName(params.Digest.String())
	if digest == "" || !oaepDigests[digest] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDigest, params.Digest)
	}

	if params.MGFDigest == "" {
		return "", fmt.Errorf("%w: MGF1 digest must be provided", ErrMissingMGFParameters)
	}
	if !types.HashSHA1.Equals(params.MGFDigest.String()) {
		return "", fmt.Errorf("%w: %q. Only %s supported for MGF1",
			ErrUnsupportedMGF1Digest, params.MGFDigest, types.HashSHA1)
	}

	if err := validatePSource(params.Source); err != nil {
		return "", err
	}

	return digest, nil
}

// validatePSource accepts only the "specified, empty" source of encoding
// input. The zero value qualifies.
func validatePSource(source PSource) error {
	if source.Kind != "" && !strings.EqualFold(source.Kind, PSourceSpecified) {
		return fmt.Errorf("%w: %q. Only %s supported", ErrUnsupportedPSource, source.Kind, PSourceSpecified)
	}
	if len(source.Value) > 0 {
		return fmt.Errorf("%w: non-empty encoding input", ErrUnsupportedPSource)
	}
	return nil
}
