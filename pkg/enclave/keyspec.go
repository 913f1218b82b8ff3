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
	"fmt"
	"time"

	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// =============================================================================
// Key Authorization Specs
// =============================================================================

// KeySpec is the authorization list applied to a key at generation or import
// time. The service enforces it on every Begin: operations outside the listed
// purposes, paddings or digests are rejected.
//
// An empty Purposes, Paddings or Digests slice leaves that dimension
// unrestricted.
type KeySpec struct {
	// Algorithm is the key algorithm. Only RSA keys support cipher sessions.
	Algorithm types.KeyAlgorithm `json:"algorithm" yaml:"algorithm"`

	// Bits is the key size for generation. Ignored on import, where the size
	// comes from the imported material.
	Bits int `json:"bits,omitempty" yaml:"bits,omitempty"`

	// Purposes lists the operation modes the key may serve.
	Purposes []types.OperationMode `json:"purposes,omitempty" yaml:"purposes,omitempty"`

	// Paddings lists the padding schemes the key may be used with.
	Paddings []types.RSAPadding `json:"paddings,omitempty" yaml:"paddings,omitempty"`

	// Digests lists the OAEP digests the key may be used with.
	Digests []types.HashName `json:"digests,omitempty" yaml:"digests,omitempty"`
}

// DefaultRSAKeySpec returns a 2048-bit RSA spec authorizing all operation
// modes, all padding schemes and the OAEP digest family.
func DefaultRSAKeySpec() *KeySpec {
	return &KeySpec{
		Algorithm: types.AlgorithmRSA,
		Bits:      types.RSAKeySize2048,
		Purposes: []types.OperationMode{
			types.OperationEncrypt,
			types.OperationDecrypt,
			types.OperationWrap,
			types.OperationUnwrap,
		},
		Paddings: []types.RSAPadding{
			types.RSAPaddingNone,
			types.RSAPaddingPKCS1,
			types.RSAPaddingOAEP,
		},
		Digests: []types.HashName{
			types.HashSHA1,
			types.HashSHA224,
			types.HashSHA256,
			types.HashSHA384,
			types.HashSHA512,
		},
	}
}

// Validate checks the spec for internal consistency.
func (s *KeySpec) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil key spec", ErrInvalidArgument)
	}
	if s.Algorithm == "" {
		return fmt.Errorf("%w: key spec algorithm is required", ErrInvalidArgument)
	}
	if s.Algorithm != types.AlgorithmRSA {
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, s.Algorithm)
	}
	for _, p := range s.Purposes {
		if !p.Valid() {
			return fmt.Errorf("%w: unknown purpose %q", ErrInvalidArgument, p)
		}
	}
	for _, d := range s.Digests {
		if d.Hash() == 0 {
			return fmt.Errorf("%w: unknown digest %q", ErrInvalidArgument, d)
		}
	}
	return nil
}

// AllowsPurpose reports whether the spec authorizes mode.
func (s *KeySpec) AllowsPurpose(mode types.OperationMode) bool {
	if len(s.Purposes) == 0 {
		return true
	}
	for _, p := range s.Purposes {
		if p == mode {
			return true
		}
	}
	return false
}

// AllowsPadding reports whether the spec authorizes padding.
func (s *KeySpec) AllowsPadding(padding types.RSAPadding) bool {
	if len(s.Paddings) == 0 {
		return true
	}
	for _, p := range s.Paddings {
		if p == padding {
			return true
		}
	}
	return false
}

// AllowsDigest reports whether the spec authorizes digest.
func (s *KeySpec) AllowsDigest(digest types.HashName) bool {
	if len(s.Digests) == 0 {
		return true
	}
	for _, d := range s.Digests {
		if d == digest {
			return true
		}
	}
	return false
}

// Characteristics builds the tagged characteristics recorded beside a key at
// rest. bits is the effective key size, origin one of the Origin constants.
func (s *KeySpec) Characteristics(bits int, origin string, created time.Time) *Arguments {
	args := NewArguments()
	args.AddString(TagAlgorithm, s.Algorithm.String())
	args.AddInt(TagKeySize, bits)
	args.AddString(TagOrigin, origin)
	args.AddInt(TagCreated, int(created.Unix()))
	for _, p := range s.Purposes {
		args.AddString(TagPurpose, p.String())
	}
	for _, p := range s.Paddings {
		args.AddString(TagPadding, p.String())
	}
	for _, d := range s.Digests {
		args.AddString(TagDigest, d.String())
	}
	return args
}
