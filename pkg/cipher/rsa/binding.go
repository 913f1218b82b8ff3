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
	"context"
	"fmt"

	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// binding is the resolved key state of a configured cipher: the alias the
// enclave knows the key by, the role the handle proved, and the modulus
// width every subsequent buffering and sizing decision is based on.
type binding struct {
	alias       string
	role        types.KeyRole
	modulusSize int
}

// bindKey resolves an opaque key handle against the characteristics source.
// It checks the handle itself, then role/mode compatibility, then performs
// the characteristics lookup; key errors therefore take precedence over
// anything discovered remotely.
func bindKey(ctx context.Context, key types.KeyHandle, mode types.OperationMode,
	source enclave.CharacteristicsSource) (*binding, error) {

	if key == nil {
		return nil, fmt.Errorf("%w: no key provided", ErrUnsupportedKey)
	}
	if !key.Algorithm().Equals(types.AlgorithmRSA.String()) {
		return nil, fmt.Errorf("%w: algorithm %q", ErrUnsupportedKey, key.Algorithm())
	}

	var role types.KeyRole
	switch key.(type) {
	case *types.PrivateKeyHandle:
		role = types.KeyRolePrivate
	case *types.PublicKeyHandle:
		role = types.KeyRolePublic
	default:
		return nil, fmt.Errorf("%w: unrecognized handle type %T", ErrUnsupportedKey, key)
	}

	if mode.Role() != role {
		return nil, fmt.Errorf("%w: %s key with mode %s", ErrKeyOperationMismatch, role, mode)
	}

	chars, err := source.KeyCharacteristics(ctx, key.Alias())
	if err != nil {
		return nil, fmt.Errorf("%w: characteristics lookup for %q failed: %w",
			ErrInvalidKey, key.Alias(), err)
	}

	bits, ok := chars.Int(enclave.TagKeySize)
	if !ok {
		return nil, fmt.Errorf("%w: alias %q", ErrKeySizeUnknown, key.Alias())
	}

	return &binding{
		alias:       key.Alias(),
		role:        role,
		modulusSize: (bits + 7) / 8,
	}, nil
}
