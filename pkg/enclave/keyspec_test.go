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
	"testing"
	"time"

	"github.com/jeremyhahn/go-keyenclave/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRSAKeySpec(t *testing.T) {
	spec := DefaultRSAKeySpec()

	require.NoError(t, spec.Validate())
	assert.Equal(t, types.AlgorithmRSA, spec.Algorithm)
	assert.Equal(t, types.RSAKeySize2048, spec.Bits)
	assert.True(t, spec.AllowsPurpose(types.OperationEncrypt))
	assert.True(t, spec.AllowsPurpose(types.OperationUnwrap))
	assert.True(t, spec.AllowsPadding(types.RSAPaddingOAEP))
	assert.True(t, spec.AllowsDigest(types.HashSHA512))
}

func TestKeySpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    *KeySpec
		wantErr error
	}{
		{
			name:    "nil spec",
			spec:    nil,
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "missing algorithm",
			spec:    &KeySpec{},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "non-RSA algorithm",
			spec:    &KeySpec{Algorithm: types.AlgorithmECDSA},
			wantErr: ErrUnsupportedAlgorithm,
		},
		{
			name: "unknown purpose",
			spec: &KeySpec{
				Algorithm: types.AlgorithmRSA,
				Purposes:  []types.OperationMode{types.OperationMode("SIGN")},
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "unknown digest",
			spec: &KeySpec{
				Algorithm: types.AlgorithmRSA,
				Digests:   []types.HashName{types.HashName("whirlpool")},
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "valid",
			spec: &KeySpec{
				Algorithm: types.AlgorithmRSA,
				Bits:      types.RSAKeySize2048,
				Purposes:  []types.OperationMode{types.OperationDecrypt},
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestKeySpec_EmptyListsAreUnrestricted(t *testing.T) {
	spec := &KeySpec{Algorithm: types.AlgorithmRSA}

	assert.True(t, spec.AllowsPurpose(types.OperationEncrypt))
	assert.True(t, spec.AllowsPadding(types.RSAPaddingNone))
	assert.True(t, spec.AllowsDigest(types.HashSHA256))
}

func TestKeySpec_RestrictedLists(t *testing.T) {
	spec := &KeySpec{
		Algorithm: types.AlgorithmRSA,
		Purposes:  []types.OperationMode{types.OperationDecrypt},
		Paddings:  []types.RSAPadding{types.RSAPaddingOAEP},
		Digests:   []types.HashName{types.HashSHA256},
	}

	assert.True(t, spec.AllowsPurpose(types.OperationDecrypt))
	assert.False(t, spec.AllowsPurpose(types.OperationEncrypt))
	assert.True(t, spec.AllowsPadding(types.RSAPaddingOAEP))
	assert.False(t, spec.AllowsPadding(types.RSAPaddingPKCS1))
	assert.True(t, spec.AllowsDigest(types.HashSHA256))
	assert.False(t, spec.AllowsDigest(types.HashSHA1))
}

func TestKeySpec_Characteristics(t *testing.T) {
	created := time.Unix(1735689600, 0)
	spec := &KeySpec{
		Algorithm: types.AlgorithmRSA,
		Purposes:  []types.OperationMode{types.OperationEncrypt, types.OperationDecrypt},
		Paddings:  []types.RSAPadding{types.RSAPaddingOAEP},
		Digests:   []types.HashName{types.HashSHA256},
	}

	args := spec.Characteristics(types.RSAKeySize3072, OriginGenerated, created)

	algo, ok := args.String(TagAlgorithm)
	require.True(t, ok)
	assert.Equal(t, "RSA", algo)

	bits, ok := args.Int(TagKeySize)
	require.True(t, ok)
	assert.Equal(t, types.RSAKeySize3072, bits)

	origin, ok := args.String(TagOrigin)
	require.True(t, ok)
	assert.Equal(t, OriginGenerated, origin)

	ts, ok := args.Int(TagCreated)
	require.True(t, ok)
	assert.Equal(t, 1735689600, ts)

	assert.Equal(t, []string{"ENCRYPT", "DECRYPT"}, args.Strings(TagPurpose))
	assert.Equal(t, []string{"OAEP"}, args.Strings(TagPadding))
	assert.Equal(t, []string{"SHA-256"}, args.Strings(TagDigest))
}
