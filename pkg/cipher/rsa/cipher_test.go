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
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
	"github.com/jeremyhahn/go-keyenclave/pkg/enclave/mocks"
	"github.com/jeremyhahn/go-keyenclave/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAlias = "rsa-test-key"

// handleForMode returns the key-pair half able to serve the given mode.
func handleForMode(mode types.OperationMode, alias string) types.KeyHandle {
	if mode.IsEncrypting() {
		return types.NewPublicKeyHandle(alias, types.AlgorithmRSA)
	}
	return types.NewPrivateKeyHandle(alias, types.AlgorithmRSA)
}

func newTestService(t *testing.T, bits int) *mocks.MockService {
	t.Helper()

	service := mocks.NewMockService()
	service.RegisterRSAKey(testAlias, bits)
	return service
}

func TestNewCipher(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)

	tests := []struct {
		name    string
		service enclave.Service
		padding types.RSAPadding
		wantErr error
	}{
		{
			name:    "None padding",
			service: service,
			padding: types.RSAPaddingNone,
		},
		{
			name:    "PKCS1 padding",
			service: service,
			padding: types.RSAPaddingPKCS1,
		},
		{
			name:    "OAEP padding",
			service: service,
			padding: types.RSAPaddingOAEP,
		},
		{
			name:    "Unknown padding",
			service: service,
			padding: types.RSAPadding("PSS"),
			wantErr: ErrUnsupportedPadding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCipher(tt.service, tt.padding)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.padding, c.Padding())
		})
	}
}

func TestNewCipher_NilService(t *testing.T) {
	_, err := NewCipher(nil, types.RSAPaddingOAEP)
	assert.Error(t, err)
}

func TestNewCipher_OAEPDefaultsToSHA1(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)

	c, err := NewCipher(service, types.RSAPaddingOAEP)
	require.NoError(t, err)

	params := c.Params()
	require.NotNil(t, params)
	assert.Equal(t, types.HashSHA1, params.Digest)
}

func TestNewOAEPCipher(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)

	tests := []struct {
		name    string
		digest  types.HashName
		want    types.HashName
		wantErr error
	}{
		{name: "SHA-1", digest: types.HashSHA1, want: types.HashSHA1},
		{name: "SHA-224", digest: types.HashSHA224, want: types.HashSHA224},
		{name: "SHA-256", digest: types.HashSHA256, want: types.HashSHA256},
		{name: "SHA-384", digest: types.HashSHA384, want: types.HashSHA384},
		{name: "SHA-512", digest: types.HashSHA512, want: types.HashSHA512},
		{name: "Lowercase name normalized", digest: types.HashName("sha-512"), want: types.HashSHA512},
		{name: "MD5 rejected", digest: types.HashMD5, wantErr: ErrUnsupportedDigest},
		{name: "Unknown digest rejected", digest: types.HashName("whirlpool"), wantErr: ErrUnsupportedDigest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewOAEPCipher(service, tt.digest)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, c.Params())
			assert.Equal(t, tt.want, c.Params().Digest)
		})
	}
}

func TestCipher_NotInitialized(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	c, err := NewCipher(service, types.RSAPaddingOAEP)
	require.NoError(t, err)

	_, err = c.Update(ctx, []byte("data"))
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = c.Finish(ctx, []byte("data"))
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = c.AdditionalEntropy()
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = c.OutputSize(0)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestCipher_Configure_InvalidMode(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)

	c, err := NewCipher(service, types.RSAPaddingPKCS1)
	require.NoError(t, err)

	err = c.Configure(context.Background(), types.OperationMode("SIGN"),
		types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA), nil)
	assert.ErrorIs(t, err, ErrUnsupportedOperationMode)
}

func TestCipher_Configure_KeyErrorsPrecedeParamErrors(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)

	c, err := NewCipher(service, types.RSAPaddingOAEP)
	require.NoError(t, err)

	badParams := &OAEPParams{
		Digest:    types.HashSHA256,
		MGF:       "MGF2",
		MGFDigest: types.HashSHA1,
	}

	// Both the key and the parameters are invalid; binding runs first.
	err = c.Configure(context.Background(), types.OperationEncrypt, nil, badParams)
	assert.ErrorIs(t, err, ErrUnsupportedKey)
	assert.NotErrorIs(t, err, ErrUnsupportedMGF)
}

func TestCipher_Configure_RoleModeMatrix(t *testing.T) {
	tests := []struct {
		name    string
		key     types.KeyHandle
		mode    types.OperationMode
		wantErr error
	}{
		{
			name: "Public key encrypts",
			key:  types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA),
			mode: types.OperationEncrypt,
		},
		{
			name: "Public key wraps",
			key:  types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA),
			mode: types.OperationWrap,
		},
		{
			name: "Private key decrypts",
			key:  types.NewPrivateKeyHandle(testAlias, types.AlgorithmRSA),
			mode: types.OperationDecrypt,
		},
		{
			name: "Private key unwraps",
			key:  types.NewPrivateKeyHandle(testAlias, types.AlgorithmRSA),
			mode: types.OperationUnwrap,
		},
		{
			name:    "Private key cannot encrypt",
			key:     types.NewPrivateKeyHandle(testAlias, types.AlgorithmRSA),
			mode:    types.OperationEncrypt,
			wantErr: ErrKeyOperationMismatch,
		},
		{
			name:    "Public key cannot decrypt",
			key:     types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA),
			mode:    types.OperationDecrypt,
			wantErr: ErrKeyOperationMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t, types.RSAKeySize2048)

			c, err := NewCipher(service, types.RSAPaddingPKCS1)
			require.NoError(t, err)

			err = c.Configure(context.Background(), tt.mode, tt.key, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			size, err := c.OutputSize(0)
			require.NoError(t, err)
			assert.Equal(t, 256, size)
		})
	}
}

func TestCipher_Configure_RejectsParamsForNoneAndPKCS1(t *testing.T) {
	tests := []struct {
		name    string
		padding types.RSAPadding
		params  *OAEPParams
	}{
		{
			name:    "None with full descriptor",
			padding: types.RSAPaddingNone,
			params:  DefaultOAEPParams(types.HashSHA1),
		},
		{
			name:    "None with empty descriptor",
			padding: types.RSAPaddingNone,
			params:  &OAEPParams{},
		},
		{
			name:    "PKCS1 with full descriptor",
			padding: types.RSAPaddingPKCS1,
			params:  DefaultOAEPParams(types.HashSHA1),
		},
		{
			name:    "PKCS1 with empty descriptor",
			padding: types.RSAPaddingPKCS1,
			params:  &OAEPParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t, types.RSAKeySize2048)

			c, err := NewCipher(service, tt.padding)
			require.NoError(t, err)

			key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
			err = c.Configure(context.Background(), types.OperationEncrypt, key, tt.params)
			require.ErrorIs(t, err, ErrUnsupportedParameters)

			// The adapter stays unconfigured after a rejected Configure.
			_, err = c.OutputSize(0)
			assert.ErrorIs(t, err, ErrNotInitialized)
		})
	}
}

func TestCipher_Configure_OAEPParamErrors(t *testing.T) {
	tests := []struct {
		name    string
		params  *OAEPParams
		wantErr error
	}{
		{
			name: "MGF2",
			params: &OAEPParams{
				Digest:    types.HashSHA256,
				MGF:       "MGF2",
				MGFDigest: types.HashSHA1,
			},
			wantErr: ErrUnsupportedMGF,
		},
		{
			name: "MD5 digest",
			params: &OAEPParams{
				Digest:    types.HashMD5,
				MGF:       MGF1,
				MGFDigest: types.HashSHA1,
			},
			wantErr: ErrUnsupportedDigest,
		},
		{
			name: "SHA-256 MGF1 digest",
			params: &OAEPParams{
				Digest:    types.HashSHA256,
				MGF:       MGF1,
				MGFDigest: types.HashSHA256,
			},
			wantErr: ErrUnsupportedMGF1Digest,
		},
		{
			name: "Missing MGF parameters",
			params: &OAEPParams{
				Digest: types.HashSHA256,
				MGF:    MGF1,
			},
			wantErr: ErrMissingMGFParameters,
		},
		{
			name: "Non-empty encoding input",
			params: &OAEPParams{
				Digest:    types.HashSHA256,
				MGF:       MGF1,
				MGFDigest: types.HashSHA1,
				Source:    PSource{Kind: PSourceSpecified, Value: []byte("p")},
			},
			wantErr: ErrUnsupportedPSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t, types.RSAKeySize2048)

			c, err := NewCipher(service, types.RSAPaddingOAEP)
			require.NoError(t, err)

			key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
			err = c.Configure(context.Background(), types.OperationEncrypt, key, tt.params)
			require.ErrorIs(t, err, tt.wantErr)

			_, err = c.OutputSize(0)
			assert.ErrorIs(t, err, ErrNotInitialized)

			// Locally invalid configurations must never reach the service.
			assert.Empty(t, service.BeginCalls)
		})
	}
}

func TestCipher_OAEPRoundTripLaw(t *testing.T) {
	digests := []types.HashName{
		types.HashSHA1,
		types.HashSHA224,
		types.HashSHA256,
		types.HashSHA384,
		types.HashSHA512,
	}

	for _, digest := range digests {
		t.Run(digest.String(), func(t *testing.T) {
			service := newTestService(t, types.RSAKeySize2048)

			c, err := NewCipher(service, types.RSAPaddingOAEP)
			require.NoError(t, err)

			key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
			err = c.Configure(context.Background(), types.OperationEncrypt, key,
				DefaultOAEPParams(digest))
			require.NoError(t, err)

			params := c.Params()
			require.NotNil(t, params)
			assert.Equal(t, digest, params.Digest)
			assert.Equal(t, MGF1, params.MGF)
			assert.Equal(t, types.HashSHA1, params.MGFDigest)
			assert.Equal(t, PSourceSpecified, params.Source.Kind)
			assert.Empty(t, params.Source.Value)
		})
	}
}

func TestCipher_OAEPDigestPersistsAcrossNilParams(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	c, err := NewCipher(service, types.RSAPaddingOAEP)
	require.NoError(t, err)

	key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
	err = c.Configure(ctx, types.OperationEncrypt, key, DefaultOAEPParams(types.HashSHA256))
	require.NoError(t, err)

	// Reconfiguring without parameters keeps the previously accepted digest.
	err = c.Configure(ctx, types.OperationEncrypt, key, nil)
	require.NoError(t, err)

	require.NotNil(t, c.Params())
	assert.Equal(t, types.HashSHA256, c.Params().Digest)

	entropy, err := c.AdditionalEntropy()
	require.NoError(t, err)
	assert.Equal(t, 32, entropy)
}

func TestCipher_AdditionalEntropy(t *testing.T) {
	tests := []struct {
		name    string
		padding types.RSAPadding
		digest  types.HashName
		mode    types.OperationMode
		bits    int
		want    int
	}{
		{
			name:    "None encrypt",
			padding: types.RSAPaddingNone,
			mode:    types.OperationEncrypt,
			bits:    types.RSAKeySize2048,
			want:    0,
		},
		{
			name:    "None decrypt",
			padding: types.RSAPaddingNone,
			mode:    types.OperationDecrypt,
			bits:    types.RSAKeySize2048,
			want:    0,
		},
		{
			name:    "PKCS1 encrypt needs a full modulus",
			padding: types.RSAPaddingPKCS1,
			mode:    types.OperationEncrypt,
			bits:    types.RSAKeySize2048,
			want:    256,
		},
		{
			name:    "PKCS1 wrap needs a full modulus",
			padding: types.RSAPaddingPKCS1,
			mode:    types.OperationWrap,
			bits:    types.RSAKeySize4096,
			want:    512,
		},
		{
			name:    "PKCS1 decrypt",
			padding: types.RSAPaddingPKCS1,
			mode:    types.OperationDecrypt,
			bits:    types.RSAKeySize2048,
			want:    0,
		},
		{
			name:    "OAEP SHA-1 encrypt needs one hash output",
			padding: types.RSAPaddingOAEP,
			digest:  types.HashSHA1,
			mode:    types.OperationEncrypt,
			bits:    types.RSAKeySize2048,
			want:    20,
		},
		{
			name:    "OAEP SHA-256 encrypt needs one hash output",
			padding: types.RSAPaddingOAEP,
			digest:  types.HashSHA256,
			mode:    types.OperationEncrypt,
			bits:    types.RSAKeySize2048,
			want:    32,
		},
		{
			name:    "OAEP SHA-512 encrypt needs one hash output",
			padding: types.RSAPaddingOAEP,
			digest:  types.HashSHA512,
			mode:    types.OperationEncrypt,
			bits:    types.RSAKeySize2048,
			want:    64,
		},
		{
			name:    "OAEP SHA-256 unwrap",
			padding: types.RSAPaddingOAEP,
			digest:  types.HashSHA256,
			mode:    types.OperationUnwrap,
			bits:    types.RSAKeySize2048,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t, tt.bits)

			var c *Cipher
			var err error
			if tt.padding == types.RSAPaddingOAEP {
				c, err = NewOAEPCipher(service, tt.digest)
			} else {
				c, err = NewCipher(service, tt.padding)
			}
			require.NoError(t, err)

			err = c.Configure(context.Background(), tt.mode, handleForMode(tt.mode, testAlias), nil)
			require.NoError(t, err)

			entropy, err := c.AdditionalEntropy()
			require.NoError(t, err)
			assert.Equal(t, tt.want, entropy)
		})
	}
}

func TestCipher_OutputSize(t *testing.T) {
	tests := []struct {
		name string
		bits int
		want int
	}{
		{name: "RSA-2048", bits: types.RSAKeySize2048, want: 256},
		{name: "RSA-3072", bits: types.RSAKeySize3072, want: 384},
		{name: "RSA-4096", bits: types.RSAKeySize4096, want: 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t, tt.bits)

			c, err := NewCipher(service, types.RSAPaddingOAEP)
			require.NoError(t, err)

			key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
			err = c.Configure(context.Background(), types.OperationEncrypt, key, nil)
			require.NoError(t, err)

			// Fixed-width output regardless of input length.
			for _, inputLen := range []int{0, 1, tt.want} {
				size, err := c.OutputSize(inputLen)
				require.NoError(t, err)
				assert.Equal(t, tt.want, size)
			}
		})
	}
}

func TestCipher_RawEncryptZeroPadScenario(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	c, err := NewCipher(service, types.RSAPaddingNone)
	require.NoError(t, err)

	key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
	require.NoError(t, c.Configure(ctx, types.OperationEncrypt, key, nil))

	input := []byte("0123456789")
	out, err := c.Update(ctx, input)
	require.NoError(t, err)
	assert.Empty(t, out)

	session := service.LastSession()
	require.NotNil(t, session)
	session.Result = []byte("raw ciphertext")

	// No plaintext reaches the session before finish.
	assert.Empty(t, session.UpdateCalls)

	out, err = c.Finish(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw ciphertext"), out)

	submitted := session.Submitted()
	require.Len(t, submitted, 256)
	assert.Equal(t, bytes.Repeat([]byte{0}, 246), submitted[:246])
	assert.Equal(t, input, submitted[246:])
}

func TestCipher_RawWrapUsesZeroPad(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	c, err := NewCipher(service, types.RSAPaddingNone)
	require.NoError(t, err)

	key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
	require.NoError(t, c.Configure(ctx, types.OperationWrap, key, nil))

	_, err = c.Update(ctx, []byte{0xFF})
	require.NoError(t, err)
	_, err = c.Finish(ctx, nil)
	require.NoError(t, err)

	submitted := service.LastSession().Submitted()
	require.Len(t, submitted, 256)
	assert.Equal(t, byte(0xFF), submitted[255])
}

func TestCipher_RawDecryptPassesThrough(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	c, err := NewCipher(service, types.RSAPaddingNone)
	require.NoError(t, err)

	key := types.NewPrivateKeyHandle(testAlias, types.AlgorithmRSA)
	require.NoError(t, c.Configure(ctx, types.OperationDecrypt, key, nil))

	// Decryption never buffers locally; ciphertext flows straight through.
	ciphertext := bytes.Repeat([]byte{0x42}, 256)
	_, err = c.Update(ctx, ciphertext[:128])
	require.NoError(t, err)

	session := service.LastSession()
	require.Len(t, session.UpdateCalls, 1)
	assert.Equal(t, ciphertext[:128], session.UpdateCalls[0])

	_, err = c.Finish(ctx, ciphertext[128:])
	require.NoError(t, err)
	assert.Equal(t, ciphertext[128:], session.Submitted())
}

func TestCipher_LazySessionEstablishment(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	c, err := NewCipher(service, types.RSAPaddingOAEP)
	require.NoError(t, err)

	key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
	require.NoError(t, c.Configure(ctx, types.OperationEncrypt, key, nil))

	// Configure validates locally; the session starts on first use.
	assert.Empty(t, service.BeginCalls)

	_, err = c.Update(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Len(t, service.BeginCalls, 1)

	_, err = c.Update(ctx, []byte("b"))
	require.NoError(t, err)
	assert.Len(t, service.BeginCalls, 1)
}

func TestCipher_BeginArguments(t *testing.T) {
	tests := []struct {
		name        string
		padding     types.RSAPadding
		digest      types.HashName
		mode        types.OperationMode
		wantDigest  string
		wantEntropy int
	}{
		{
			name:        "OAEP SHA-256 encrypt",
			padding:     types.RSAPaddingOAEP,
			digest:      types.HashSHA256,
			mode:        types.OperationEncrypt,
			wantDigest:  "SHA-256",
			wantEntropy: 32,
		},
		{
			name:        "OAEP SHA-1 decrypt",
			padding:     types.RSAPaddingOAEP,
			digest:      types.HashSHA1,
			mode:        types.OperationDecrypt,
			wantDigest:  "SHA-1",
			wantEntropy: 0,
		},
		{
			name:        "PKCS1 encrypt",
			padding:     types.RSAPaddingPKCS1,
			mode:        types.OperationEncrypt,
			wantEntropy: 256,
		},
		{
			name:        "None encrypt",
			padding:     types.RSAPaddingNone,
			mode:        types.OperationEncrypt,
			wantEntropy: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t, types.RSAKeySize2048)
			ctx := context.Background()

			var c *Cipher
			var err error
			if tt.padding == types.RSAPaddingOAEP {
				c, err = NewOAEPCipher(service, tt.digest)
			} else {
				c, err = NewCipher(service, tt.padding)
			}
			require.NoError(t, err)

			err = c.Configure(ctx, tt.mode, handleForMode(tt.mode, testAlias), nil)
			require.NoError(t, err)

			_, err = c.Update(ctx, []byte("x"))
			require.NoError(t, err)

			call := service.LastBegin()
			require.NotNil(t, call)
			assert.Equal(t, testAlias, call.Alias)
			assert.Equal(t, tt.mode, call.Mode)
			assert.Equal(t, tt.wantEntropy, call.Entropy)

			algorithm, ok := call.Params.String(enclave.TagAlgorithm)
			require.True(t, ok)
			assert.Equal(t, "RSA", algorithm)

			padding, ok := call.Params.String(enclave.TagPadding)
			require.True(t, ok)
			assert.Equal(t, tt.padding.String(), padding)

			digest, ok := call.Params.String(enclave.TagDigest)
			if tt.wantDigest == "" {
				assert.False(t, ok)
			} else {
				require.True(t, ok)
				assert.Equal(t, tt.wantDigest, digest)
			}
		})
	}
}

func TestCipher_FinishConsumesSession(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	c, err := NewCipher(service, types.RSAPaddingPKCS1)
	require.NoError(t, err)

	key := types.NewPrivateKeyHandle(testAlias, types.AlgorithmRSA)
	require.NoError(t, c.Configure(ctx, types.OperationDecrypt, key, nil))

	_, err = c.Update(ctx, []byte("ciphertext"))
	require.NoError(t, err)
	_, err = c.Finish(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, service.BeginCalls, 1)

	// The binding survives the finalize; only the session is torn down
	// and re-established on next use.
	_, err = c.Update(ctx, []byte("more ciphertext"))
	require.NoError(t, err)
	assert.Len(t, service.BeginCalls, 2)
	assert.Len(t, service.KeyCharacteristicsCalls, 1)
}

func TestCipher_BeginFailure(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	beginErr := errors.New("enclave saturated")
	service.BeginFunc = func(ctx context.Context, alias string, mode types.OperationMode,
		params *enclave.Arguments, entropy int) (enclave.Session, error) {
		return nil, beginErr
	}

	c, err := NewCipher(service, types.RSAPaddingOAEP)
	require.NoError(t, err)

	key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
	require.NoError(t, c.Configure(ctx, types.OperationEncrypt, key, nil))

	_, err = c.Update(ctx, []byte("data"))
	require.ErrorIs(t, err, ErrRemoteOperation)
	assert.ErrorIs(t, err, beginErr)

	// The configuration survives; the next call may retry.
	service.BeginFunc = nil
	_, err = c.Update(ctx, []byte("data"))
	assert.NoError(t, err)
}

func TestCipher_UpdateErrorAbortsSession(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	opErr := errors.New("operation rejected")
	session := mocks.NewMockSession("s1")
	session.UpdateFunc = func(ctx context.Context, data []byte) ([]byte, error) {
		return nil, opErr
	}
	service.BeginFunc = func(ctx context.Context, alias string, mode types.OperationMode,
		params *enclave.Arguments, entropy int) (enclave.Session, error) {
		return session, nil
	}

	c, err := NewCipher(service, types.RSAPaddingOAEP)
	require.NoError(t, err)

	key := types.NewPrivateKeyHandle(testAlias, types.AlgorithmRSA)
	require.NoError(t, c.Configure(ctx, types.OperationDecrypt, key, nil))

	_, err = c.Update(ctx, []byte("data"))
	require.ErrorIs(t, err, ErrRemoteOperation)
	assert.ErrorIs(t, err, opErr)
	assert.Equal(t, 1, session.AbortCalls)

	// A fresh session serves the next call.
	service.BeginFunc = nil
	_, err = c.Update(ctx, []byte("data"))
	require.NoError(t, err)
	assert.Len(t, service.BeginCalls, 2)
}

func TestCipher_FinishError(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	opErr := errors.New("decrypt failed")
	session := mocks.NewMockSession("s1")
	session.FinishFunc = func(ctx context.Context, data []byte) ([]byte, error) {
		return nil, opErr
	}
	service.BeginFunc = func(ctx context.Context, alias string, mode types.OperationMode,
		params *enclave.Arguments, entropy int) (enclave.Session, error) {
		return session, nil
	}

	c, err := NewCipher(service, types.RSAPaddingOAEP)
	require.NoError(t, err)

	key := types.NewPrivateKeyHandle(testAlias, types.AlgorithmRSA)
	require.NoError(t, c.Configure(ctx, types.OperationDecrypt, key, nil))

	_, err = c.Finish(ctx, []byte("garbage"))
	require.ErrorIs(t, err, ErrRemoteOperation)
	assert.ErrorIs(t, err, opErr)

	// The failed session is gone; the binding still stands.
	service.BeginFunc = nil
	size, err := c.OutputSize(0)
	require.NoError(t, err)
	assert.Equal(t, 256, size)
}

func TestCipher_Reset(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	c, err := NewCipher(service, types.RSAPaddingOAEP)
	require.NoError(t, err)

	key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
	require.NoError(t, c.Configure(ctx, types.OperationEncrypt, key, nil))

	_, err = c.Update(ctx, []byte("data"))
	require.NoError(t, err)

	session := service.LastSession()
	require.NotNil(t, session)

	c.Reset(ctx, true)
	assert.Equal(t, 1, session.AbortCalls)

	// Binding preserved: sizing works and streaming re-begins.
	size, err := c.OutputSize(0)
	require.NoError(t, err)
	assert.Equal(t, 256, size)

	_, err = c.Update(ctx, []byte("data"))
	require.NoError(t, err)
	assert.Len(t, service.BeginCalls, 2)

	c.Reset(ctx, false)
	_, err = c.OutputSize(0)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestCipher_ReconfigureAbortsInFlightSession(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	c, err := NewCipher(service, types.RSAPaddingOAEP)
	require.NoError(t, err)

	key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
	require.NoError(t, c.Configure(ctx, types.OperationEncrypt, key, nil))

	_, err = c.Update(ctx, []byte("data"))
	require.NoError(t, err)

	session := service.LastSession()
	require.NotNil(t, session)

	require.NoError(t, c.Configure(ctx, types.OperationEncrypt, key, nil))
	assert.Equal(t, 1, session.AbortCalls)
}

func TestCipher_ConfigureFailureLeavesUnconfigured(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)
	ctx := context.Background()

	c, err := NewCipher(service, types.RSAPaddingOAEP)
	require.NoError(t, err)

	key := types.NewPublicKeyHandle(testAlias, types.AlgorithmRSA)
	require.NoError(t, c.Configure(ctx, types.OperationEncrypt, key, nil))

	err = c.Configure(ctx, types.OperationEncrypt, nil, nil)
	require.ErrorIs(t, err, ErrUnsupportedKey)

	// No partial state survives a failed reconfigure.
	_, err = c.OutputSize(0)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestCipher_BlockSizeAndIV(t *testing.T) {
	service := newTestService(t, types.RSAKeySize2048)

	c, err := NewCipher(service, types.RSAPaddingPKCS1)
	require.NoError(t, err)

	assert.Zero(t, c.BlockSize())
	assert.Nil(t, c.IV())
	assert.Equal(t, types.RSAPaddingPKCS1, c.Padding())
}
