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
	"bytes"
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-keyenclave/pkg/correlation"
	"github.com/jeremyhahn/go-keyenclave/pkg/crypto/rand"
	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
	"github.com/jeremyhahn/go-keyenclave/pkg/logging"
	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// Ensure session implements the session contract
var _ enclave.Session = (*session)(nil)

// Begin starts a keyed RSA operation against the key stored under alias.
// The operation arguments are checked against the key's recorded
// authorization list before any key material is unsealed.
func (e *SoftwareEnclave) Begin(ctx context.Context, alias string, mode types.OperationMode,
	params *enclave.Arguments, entropy int) (enclave.Session, error) {

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, enclave.ErrClosed
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: operation mode %q", enclave.ErrInvalidArgument, mode)
	}

	chars, err := e.loadCharacteristics(alias)
	if err != nil {
		return nil, err
	}

	padding, digest, err := checkAuthorization(chars, mode, params)
	if err != nil {
		return nil, err
	}

	key, err := e.loadKey(alias)
	if err != nil {
		return nil, err
	}

	drbg, err := e.operationReader(entropy)
	if err != nil {
		return nil, err
	}

	token := uuid.New().String()
	e.logger.Debug("session started",
		"correlation_id", correlation.GetOrGenerate(ctx),
		"token", token,
		"alias", alias,
		"mode", mode.String(),
		"padding", padding.String())

	return &session{
		token:       token,
		mode:        mode,
		padding:     padding,
		digest:      digest,
		key:         key,
		modulusSize: (key.N.BitLen() + 7) / 8,
		drbg:        drbg,
		logger:      e.logger,
	}, nil
}

// checkAuthorization validates the operation arguments against the key's
// characteristics. An empty authorization dimension in the characteristics
// leaves that dimension unrestricted. Returns the resolved padding scheme
// and OAEP digest.
func checkAuthorization(chars *enclave.Arguments, mode types.OperationMode,
	params *enclave.Arguments) (types.RSAPadding, types.HashName, error) {

	if algorithm, ok := params.String(enclave.TagAlgorithm); ok {
		if !types.AlgorithmRSA.Equals(algorithm) {
			return "", "", fmt.Errorf("%w: %s", enclave.ErrUnsupportedAlgorithm, algorithm)
		}
	}
	if keyAlgorithm, ok := chars.String(enclave.TagAlgorithm); !ok || !types.AlgorithmRSA.Equals(keyAlgorithm) {
		return "", "", fmt.Errorf("%w: key is not an RSA key", enclave.ErrUnsupportedAlgorithm)
	}

	if len(chars.Strings(enclave.TagPurpose)) > 0 && !chars.Contains(enclave.TagPurpose, mode.String()) {
		return "", "", fmt.Errorf("%w: %s", enclave.ErrIncompatiblePurpose, mode)
	}

	paddingName, ok := params.String(enclave.TagPadding)
	if !ok {
		return "", "", fmt.Errorf("%w: padding argument is required", enclave.ErrInvalidArgument)
	}
	padding := types.ParseRSAPadding(paddingName)
	if padding == "" {
		return "", "", fmt.Errorf("%w: unknown padding %q", enclave.ErrInvalidArgument, paddingName)
	}
	if len(chars.Strings(enclave.TagPadding)) > 0 && !chars.Contains(enclave.TagPadding, padding.String()) {
		return "", "", fmt.Errorf("%w: %s", enclave.ErrIncompatiblePadding, padding)
	}

	var digest types.HashName
	if padding == types.RSAPaddingOAEP {
		digestName, ok := params.String(enclave.TagDigest)
		if !ok {
			return "", "", fmt.Errorf("%w: digest argument is required for OAEP", enclave.ErrInvalidArgument)
		}
		digest = types.ParseHashName(digestName)
		if digest == "" {
			return "", "", fmt.Errorf("%w: unknown digest %q", enclave.ErrInvalidArgument, digestName)
		}
		if len(chars.Strings(enclave.TagDigest)) > 0 && !chars.Contains(enclave.TagDigest, digest.String()) {
			return "", "", fmt.Errorf("%w: %s", enclave.ErrIncompatibleDigest, digest)
		}
	}

	return padding, digest, nil
}

// operationReader builds the randomness source for one operation. The
// entropy hint is advisory: non-positive hints contribute no caller entropy.
func (e *SoftwareEnclave) operationReader(entropy int) (io.Reader, error) {
	var callerEntropy []byte
	if entropy > 0 {
		var err error
		callerEntropy, err = e.random.Rand(entropy)
		if err != nil {
			return nil, fmt.Errorf("failed to draw operation entropy: %w", err)
		}
	}
	return rand.NewOperationReader(e.random, callerEntropy)
}

// =============================================================================
// Session
// =============================================================================

// session is a single in-flight RSA operation. Input accumulates through
// Update and the keyed transform runs once at Finish; the session closes
// afterwards regardless of outcome.
type session struct {
	token       string
	mode        types.OperationMode
	padding     types.RSAPadding
	digest      types.HashName
	key         *rsa.PrivateKey
	modulusSize int
	drbg        io.Reader
	logger      *logging.Logger

	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

// Token returns the service-assigned session identifier.
func (s *session) Token() string {
	return s.token
}

// Update buffers a chunk of operation input. RSA transforms the whole
// message at once, so Update never produces output.
func (s *session) Update(ctx context.Context, data []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, enclave.ErrSessionClosed
	}
	s.buf.Write(data)
	return nil, nil
}

// Finish appends the final chunk, runs the keyed transform and closes the
// session.
func (s *session) Finish(ctx context.Context, data []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, enclave.ErrSessionClosed
	}
	s.closed = true

	s.buf.Write(data)
	input := s.buf.Bytes()
	defer s.buf.Reset()

	var out []byte
	var err error
	if s.mode.IsEncrypting() {
		out, err = s.encrypt(input)
	} else {
		out, err = s.decrypt(input)
	}

	s.logger.Debug("session finished",
		"token", s.token,
		"mode", s.mode.String(),
		"padding", s.padding.String(),
		"input_bytes", len(input),
		"ok", err == nil)
	return out, err
}

// Abort discards the buffered input and closes the session.
func (s *session) Abort(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return enclave.ErrSessionClosed
	}
	s.closed = true
	s.buf.Reset()

	s.logger.Debug("session aborted", "token", s.token)
	return nil
}

// encrypt applies the configured padding scheme with the public half of the
// key.
func (s *session) encrypt(plaintext []byte) ([]byte, error) {
	switch s.padding {
	case types.RSAPaddingNone:
		return s.rawTransform(plaintext, false)
	case types.RSAPaddingPKCS1:
		out, err := rsa.EncryptPKCS1v15(s.drbg, &s.key.PublicKey, plaintext)
		if err != nil {
			return nil, mapEncryptError(err)
		}
		return out, nil
	case types.RSAPaddingOAEP:
		out, err := rsa.EncryptOAEP(s.digest.Hash().New(), s.drbg, &s.key.PublicKey, plaintext, nil)
		if err != nil {
			return nil, mapEncryptError(err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: padding %q", enclave.ErrInvalidArgument, s.padding)
	}
}

// decrypt applies the configured padding scheme with the private half of
// the key. Padding verification failures all map to ErrDecryptFailed so the
// cause is not observable.
func (s *session) decrypt(ciphertext []byte) ([]byte, error) {
	switch s.padding {
	case types.RSAPaddingNone:
		return s.rawTransform(ciphertext, true)
	case types.RSAPaddingPKCS1:
		out, err := rsa.DecryptPKCS1v15(nil, s.key, ciphertext)
		if err != nil {
			return nil, enclave.ErrDecryptFailed
		}
		return out, nil
	case types.RSAPaddingOAEP:
		out, err := rsa.DecryptOAEP(s.digest.Hash().New(), nil, s.key, ciphertext, nil)
		if err != nil {
			return nil, enclave.ErrDecryptFailed
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: padding %q", enclave.ErrInvalidArgument, s.padding)
	}
}

// rawTransform performs the textbook RSA transform for the no-padding
// scheme: m^e mod N with the public exponent when encrypting, c^d mod N
// with the private exponent when decrypting. The output is always exactly
// one modulus wide.
func (s *session) rawTransform(input []byte, private bool) ([]byte, error) {
	if private {
		if len(input) != s.modulusSize {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d",
				enclave.ErrInvalidInput, s.modulusSize, len(input))
		}
	} else if len(input) > s.modulusSize {
		return nil, fmt.Errorf("%w: %d bytes exceed the %d byte modulus",
			enclave.ErrInvalidInput, len(input), s.modulusSize)
	}

	m := new(big.Int).SetBytes(input)
	if m.Cmp(s.key.N) >= 0 {
		return nil, fmt.Errorf("%w: representative not below the modulus", enclave.ErrInvalidArgument)
	}

	var result *big.Int
	if private {
		result = new(big.Int).Exp(m, s.key.D, s.key.N)
	} else {
		result = new(big.Int).Exp(m, big.NewInt(int64(s.key.E)), s.key.N)
	}

	out := make([]byte, s.modulusSize)
	result.FillBytes(out)
	return out, nil
}

// mapEncryptError classifies encryption-side failures. Oversized messages
// are an input error; anything else (such as a failing randomness source)
// passes through unchanged.
func mapEncryptError(err error) error {
	if errors.Is(err, rsa.ErrMessageTooLong) {
		return fmt.Errorf("%w: %v", enclave.ErrInvalidInput, err)
	}
	return err
}
