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

// Package rsa adapts RSA encryption and decryption to a streaming
// update/finish cipher surface while the keyed transform itself runs
// inside an isolated key management service. The adapter never sees
// private key material: it holds an opaque key handle, validates the
// padding configuration locally, resolves the modulus width from the
// key's characteristics, and delegates every transform to an enclave
// session. Supported paddings are raw RSA (no padding), RSAES-PKCS1-v1_5
// and OAEP with MGF1.
package rsa

import (
	"context"
	"fmt"

	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// state holds everything derived from a successful Configure call. A nil
// state pointer on the cipher means unconfigured; there is no partially
// bound state and no size sentinel to check.
type state struct {
	mode    types.OperationMode
	binding *binding
	digest  types.HashName
	session enclave.Session
	stream  streamer
}

// Cipher streams RSA encrypt and decrypt operations through an enclave
// service. The padding family is fixed at construction; only the OAEP
// digest may be customized afterward, via Configure parameters.
//
// A Cipher is single-owner state and is not safe for concurrent use.
type Cipher struct {
	service    enclave.Service
	padding    types.RSAPadding
	policy     *paddingPolicy
	oaepDigest types.HashName
	st         *state
}

// === Construction ===

// NewCipher returns a cipher for the given padding family. For OAEP the
// digest defaults to SHA-1 until Configure supplies parameters choosing
// another.
func NewCipher(service enclave.Service, padding types.RSAPadding) (*Cipher, error) {
	if service == nil {
		return nil, fmt.Errorf("rsa cipher: nil enclave service")
	}
	policy, err := policyFor(padding)
	if err != nil {
		return nil, err
	}
	c := &Cipher{
		service: service,
		padding: padding,
		policy:  policy,
	}
	if padding == types.RSAPaddingOAEP {
		c.oaepDigest = types.HashSHA1
	}
	return c, nil
}

// NewOAEPCipher returns an OAEP cipher preconfigured with the given
// digest, for callers that select the digest up front rather than
// through Configure parameters.
func NewOAEPCipher(service enclave.Service, digest types.HashName) (*Cipher, error) {
	name := types.ParseHashName(digest.String())
	if name == "" || !oaepDigests[name] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDigest, digest)
	}
	c, err := NewCipher(service, types.RSAPaddingOAEP)
	if err != nil {
		return nil, err
	}
	c.oaepDigest = name
	return c, nil
}

// === Configuration ===

// Configure binds the cipher to a key handle for one operation mode and
// validates the padding parameters. Key binding runs before parameter
// validation, so key errors take precedence. On any failure the cipher
// is left unconfigured; on success it is ready for Update and Finish.
// Any in-flight session from a previous configuration is aborted first.
func (c *Cipher) Configure(ctx context.Context, mode types.OperationMode,
	key types.KeyHandle, params *OAEPParams) error {

	c.abortSession(ctx)
	c.st = nil

	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedOperationMode, mode)
	}

	bind, err := bindKey(ctx, key, mode, c.service)
	if err != nil {
		return err
	}

	digest, err := c.policy.validate(params, c.oaepDigest)
	if err != nil {
		return err
	}
	if digest != "" {
		c.oaepDigest = digest
	}

	c.st = &state{
		mode:    mode,
		binding: bind,
		digest:  digest,
	}
	return nil
}

// === Streaming ===

// Update feeds data into the operation. For raw RSA encryption the input
// is accumulated locally and Update reports no output; for every other
// configuration the bytes are forwarded to the enclave session and its
// intermediate output, usually empty, is returned. The session is
// established lazily on the first Update or Finish call.
func (c *Cipher) Update(ctx context.Context, data []byte) ([]byte, error) {
	if c.st == nil {
		return nil, ErrNotInitialized
	}
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	out, err := c.st.stream.update(ctx, data)
	if err != nil {
		c.abortSession(ctx)
		return nil, remoteErr(err)
	}
	return out, nil
}

// Finish submits any remaining input plus data and returns the transform
// result. The enclave session is consumed either way; the key binding is
// kept, so the cipher can run another operation with a fresh session.
func (c *Cipher) Finish(ctx context.Context, data []byte) ([]byte, error) {
	if c.st == nil {
		return nil, ErrNotInitialized
	}
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	out, err := c.st.stream.finish(ctx, data)
	c.st.session = nil
	c.st.stream = nil
	if err != nil {
		return nil, remoteErr(err)
	}
	return out, nil
}

// Reset clears streaming state and aborts any in-flight session. With
// preserveConfig true the key binding and padding parameters survive and
// the cipher can be reused directly; with false a fresh Configure call
// is required.
func (c *Cipher) Reset(ctx context.Context, preserveConfig bool) {
	c.abortSession(ctx)
	if !preserveConfig {
		c.st = nil
	}
}

// === Introspection ===

// AdditionalEntropy reports how many bytes of caller-unpredictable
// randomness the enclave should provision for the operation: zero for
// any decrypt-side mode, the modulus width for PKCS1 encryption and the
// digest output size for OAEP encryption. The value is an advisory hint
// forwarded on session begin, not randomness generated locally.
func (c *Cipher) AdditionalEntropy() (int, error) {
	if c.st == nil {
		return 0, ErrNotInitialized
	}
	if !c.st.mode.IsEncrypting() {
		return 0, nil
	}
	return c.policy.encryptEntropy(c.st.binding.modulusSize, c.st.digest), nil
}

// OutputSize reports the size of the transform result. RSA output is
// always exactly one modulus wide, so the input length does not matter.
func (c *Cipher) OutputSize(inputLen int) (int, error) {
	if c.st == nil {
		return 0, ErrNotInitialized
	}
	return c.st.binding.modulusSize, nil
}

// Params reconstructs the OAEP parameter descriptor for the currently
// selected digest. It reports nil for padding families that accept no
// parameters.
func (c *Cipher) Params() *OAEPParams {
	return c.policy.describe(c.oaepDigest)
}

// Padding reports the padding family fixed at construction.
func (c *Cipher) Padding() types.RSAPadding {
	return c.padding
}

// BlockSize reports 0. RSA is not a block cipher; the modulus width is
// exposed through OutputSize instead.
func (c *Cipher) BlockSize() int {
	return 0
}

// IV reports nil. RSA operations carry no initialization vector.
func (c *Cipher) IV() []byte {
	return nil
}

// === Session plumbing ===

// ensureSession establishes the enclave session on first use. The begin
// call carries the algorithm and padding tags, the digest tag for OAEP,
// and the entropy hint for the configured mode.
func (c *Cipher) ensureSession(ctx context.Context) error {
	if c.st.session != nil {
		return nil
	}

	args := enclave.NewArguments()
	args.AddString(enclave.TagAlgorithm, types.AlgorithmRSA.String())
	args.AddString(enclave.TagPadding, c.padding.String())
	if c.padding == types.RSAPaddingOAEP {
		args.AddString(enclave.TagDigest, c.st.digest.String())
	}

	entropy, err := c.AdditionalEntropy()
	if err != nil {
		return err
	}

	session, err := c.service.Begin(ctx, c.st.binding.alias, c.st.mode, args, entropy)
	if err != nil {
		return remoteErr(err)
	}

	c.st.session = session
	c.st.stream = c.newStreamer(session)
	return nil
}

// newStreamer selects the buffering strategy for the active session.
// Raw RSA encryption accumulates and zero-pads locally; everything else
// passes straight through and the enclave applies its own padding.
func (c *Cipher) newStreamer(session enclave.Session) streamer {
	if c.policy.buffersEncryptInput && c.st.mode.IsEncrypting() {
		return &zeroPadStreamer{
			session:     session,
			modulusSize: c.st.binding.modulusSize,
		}
	}
	return &sessionStreamer{session: session}
}

// abortSession tears down the in-flight session, if any. Abort failures
// are swallowed; the session is unusable afterward either way.
func (c *Cipher) abortSession(ctx context.Context) {
	if c.st == nil || c.st.session == nil {
		return
	}
	_ = c.st.session.Abort(ctx)
	c.st.session = nil
	c.st.stream = nil
}

// remoteErr tags an enclave failure so callers can distinguish remote
// operation errors from local validation errors while the underlying
// cause stays inspectable.
func remoteErr(err error) error {
	return fmt.Errorf("%w: %w", ErrRemoteOperation, err)
}
