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

// Package types contains shared type definitions used across the enclave
// service contracts and the cipher adapters: algorithm identifiers, operation
// modes, padding schemes, and opaque key handles. This package has no
// dependencies on pkg/enclave or pkg/cipher to prevent import cycles.
package types

import (
	"crypto"
	"strings"
)

// =============================================================================
// Key Algorithm String Constants
// =============================================================================
// These string constants match Go standard library naming conventions and
// provide consistent algorithm identifiers throughout the codebase.

// KeyAlgorithm represents asymmetric key algorithm identifiers.
type KeyAlgorithm string

const (
	// AlgorithmRSA represents the RSA public key algorithm.
	// The only algorithm the RSA cipher adapter binds to.
	AlgorithmRSA KeyAlgorithm = "RSA"

	// AlgorithmECDSA represents the ECDSA public key algorithm.
	AlgorithmECDSA KeyAlgorithm = "ECDSA"

	// AlgorithmEd25519 represents the Ed25519 public key algorithm.
	AlgorithmEd25519 KeyAlgorithm = "Ed25519"
)

// String returns the string representation.
func (a KeyAlgorithm) String() string {
	return string(a)
}

// Lower returns the lowercase form of the algorithm string.
func (a KeyAlgorithm) Lower() string {
	return strings.ToLower(string(a))
}

// Equals performs case-insensitive comparison for protocol compatibility.
func (a KeyAlgorithm) Equals(s string) bool {
	return strings.EqualFold(string(a), s)
}

// ParseKeyAlgorithm converts a string to KeyAlgorithm.
// Returns the empty value when the string is not recognized.
func ParseKeyAlgorithm(s string) KeyAlgorithm {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rsa":
		return AlgorithmRSA
	case "ecdsa", "ec", "ecc":
		return AlgorithmECDSA
	case "ed25519":
		return AlgorithmEd25519
	default:
		return ""
	}
}

// =============================================================================
// Operation Mode Constants
// =============================================================================
// Operation modes mirror the purposes a key service authorizes for a key.
// Encryption-side modes require a public key, decryption-side modes a private
// key.

// OperationMode identifies the cryptographic operation a cipher is configured
// for.
type OperationMode string

const (
	// OperationEncrypt encrypts caller data with a public key.
	OperationEncrypt OperationMode = "ENCRYPT"

	// OperationDecrypt decrypts caller data with a private key.
	OperationDecrypt OperationMode = "DECRYPT"

	// OperationWrap wraps (encrypts) key material with a public key.
	OperationWrap OperationMode = "WRAP"

	// OperationUnwrap unwraps (decrypts) key material with a private key.
	OperationUnwrap OperationMode = "UNWRAP"
)

// String returns the string representation.
func (m OperationMode) String() string {
	return string(m)
}

// Lower returns the lowercase form of the operation mode.
func (m OperationMode) Lower() string {
	return strings.ToLower(string(m))
}

// Equals performs case-insensitive comparison for protocol compatibility.
func (m OperationMode) Equals(s string) bool {
	return strings.EqualFold(string(m), s)
}

// IsEncrypting returns true for the encryption-side modes (ENCRYPT, WRAP).
func (m OperationMode) IsEncrypting() bool {
	return m == OperationEncrypt || m == OperationWrap
}

// IsDecrypting returns true for the decryption-side modes (DECRYPT, UNWRAP).
func (m OperationMode) IsDecrypting() bool {
	return m == OperationDecrypt || m == OperationUnwrap
}

// Valid returns true if the mode is one of the four recognized modes.
func (m OperationMode) Valid() bool {
	return m.IsEncrypting() || m.IsDecrypting()
}

// Role returns the key role able to serve this operation mode: public for
// ENCRYPT/WRAP, private for DECRYPT/UNWRAP. Returns the empty role for
// unrecognized modes.
func (m OperationMode) Role() KeyRole {
	switch {
	case m.IsEncrypting():
		return KeyRolePublic
	case m.IsDecrypting():
		return KeyRolePrivate
	default:
		return ""
	}
}

// ParseOperationMode converts a string to OperationMode.
// Returns the empty value when the string is not recognized.
func ParseOperationMode(s string) OperationMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "encrypt":
		return OperationEncrypt
	case "decrypt":
		return OperationDecrypt
	case "wrap":
		return OperationWrap
	case "unwrap":
		return OperationUnwrap
	default:
		return ""
	}
}

// =============================================================================
// Key Role Constants
// =============================================================================

// KeyRole identifies which half of an asymmetric key pair a handle refers to.
type KeyRole string

const (
	// KeyRolePrivate is the private half; valid only with DECRYPT and UNWRAP.
	KeyRolePrivate KeyRole = "private"

	// KeyRolePublic is the public half; valid only with ENCRYPT and WRAP.
	KeyRolePublic KeyRole = "public"
)

// String returns the string representation.
func (r KeyRole) String() string {
	return string(r)
}

// =============================================================================
// RSA Padding Scheme Constants
// =============================================================================
// Padding schemes the RSA cipher adapter can request from the key service.
// The scheme variant is fixed when an adapter is constructed; only OAEP's
// digest may be customized afterward.

// RSAPadding identifies an RSA encryption padding scheme.
type RSAPadding string

const (
	// RSAPaddingNone is raw RSA without padding. Input is zero-padded on the
	// left to exactly the modulus size before the keyed transform.
	RSAPaddingNone RSAPadding = "NONE"

	// RSAPaddingPKCS1 is RSAES-PKCS1-v1_5 encryption padding.
	RSAPaddingPKCS1 RSAPadding = "PKCS1"

	// RSAPaddingOAEP is RSAES-OAEP with an MGF1 mask generation function.
	// Only SHA-1 based MGF1 is supported as the MGF.
	RSAPaddingOAEP RSAPadding = "OAEP"
)

// String returns the string representation.
func (p RSAPadding) String() string {
	return string(p)
}

// Lower returns the lowercase form of the padding name.
func (p RSAPadding) Lower() string {
	return strings.ToLower(string(p))
}

// Equals performs case-insensitive comparison for protocol compatibility.
func (p RSAPadding) Equals(s string) bool {
	return strings.EqualFold(string(p), s)
}

// ParseRSAPadding converts a string to RSAPadding.
// Returns the empty value when the string is not recognized.
func ParseRSAPadding(s string) RSAPadding {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	switch s {
	case "none", "nopadding", "raw":
		return RSAPaddingNone
	case "pkcs1", "pkcs1v15", "pkcs1padding":
		return RSAPaddingPKCS1
	case "oaep", "oaeppadding", "oaepwithmgf1":
		return RSAPaddingOAEP
	default:
		return ""
	}
}

// =============================================================================
// Hash Algorithm String Constants
// =============================================================================
// Hash names follow the standard library crypto.Hash naming with dashes.

// HashName represents hash algorithm identifiers.
type HashName string

const (
	// HashMD5 is MD5 (legacy, insecure).
	HashMD5 HashName = "MD5"

	// HashSHA1 is SHA-1 (legacy, use SHA-256+ for new applications).
	HashSHA1 HashName = "SHA-1"

	// HashSHA224 is SHA-224.
	HashSHA224 HashName = "SHA-224"

	// HashSHA256 is SHA-256 (recommended minimum).
	HashSHA256 HashName = "SHA-256"

	// HashSHA384 is SHA-384.
	HashSHA384 HashName = "SHA-384"

	// HashSHA512 is SHA-512.
	HashSHA512 HashName = "SHA-512"

	// HashSHA512_224 is SHA-512/224.
	HashSHA512_224 HashName = "SHA-512/224"

	// HashSHA512_256 is SHA-512/256.
	HashSHA512_256 HashName = "SHA-512/256"
)

// String returns the string representation.
func (h HashName) String() string {
	return string(h)
}

// Lower returns the lowercase form of the hash name.
func (h HashName) Lower() string {
	return strings.ToLower(string(h))
}

// Equals performs case-insensitive comparison for protocol compatibility.
func (h HashName) Equals(s string) bool {
	return strings.EqualFold(string(h), s)
}

// Hash converts the HashName to the standard library crypto.Hash.
// Returns 0 for unrecognized names.
func (h HashName) Hash() crypto.Hash {
	switch h {
	case HashMD5:
		return crypto.MD5
	case HashSHA1:
		return crypto.SHA1
	case HashSHA224:
		return crypto.SHA224
	case HashSHA256:
		return crypto.SHA256
	case HashSHA384:
		return crypto.SHA384
	case HashSHA512:
		return crypto.SHA512
	case HashSHA512_224:
		return crypto.SHA512_224
	case HashSHA512_256:
		return crypto.SHA512_256
	default:
		return 0
	}
}

// Size returns the digest output size in bytes, or 0 for unrecognized names.
func (h HashName) Size() int {
	hash := h.Hash()
	if hash == 0 {
		return 0
	}
	return hash.Size()
}

// ParseHashName converts a string to HashName.
// Returns the empty value when the string is not recognized.
func ParseHashName(s string) HashName {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")

	switch s {
	case "MD5":
		return HashMD5
	case "SHA-1", "SHA1":
		return HashSHA1
	case "SHA-224", "SHA224":
		return HashSHA224
	case "SHA-256", "SHA256":
		return HashSHA256
	case "SHA-384", "SHA384":
		return HashSHA384
	case "SHA-512", "SHA512":
		return HashSHA512
	case "SHA-512/224", "SHA512-224":
		return HashSHA512_224
	case "SHA-512/256", "SHA512-256":
		return HashSHA512_256
	default:
		return ""
	}
}

// =============================================================================
// RSA Key Size Constants
// =============================================================================
// Standard RSA key sizes.

const (
	// RSAKeySize2048 is 2048-bit RSA (minimum recommended).
	RSAKeySize2048 = 2048

	// RSAKeySize3072 is 3072-bit RSA (recommended for longer security).
	RSAKeySize3072 = 3072

	// RSAKeySize4096 is 4096-bit RSA (high security).
	RSAKeySize4096 = 4096
)
