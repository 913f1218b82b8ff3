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
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// sealingKeyInfo is the HKDF info string for deriving per-key sealing keys.
const sealingKeyInfo = "keyenclave-sealing-key-v1"

// sealedBlob is the at-rest envelope for private key material.
type sealedBlob struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// seal encrypts key material for storage. Each alias gets its own AES-256
// key derived from the master secret, so a blob copied under a different
// alias fails to unseal.
func (e *SoftwareEnclave) seal(alias string, plaintext []byte) ([]byte, error) {
	sealingKey, err := deriveSealingKey(e.masterSecret, alias)
	if err != nil {
		return nil, err
	}
	defer clearBytes(sealingKey)

	block, err := aes.NewCipher(sealingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce, err := e.random.Rand(gcm.NonceSize())
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	blob := &sealedBlob{
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, nil),
	}
	return json.Marshal(blob)
}

// unseal decrypts key material previously produced by seal for the same
// alias.
func (e *SoftwareEnclave) unseal(alias string, data []byte) ([]byte, error) {
	var blob sealedBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsealFailed, err)
	}

	sealingKey, err := deriveSealingKey(e.masterSecret, alias)
	if err != nil {
		return nil, err
	}
	defer clearBytes(sealingKey)

	block, err := aes.NewCipher(sealingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(blob.Nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: invalid nonce size %d", ErrUnsealFailed, len(blob.Nonce))
	}

	plaintext, err := gcm.Open(nil, blob.Nonce, blob.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsealFailed, err)
	}
	return plaintext, nil
}

// deriveSealingKey derives a 256-bit AES key from the master secret using
// HKDF-SHA256 with the alias as salt for domain separation.
func deriveSealingKey(masterSecret []byte, alias string) ([]byte, error) {
	hkdfReader := hkdf.New(sha256.New, masterSecret, []byte(alias), []byte(sealingKeyInfo))

	derivedKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, derivedKey); err != nil {
		return nil, fmt.Errorf("HKDF key derivation failed: %w", err)
	}
	return derivedKey, nil
}

// clearBytes zeros out a byte slice
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
