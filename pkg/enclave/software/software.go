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

// Package software is an in-process implementation of the enclave service
// contracts. Key material is sealed at rest with AES-256-GCM under per-alias
// keys derived from a master secret, characteristics are persisted beside
// the sealed blobs, and sessions perform the RSA transforms locally.
//
// This backend provides the same begin/update/finish/abort surface as a
// hardware-backed service, which makes it a drop-in stand-in for
// development, testing and environments without an isolated key service.
// It is software-only: key material is loaded into process memory for the
// duration of each operation.
package software

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jeremyhahn/go-keyenclave/pkg/correlation"
	"github.com/jeremyhahn/go-keyenclave/pkg/crypto/rand"
	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
	"github.com/jeremyhahn/go-keyenclave/pkg/logging"
	"github.com/jeremyhahn/go-keyenclave/pkg/storage"
	"github.com/jeremyhahn/go-keyenclave/pkg/types"
	"github.com/youmark/pkcs8"
)

// Ensure SoftwareEnclave implements the full key manager surface
var _ enclave.KeyManager = (*SoftwareEnclave)(nil)

// SoftwareEnclave implements enclave.KeyManager with locally held, sealed
// key material.
//
// Thread-safe: Yes, uses a read-write mutex for concurrent access.
type SoftwareEnclave struct {
	storage      storage.Backend
	masterSecret []byte
	random       rand.Resolver
	logger       *logging.Logger
	closed       bool
	mu           sync.RWMutex
}

// New creates a software enclave from the given configuration.
func New(config *Config) (*SoftwareEnclave, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	random := config.Random
	if random == nil {
		var err error
		random, err = rand.NewResolver(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create RNG resolver: %w", err)
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	// Keep an owned copy so the caller's slice can be wiped independently.
	masterSecret := make([]byte, len(config.MasterSecret))
	copy(masterSecret, config.MasterSecret)

	return &SoftwareEnclave{
		storage:      config.Storage,
		masterSecret: masterSecret,
		random:       random,
		logger:       logger,
	}, nil
}

// GenerateKey creates a new RSA key pair under alias with the given
// authorization spec. A nil spec applies DefaultRSAKeySpec.
func (e *SoftwareEnclave) GenerateKey(ctx context.Context, alias string, spec *enclave.KeySpec) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return enclave.ErrClosed
	}
	if alias == "" {
		return fmt.Errorf("%w: alias is required", enclave.ErrInvalidArgument)
	}

	if spec == nil {
		spec = enclave.DefaultRSAKeySpec()
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	bits := spec.Bits
	if bits == 0 {
		bits = types.RSAKeySize2048
	}
	if bits < types.RSAKeySize2048 {
		return fmt.Errorf("%w: RSA key size must be at least 2048 bits", enclave.ErrInvalidArgument)
	}

	exists, err := e.storage.Exists(storage.KeyPath(alias))
	if err != nil {
		return fmt.Errorf("failed to check key existence: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", enclave.ErrKeyAlreadyExists, alias)
	}

	key, err := rsa.GenerateKey(e.random, bits)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	if err := e.storeKey(alias, key, spec, bits, enclave.OriginGenerated); err != nil {
		return err
	}

	e.logger.Debug("generated key",
		"correlation_id", correlation.GetOrGenerate(ctx),
		"alias", alias,
		"bits", bits)
	return nil
}

// ImportPKCS8 imports PEM-encoded PKCS#8 RSA key material under alias.
// Encrypted PKCS#8 is decrypted with passphrase. The key size recorded in
// the characteristics comes from the imported material, not the spec.
func (e *SoftwareEnclave) ImportPKCS8(ctx context.Context, alias string, pemBytes []byte,
	passphrase []byte, spec *enclave.KeySpec) error {

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return enclave.ErrClosed
	}
	if alias == "" {
		return fmt.Errorf("%w: alias is required", enclave.ErrInvalidArgument)
	}

	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return fmt.Errorf("%w: no PEM block found", enclave.ErrInvalidArgument)
	}

	key, err := parsePKCS8(block.Bytes, passphrase)
	if err != nil {
		return err
	}

	if spec == nil {
		spec = enclave.DefaultRSAKeySpec()
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	exists, err := e.storage.Exists(storage.KeyPath(alias))
	if err != nil {
		return fmt.Errorf("failed to check key existence: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", enclave.ErrKeyAlreadyExists, alias)
	}

	bits := key.N.BitLen()
	if err := e.storeKey(alias, key, spec, bits, enclave.OriginImported); err != nil {
		return err
	}

	e.logger.Debug("imported key",
		"correlation_id", correlation.GetOrGenerate(ctx),
		"alias", alias,
		"bits", bits)
	return nil
}

// DeleteKey removes the key stored under alias along with its
// characteristics.
func (e *SoftwareEnclave) DeleteKey(ctx context.Context, alias string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return enclave.ErrClosed
	}

	exists, err := e.storage.Exists(storage.KeyPath(alias))
	if err != nil {
		return fmt.Errorf("failed to check key existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", enclave.ErrKeyNotFound, alias)
	}

	if err := e.storage.Delete(storage.KeyPath(alias)); err != nil {
		return fmt.Errorf("failed to delete key material: %w", err)
	}
	// The sealed blob is authoritative; a missing characteristics record is
	// not an error here.
	if err := e.storage.Delete(storage.MetaPath(alias)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete characteristics: %w", err)
	}

	e.logger.Debug("deleted key",
		"correlation_id", correlation.GetOrGenerate(ctx),
		"alias", alias)
	return nil
}

// ListKeys returns summary information for every stored key, sorted by
// alias. Records that fail to load are skipped.
func (e *SoftwareEnclave) ListKeys(ctx context.Context) ([]enclave.KeyInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, enclave.ErrClosed
	}

	keys, err := e.storage.List(storage.MetaPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	infos := make([]enclave.KeyInfo, 0, len(keys))
	for _, key := range keys {
		alias := strings.TrimPrefix(key, storage.MetaPrefix)
		chars, err := e.loadCharacteristics(alias)
		if err != nil {
			e.logger.Warnf("skipping unreadable characteristics for %q: %v", alias, err)
			continue
		}
		infos = append(infos, keyInfoFromCharacteristics(alias, chars))
	}
	return infos, nil
}

// KeyCharacteristics returns the characteristics recorded for alias at
// generation or import time.
func (e *SoftwareEnclave) KeyCharacteristics(ctx context.Context, alias string) (*enclave.Arguments, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, enclave.ErrClosed
	}
	return e.loadCharacteristics(alias)
}

// Close wipes the master secret and closes the storage backend. After
// Close, all operations return enclave.ErrClosed.
func (e *SoftwareEnclave) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	clearBytes(e.masterSecret)
	return e.storage.Close()
}

// === Internal helpers ===

// storeKey seals the key material and persists it with its characteristics.
func (e *SoftwareEnclave) storeKey(alias string, key *rsa.PrivateKey,
	spec *enclave.KeySpec, bits int, origin string) error {

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to marshal PKCS#8: %w", err)
	}
	defer clearBytes(der)

	sealed, err := e.seal(alias, der)
	if err != nil {
		return fmt.Errorf("failed to seal key material: %w", err)
	}

	meta, err := json.Marshal(spec.Characteristics(bits, origin, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to marshal characteristics: %w", err)
	}

	if err := e.storage.Put(storage.KeyPath(alias), sealed, &storage.Options{Permissions: 0600}); err != nil {
		return fmt.Errorf("failed to store key material: %w", err)
	}
	if err := e.storage.Put(storage.MetaPath(alias), meta, &storage.Options{Permissions: 0644}); err != nil {
		// Remove the orphaned blob so the alias stays usable.
		_ = e.storage.Delete(storage.KeyPath(alias))
		return fmt.Errorf("failed to store characteristics: %w", err)
	}
	return nil
}

// loadKey unseals and parses the private key stored under alias.
func (e *SoftwareEnclave) loadKey(alias string) (*rsa.PrivateKey, error) {
	data, err := e.storage.Get(storage.KeyPath(alias))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", enclave.ErrKeyNotFound, alias)
		}
		return nil, fmt.Errorf("failed to load key material: %w", err)
	}

	der, err := e.unseal(alias, data)
	if err != nil {
		return nil, err
	}
	defer clearBytes(der)

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key material: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", enclave.ErrUnsupportedAlgorithm, parsed)
	}
	return key, nil
}

// loadCharacteristics reads the characteristics record for alias.
func (e *SoftwareEnclave) loadCharacteristics(alias string) (*enclave.Arguments, error) {
	data, err := e.storage.Get(storage.MetaPath(alias))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", enclave.ErrKeyNotFound, alias)
		}
		return nil, fmt.Errorf("failed to load characteristics: %w", err)
	}

	chars := enclave.NewArguments()
	if err := json.Unmarshal(data, chars); err != nil {
		return nil, fmt.Errorf("failed to parse characteristics: %w", err)
	}
	return chars, nil
}

// parsePKCS8 parses DER PKCS#8 material, decrypting with passphrase when
// one is given, and requires the result to be an RSA key.
func parsePKCS8(der []byte, passphrase []byte) (*rsa.PrivateKey, error) {
	var parsed interface{}
	var err error
	if len(passphrase) > 0 {
		parsed, err = pkcs8.ParsePKCS8PrivateKey(der, passphrase)
	} else {
		parsed, err = pkcs8.ParsePKCS8PrivateKey(der)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse PKCS#8 key: %v", enclave.ErrInvalidArgument, err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", enclave.ErrUnsupportedAlgorithm, parsed)
	}
	return key, nil
}

// keyInfoFromCharacteristics projects a characteristics record into the
// listing shape.
func keyInfoFromCharacteristics(alias string, chars *enclave.Arguments) enclave.KeyInfo {
	info := enclave.KeyInfo{Alias: alias}
	if algorithm, ok := chars.String(enclave.TagAlgorithm); ok {
		info.Algorithm = types.ParseKeyAlgorithm(algorithm)
	}
	if bits, ok := chars.Int(enclave.TagKeySize); ok {
		info.Bits = bits
	}
	if origin, ok := chars.String(enclave.TagOrigin); ok {
		info.Origin = origin
	}
	if created, ok := chars.Int(enclave.TagCreated); ok {
		info.CreatedAt = time.Unix(int64(created), 0)
	}
	return info
}
