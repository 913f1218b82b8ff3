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

package types

// =============================================================================
// Opaque Key Handles
// =============================================================================
// Key handles are opaque references to keys held inside an enclave service.
// They carry an alias and an algorithm tag but never key material; all keyed
// operations are performed remotely against the alias.

// KeyHandle is an opaque reference to a key stored in an enclave service.
// Implementations identify the key by alias; the material never leaves the
// service boundary.
type KeyHandle interface {
	// Alias returns the service-side name the key is stored under.
	Alias() string

	// Algorithm returns the key's algorithm identifier.
	Algorithm() KeyAlgorithm

	// Role returns which half of the key pair this handle refers to.
	Role() KeyRole
}

// PrivateKeyHandle references the private half of an enclave-resident key
// pair. It satisfies KeyHandle with KeyRolePrivate.
type PrivateKeyHandle struct {
	alias     string
	algorithm KeyAlgorithm
}

// NewPrivateKeyHandle returns a handle to the private half of the key stored
// under alias.
func NewPrivateKeyHandle(alias string, algorithm KeyAlgorithm) *PrivateKeyHandle {
	return &PrivateKeyHandle{alias: alias, algorithm: algorithm}
}

// Alias returns the service-side key name.
func (h *PrivateKeyHandle) Alias() string {
	return h.alias
}

// Algorithm returns the key's algorithm identifier.
func (h *PrivateKeyHandle) Algorithm() KeyAlgorithm {
	return h.algorithm
}

// Role returns KeyRolePrivate.
func (h *PrivateKeyHandle) Role() KeyRole {
	return KeyRolePrivate
}

// PublicKeyHandle references the public half of an enclave-resident key pair.
// It satisfies KeyHandle with KeyRolePublic.
type PublicKeyHandle struct {
	alias     string
	algorithm KeyAlgorithm
}

// NewPublicKeyHandle returns a handle to the public half of the key stored
// under alias.
func NewPublicKeyHandle(alias string, algorithm KeyAlgorithm) *PublicKeyHandle {
	return &PublicKeyHandle{alias: alias, algorithm: algorithm}
}

// Alias returns the service-side key name.
func (h *PublicKeyHandle) Alias() string {
	return h.alias
}

// Algorithm returns the key's algorithm identifier.
func (h *PublicKeyHandle) Algorithm() KeyAlgorithm {
	return h.algorithm
}

// Role returns KeyRolePublic.
func (h *PublicKeyHandle) Role() KeyRole {
	return KeyRolePublic
}
