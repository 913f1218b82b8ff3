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
	"encoding/json"
	"strconv"
	"strings"
)

// =============================================================================
// Tagged Arguments
// =============================================================================
// Arguments carry operation parameters and key characteristics across the
// service boundary as an ordered list of tag/value pairs. Tags may repeat;
// authorization tags (PURPOSE, PADDING, DIGEST) usually do.

// Tag identifies the meaning of an argument value.
type Tag string

const (
	// TagAlgorithm is the key or operation algorithm (e.g. "RSA").
	TagAlgorithm Tag = "ALGORITHM"

	// TagPadding is an RSA padding scheme name.
	TagPadding Tag = "PADDING"

	// TagDigest is a hash algorithm name.
	TagDigest Tag = "DIGEST"

	// TagKeySize is the key size in bits.
	TagKeySize Tag = "KEY_SIZE"

	// TagPurpose is an authorized operation mode.
	TagPurpose Tag = "PURPOSE"

	// TagOrigin records where the key material came from.
	TagOrigin Tag = "ORIGIN"

	// TagCreated is the key creation time in Unix seconds.
	TagCreated Tag = "CREATED"
)

// Argument is a single tag/value pair. Values are stored in string form;
// integer tags are written and read through AddInt and Int.
type Argument struct {
	Tag   Tag    `json:"tag"`
	Value string `json:"value"`
}

// Arguments is an ordered list of tagged argument values. The zero value and
// nil are both empty, readable lists; use NewArguments before adding.
//
// Lookup methods return the first occurrence of a tag; Strings returns all
// occurrences in insertion order.
type Arguments struct {
	list []Argument
}

// NewArguments returns an empty argument list.
func NewArguments() *Arguments {
	return &Arguments{}
}

// AddString appends a string-valued argument.
func (a *Arguments) AddString(tag Tag, value string) {
	a.list = append(a.list, Argument{Tag: tag, Value: value})
}

// AddInt appends an integer-valued argument.
func (a *Arguments) AddInt(tag Tag, value int) {
	a.list = append(a.list, Argument{Tag: tag, Value: strconv.Itoa(value)})
}

// String returns the first value recorded under tag.
// The second return is false when the tag is absent.
func (a *Arguments) String(tag Tag) (string, bool) {
	if a == nil {
		return "", false
	}
	for _, arg := range a.list {
		if arg.Tag == tag {
			return arg.Value, true
		}
	}
	return "", false
}

// Int returns the first value recorded under tag, parsed as an integer.
// The second return is false when the tag is absent or its value does not
// parse as an integer.
func (a *Arguments) Int(tag Tag) (int, bool) {
	s, ok := a.String(tag)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Strings returns every value recorded under tag, in insertion order.
// Returns nil when the tag is absent.
func (a *Arguments) Strings(tag Tag) []string {
	if a == nil {
		return nil
	}
	var values []string
	for _, arg := range a.list {
		if arg.Tag == tag {
			values = append(values, arg.Value)
		}
	}
	return values
}

// Contains reports whether any value recorded under tag equals value,
// compared case-insensitively.
func (a *Arguments) Contains(tag Tag, value string) bool {
	if a == nil {
		return false
	}
	for _, arg := range a.list {
		if arg.Tag == tag && strings.EqualFold(arg.Value, value) {
			return true
		}
	}
	return false
}

// Len returns the number of recorded arguments.
func (a *Arguments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.list)
}

// List returns a copy of the recorded arguments in insertion order.
func (a *Arguments) List() []Argument {
	if a == nil || len(a.list) == 0 {
		return nil
	}
	out := make([]Argument, len(a.list))
	copy(out, a.list)
	return out
}

// Clone returns an independent copy of the argument list.
func (a *Arguments) Clone() *Arguments {
	clone := NewArguments()
	if a != nil {
		clone.list = append(clone.list, a.list...)
	}
	return clone
}

// MarshalJSON encodes the list as a JSON array of tag/value objects.
func (a *Arguments) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	if a.list == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.list)
}

// UnmarshalJSON decodes a JSON array of tag/value objects.
func (a *Arguments) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &a.list)
}
