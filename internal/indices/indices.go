// Package indices implements word-index sets and the merge engine that
// combines them.
package indices

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultSeparator joins serialized index values.
const DefaultSeparator = " "

// groupWidth is the fixed number of characters per serialized value.
const groupWidth = 4

var (
	// ErrTooFewSets is returned when fewer than two sets are merged.
	ErrTooFewSets = errors.New("at least two index sets are required")
	// ErrLengthMismatch is returned when merged sets differ in length.
	ErrLengthMismatch = errors.New("index sets differ in length")
	// ErrInvalidInput is returned for malformed values or text.
	ErrInvalidInput = errors.New("invalid index input")
)

// Set is an ordered sequence of word-table indices.
type Set struct {
	values []uint16
}

// New returns a set holding a copy of values.
func New(values ...uint16) *Set {
	s := &Set{values: make([]uint16, len(values))}
	copy(s.values, values)
	return s
}

// Values returns a copy of the indices.
func (s *Set) Values() []uint16 {
	out := make([]uint16, len(s.values))
	copy(out, s.values)
	return out
}

// Len returns the number of indices.
func (s *Set) Len() int {
	return len(s.values)
}

// Append adds an index to the end of the set.
func (s *Set) Append(v uint16) {
	s.values = append(s.values, v)
}

// Clear zeroes and empties the set.
func (s *Set) Clear() {
	s.Wipe()
	s.values = s.values[:0]
}

// Wipe overwrites every index with zero, keeping the length.
func (s *Set) Wipe() {
	for i := range s.values {
		s.values[i] = 0
	}
}

// Release wipes the set; it satisfies the handle release contract.
func (s *Set) Release() {
	s.Clear()
}

// Equal compares two sets element-wise.
func (s *Set) Equal(o *Set) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.values) != len(o.values) {
		return false
	}
	for i := range s.values {
		if s.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

// InRange reports whether every index is below modulus.
func (s *Set) InRange(modulus int) bool {
	for _, v := range s.values {
		if int(v) >= modulus {
			return false
		}
	}
	return true
}

// Numeric renders the set as zero-padded four digit decimal groups.
func (s *Set) Numeric(sep string) string {
	return s.format(sep, "%04d")
}

// Hex renders the set as zero-padded four digit hex groups.
func (s *Set) Hex(sep string) string {
	return s.format(sep, "%04x")
}

func (s *Set) format(sep, verb string) string {
	parts := make([]string, len(s.values))
	for i, v := range s.values {
		parts[i] = fmt.Sprintf(verb, v)
	}
	return strings.Join(parts, sep)
}

// ParseNumeric parses the Numeric form. An empty separator means the
// text is a run of four character groups.
func ParseNumeric(text, sep string) (*Set, error) {
	return parse(text, sep, 10)
}

// ParseHex parses the Hex form.
func ParseHex(text, sep string) (*Set, error) {
	return parse(text, sep, 16)
}

func parse(text, sep string, base int) (*Set, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return New(), nil
	}

	var parts []string
	if sep == "" {
		if len(text)%groupWidth != 0 {
			return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrInvalidInput, len(text), groupWidth)
		}
		for i := 0; i < len(text); i += groupWidth {
			parts = append(parts, text[i:i+groupWidth])
		}
	} else if strings.TrimSpace(sep) == "" {
		parts = strings.Fields(text)
	} else {
		parts = strings.Split(text, sep)
	}

	s := &Set{values: make([]uint16, 0, len(parts))}
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), base, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidInput, p, err)
		}
		s.values = append(s.values, uint16(v))
	}
	return s, nil
}
