package indices

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	passwordSalt   = "OTS merge"
	passwordRounds = 10000
)

func validate(sets []*Set, modulus int) error {
	if modulus <= 1 || modulus > 1<<16 {
		return fmt.Errorf("%w: modulus %d", ErrInvalidInput, modulus)
	}
	if len(sets) < 2 {
		return ErrTooFewSets
	}
	n := -1
	for i, s := range sets {
		if s == nil {
			return fmt.Errorf("%w: set %d is nil", ErrInvalidInput, i)
		}
		if n >= 0 && s.Len() != n {
			return fmt.Errorf("%w: set %d has %d indices, want %d", ErrLengthMismatch, i, s.Len(), n)
		}
		n = s.Len()
		if !s.InRange(modulus) {
			return fmt.Errorf("%w: set %d has an index >= %d", ErrInvalidInput, i, modulus)
		}
	}
	return nil
}

// Merge combines sets by index-wise addition modulo modulus, applied
// pairwise in input order.
func Merge(sets []*Set, modulus int) (*Set, error) {
	if err := validate(sets, modulus); err != nil {
		return nil, err
	}
	out := New(sets[0].values...)
	for _, s := range sets[1:] {
		for i, v := range s.values {
			out.values[i] = uint16((int(out.values[i]) + int(v)) % modulus)
		}
	}
	return out, nil
}

// MergeAndZero merges sets and then wipes every input, also on failure.
func MergeAndZero(sets []*Set, modulus int) (*Set, error) {
	defer func() {
		for _, s := range sets {
			if s != nil {
				s.Wipe()
			}
		}
	}()
	return Merge(sets, modulus)
}

// Difference returns the set d such that merging shares followed by d
// reproduces target.
func Difference(target *Set, shares []*Set, modulus int) (*Set, error) {
	if len(shares) == 0 {
		return nil, ErrTooFewSets
	}
	all := append([]*Set{target}, shares...)
	if err := validate(all, modulus); err != nil {
		return nil, err
	}
	out := New(target.values...)
	for _, s := range shares {
		for i, v := range s.values {
			out.values[i] = uint16((int(out.values[i]) - int(v) + modulus) % modulus)
		}
	}
	return out, nil
}

// Split divides target into n shares that merge back to it. The first
// n-1 shares are read from rand.
func Split(target *Set, n, modulus int, rand io.Reader) ([]*Set, error) {
	if n < 2 {
		return nil, ErrTooFewSets
	}
	shares := make([]*Set, 0, n)
	for i := 0; i < n-1; i++ {
		s, err := randomSet(rand, target.Len(), modulus)
		if err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	last, err := Difference(target, shares, modulus)
	if err != nil {
		return nil, err
	}
	return append(shares, last), nil
}

// PasswordIndices derives a deterministic set of length values below
// modulus from password with PBKDF2-HMAC-SHA256. Values are drawn two
// bytes at a time and rejection-sampled into range.
func PasswordIndices(password string, length, modulus int) (*Set, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: empty password", ErrInvalidInput)
	}
	if length <= 0 || modulus <= 1 || modulus > 1<<16 {
		return nil, fmt.Errorf("%w: length %d modulus %d", ErrInvalidInput, length, modulus)
	}

	salt := make([]byte, 0, len(passwordSalt)+8)
	salt = append(salt, passwordSalt...)
	salt = binary.LittleEndian.AppendUint32(salt, uint32(length))
	salt = binary.LittleEndian.AppendUint32(salt, uint32(modulus))

	mask := 1
	for mask < modulus {
		mask <<= 1
	}
	mask--

	pw := []byte(password)
	defer wipe(pw)

	// PBKDF2 output is prefix stable, so a longer stream only appends.
	for size := length * 4; ; size *= 2 {
		stream := pbkdf2.Key(pw, salt, passwordRounds, size, sha256.New)
		out := &Set{values: make([]uint16, 0, length)}
		for i := 0; i+1 < len(stream) && out.Len() < length; i += 2 {
			v := int(binary.BigEndian.Uint16(stream[i:])) & mask
			if v < modulus {
				out.values = append(out.values, uint16(v))
			}
		}
		wipe(stream)
		if out.Len() == length {
			return out, nil
		}
		out.Wipe()
	}
}

// MergeWithPassword merges set with the indices derived from password.
func MergeWithPassword(set *Set, password string, modulus int) (*Set, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: nil set", ErrInvalidInput)
	}
	pw, err := PasswordIndices(password, set.Len(), modulus)
	if err != nil {
		return nil, err
	}
	defer pw.Wipe()
	return Merge([]*Set{set, pw}, modulus)
}

// MergeWithPasswordAndZero is MergeWithPassword followed by wiping set.
func MergeWithPasswordAndZero(set *Set, password string, modulus int) (*Set, error) {
	if set != nil {
		defer set.Wipe()
	}
	return MergeWithPassword(set, password, modulus)
}

// UnmergePassword reverses MergeWithPassword.
func UnmergePassword(set *Set, password string, modulus int) (*Set, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: nil set", ErrInvalidInput)
	}
	pw, err := PasswordIndices(password, set.Len(), modulus)
	if err != nil {
		return nil, err
	}
	defer pw.Wipe()
	return Difference(set, []*Set{pw}, modulus)
}

func randomSet(rand io.Reader, length, modulus int) (*Set, error) {
	mask := 1
	for mask < modulus {
		mask <<= 1
	}
	mask--

	out := &Set{values: make([]uint16, 0, length)}
	var buf [2]byte
	for out.Len() < length {
		if _, err := io.ReadFull(rand, buf[:]); err != nil {
			return nil, fmt.Errorf("read random: %w", err)
		}
		v := int(binary.BigEndian.Uint16(buf[:])) & mask
		if v < modulus {
			out.values = append(out.values, uint16(v))
		}
	}
	return out, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
