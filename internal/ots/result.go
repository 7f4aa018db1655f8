// Package ots is the boundary API of the toolkit. Every operation returns
// a Result that holds either a structured Error or exactly one payload.
// Secret-bearing payloads travel in Handles and Arrays that record whether
// they own the value they carry.
package ots

import (
	"fmt"

	"github.com/Klingon-tech/ots/pkg/types"
)

// Kind identifies the payload of a Result.
type Kind uint16

const (
	KindNone   Kind = 0
	KindHandle Kind = 1 << (iota - 1)
	KindString
	KindBool
	KindNumber
	KindComparison
	KindArray
	KindAddressType
	KindNetwork
	KindSeedType
	KindAddressIndex
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindHandle:
		return "handle"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindComparison:
		return "comparison"
	case KindArray:
		return "array"
	case KindAddressType:
		return "address_type"
	case KindNetwork:
		return "network"
	case KindSeedType:
		return "seed_type"
	case KindAddressIndex:
		return "address_index"
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}

// Releaser is implemented by values that hold secrets. Release wipes and
// frees them; it must be safe to call more than once.
type Releaser interface {
	Release()
}

// Handle carries a value across the boundary. An owning handle releases
// the value exactly once; a reference handle only views it.
type Handle struct {
	value any
	owned bool
}

// Own wraps v in an owning handle.
func Own(v any) *Handle { return &Handle{value: v, owned: true} }

// Ref wraps v in a reference handle.
func Ref(v any) *Handle { return &Handle{value: v} }

// Value returns the carried value, or nil after Release.
func (h *Handle) Value() any {
	if h == nil {
		return nil
	}
	return h.value
}

// Valid reports whether the handle still carries a value.
func (h *Handle) Valid() bool { return h != nil && h.value != nil }

// IsReference reports whether the handle only views its value.
func (h *Handle) IsReference() bool { return h != nil && !h.owned }

// Release releases an owned value and detaches the handle. It never fails
// and is a no-op on nil or released handles.
func (h *Handle) Release() {
	if h == nil || h.value == nil {
		return
	}
	if r, ok := h.value.(Releaser); ok && h.owned {
		r.Release()
	}
	h.value = nil
}

// take detaches an owned value without releasing it.
func (h *Handle) take() (any, error) {
	if !h.Valid() {
		return nil, errorf(ErrInvalidHandle, "handle was released")
	}
	if !h.owned {
		return nil, errorf(ErrInvalidHandle, "reference handles cannot transfer ownership")
	}
	v := h.value
	h.value = nil
	return v, nil
}

// As returns the value of h as a T.
func As[T any](h *Handle) (T, error) {
	var zero T
	if !h.Valid() {
		return zero, errorf(ErrInvalidHandle, "handle was released")
	}
	v, ok := h.value.(T)
	if !ok {
		return zero, errorf(ErrInvalidHandle, "handle holds %T, want %T", h.value, zero)
	}
	return v, nil
}

// Array is a typed sequence with the same ownership rules as Handle.
type Array struct {
	items []any
	owned bool
}

// OwnArray wraps items in an owning array.
func OwnArray[T any](items []T) *Array {
	a := &Array{items: make([]any, len(items)), owned: true}
	for i, v := range items {
		a.items[i] = v
	}
	return a
}

// RefArray wraps items in a reference array.
func RefArray[T any](items []T) *Array {
	a := OwnArray(items)
	a.owned = false
	return a
}

// Len returns the number of elements.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.items)
}

// IsReference reports whether the array only views its elements.
func (a *Array) IsReference() bool { return a != nil && !a.owned }

// At returns element i.
func (a *Array) At(i int) (any, error) {
	if i < 0 || i >= a.Len() {
		return nil, errorf(ErrInvalidInput, "index %d out of range [0, %d)", i, a.Len())
	}
	return a.items[i], nil
}

// Release releases owned elements and empties the array.
func (a *Array) Release() {
	if a == nil {
		return
	}
	if a.owned {
		for _, v := range a.items {
			if r, ok := v.(Releaser); ok {
				r.Release()
			}
		}
	}
	a.items = nil
}

// ArrayAt returns element i of a as a T.
func ArrayAt[T any](a *Array, i int) (T, error) {
	var zero T
	v, err := a.At(i)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errorf(ErrInvalidHandle, "element %d is %T, want %T", i, v, zero)
	}
	return t, nil
}

// Result is the tagged union returned by facade operations.
type Result struct {
	kind Kind
	err  *Error

	handle *Handle
	array  *Array
	text   []byte
	owned  bool
	b      bool
	n      int64
	enum   uint8
	index  types.AddressIndex
}

// Fail returns an error result.
func Fail(err error) Result {
	return Result{err: FromError(err)}
}

// HandleResult returns a result carrying h.
func HandleResult(h *Handle) Result { return Result{kind: KindHandle, handle: h} }

// ArrayResult returns a result carrying a.
func ArrayResult(a *Array) Result { return Result{kind: KindArray, array: a} }

// StringResult returns a result carrying a plain string.
func StringResult(s string) Result { return Result{kind: KindString, text: []byte(s)} }

// SecretResult returns a result that owns b; Release wipes it.
func SecretResult(b []byte) Result { return Result{kind: KindString, text: b, owned: true} }

// BoolResult returns a result carrying v.
func BoolResult(v bool) Result { return Result{kind: KindBool, b: v} }

// NumberResult returns a result carrying v.
func NumberResult(v int64) Result { return Result{kind: KindNumber, n: v} }

// ComparisonResult returns a result carrying -1, 0 or 1.
func ComparisonResult(c int) Result {
	switch {
	case c < 0:
		c = -1
	case c > 0:
		c = 1
	}
	return Result{kind: KindComparison, n: int64(c)}
}

// NetworkResult returns a result carrying n.
func NetworkResult(n types.Network) Result { return Result{kind: KindNetwork, enum: uint8(n)} }

// SeedTypeResult returns a result carrying t.
func SeedTypeResult(t types.SeedType) Result { return Result{kind: KindSeedType, enum: uint8(t)} }

// AddressTypeResult returns a result carrying t.
func AddressTypeResult(t types.AddressType) Result {
	return Result{kind: KindAddressType, enum: uint8(t)}
}

// IndexResult returns a result carrying an address index.
func IndexResult(i types.AddressIndex) Result { return Result{kind: KindAddressIndex, index: i} }

// result turns a value and error pair into a Result.
func result[T any](v T, err error, wrap func(T) Result) Result {
	if err != nil {
		return Fail(err)
	}
	return wrap(v)
}

// IsError reports whether the result is an error.
func (r Result) IsError() bool { return r.err != nil }

// Err returns the error, or nil.
func (r Result) Err() *Error { return r.err }

// Kind returns the payload kind; KindNone for errors.
func (r Result) Kind() Kind { return r.kind }

func (r Result) expect(k Kind) error {
	if r.err != nil {
		return r.err
	}
	if r.kind != k {
		return errorf(ErrInvalidHandle, "result holds %s, want %s", r.kind, k)
	}
	return nil
}

// Handle returns the handle payload.
func (r Result) Handle() (*Handle, error) {
	if err := r.expect(KindHandle); err != nil {
		return nil, err
	}
	return r.handle, nil
}

// Array returns the array payload.
func (r Result) Array() (*Array, error) {
	if err := r.expect(KindArray); err != nil {
		return nil, err
	}
	return r.array, nil
}

// Text returns the string payload.
func (r Result) Text() (string, error) {
	if err := r.expect(KindString); err != nil {
		return "", err
	}
	return string(r.text), nil
}

// Bytes returns a copy of the string payload as bytes.
func (r Result) Bytes() ([]byte, error) {
	if err := r.expect(KindString); err != nil {
		return nil, err
	}
	return append([]byte(nil), r.text...), nil
}

// Bool returns the boolean payload.
func (r Result) Bool() (bool, error) {
	if err := r.expect(KindBool); err != nil {
		return false, err
	}
	return r.b, nil
}

// Number returns the numeric payload.
func (r Result) Number() (int64, error) {
	if err := r.expect(KindNumber); err != nil {
		return 0, err
	}
	return r.n, nil
}

// Comparison returns -1, 0 or 1.
func (r Result) Comparison() (int, error) {
	if err := r.expect(KindComparison); err != nil {
		return 0, err
	}
	return int(r.n), nil
}

// Network returns the network payload.
func (r Result) Network() (types.Network, error) {
	if err := r.expect(KindNetwork); err != nil {
		return 0, err
	}
	return types.Network(r.enum), nil
}

// SeedType returns the seed type payload.
func (r Result) SeedType() (types.SeedType, error) {
	if err := r.expect(KindSeedType); err != nil {
		return 0, err
	}
	return types.SeedType(r.enum), nil
}

// AddressType returns the address type payload.
func (r Result) AddressType() (types.AddressType, error) {
	if err := r.expect(KindAddressType); err != nil {
		return 0, err
	}
	return types.AddressType(r.enum), nil
}

// AddressIndex returns the address index payload.
func (r Result) AddressIndex() (types.AddressIndex, error) {
	if err := r.expect(KindAddressIndex); err != nil {
		return types.AddressIndex{}, err
	}
	return r.index, nil
}

// Release releases owned payloads: handles, arrays and secret strings.
// It never fails and does nothing for errors or plain values.
func (r Result) Release() {
	switch r.kind {
	case KindHandle:
		r.handle.Release()
	case KindArray:
		r.array.Release()
	case KindString:
		if r.owned {
			for i := range r.text {
				r.text[i] = 0
			}
		}
	}
}
