package ots

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/ots/internal/chain"
	"github.com/Klingon-tech/ots/internal/entropy"
	"github.com/Klingon-tech/ots/internal/indices"
	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/internal/polyseed"
	"github.com/Klingon-tech/ots/internal/seed"
	"github.com/Klingon-tech/ots/internal/storage"
	"github.com/Klingon-tech/ots/internal/wallet"
	"github.com/Klingon-tech/ots/pkg/address"
	"github.com/Klingon-tech/ots/pkg/base58"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/tx"
)

// Code is the machine-readable error code carried by an Error.
type Code int32

// Error codes. They are stable across releases.
const (
	CodeInvalidSeed        Code = 1
	CodeInvalidInput       Code = 2
	CodeLengthMismatch     Code = 3
	CodeTooFewSets         Code = 4
	CodeInvalidAddress     Code = 5
	CodeNotIntegrated      Code = 6
	CodeAddressNotFound    Code = 7
	CodeNoKeyImages        Code = 8
	CodeInvalidOutputs     Code = 9
	CodeInvalidTransaction Code = 10
	CodeMergeFailed        Code = 11
	CodeAmbiguousPhrase    Code = 12
	CodeInvalidHandle      Code = 13
	CodeNotFound           Code = 14
	CodeInternal           Code = 99
)

var classes = map[Code]string{
	CodeInvalidSeed:        "InvalidSeed",
	CodeInvalidInput:       "InvalidInput",
	CodeLengthMismatch:     "LengthMismatch",
	CodeTooFewSets:         "TooFewSets",
	CodeInvalidAddress:     "InvalidAddress",
	CodeNotIntegrated:      "NotIntegrated",
	CodeAddressNotFound:    "AddressNotFound",
	CodeNoKeyImages:        "NoKeyImages",
	CodeInvalidOutputs:     "InvalidOutputs",
	CodeInvalidTransaction: "InvalidTransaction",
	CodeMergeFailed:        "MergeFailed",
	CodeAmbiguousPhrase:    "AmbiguousPhrase",
	CodeInvalidHandle:      "InvalidHandle",
	CodeNotFound:           "NotFound",
	CodeInternal:           "Internal",
}

// Class returns the class name of the code.
func (c Code) Class() string {
	if s, ok := classes[c]; ok {
		return s
	}
	return fmt.Sprintf("Code%d", int32(c))
}

// Error is the structured error returned across the facade boundary.
type Error struct {
	Code    Code   `json:"code"`
	Class   string `json:"class"`
	Message string `json:"message"`

	cause error
}

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Class: code.Class(), Message: msg}
}

// Sentinels. errors.Is matches any *Error with the same code.
var (
	ErrInvalidSeed        = newError(CodeInvalidSeed, "invalid seed")
	ErrInvalidInput       = newError(CodeInvalidInput, "invalid input")
	ErrLengthMismatch     = newError(CodeLengthMismatch, "index sets differ in length")
	ErrTooFewSets         = newError(CodeTooFewSets, "at least two index sets are required")
	ErrInvalidAddress     = newError(CodeInvalidAddress, "invalid address")
	ErrNotIntegrated      = newError(CodeNotIntegrated, "address is not integrated")
	ErrAddressNotFound    = newError(CodeAddressNotFound, "address not found")
	ErrNoKeyImages        = newError(CodeNoKeyImages, "no key images")
	ErrInvalidOutputs     = newError(CodeInvalidOutputs, "invalid outputs")
	ErrInvalidTransaction = newError(CodeInvalidTransaction, "invalid transaction")
	ErrMergeFailed        = newError(CodeMergeFailed, "merge failed")
	ErrAmbiguousPhrase    = newError(CodeAmbiguousPhrase, "ambiguous phrase")
	ErrInvalidHandle      = newError(CodeInvalidHandle, "invalid handle")
	ErrNotFound           = newError(CodeNotFound, "not found")
	ErrInternal           = newError(CodeInternal, "internal error")
)

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

// Unwrap returns the error the structured error was built from.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches errors with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// with returns a copy of the sentinel carrying msg and cause.
func (e *Error) with(msg string, cause error) *Error {
	return &Error{Code: e.Code, Class: e.Class, Message: msg, cause: cause}
}

// errorf builds an error of the sentinel's code.
func errorf(sentinel *Error, format string, args ...any) *Error {
	return sentinel.with(fmt.Sprintf(format, args...), nil)
}

// mapping is checked in order; more specific sentinels come first.
var mapping = []struct {
	err  error
	code *Error
}{
	{seed.ErrMergeFailed, ErrMergeFailed},
	{seed.ErrAmbiguousPhrase, ErrAmbiguousPhrase},
	{seed.ErrPasswordRequired, ErrInvalidInput},
	{seed.ErrPasswordUnsupported, ErrInvalidInput},
	{seed.ErrInvalidInput, ErrInvalidInput},
	{polyseed.ErrNotEncrypted, ErrInvalidInput},
	{mnemonic.ErrInvalidSeed, ErrInvalidSeed},
	{mnemonic.ErrUnknownLanguage, ErrInvalidInput},
	{indices.ErrTooFewSets, ErrTooFewSets},
	{indices.ErrLengthMismatch, ErrLengthMismatch},
	{indices.ErrInvalidInput, ErrInvalidInput},
	{entropy.ErrLowEntropy, ErrInvalidInput},
	{chain.ErrHeightAndTimestamp, ErrInvalidInput},
	{address.ErrNotIntegrated, ErrNotIntegrated},
	{address.ErrInvalidAddress, ErrInvalidAddress},
	{crypto.ErrInvalidKey, ErrInvalidInput},
	{base58.ErrInvalidEncoding, ErrInvalidInput},
	{tx.ErrInvalidOutputs, ErrInvalidOutputs},
	{tx.ErrInvalidTransaction, ErrInvalidTransaction},
	{tx.ErrAmountOverflow, ErrInvalidTransaction},
	{wallet.ErrAddressNotFound, ErrAddressNotFound},
	{wallet.ErrNoKeyImages, ErrNoKeyImages},
	{wallet.ErrMalformedSignature, ErrInvalidInput},
	{wallet.ErrWrongPassword, ErrInvalidInput},
	{wallet.ErrRecordNotFound, ErrNotFound},
	{storage.ErrNotFound, ErrNotFound},
}

// FromError converts any error into a structured Error. Errors already
// structured are returned as is; unknown errors become Internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	for _, m := range mapping {
		if errors.Is(err, m.err) {
			return m.code.with(err.Error(), err)
		}
	}
	return ErrInternal.with(err.Error(), err)
}
