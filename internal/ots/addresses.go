package ots

import (
	"strings"

	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/pkg/address"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Languages returns references to every language.
func (o *OTS) Languages() Result {
	return ArrayResult(RefArray(mnemonic.Languages()))
}

// LanguagesForKind returns references to the languages supporting kind.
func (o *OTS) LanguagesForKind(kind types.SeedType) Result {
	return ArrayResult(RefArray(mnemonic.ForKind(kind)))
}

// LanguageFromCode looks a language up by code.
func (o *OTS) LanguageFromCode(code string) Result {
	l, err := mnemonic.FromCode(code)
	return result(l, err, langResult)
}

// LanguageFromName looks a language up by native name.
func (o *OTS) LanguageFromName(name string) Result {
	l, err := mnemonic.FromName(name)
	return result(l, err, langResult)
}

// LanguageFromEnglishName looks a language up by English name.
func (o *OTS) LanguageFromEnglishName(name string) Result {
	l, err := mnemonic.FromEnglishName(name)
	return result(l, err, langResult)
}

func langResult(l *mnemonic.Language) Result { return HandleResult(Ref(l)) }

// DefaultLanguage returns the default language of kind, or NotFound.
func (o *OTS) DefaultLanguage(kind types.SeedType) Result {
	l := o.settings.DefaultLanguage(kind)
	if l == nil {
		return Fail(errorf(ErrNotFound, "no default language for %s", kind))
	}
	return langResult(l)
}

// SetDefaultLanguage sets the default language of kind. A nil handle
// clears it.
func (o *OTS) SetDefaultLanguage(kind types.SeedType, h *Handle) Result {
	var lang *mnemonic.Language
	if h.Valid() {
		var err error
		if lang, err = As[*mnemonic.Language](h); err != nil {
			return Fail(err)
		}
	}
	if err := o.settings.SetDefaultLanguage(kind, lang); err != nil {
		return Fail(err)
	}
	return BoolResult(true)
}

// ParseAddress decodes an address string.
func (o *OTS) ParseAddress(s string) Result {
	a, err := o.parse(s)
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Own(a))
}

func (o *OTS) parse(s string) (address.Address, error) {
	return address.Parse(strings.TrimSpace(s))
}

// AddressValid reports whether s is a valid address on network.
func (o *OTS) AddressValid(s string, network types.Network) Result {
	return BoolResult(address.Valid(strings.TrimSpace(s), network))
}

// AddressType returns the type of the address s.
func (o *OTS) AddressType(s string) Result {
	a, err := o.parse(s)
	if err != nil {
		return Fail(err)
	}
	return AddressTypeResult(a.Type)
}

// AddressNetwork returns the network of the address s.
func (o *OTS) AddressNetwork(s string) Result {
	a, err := o.parse(s)
	if err != nil {
		return Fail(err)
	}
	return NetworkResult(a.Network)
}

// AddressFingerprint returns the fingerprint of s.
func (o *OTS) AddressFingerprint(s string) Result {
	a, err := o.parse(s)
	if err != nil {
		return Fail(err)
	}
	return StringResult(a.Fingerprint())
}

// AddressIsIntegrated reports whether s is an integrated address.
func (o *OTS) AddressIsIntegrated(s string) Result {
	a, err := o.parse(s)
	if err != nil {
		return Fail(err)
	}
	return BoolResult(a.IsIntegrated())
}

// AddressPaymentID returns the hex payment id of an integrated address.
func (o *OTS) AddressPaymentID(s string) Result {
	a, err := o.parse(s)
	if err != nil {
		return Fail(err)
	}
	id, err := a.PaymentIDHex()
	return result(id, err, StringResult)
}

// AddressBase returns the standard address behind an integrated one.
func (o *OTS) AddressBase(s string) Result {
	a, err := o.parse(s)
	if err != nil {
		return Fail(err)
	}
	b, err := a.Base()
	if err != nil {
		return Fail(err)
	}
	return StringResult(b.String())
}

// AddressCompare orders two addresses by their string form. Both must
// parse.
func (o *OTS) AddressCompare(a, b string) Result {
	x, err := o.parse(a)
	if err != nil {
		return Fail(err)
	}
	y, err := o.parse(b)
	if err != nil {
		return Fail(err)
	}
	return ComparisonResult(strings.Compare(x.String(), y.String()))
}
