package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/ots/pkg/address"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Validation errors.
var (
	ErrInvalidOutputs     = errors.New("invalid outputs")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrNoTransfers        = fmt.Errorf("%w: no transfers", ErrInvalidTransaction)
	ErrNoInputs           = fmt.Errorf("%w: transfer has no inputs", ErrInvalidTransaction)
	ErrNoDestinations     = fmt.Errorf("%w: transfer has no destinations", ErrInvalidTransaction)
	ErrDuplicateInput     = fmt.Errorf("%w: duplicate input", ErrInvalidTransaction)
	ErrBadDestination     = fmt.Errorf("%w: bad destination address", ErrInvalidTransaction)
	ErrAmountOverflow     = errors.New("amount overflow")
	ErrUnbalanced         = fmt.Errorf("%w: inputs do not cover outputs and fee", ErrInvalidTransaction)
)

// Validate checks the structure of every transfer. Addresses must belong
// to the set's network; inputs must cover destinations, change and fee.
func (u *Unsigned) Validate() error {
	if len(u.Transfers) == 0 {
		return ErrNoTransfers
	}
	seen := make(map[types.Key]bool)
	for i := range u.Transfers {
		t := &u.Transfers[i]
		if len(t.Inputs) == 0 {
			return fmt.Errorf("transfer %d: %w", i, ErrNoInputs)
		}
		if len(t.Destinations) == 0 {
			return fmt.Errorf("transfer %d: %w", i, ErrNoDestinations)
		}
		for j, in := range t.Inputs {
			if seen[in.OutputKey] {
				return fmt.Errorf("transfer %d input %d: %w", i, j, ErrDuplicateInput)
			}
			seen[in.OutputKey] = true
		}
		flows := t.Destinations
		if t.Change != nil {
			flows = append(flows[:len(flows):len(flows)], *t.Change)
		}
		for j, f := range flows {
			if !address.Valid(f.Address, u.Network) {
				return fmt.Errorf("transfer %d output %d: %w", i, j, ErrBadDestination)
			}
		}
		in, err := t.AmountIn()
		if err != nil {
			return fmt.Errorf("transfer %d: %w: %w", i, ErrInvalidTransaction, err)
		}
		out, err := t.AmountOut()
		if err != nil {
			return fmt.Errorf("transfer %d: %w: %w", i, ErrInvalidTransaction, err)
		}
		if out+t.Fee < out || in < out+t.Fee {
			return fmt.Errorf("transfer %d: %w", i, ErrUnbalanced)
		}
	}
	return nil
}

// Describe summarizes a validated set. raw is kept as the description's
// TxSet.
func Describe(u *Unsigned, raw []byte) (*Description, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	d := &Description{TxSet: raw}
	for i := range u.Transfers {
		t := &u.Transfers[i]
		in, _ := t.AmountIn()
		out, _ := t.AmountOut()
		tr := Transfer{
			AmountIn:     in,
			AmountOut:    out,
			RingSize:     t.RingSize,
			UnlockTime:   t.UnlockTime,
			Flows:        append([]Flow(nil), t.Destinations...),
			Fee:          t.Fee,
			PaymentID:    t.PaymentID,
			DummyOutputs: t.DummyOutputs,
			Extra:        append([]byte(nil), t.Extra...),
		}
		if t.Change != nil {
			c := *t.Change
			tr.Change = &c
		}
		d.Transfers = append(d.Transfers, tr)

		d.AmountIn += in
		d.AmountOut += out
		d.Fee += t.Fee
		d.Flows = append(d.Flows, tr.Flows...)
		if tr.Change != nil {
			if d.Change == nil {
				d.Change = &Flow{Address: tr.Change.Address}
			}
			d.Change.Amount += tr.Change.Amount
		}
	}
	return d, nil
}

// Warnings returns the findings that need no wallet keys: fee level,
// ring size, unlock time, payment ids and dummy outputs.
func (d *Description) Warnings() []Warning {
	var out []Warning
	for i, t := range d.Transfers {
		var sent uint64
		for _, f := range t.Flows {
			sent += f.Amount
		}
		switch p := FeePermille(t.Fee, sent); {
		case p >= CriticalFeePermille:
			out = append(out, Warning{
				Message:  fmt.Sprintf("transfer %d: fee %s is %d‰ of the amount sent", i, FormatAmount(t.Fee), p),
				Severity: SeverityCritical,
			})
		case p >= HighFeePermille:
			out = append(out, Warning{
				Message:  fmt.Sprintf("transfer %d: fee %s is %d‰ of the amount sent", i, FormatAmount(t.Fee), p),
				Severity: SeverityWarning,
			})
		}
		if t.RingSize < MinRingSize {
			out = append(out, Warning{
				Message:  fmt.Sprintf("transfer %d: ring size %d is below %d", i, t.RingSize, MinRingSize),
				Severity: SeverityWarning,
			})
		}
		if t.UnlockTime != 0 {
			out = append(out, Warning{
				Message:  fmt.Sprintf("transfer %d: outputs are locked until %d", i, t.UnlockTime),
				Severity: SeverityWarning,
			})
		}
		if t.PaymentID != "" {
			out = append(out, Warning{
				Message:  fmt.Sprintf("transfer %d: carries payment id %s", i, t.PaymentID),
				Severity: SeverityInfo,
			})
		}
		if t.DummyOutputs > 0 {
			out = append(out, Warning{
				Message:  fmt.Sprintf("transfer %d: %d dummy outputs", i, t.DummyOutputs),
				Severity: SeverityInfo,
			})
		}
		if t.AmountIn > t.AmountOut+t.Fee {
			out = append(out, Warning{
				Message:  fmt.Sprintf("transfer %d: %s of input is not accounted for", i, FormatAmount(t.AmountIn-t.AmountOut-t.Fee)),
				Severity: SeverityCritical,
			})
		}
	}
	return out
}
