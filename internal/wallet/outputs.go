package wallet

import (
	"fmt"

	"github.com/Klingon-tech/ots/internal/log"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/tx"
	"github.com/Klingon-tech/ots/pkg/types"
)

// ownedOutput is an imported output together with its one-time secret.
type ownedOutput struct {
	out    tx.Output
	secret types.Key
	image  types.Key
}

func (o *ownedOutput) wipe() {
	o.secret.Wipe()
}

// scan checks whether out belongs to the wallet and, if so, derives its
// one-time secret and key image.
func (w *Wallet) scan(out tx.Output) (*ownedOutput, bool, error) {
	derivation, err := crypto.GenerateKeyDerivation(out.TxPubKey, w.view.Secret)
	if err != nil {
		return nil, false, fmt.Errorf("%w: tx public key: %v", tx.ErrInvalidOutputs, err)
	}
	defer derivation.Wipe()

	D, err := crypto.SubaddressSpendPoint(w.view.Secret, w.spend.Public, out.Subaddress)
	if err != nil {
		return nil, false, err
	}
	expected, err := crypto.DerivePublicKey(derivation, out.Index, crypto.KeyFromPoint(D))
	if err != nil {
		return nil, false, err
	}
	if expected != out.OutputKey {
		return nil, false, nil
	}

	base, err := crypto.SubaddressSpendSecret(w.spend.Secret, w.view.Secret, out.Subaddress)
	if err != nil {
		return nil, false, err
	}
	defer base.Wipe()
	secret, err := crypto.DeriveSecretKey(derivation, out.Index, base)
	if err != nil {
		return nil, false, err
	}
	image, err := crypto.GenerateKeyImage(out.OutputKey, secret)
	if err != nil {
		secret.Wipe()
		return nil, false, err
	}
	return &ownedOutput{out: out, secret: secret, image: image}, true, nil
}

// ImportOutputs decodes an outputs blob from a view-only wallet and keeps
// the outputs the wallet owns. It returns how many of them the blob held.
func (w *Wallet) ImportOutputs(blob []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	network, outputs, err := w.codec.DecodeOutputs(blob)
	if err != nil {
		return 0, err
	}
	if network != w.network {
		return 0, fmt.Errorf("%w: outputs are for %s, wallet is on %s", tx.ErrInvalidOutputs, network, w.network)
	}

	owned := 0
	for i, out := range outputs {
		o, ok, err := w.scan(out)
		if err != nil {
			return owned, fmt.Errorf("output %d: %w", i, err)
		}
		if !ok {
			continue
		}
		owned++
		if prev, seen := w.outputs[out.OutputKey]; seen {
			prev.wipe()
		} else {
			w.order = append(w.order, out.OutputKey)
		}
		w.outputs[out.OutputKey] = o
	}
	log.Wallet.Debug().Int("received", len(outputs)).Int("owned", owned).Msg("Imported outputs")
	return owned, nil
}

// ExportKeyImages returns the signed key images of every imported output.
func (w *Wallet) ExportKeyImages() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.order) == 0 {
		return nil, ErrNoKeyImages
	}
	images := make([]tx.KeyImage, 0, len(w.order))
	for _, key := range w.order {
		o := w.outputs[key]
		msg := tx.KeyImageMessage(o.out.OutputKey, o.image)
		sig, err := crypto.GenerateSignature(msg, o.out.OutputKey, o.secret)
		if err != nil {
			return nil, fmt.Errorf("sign key image: %w", err)
		}
		images = append(images, tx.KeyImage{OutputKey: o.out.OutputKey, Image: o.image, Signature: sig})
	}
	return w.codec.EncodeKeyImages(w.network, images)
}

// OutputCount returns the number of imported outputs.
func (w *Wallet) OutputCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.order)
}

func (w *Wallet) decodeUnsigned(blob []byte) (*tx.Unsigned, error) {
	u, err := w.codec.DecodeUnsigned(blob)
	if err != nil {
		return nil, err
	}
	if u.Network != w.network {
		return nil, fmt.Errorf("%w: transaction is for %s, wallet is on %s", tx.ErrInvalidTransaction, u.Network, w.network)
	}
	return u, nil
}

// DescribeTransaction decodes an unsigned set and summarizes it.
func (w *Wallet) DescribeTransaction(blob []byte) (*tx.Description, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	u, err := w.decodeUnsigned(blob)
	if err != nil {
		return nil, err
	}
	return tx.Describe(u, blob)
}

// CheckTransaction returns the warnings for an unsigned set. Besides the
// generic findings it flags inputs that were never imported, change that
// does not return to the wallet and destinations that do. Ownership is
// searched within maxAccount x maxIndex.
func (w *Wallet) CheckTransaction(blob []byte, maxAccount, maxIndex uint32) ([]tx.Warning, error) {
	w.mu.Lock()
	u, err := w.decodeUnsigned(blob)
	var d *tx.Description
	if err == nil {
		d, err = tx.Describe(u, blob)
	}
	var missing int
	if err == nil {
		for _, t := range u.Transfers {
			for _, in := range t.Inputs {
				if o, ok := w.outputs[in.OutputKey]; !ok || o.out.Amount != in.Amount {
					missing++
				}
			}
		}
	}
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}

	warnings := d.Warnings()
	if missing > 0 {
		warnings = append(warnings, tx.Warning{
			Message:  fmt.Sprintf("%d inputs do not match imported outputs", missing),
			Severity: tx.SeverityCritical,
		})
	}
	for i, t := range d.Transfers {
		if t.Change != nil && !w.HasAddress(t.Change.Address, maxAccount, maxIndex) {
			warnings = append(warnings, tx.Warning{
				Message:  fmt.Sprintf("transfer %d: change address %s does not belong to this wallet", i, t.Change.Address),
				Severity: tx.SeverityCritical,
			})
		}
		for _, f := range t.Flows {
			if w.HasAddress(f.Address, maxAccount, maxIndex) {
				warnings = append(warnings, tx.Warning{
					Message:  fmt.Sprintf("transfer %d: %s is sent back to this wallet", i, tx.FormatAmount(f.Amount)),
					Severity: tx.SeverityInfo,
				})
			}
		}
	}
	return warnings, nil
}

// SignTransaction signs every input of an unsigned set. Each input must
// spend an imported output of the same amount.
func (w *Wallet) SignTransaction(blob []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	u, err := w.decodeUnsigned(blob)
	if err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	hash, err := tx.UnsignedHash(u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tx.ErrInvalidTransaction, err)
	}

	signed := &tx.Signed{Network: w.network, UnsignedHash: hash}
	for i, t := range u.Transfers {
		inputs := make([]tx.SignedInput, 0, len(t.Inputs))
		for j, in := range t.Inputs {
			o, ok := w.outputs[in.OutputKey]
			if !ok {
				return nil, fmt.Errorf("%w: transfer %d input %d spends an output that was not imported", tx.ErrInvalidTransaction, i, j)
			}
			if o.out.Amount != in.Amount {
				return nil, fmt.Errorf("%w: transfer %d input %d amount %d, imported %d", tx.ErrInvalidTransaction, i, j, in.Amount, o.out.Amount)
			}
			sig, err := crypto.GenerateSignature(tx.InputMessage(hash, o.image), o.out.OutputKey, o.secret)
			if err != nil {
				return nil, fmt.Errorf("sign input: %w", err)
			}
			inputs = append(inputs, tx.SignedInput{OutputKey: in.OutputKey, KeyImage: o.image, Signature: sig})
		}
		signed.Transfers = append(signed.Transfers, inputs)
	}
	log.Wallet.Info().Int("transfers", len(signed.Transfers)).Msg("Signed transaction set")
	return w.codec.EncodeSigned(signed)
}

// VerifySigned checks the input signatures of a signed set against the
// unsigned set it claims to sign.
func VerifySigned(c tx.Codec, unsignedBlob, signedBlob []byte) (bool, error) {
	u, err := c.DecodeUnsigned(unsignedBlob)
	if err != nil {
		return false, err
	}
	s, err := c.DecodeSigned(signedBlob)
	if err != nil {
		return false, err
	}
	hash, err := tx.UnsignedHash(u)
	if err != nil {
		return false, err
	}
	if hash != s.UnsignedHash || len(s.Transfers) != len(u.Transfers) {
		return false, nil
	}
	for i, inputs := range s.Transfers {
		if len(inputs) != len(u.Transfers[i].Inputs) {
			return false, nil
		}
		for j, in := range inputs {
			if in.OutputKey != u.Transfers[i].Inputs[j].OutputKey {
				return false, nil
			}
			if !crypto.CheckSignature(tx.InputMessage(hash, in.KeyImage), in.OutputKey, in.Signature) {
				return false, nil
			}
		}
	}
	return true, nil
}
