package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Klingon-tech/ots/internal/rpc"
	"github.com/Klingon-tech/ots/pkg/types"
	"github.com/spf13/cobra"
)

var (
	walletCmd = &cobra.Command{
		Use:   "wallet",
		Short: "Browse the addresses of a seed",
	}

	walletFindCmd = &cobra.Command{
		Use:   "find <fingerprint> <address>",
		Short: "Find the account and index of an address",
		Args:  cobra.ExactArgs(2),
		RunE:  runWalletFind,
	}

	walletAccountsCmd = &cobra.Command{
		Use:   "accounts <fingerprint>",
		Short: "List account addresses",
		Args:  cobra.ExactArgs(1),
		RunE:  runWalletAccounts,
	}

	walletSubaddressesCmd = &cobra.Command{
		Use:   "subaddresses <fingerprint>",
		Short: "List subaddresses of an account",
		Args:  cobra.ExactArgs(1),
		RunE:  runWalletSubaddresses,
	}

	signCmd = &cobra.Command{
		Use:   "sign",
		Short: "Sign and verify messages",
	}

	signDataCmd = &cobra.Command{
		Use:   "data <fingerprint> <message>",
		Short: "Sign a message",
		Args:  cobra.ExactArgs(2),
		RunE:  runSignData,
	}

	signVerifyCmd = &cobra.Command{
		Use:   "verify <address> <message> <signature>",
		Short: "Verify a message signature",
		Args:  cobra.ExactArgs(3),
		RunE:  runSignVerify,
	}

	outputsCmd = &cobra.Command{
		Use:   "outputs",
		Short: "Import outputs from a view-only wallet",
	}

	outputsImportCmd = &cobra.Command{
		Use:   "import <fingerprint> <file|->",
		Short: "Import an outputs envelope",
		Args:  cobra.ExactArgs(2),
		RunE:  runOutputsImport,
	}

	keyImagesCmd = &cobra.Command{
		Use:   "keyimages",
		Short: "Export key images for a view-only wallet",
	}

	keyImagesExportCmd = &cobra.Command{
		Use:   "export <fingerprint>",
		Short: "Export the key images of imported outputs",
		Args:  cobra.ExactArgs(1),
		RunE:  runKeyImagesExport,
	}

	txCmd = &cobra.Command{
		Use:   "tx",
		Short: "Inspect and sign unsigned transaction sets",
	}

	txDescribeCmd = &cobra.Command{
		Use:   "describe <fingerprint> <file|->",
		Short: "Show what an unsigned set spends and where it sends it",
		Args:  cobra.ExactArgs(2),
		RunE:  runTxDescribe,
	}

	txSignCmd = &cobra.Command{
		Use:   "sign <fingerprint> <file|->",
		Short: "Sign an unsigned set",
		Args:  cobra.ExactArgs(2),
		RunE:  runTxSign,
	}

	txVerifyCmd = &cobra.Command{
		Use:   "verify <unsigned-file> <signed-file>",
		Short: "Check that a signed set matches an unsigned one",
		Args:  cobra.ExactArgs(2),
		RunE:  runTxVerify,
	}

	txHistoryCmd = &cobra.Command{
		Use:   "history <fingerprint>",
		Short: "Show the sets signed with a seed",
		Args:  cobra.ExactArgs(1),
		RunE:  runTxHistory,
	}
)

func init() {
	walletFindCmd.Flags().Uint32("accounts", 0, "Accounts to search (default: configured depth)")
	walletFindCmd.Flags().Uint32("indices", 0, "Indices per account to search (default: configured depth)")
	walletAccountsCmd.Flags().Uint32("max", 10, "Number of addresses")
	walletAccountsCmd.Flags().Uint32("offset", 0, "First account")
	walletSubaddressesCmd.Flags().Uint32("account", 0, "Account")
	walletSubaddressesCmd.Flags().Uint32("max", 10, "Number of addresses")
	walletSubaddressesCmd.Flags().Uint32("offset", 0, "First index")
	walletCmd.AddCommand(walletFindCmd, walletAccountsCmd, walletSubaddressesCmd)

	signDataCmd.Flags().String("address", "", "Sign with this address of the seed")
	signDataCmd.Flags().Int64("account", -1, "Sign with this account")
	signDataCmd.Flags().Int64("index", -1, "Sign with this index")
	signVerifyCmd.Flags().Bool("legacy", false, "Accept legacy (V1) signatures")
	signCmd.AddCommand(signDataCmd, signVerifyCmd)

	outputsCmd.AddCommand(outputsImportCmd)

	keyImagesExportCmd.Flags().String("out", "", "Write the envelope to this file")
	keyImagesCmd.AddCommand(keyImagesExportCmd)

	txSignCmd.Flags().String("out", "", "Write the signed set to this file")
	txSignCmd.Flags().BoolP("yes", "y", false, "Sign without confirmation")
	txHistoryCmd.Flags().Int("limit", 20, "Entries to show")
	txHistoryCmd.Flags().Int("offset", 0, "Entries to skip")
	txCmd.AddCommand(txDescribeCmd, txSignCmd, txVerifyCmd, txHistoryCmd)
}

func runWalletFind(cmd *cobra.Command, args []string) error {
	p := rpc.WalletAddressParam{Fingerprint: args[0], Address: args[1]}
	p.Accounts, _ = cmd.Flags().GetUint32("accounts")
	p.Indices, _ = cmd.Flags().GetUint32("indices")
	var res types.AddressIndex
	if err := call(cmd, "wallet_findAddress", p, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Printf("account %d, index %d\n", res.Account, res.Index) })
}

func printAddresses(res rpc.AddressListResult, first uint32) error {
	return output(res, func() {
		for i, a := range res.Addresses {
			fmt.Printf("%4d  %s\n", first+uint32(i), a)
		}
	})
}

func runWalletAccounts(cmd *cobra.Command, args []string) error {
	max, _ := cmd.Flags().GetUint32("max")
	offset, _ := cmd.Flags().GetUint32("offset")
	var res rpc.AddressListResult
	if err := call(cmd, "wallet_accounts", rpc.WalletListParam{Fingerprint: args[0], Max: max, Offset: offset}, &res); err != nil {
		return err
	}
	return printAddresses(res, offset)
}

func runWalletSubaddresses(cmd *cobra.Command, args []string) error {
	account, _ := cmd.Flags().GetUint32("account")
	max, _ := cmd.Flags().GetUint32("max")
	offset, _ := cmd.Flags().GetUint32("offset")
	p := rpc.WalletListParam{Fingerprint: args[0], Account: account, Max: max, Offset: offset}
	var res rpc.AddressListResult
	if err := call(cmd, "wallet_subaddresses", p, &res); err != nil {
		return err
	}
	return printAddresses(res, offset)
}

func runSignData(cmd *cobra.Command, args []string) error {
	p := rpc.SignDataParam{Fingerprint: args[0], Data: args[1]}
	p.Address, _ = cmd.Flags().GetString("address")
	if a, _ := cmd.Flags().GetInt64("account"); a >= 0 {
		v := uint32(a)
		p.Account = &v
	}
	if i, _ := cmd.Flags().GetInt64("index"); i >= 0 {
		v := uint32(i)
		p.Index = &v
	}
	var res rpc.SignatureResult
	if err := call(cmd, "sign_data", p, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Println(res.Signature) })
}

func runSignVerify(cmd *cobra.Command, args []string) error {
	legacy, _ := cmd.Flags().GetBool("legacy")
	p := rpc.VerifyDataParam{Address: args[0], Data: args[1], Signature: args[2], Legacy: legacy}
	var res rpc.ValidResult
	if err := call(cmd, "sign_verify", p, &res); err != nil {
		return err
	}
	if err := output(res, func() {
		if res.Valid {
			fmt.Println("Signature is valid")
		} else {
			fmt.Println("Signature is NOT valid")
		}
	}); err != nil {
		return err
	}
	if !res.Valid {
		os.Exit(2)
	}
	return nil
}

func runOutputsImport(cmd *cobra.Command, args []string) error {
	blob, err := readBlob(args[1])
	if err != nil {
		return err
	}
	var res rpc.CountResult
	if err := call(cmd, "outputs_import", rpc.BlobParam{Fingerprint: args[0], Blob: blob}, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Printf("Imported %d output(s)\n", res.Count) })
}

func runKeyImagesExport(cmd *cobra.Command, args []string) error {
	var res rpc.BlobResult
	if err := call(cmd, "keyimages_export", rpc.SeedParam{Fingerprint: args[0]}, &res); err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	return writeBlob(out, res.Blob)
}

func printDescription(d *rpc.TxDescribeResult) {
	fmt.Printf("Transactions: %d\n", d.Transfers)
	fmt.Printf("Spending:     %s\n", d.AmountIn)
	for _, f := range d.Flows {
		fmt.Printf("  -> %s  %s\n", f.Amount, f.Address)
	}
	if d.Change != nil {
		fmt.Printf("Change:       %s  %s\n", d.Change.Amount, d.Change.Address)
	}
	fmt.Printf("Fee:          %s (%d‰ of sent)\n", d.Fee, d.FeeRatio)
	for _, w := range d.Warnings {
		fmt.Printf("[%s] %s\n", strings.ToUpper(w.Severity.String()), w.Message)
	}
}

func runTxDescribe(cmd *cobra.Command, args []string) error {
	blob, err := readBlob(args[1])
	if err != nil {
		return err
	}
	var res rpc.TxDescribeResult
	if err := call(cmd, "tx_describe", rpc.BlobParam{Fingerprint: args[0], Blob: blob}, &res); err != nil {
		return err
	}
	return output(res, func() { printDescription(&res) })
}

func runTxSign(cmd *cobra.Command, args []string) error {
	blob, err := readBlob(args[1])
	if err != nil {
		return err
	}
	param := rpc.BlobParam{Fingerprint: args[0], Blob: blob}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		var d rpc.TxDescribeResult
		if err := call(cmd, "tx_describe", param, &d); err != nil {
			return err
		}
		printDescription(&d)
		answer, err := readSecretLine("Sign? Type 'yes' to continue: ")
		if err != nil {
			return err
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			return fmt.Errorf("aborted")
		}
	}

	var res rpc.TxSignResult
	if err := call(cmd, "tx_sign", param, &res); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Signed set %s\n", res.TxSet)
	out, _ := cmd.Flags().GetString("out")
	return writeBlob(out, res.Signed)
}

func runTxVerify(cmd *cobra.Command, args []string) error {
	unsigned, err := readBlob(args[0])
	if err != nil {
		return err
	}
	signed, err := readBlob(args[1])
	if err != nil {
		return err
	}
	var res rpc.ValidResult
	if err := call(cmd, "tx_verify", rpc.TxVerifyParam{Unsigned: unsigned, Signed: signed}, &res); err != nil {
		return err
	}
	return output(res, func() {
		if res.Valid {
			fmt.Println("Signed set matches")
		} else {
			fmt.Println("Signed set does NOT match")
		}
	})
}

func runTxHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	var res rpc.TxHistoryResult
	if err := call(cmd, "tx_history", rpc.TxHistoryParam{Fingerprint: args[0], Limit: limit, Offset: offset}, &res); err != nil {
		return err
	}
	return output(res, func() {
		if len(res.Entries) == 0 {
			fmt.Println("No signed sets.")
			return
		}
		fmt.Printf("%-20s %-16s %-18s %-16s %s\n", "SIGNED", "TXSET", "SENT", "FEE", "TXS")
		fmt.Println(strings.Repeat("-", 80))
		for _, e := range res.Entries {
			when := time.Unix(e.SignedAt, 0).UTC().Format("2006-01-02 15:04:05")
			fmt.Printf("%-20s %-16s %-18s %-16s %d\n", when, e.TxSet[:16], e.AmountOut, e.Fee, e.Transfers)
		}
		fmt.Printf("\n%d of %d shown\n", len(res.Entries), res.Total)
	})
}
