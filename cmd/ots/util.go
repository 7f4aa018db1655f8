package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Klingon-tech/ots/internal/rpc"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var (
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show the signer version",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}

	languagesCmd = &cobra.Command{
		Use:   "languages",
		Short: "List phrase languages",
		Args:  cobra.NoArgs,
		RunE:  runLanguages,
	}

	utilCmd = &cobra.Command{
		Use:   "util",
		Short: "Restore height and entropy helpers",
	}

	utilHeightCmd = &cobra.Command{
		Use:   "height <date|unix-time>",
		Short: "Estimate the block height at a date (YYYY-MM-DD) or unix time",
		Args:  cobra.ExactArgs(1),
		RunE:  runUtilHeight,
	}

	utilTimestampCmd = &cobra.Command{
		Use:   "timestamp <height>",
		Short: "Estimate the time of a block height",
		Args:  cobra.ExactArgs(1),
		RunE:  runUtilTimestamp,
	}

	utilEntropyCmd = &cobra.Command{
		Use:   "entropy <hex>",
		Short: "Grade the entropy of some bytes",
		Args:  cobra.ExactArgs(1),
		RunE:  runUtilEntropy,
	}

	addressCmd = &cobra.Command{
		Use:   "address",
		Short: "Inspect addresses",
	}

	addressInfoCmd = &cobra.Command{
		Use:   "info <address>",
		Short: "Decode an address",
		Args:  cobra.ExactArgs(1),
		RunE:  runAddressInfo,
	}

	addressQRCmd = &cobra.Command{
		Use:   "qr <address>",
		Short: "Render an address as a QR code",
		Args:  cobra.ExactArgs(1),
		RunE:  runAddressQR,
	}

	indicesCmd = &cobra.Command{
		Use:   "indices",
		Short: "Merge and split word index sets",
	}

	indicesMergeCmd = &cobra.Command{
		Use:   "merge <set> <set>...",
		Short: "Merge index sets (each set is one quoted argument)",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runIndicesMerge,
	}

	indicesSplitCmd = &cobra.Command{
		Use:   "split <set>",
		Short: "Split an index set into shares that merge back to it",
		Args:  cobra.ExactArgs(1),
		RunE:  runIndicesSplit,
	}
)

func init() {
	languagesCmd.Flags().String("type", "", "Only languages supporting this seed type")

	utilCmd.AddCommand(utilHeightCmd, utilTimestampCmd, utilEntropyCmd)

	addressQRCmd.Flags().String("out", "", "Write a PNG to this file instead of printing to the terminal")
	addressQRCmd.Flags().Int("size", 256, "PNG size in pixels")
	addressCmd.AddCommand(addressInfoCmd, addressQRCmd)

	for _, c := range []*cobra.Command{indicesMergeCmd, indicesSplitCmd} {
		c.Flags().String("type", "monero", "Seed type the indices belong to")
		c.Flags().Bool("hex", false, "Sets are in hex")
	}
	indicesSplitCmd.Flags().Int("shares", 2, "Number of shares")
	indicesCmd.AddCommand(indicesMergeCmd, indicesSplitCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	var res rpc.VersionResult
	if err := call(cmd, "ots_version", nil, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Printf("otsd %s\n", res.Version) })
}

func runLanguages(cmd *cobra.Command, _ []string) error {
	typ, _ := cmd.Flags().GetString("type")
	var res []rpc.LanguageResult
	if err := call(cmd, "language_list", rpc.LanguageListParam{Type: typ}, &res); err != nil {
		return err
	}
	return output(res, func() {
		fmt.Printf("%-8s %-24s %-18s %s\n", "CODE", "NAME", "TYPES", "DEFAULT FOR")
		fmt.Println(strings.Repeat("-", 64))
		for _, l := range res {
			fmt.Printf("%-8s %-24s %-18s %s\n", l.Code, l.EnglishName, strings.Join(l.Types, ","), strings.Join(l.Default, ","))
		}
	})
}

// parseWhen accepts a unix timestamp or a YYYY-MM-DD date.
func parseWhen(s string) (uint64, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return uint64(t.Unix()), nil
	}
	var ts uint64
	if _, err := fmt.Sscan(s, &ts); err != nil {
		return 0, fmt.Errorf("invalid date %q (want YYYY-MM-DD or unix time)", s)
	}
	return ts, nil
}

func runUtilHeight(cmd *cobra.Command, args []string) error {
	ts, err := parseWhen(args[0])
	if err != nil {
		return err
	}
	var res rpc.HeightResult
	if err := call(cmd, "util_height", rpc.HeightParam{Network: network, Timestamp: ts}, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Println(res.Height) })
}

func runUtilTimestamp(cmd *cobra.Command, args []string) error {
	var height uint64
	if _, err := fmt.Sscan(args[0], &height); err != nil {
		return fmt.Errorf("invalid height %q", args[0])
	}
	var res rpc.HeightResult
	if err := call(cmd, "util_timestamp", rpc.HeightParam{Network: network, Height: height}, &res); err != nil {
		return err
	}
	return output(res, func() {
		fmt.Printf("%d (%s)\n", res.Timestamp, time.Unix(int64(res.Timestamp), 0).UTC().Format(time.RFC3339))
	})
}

func runUtilEntropy(cmd *cobra.Command, args []string) error {
	if _, err := hex.DecodeString(args[0]); err != nil {
		return fmt.Errorf("data must be hex: %w", err)
	}
	var res rpc.EntropyResult
	if err := call(cmd, "util_entropy", rpc.EntropyParam{Data: args[0]}, &res); err != nil {
		return err
	}
	return output(res, func() {
		verdict := "ok"
		if res.Low {
			verdict = "LOW"
		}
		fmt.Printf("%s bits/byte (%s)\n", res.Level, verdict)
	})
}

func runAddressInfo(cmd *cobra.Command, args []string) error {
	var res rpc.AddressInfoResult
	if err := call(cmd, "address_info", rpc.AddressParam{Address: args[0]}, &res); err != nil {
		return err
	}
	return output(res, func() {
		fmt.Printf("Type:        %s\n", res.Type)
		fmt.Printf("Network:     %s\n", res.Network)
		fmt.Printf("Fingerprint: %s\n", res.Fingerprint)
		if res.Integrated {
			fmt.Printf("Payment ID:  %s\n", res.PaymentID)
			fmt.Printf("Base:        %s\n", res.Base)
		}
	})
}

func runAddressQR(cmd *cobra.Command, args []string) error {
	addr := strings.TrimSpace(args[0])
	qr, err := qrcode.New(addr, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("failed to create QR code: %w", err)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		fmt.Print(qr.ToSmallString(false))
		return nil
	}
	size, _ := cmd.Flags().GetInt("size")
	png, err := qr.PNG(size)
	if err != nil {
		return fmt.Errorf("failed to generate PNG: %w", err)
	}
	if err := os.WriteFile(out, png, 0644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", out)
	return nil
}

func runIndicesMerge(cmd *cobra.Command, args []string) error {
	typ, _ := cmd.Flags().GetString("type")
	hexSets, _ := cmd.Flags().GetBool("hex")
	var res rpc.IndicesResult
	if err := call(cmd, "indices_merge", rpc.IndicesMergeParam{Sets: args, Type: typ, Hex: hexSets}, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Println(res.Indices) })
}

func runIndicesSplit(cmd *cobra.Command, args []string) error {
	typ, _ := cmd.Flags().GetString("type")
	hexSets, _ := cmd.Flags().GetBool("hex")
	shares, _ := cmd.Flags().GetInt("shares")
	var res rpc.SharesResult
	err := call(cmd, "indices_split", rpc.IndicesSplitParam{Set: args[0], Shares: shares, Type: typ, Hex: hexSets}, &res)
	if err != nil {
		return err
	}
	return output(res, func() {
		for i, s := range res.Shares {
			fmt.Printf("%d: %s\n", i+1, s)
		}
	})
}
