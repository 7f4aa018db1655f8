package main

import (
	"fmt"
	"strings"

	"github.com/Klingon-tech/ots/internal/rpc"
	"github.com/spf13/cobra"
)

var (
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create, restore and export seeds",
	}

	seedGenerateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate a new random seed",
		Args:  cobra.NoArgs,
		RunE:  runSeedGenerate,
	}

	seedCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a seed from a hex secret key (prompted)",
		Args:  cobra.NoArgs,
		RunE:  runSeedCreate,
	}

	seedDecodeCmd = &cobra.Command{
		Use:   "decode [words...]",
		Short: "Restore a seed from its phrase (prompted when omitted)",
		RunE:  runSeedDecode,
	}

	seedPhraseCmd = &cobra.Command{
		Use:   "phrase <fingerprint>",
		Short: "Show the phrase of a seed",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeedPhrase,
	}

	seedIndicesCmd = &cobra.Command{
		Use:   "indices <fingerprint>",
		Short: "Show the word indices of a seed",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeedIndices,
	}

	seedMergeCmd = &cobra.Command{
		Use:   "merge <fingerprint> <fingerprint>...",
		Short: "Merge seeds into a new one",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runSeedMerge,
	}
)

func init() {
	for _, c := range []*cobra.Command{seedGenerateCmd, seedCreateCmd, seedDecodeCmd, seedMergeCmd} {
		c.Flags().String("name", "", "Name of the seed in the jar")
		c.Flags().Uint64("height", 0, "Restore height")
		c.Flags().Uint64("timestamp", 0, "Restore date as a unix timestamp (instead of --height)")
		c.Flags().String("language", "", "Phrase language code")
		c.Flags().Bool("password", false, "Prompt for a Polyseed encryption password")
		c.Flags().Bool("passphrase", false, "Prompt for a passphrase offset")
	}
	seedGenerateCmd.Flags().String("type", "monero", "Seed type: monero or polyseed")
	seedCreateCmd.Flags().String("type", "monero", "Seed type: monero or polyseed")
	seedDecodeCmd.Flags().String("type", "", "Seed type (default: inferred from the word count)")

	for _, c := range []*cobra.Command{seedPhraseCmd, seedIndicesCmd} {
		c.Flags().String("language", "", "Phrase language code")
		c.Flags().Bool("password", false, "Prompt for a Polyseed encryption password")
	}
	seedIndicesCmd.Flags().Bool("hex", false, "Print indices in hex")

	seedCmd.AddCommand(seedGenerateCmd, seedCreateCmd, seedDecodeCmd, seedPhraseCmd, seedIndicesCmd, seedMergeCmd)
}

// seedOptions collects the shared seed flags, prompting for secrets.
func seedOptions(cmd *cobra.Command) (rpc.SeedOptions, error) {
	var o rpc.SeedOptions
	o.Name, _ = cmd.Flags().GetString("name")
	o.Network = network
	o.Height, _ = cmd.Flags().GetUint64("height")
	o.Timestamp, _ = cmd.Flags().GetUint64("timestamp")
	o.Language, _ = cmd.Flags().GetString("language")

	if ask, _ := cmd.Flags().GetBool("password"); ask {
		pw, err := readNewPassword()
		if err != nil {
			return o, err
		}
		o.Password = string(pw)
	}
	if ask, _ := cmd.Flags().GetBool("passphrase"); ask {
		pp, err := readPassword("Passphrase: ")
		if err != nil {
			return o, err
		}
		o.Passphrase = string(pp)
	}
	return o, nil
}

func printSeed(s *rpc.SeedResult) error {
	return output(s, func() {
		name := s.Name
		if name == "" {
			name = "-"
		}
		fmt.Printf("Fingerprint: %s\n", s.Fingerprint)
		fmt.Printf("Name:        %s\n", name)
		fmt.Printf("Type:        %s\n", s.Type)
		if s.Legacy {
			fmt.Println("Legacy:      yes")
		}
		fmt.Printf("Network:     %s\n", s.Network)
		fmt.Printf("Height:      %d\n", s.Height)
		fmt.Printf("Address:     %s\n", s.Address)
	})
}

func runSeedGenerate(cmd *cobra.Command, _ []string) error {
	o, err := seedOptions(cmd)
	if err != nil {
		return err
	}
	typ, _ := cmd.Flags().GetString("type")

	var res rpc.SeedResult
	if err := call(cmd, "seed_generate", rpc.SeedGenerateParam{Type: typ, SeedOptions: o}, &res); err != nil {
		return err
	}
	return printSeed(&res)
}

func runSeedCreate(cmd *cobra.Command, _ []string) error {
	o, err := seedOptions(cmd)
	if err != nil {
		return err
	}
	typ, _ := cmd.Flags().GetString("type")
	key, err := readSecretLine("Secret key (hex): ")
	if err != nil {
		return err
	}

	var res rpc.SeedResult
	if err := call(cmd, "seed_create", rpc.SeedCreateParam{Type: typ, Key: key, SeedOptions: o}, &res); err != nil {
		return err
	}
	return printSeed(&res)
}

func runSeedDecode(cmd *cobra.Command, args []string) error {
	o, err := seedOptions(cmd)
	if err != nil {
		return err
	}
	typ, _ := cmd.Flags().GetString("type")

	phrase := strings.Join(args, " ")
	if phrase == "" {
		if phrase, err = readSecretLine("Seed phrase: "); err != nil {
			return err
		}
	}

	var res rpc.SeedResult
	if err := call(cmd, "seed_decode", rpc.SeedDecodeParam{Phrase: phrase, Type: typ, SeedOptions: o}, &res); err != nil {
		return err
	}
	return printSeed(&res)
}

func phraseParam(cmd *cobra.Command, fingerprint string) (rpc.SeedPhraseParam, error) {
	p := rpc.SeedPhraseParam{Fingerprint: fingerprint}
	p.Language, _ = cmd.Flags().GetString("language")
	p.Hex, _ = cmd.Flags().GetBool("hex")
	if ask, _ := cmd.Flags().GetBool("password"); ask {
		pw, err := readPassword("Password: ")
		if err != nil {
			return p, err
		}
		p.Password = string(pw)
	}
	return p, nil
}

func runSeedPhrase(cmd *cobra.Command, args []string) error {
	p, err := phraseParam(cmd, args[0])
	if err != nil {
		return err
	}
	var res rpc.PhraseResult
	if err := call(cmd, "seed_phrase", p, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Println(res.Phrase) })
}

func runSeedIndices(cmd *cobra.Command, args []string) error {
	p, err := phraseParam(cmd, args[0])
	if err != nil {
		return err
	}
	var res rpc.IndicesResult
	if err := call(cmd, "seed_indices", p, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Println(res.Indices) })
}

func runSeedMerge(cmd *cobra.Command, args []string) error {
	o, err := seedOptions(cmd)
	if err != nil {
		return err
	}
	var res rpc.SeedResult
	if err := call(cmd, "seed_merge", rpc.SeedMergeParam{Fingerprints: args, SeedOptions: o}, &res); err != nil {
		return err
	}
	return printSeed(&res)
}

// ── Jar ─────────────────────────────────────────────────────────────────

var (
	jarCmd = &cobra.Command{
		Use:   "jar",
		Short: "Manage the signer's seed jar",
	}

	jarListCmd = &cobra.Command{
		Use:   "list",
		Short: "List seeds in the jar",
		Args:  cobra.NoArgs,
		RunE:  runJarList,
	}

	jarGetCmd = &cobra.Command{
		Use:   "get <fingerprint>",
		Short: "Show a seed",
		Args:  cobra.ExactArgs(1),
		RunE:  runJarGet,
	}

	jarRemoveCmd = &cobra.Command{
		Use:   "remove <fingerprint>",
		Short: "Wipe a seed and remove it from the jar",
		Args:  cobra.ExactArgs(1),
		RunE:  runJarRemove,
	}

	jarRenameCmd = &cobra.Command{
		Use:   "rename <fingerprint> <name>",
		Short: "Rename a seed",
		Args:  cobra.ExactArgs(2),
		RunE:  runJarRename,
	}

	jarClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Wipe every seed in the jar",
		Args:  cobra.NoArgs,
		RunE:  runJarClear,
	}

	jarSaveCmd = &cobra.Command{
		Use:   "save",
		Short: "Encrypt the jar into the signer's keystore",
		Args:  cobra.NoArgs,
		RunE:  runJarSave,
	}

	jarLoadCmd = &cobra.Command{
		Use:   "load",
		Short: "Load seeds from the signer's keystore",
		Args:  cobra.NoArgs,
		RunE:  runJarLoad,
	}
)

func init() {
	jarCmd.AddCommand(jarListCmd, jarGetCmd, jarRemoveCmd, jarRenameCmd, jarClearCmd, jarSaveCmd, jarLoadCmd)
}

func runJarList(cmd *cobra.Command, _ []string) error {
	var res rpc.JarListResult
	if err := call(cmd, "jar_list", nil, &res); err != nil {
		return err
	}
	return output(res, func() {
		if len(res.Seeds) == 0 {
			fmt.Println("The jar is empty.")
			return
		}
		fmt.Printf("%-8s %-16s %-9s %-6s %s\n", "FP", "NAME", "TYPE", "NET", "ADDRESS")
		fmt.Println(strings.Repeat("-", 60))
		for _, s := range res.Seeds {
			fmt.Printf("%-8s %-16s %-9s %-6s %s\n", s.Fingerprint, s.Name, s.Type, s.Network, s.Address)
		}
	})
}

func runJarGet(cmd *cobra.Command, args []string) error {
	var res rpc.SeedResult
	if err := call(cmd, "jar_get", rpc.SeedParam{Fingerprint: args[0]}, &res); err != nil {
		return err
	}
	return printSeed(&res)
}

func runJarRemove(cmd *cobra.Command, args []string) error {
	var res rpc.CountResult
	if err := call(cmd, "jar_remove", rpc.SeedParam{Fingerprint: args[0]}, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Printf("Removed %s, %d seed(s) left\n", args[0], res.Count) })
}

func runJarRename(cmd *cobra.Command, args []string) error {
	var res rpc.SeedResult
	if err := call(cmd, "jar_rename", rpc.JarRenameParam{Fingerprint: args[0], Name: args[1]}, &res); err != nil {
		return err
	}
	return printSeed(&res)
}

func runJarClear(cmd *cobra.Command, _ []string) error {
	var res rpc.CountResult
	if err := call(cmd, "jar_clear", nil, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Printf("Wiped %d seed(s)\n", res.Count) })
}

func runJarSave(cmd *cobra.Command, _ []string) error {
	pw, err := readNewPassword()
	if err != nil {
		return err
	}
	var res rpc.CountResult
	if err := call(cmd, "jar_save", rpc.JarPasswordParam{Password: string(pw)}, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Printf("Saved %d seed(s)\n", res.Count) })
}

func runJarLoad(cmd *cobra.Command, _ []string) error {
	pw, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	var res rpc.CountResult
	if err := call(cmd, "jar_load", rpc.JarPasswordParam{Password: string(pw)}, &res); err != nil {
		return err
	}
	return output(res, func() { fmt.Printf("Loaded %d seed(s)\n", res.Count) })
}
