// ots is a command-line client for an otsd signer.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/Klingon-tech/ots/config"
	"github.com/Klingon-tech/ots/internal/rpcclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Global flags
	rpcURL     string
	network    string
	dataDir    string
	jsonOutput bool

	client *rpcclient.Client

	rootCmd = &cobra.Command{
		Use:   "ots",
		Short: "OTS - offline Monero signing toolkit",
		Long: `ots talks to an otsd signer over JSON-RPC. Seeds live in the
signer's jar and are selected by their six character fingerprint.

  ots seed generate --type polyseed --name cold
  ots jar list
  ots tx sign 3F9A1C unsigned.json --out signed.json`,
		SilenceUsage:      true,
		PersistentPreRunE: connect,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "RPC endpoint (default: from <datadir>/ots.conf)")
	rootCmd.PersistentFlags().StringVar(&network, "network", "", "mainnet (default), testnet or stagenet")
	rootCmd.PersistentFlags().StringVar(&dataDir, "datadir", "", "Data directory (default: ~/.ots)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(versionCmd, languagesCmd, utilCmd, seedCmd, jarCmd,
		addressCmd, indicesCmd, walletCmd, signCmd, outputsCmd, keyImagesCmd, txCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect resolves the endpoint the same way otsd picks its listen
// address, unless --rpc is given.
func connect(cmd *cobra.Command, _ []string) error {
	if rpcURL == "" {
		cfg, err := config.LoadFromFile(dataDir, config.NetworkType(strings.ToLower(network)))
		if err != nil {
			return err
		}
		rpcURL = "http://" + cfg.RPC.Addr + ":" + strconv.Itoa(cfg.RPC.Port) + "/"
	}
	client = rpcclient.New(rpcURL)
	return nil
}

// call runs an RPC method, canceled on interrupt.
func call(cmd *cobra.Command, method string, params, result interface{}) error {
	return client.CallContext(cmd.Context(), method, params, result)
}

// ── Output helpers ──────────────────────────────────────────────────────

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// output prints v as JSON with --json, otherwise calls text.
func output(v interface{}, text func()) error {
	if jsonOutput {
		return printJSON(v)
	}
	text()
	return nil
}

// ── Input helpers ───────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// readNewPassword asks for a password twice.
func readNewPassword() ([]byte, error) {
	pw, err := readPassword("Password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	if string(pw) != string(confirm) {
		return nil, fmt.Errorf("passwords do not match")
	}
	return pw, nil
}

// readSecretLine reads one line from stdin, hidden when stdin is a
// terminal.
func readSecretLine(prompt string) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		b, err := readPassword(prompt)
		return string(b), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readBlob loads an envelope from a file, or stdin for "-".
func readBlob(path string) (json.RawMessage, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	data = []byte(strings.TrimSpace(string(data)))
	if json.Valid(data) {
		return json.RawMessage(data), nil
	}
	// Not JSON: pass it through as a string and let the signer reject it.
	quoted, err := json.Marshal(string(data))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(quoted), nil
}

// writeBlob writes an envelope to path, or stdout when path is empty.
func writeBlob(path string, blob json.RawMessage) error {
	if path == "" {
		fmt.Println(string(blob))
		return nil
	}
	if err := os.WriteFile(path, append(blob, '\n'), 0600); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}
