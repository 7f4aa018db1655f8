package types

import (
	"fmt"
	"strings"
)

// Network identifies the ledger network an address or seed belongs to.
type Network uint8

const (
	NetworkMain Network = iota
	NetworkTest
	NetworkStage
)

// Networks lists every supported network in declaration order.
var Networks = []Network{NetworkMain, NetworkTest, NetworkStage}

// String returns the short network name.
func (n Network) String() string {
	switch n {
	case NetworkMain:
		return "main"
	case NetworkTest:
		return "test"
	case NetworkStage:
		return "stage"
	default:
		return fmt.Sprintf("network(%d)", uint8(n))
	}
}

// Valid reports whether n is a known network.
func (n Network) Valid() bool {
	return n <= NetworkStage
}

// ParseNetwork accepts "main", "mainnet", "test", "testnet", "stage" and
// "stagenet" (case-insensitive).
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "main", "mainnet", "":
		return NetworkMain, nil
	case "test", "testnet":
		return NetworkTest, nil
	case "stage", "stagenet":
		return NetworkStage, nil
	default:
		return NetworkMain, fmt.Errorf("unknown network %q", s)
	}
}
