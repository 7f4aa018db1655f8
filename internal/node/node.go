// Package node provides a reusable offline signer that can be embedded in
// any binary (daemon, tests, etc.).
package node

import (
	"fmt"
	"strconv"

	"github.com/Klingon-tech/ots/config"
	klog "github.com/Klingon-tech/ots/internal/log"
	"github.com/Klingon-tech/ots/internal/ots"
	"github.com/Klingon-tech/ots/internal/rpc"
	"github.com/Klingon-tech/ots/internal/storage"
	"github.com/Klingon-tech/ots/internal/wallet"
	"github.com/Klingon-tech/ots/pkg/types"
	"github.com/rs/zerolog"
)

// Node is a fully-initialized signer.
type Node struct {
	cfg     *config.Config
	logger  zerolog.Logger
	network types.Network

	// Core
	api *ots.OTS
	db  storage.DB // nil unless the jar is persisted

	// RPC
	rpcServer *rpc.Server
}

// New creates and initializes a new Node. It performs all setup steps
// (logger, settings, storage, RPC) but does not start serving. Call Start()
// for that.
func New(cfg *config.Config) (*Node, error) {
	// ── 1. Init logger ──────────────────────────────────────────────
	logFile, err := logPath(cfg)
	if err != nil {
		return nil, err
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	// ── 2. Settings ─────────────────────────────────────────────────
	network, err := cfg.NetworkID()
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, fmt.Errorf("building settings: %w", err)
	}
	maxAccount, maxIndex := settings.Depth()

	logger.Info().
		Str("version", ots.Version).
		Str("network", network.String()).
		Uint32("accounts", maxAccount).
		Uint32("indices", maxIndex).
		Bool("entropy_gate", cfg.Entropy.Enforce).
		Msg("Starting OTS signer")

	n := &Node{
		cfg:     cfg,
		logger:  logger,
		network: network,
		api:     ots.New(settings),
	}

	// ── 3. Keystore ─────────────────────────────────────────────────
	if cfg.Jar.Persist {
		path, err := keystorePath(cfg)
		if err != nil {
			return nil, err
		}
		db, err := storage.NewBadger(path)
		if err != nil {
			return nil, err
		}
		n.db = db
		logger.Info().Str("path", path).Msg("Keystore opened")
	}

	// ── 4. RPC ──────────────────────────────────────────────────────
	if cfg.RPC.Enabled {
		addr := cfg.RPC.Addr + ":" + strconv.Itoa(cfg.RPC.Port)
		srv := rpc.New(addr, n.api, cfg.RPC)
		srv.SetNetwork(network)
		if n.db != nil {
			srv.SetKeystore(wallet.NewKeystore(n.db), wallet.DefaultParams())
			srv.SetSignLog(rpc.NewSignLog(n.db))
		}
		n.rpcServer = srv
	}

	return n, nil
}

// Start begins serving RPC requests.
func (n *Node) Start() error {
	if n.rpcServer == nil {
		return fmt.Errorf("rpc is disabled; nothing to serve")
	}
	if err := n.rpcServer.Start(); err != nil {
		return err
	}

	n.logger.Info().
		Str("addr", n.rpcServer.Addr()).
		Bool("persist", n.db != nil).
		Msg("Signer started successfully")
	return nil
}

// Stop performs graceful shutdown in reverse order. Seeds left in the jar
// are wiped.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		if err := n.rpcServer.Stop(); err != nil {
			n.logger.Warn().Err(err).Msg("RPC shutdown")
		}
	}

	seeds := n.api.Jar().Count()
	n.api.Jar().Clear()

	if n.db != nil {
		n.db.Close()
	}

	n.logger.Info().Int("wiped", seeds).Msg("Goodbye!")
}

// API returns the facade served by the node.
func (n *Node) API() *ots.OTS {
	return n.api
}

// Network returns the default network of new seeds.
func (n *Node) Network() types.Network {
	return n.network
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}
