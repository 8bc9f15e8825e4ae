package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakeVault/internal/chain"
	"stakeVault/internal/config"
	"stakeVault/internal/host"
	"stakeVault/internal/storage"
	"stakeVault/internal/storage/file"
	"stakeVault/internal/storage/memory"
	"stakeVault/internal/storage/postgres"
)

// runtime holds everything a command needs, built from config.
type runtime struct {
	cfg      config.Config
	logger   *zap.Logger
	store    storage.Store
	pg       *postgres.Store
	chain    *chain.Client
	exec     *host.Executor
	registry *prometheus.Registry
}

func openRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	if err := rt.openStore(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	opts := host.Options{
		Rates:      cfg.Rates,
		Thresholds: cfg.Thresholds,
		Metrics:    host.NewMetrics(rt.registry),
	}
	if cfg.Now != 0 {
		now := cfg.Now
		opts.Clock = func() int64 { return now }
	}
	if cfg.Journal != "" {
		journal := storage.NewJsonlJournal(cfg.Journal)
		if last, err := journal.LastSeq(); err != nil {
			logger.Warn("read journal", zap.String("path", cfg.Journal), zap.Error(err))
		} else {
			logger.Debug("journal opened", zap.String("path", cfg.Journal), zap.Uint64("last_seq", last))
		}
		opts.Journal = journal
	}
	if cfg.BalanceSource == "chain" {
		rt.chain, err = chain.NewClient(ctx, cfg.RPCURL, chain.Options{
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		chainID, err := rt.chain.ChainID(ctx)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("get chain id: %w", err)
		}
		logger.Info("chain balance source", zap.String("rpc", cfg.RPCURL), zap.String("chain_id", chainID.String()))
		opts.Balances = rt.chain
	}

	rt.exec, err = host.NewExecutor(rt.store, opts, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) openStore(ctx context.Context) error {
	switch rt.cfg.Store {
	case "memory":
		rt.store = memory.NewStore()
	case "file":
		store, err := file.Open(rt.cfg.StateFile)
		if err != nil {
			return err
		}
		rt.store = store
	case "postgres":
		store, err := postgres.NewStore(ctx, rt.cfg.PGDSN, postgres.Options{
			MaxRetries:   rt.cfg.MaxRetries,
			RetryBackoff: rt.cfg.RetryBackoff,
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		rt.pg = store
		rt.store = store
	default:
		return fmt.Errorf("unknown store %q", rt.cfg.Store)
	}
	rt.logger.Debug("store opened", zap.String("store", rt.cfg.Store))
	return nil
}

func (rt *runtime) Close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.logger.Warn("close store", zap.Error(err))
		}
	}
	if rt.chain != nil {
		rt.chain.Close()
	}
	_ = rt.logger.Sync()
}

// signer returns the key configured with --key.
func (rt *runtime) signer() (*ecdsa.PrivateKey, error) {
	if rt.cfg.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(rt.cfg.Key, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	return key, nil
}

// submit signs ins with the configured key under the next nonce and executes it.
func (rt *runtime) submit(ctx context.Context, ins host.Instruction) (host.Receipt, error) {
	key, err := rt.signer()
	if err != nil {
		return host.Receipt{}, err
	}
	last, err := rt.exec.Nonce(ctx, crypto.PubkeyToAddress(key.PublicKey))
	if err != nil {
		return host.Receipt{}, err
	}
	env, err := host.Sign(key, last+1, ins)
	if err != nil {
		return host.Receipt{}, err
	}
	return rt.exec.Submit(ctx, env)
}

// addressFlag parses an address flag, falling back to the signer's address.
func (rt *runtime) addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	if value != "" {
		return chain.ParseAddress(value)
	}
	key, err := rt.signer()
	if err != nil {
		return common.Address{}, fmt.Errorf("--%s or --key is required", name)
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
