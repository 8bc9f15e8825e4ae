package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "stakevault",
		Short:        "Token custody staking ledger with access tiers",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("store", "file", "record store (memory, file, postgres)")
	flags.String("state-file", "./data/vault.json", "state snapshot path for the file store")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("journal", "./data/events.jsonl", "JSONL event journal path (empty disables)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("key", "", "hex private key that signs instructions")
	flags.String("now", "", "override the clock (unix seconds or RFC3339)")
	flags.Uint32("rate-30", 1000, "APY in bps for 30 day locks")
	flags.Uint32("rate-60", 1500, "APY in bps for 60 day locks")
	flags.Uint32("rate-90", 2000, "APY in bps for 90 day locks")
	flags.Uint64("tier-basic", 1_000, "minimum balance for the basic tier")
	flags.Uint64("tier-pro", 5_000, "minimum balance for the pro tier")
	flags.Uint64("tier-elite", 25_000, "minimum balance for the elite tier")
	flags.String("balance-source", "book", "holder balance source for access checks (book, chain)")
	flags.String("rpc", "", "RPC URL for the chain balance source")
	flags.Int("max-retries", 5, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")

	root.AddCommand(instructionCommands()...)
	root.AddCommand(queryCommands()...)
	root.AddCommand(adminCommands()...)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
