package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"stakeVault/internal/model"
	"stakeVault/internal/policy"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Store         string `validate:"oneof=memory file postgres"`
	StateFile     string `validate:"required_if=Store file"`
	PGDSN         string `validate:"required_if=Store postgres"`
	Journal       string
	LogLevel      string
	Key           string
	Now           int64
	Rates         model.Rates
	Thresholds    policy.Thresholds
	BalanceSource string `validate:"oneof=book chain"`
	RPCURL        string `validate:"required_if=BalanceSource chain"`
	Token         string
	Listen        string
	MaxRetries    int `validate:"gte=0"`
	RetryBackoff  time.Duration
}

var validate = validator.New()

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rates := policy.DefaultRates()
	thresholds := policy.DefaultThresholds()
	v.SetDefault("store", "file")
	v.SetDefault("state-file", "./data/vault.json")
	v.SetDefault("journal", "./data/events.jsonl")
	v.SetDefault("log-level", "info")
	v.SetDefault("rate-30", rates.Days30)
	v.SetDefault("rate-60", rates.Days60)
	v.SetDefault("rate-90", rates.Days90)
	v.SetDefault("tier-basic", thresholds.Basic)
	v.SetDefault("tier-pro", thresholds.Pro)
	v.SetDefault("tier-elite", thresholds.Elite)
	v.SetDefault("balance-source", "book")
	v.SetDefault("listen", ":8080")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	now, err := ParseTimestamp(v.GetString("now"))
	if err != nil {
		return Config{}, fmt.Errorf("parse now: %w", err)
	}

	cfg := Config{
		Store:     strings.ToLower(v.GetString("store")),
		StateFile: v.GetString("state-file"),
		PGDSN:     v.GetString("pg-dsn"),
		Journal:   v.GetString("journal"),
		LogLevel:  v.GetString("log-level"),
		Key:       v.GetString("key"),
		Now:       now,
		Rates: model.Rates{
			Days30: v.GetUint32("rate-30"),
			Days60: v.GetUint32("rate-60"),
			Days90: v.GetUint32("rate-90"),
		},
		Thresholds: policy.Thresholds{
			Basic: v.GetUint64("tier-basic"),
			Pro:   v.GetUint64("tier-pro"),
			Elite: v.GetUint64("tier-elite"),
		},
		BalanceSource: strings.ToLower(v.GetString("balance-source")),
		RPCURL:        v.GetString("rpc"),
		Token:         v.GetString("token"),
		Listen:        v.GetString("listen"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option combinations and the rate and tier tables.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := policy.ValidateRates(c.Rates); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
