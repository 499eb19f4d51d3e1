package config

import (
	"fmt"
	"strings"

	"github.com/giatha0/basee/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Chain   ChainConfig   `mapstructure:"chain"`
	Wallet  WalletConfig  `mapstructure:"wallet"`
	Trade   TradeConfig   `mapstructure:"trade"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Zerox   ZeroxConfig   `mapstructure:"zerox"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

type ChainConfig struct {
	RPCURL      string `mapstructure:"rpc_url"`
	Network     string `mapstructure:"network"`  // webhook network tag, e.g. BASE_MAINNET
	ChainID     int64  `mapstructure:"chain_id"` // 8453 for Base
	ExplorerURL string `mapstructure:"explorer_url"`
}

type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
}

type TradeConfig struct {
	TargetWallet    string `mapstructure:"target_wallet"`
	BuyAmountETH    string `mapstructure:"buy_amount_eth"`
	SlippageBps     int    `mapstructure:"slippage_bps"`
	MaxFeePerGas    string `mapstructure:"max_fee_per_gas"`     // wei, flat
	MaxPriorityFee  string `mapstructure:"max_priority_fee"`    // wei, flat
	BlacklistTokens string `mapstructure:"blacklist_tokens"`    // comma separated contract addresses
	DedupTTLSeconds int    `mapstructure:"dedup_ttl_seconds"`   // 0 means default 60s
}

type WebhookConfig struct {
	SigningKey string `mapstructure:"signing_key"` // empty disables signature verification
}

type ZeroxConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Timeout   int    `mapstructure:"timeout"`    // seconds
	RateLimit int    `mapstructure:"rate_limit"` // requests per minute
}

// Blacklist returns the lower-cased blacklisted token addresses.
func (t TradeConfig) Blacklist() []string {
	var out []string
	for _, addr := range strings.Split(t.BlacklistTokens, ",") {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func InitConfig() Config {
	return LoadConfig("./config/")
}

func LoadConfig(path string) Config {
	var config Config

	viper.SetConfigName("config.bot")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	if err := mapstructure.Decode(viper.AllSettings(), &config); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %s", err))
	}

	return config
}

func applyDefaults(c *Config) {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Chain.Network == "" {
		c.Chain.Network = "BASE_MAINNET"
	}
	if c.Chain.ChainID == 0 {
		c.Chain.ChainID = 8453
	}
	if c.Chain.ExplorerURL == "" {
		c.Chain.ExplorerURL = "https://basescan.org"
	}
	if c.Trade.BuyAmountETH == "" {
		c.Trade.BuyAmountETH = "0.0001"
	}
	if c.Trade.SlippageBps == 0 {
		c.Trade.SlippageBps = 5000
	}
	if c.Trade.MaxFeePerGas == "" {
		c.Trade.MaxFeePerGas = "200000000"
	}
	if c.Trade.MaxPriorityFee == "" {
		c.Trade.MaxPriorityFee = "50000000"
	}
	if c.Trade.DedupTTLSeconds == 0 {
		c.Trade.DedupTTLSeconds = 60
	}
	if c.Zerox.BaseURL == "" {
		c.Zerox.BaseURL = "https://api.0x.org"
	}
	if c.Zerox.Timeout == 0 {
		c.Zerox.Timeout = 3
	}
}

func (c Config) Validate() error {
	if c.Trade.TargetWallet == "" {
		return fmt.Errorf("trade.target_wallet is required")
	}
	if c.Wallet.PrivateKey == "" {
		return fmt.Errorf("wallet.private_key is required")
	}
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if c.Zerox.APIKey == "" {
		return fmt.Errorf("zerox.api_key is required")
	}
	return nil
}

func WatchConfig(config *Config) {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := InitConfig()
		*config = newConfig
		logger.SetLogLevel(config.Log.Level)
	})
}
