// Package config defines the top-level configuration for oracleview and
// provides validation helpers.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ORACLEVIEW_* environment variables.
type Config struct {
	Wallet   WalletConfig   `toml:"wallet"`
	Chains   []ChainConfig  `toml:"chains"`
	Court    CourtConfig    `toml:"court"`
	Kleros   KlerosConfig   `toml:"kleros"`
	Bridges  BridgesConfig  `toml:"bridges"`
	Resolver ResolverConfig `toml:"resolver"`
	Redis    RedisConfig    `toml:"redis"`
	Watcher  WatcherConfig  `toml:"watcher"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// WalletConfig holds the key the dashboard identifies as. Nothing is ever
// signed with it; only the derived address is shown.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	// KeyPassword is optional: without it the address recorded in the key
	// file is shown and the key stays encrypted.
	KeyPassword string `toml:"key_password"`
	// DemoAddress is shown as the connected wallet when no key is configured.
	DemoAddress string `toml:"demo_address"`
}

// ChainConfig describes one network whose questions are listed.
type ChainConfig struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	ChainID     int64  `toml:"chain_id"`
	SubgraphURL string `toml:"subgraph_url"`
	RPCURL      string `toml:"rpc_url"`
	Currency    string `toml:"currency"`
}

// CourtConfig holds the court indexer endpoint and the static court summary.
type CourtConfig struct {
	SubgraphURL string `toml:"subgraph_url"`
	ChainID     int64  `toml:"chain_id"`
	RPCURL      string `toml:"rpc_url"`
	// ArbitratorAddress is the court contract passed to the evidence display.
	ArbitratorAddress string `toml:"arbitrator_address"`
	Name              string `toml:"name"`
	Description       string `toml:"description"`
	PolicyURI         string `toml:"policy_uri"`
}

// KlerosConfig holds the content gateway endpoints.
type KlerosConfig struct {
	APIURL          string `toml:"api_url"`
	CDNURL          string `toml:"cdn_url"`
	IPFSURL         string `toml:"ipfs_url"`
	EvidenceWorkers int    `toml:"evidence_workers"`
}

// BridgesConfig points at the bridge registry. An empty path uses the
// registry compiled into the binary.
type BridgesConfig struct {
	Path string `toml:"path"`
}

// ResolverConfig tunes the eth_getLogs scans used to find dispute IDs.
type ResolverConfig struct {
	FromBlock uint64 `toml:"from_block"`
	// BlockRange splits the scan into windows of this many blocks, oldest
	// first. Zero scans the whole range in one request.
	BlockRange uint64   `toml:"block_range"`
	Timeout    duration `toml:"timeout"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"pool_size"`
	MaxRetries   int    `toml:"max_retries"`
	TLSEnabled   bool   `toml:"tls_enabled"`
	StreamMaxLen int    `toml:"stream_max_len"`
}

// WatcherConfig holds the background question poller parameters.
type WatcherConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval duration `toml:"interval"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey guards the mutating endpoints when set.
	APIKey string `toml:"api_key"`
	// RateLimit is the number of API requests a client may make per
	// RateWindow. Zero disables rate limiting.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

const subgraphGateway = "https://gateway-arbitrum.network.thegraph.com/api/73380b22a17017c081123ec9c0e34677/subgraphs/id/"

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Wallet: WalletConfig{
			DemoAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		},
		Chains: []ChainConfig{
			{
				ID:          "gnosis",
				Name:        "Gnosis",
				ChainID:     100,
				SubgraphURL: subgraphGateway + "E7ymrCnNcQdAAgLbdFWzGE5mvr5Mb5T9VfT43FqA7bNh",
				RPCURL:      "https://rpc.ankr.com/gnosis",
				Currency:    "xDAI",
			},
			{
				ID:          "ethereum",
				Name:        "Ethereum",
				ChainID:     1,
				SubgraphURL: subgraphGateway + "AGLkTv6eaW7JhQsLgB6SMzo43uM9V12ZoNkjAw7uijra",
				RPCURL:      "https://rpc.ankr.com/eth",
				Currency:    "ETH",
			},
			{
				ID:          "polygon",
				Name:        "Polygon",
				ChainID:     137,
				SubgraphURL: subgraphGateway + "AWx6jkeKZ3xKRzkrzgfCAMPT7d6Jc3AMcqB8koN3QEqE",
				RPCURL:      "https://rpc.ankr.com/polygon",
				Currency:    "POL",
			},
		},
		Court: CourtConfig{
			SubgraphURL:       "https://gateway.thegraph.com/api/73380b22a17017c081123ec9c0e34677/subgraphs/id/Edg8H3AioJtYaih5PtfJhRNaERS6bU1XMn9dfPjEr5ao",
			ChainID:           1,
			RPCURL:            "https://rpc.ankr.com/eth",
			ArbitratorAddress: "0x988b3A538b618C7A603e1c11Ab82Cd16dbE28069",
			Name:              "General Court",
			Description:       "**Court Purpose**\n\nThe General court exists as the top court in the hierarchy. All appeals made in subcourts will make their way to the General Court.",
			PolicyURI:         "/ipfs/Qmd1TMEbtic3TSonu5dfqa5k3aSrjxRGY8oJH3ruGgazRB",
		},
		Kleros: KlerosConfig{
			APIURL:          "https://kleros-api.netlify.app/.netlify/functions",
			CDNURL:          "https://cdn.kleros.link",
			IPFSURL:         "https://ipfs.kleros.io",
			EvidenceWorkers: 4,
		},
		Resolver: ResolverConfig{
			FromBlock:  0,
			BlockRange: 0,
			Timeout:    duration{30 * time.Second},
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     10,
			MaxRetries:   3,
			TLSEnabled:   false,
			StreamMaxLen: 1000,
		},
		Watcher: WatcherConfig{
			Enabled:  true,
			Interval: duration{2 * time.Minute},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"arbitration_requested", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"watcher": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, watcher, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Chains
	if len(c.Chains) == 0 {
		errs = append(errs, "chains: at least one chain must be configured")
	}
	seen := make(map[string]bool, len(c.Chains))
	for i, ch := range c.Chains {
		label := fmt.Sprintf("chains[%d]", i)
		if ch.ID == "" {
			errs = append(errs, label+": id must not be empty")
		} else {
			label = "chains." + ch.ID
			if seen[ch.ID] {
				errs = append(errs, label+": duplicate id")
			}
			seen[ch.ID] = true
		}
		if !validURL(ch.SubgraphURL) {
			errs = append(errs, label+": subgraph_url must be an absolute http(s) URL")
		}
		if !validURL(ch.RPCURL) {
			errs = append(errs, label+": rpc_url must be an absolute http(s) URL")
		}
		if ch.ChainID <= 0 {
			errs = append(errs, label+": chain_id must be positive")
		}
	}

	// Court
	if !validURL(c.Court.SubgraphURL) {
		errs = append(errs, "court: subgraph_url must be an absolute http(s) URL")
	}
	if !validURL(c.Court.RPCURL) {
		errs = append(errs, "court: rpc_url must be an absolute http(s) URL")
	}

	// Kleros
	if !validURL(c.Kleros.APIURL) {
		errs = append(errs, "kleros: api_url must be an absolute http(s) URL")
	}
	if !validURL(c.Kleros.CDNURL) {
		errs = append(errs, "kleros: cdn_url must be an absolute http(s) URL")
	}
	if c.Kleros.EvidenceWorkers < 1 {
		errs = append(errs, "kleros: evidence_workers must be >= 1")
	}

	// Resolver
	if c.Resolver.Timeout.Duration <= 0 {
		errs = append(errs, "resolver: timeout must be > 0")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Watcher
	if c.Watcher.Enabled && c.Watcher.Interval.Duration < 10*time.Second {
		errs = append(errs, "watcher: interval must be at least 10s")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
