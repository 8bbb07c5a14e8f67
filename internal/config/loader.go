package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ORACLEVIEW_* environment variable overrides, and
// returns the final Config. A missing file is not an error: the defaults are
// complete enough to run against the public endpoints. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ORACLEVIEW_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "ORACLEVIEW_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "ORACLEVIEW_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "ORACLEVIEW_WALLET_KEY_PASSWORD")
	setStr(&cfg.Wallet.DemoAddress, "ORACLEVIEW_WALLET_DEMO_ADDRESS")

	// ── Chains ── (ORACLEVIEW_CHAIN_<ID>_*)
	for i := range cfg.Chains {
		prefix := "ORACLEVIEW_CHAIN_" + envKey(cfg.Chains[i].ID) + "_"
		setStr(&cfg.Chains[i].SubgraphURL, prefix+"SUBGRAPH_URL")
		setStr(&cfg.Chains[i].RPCURL, prefix+"RPC_URL")
	}

	// ── Court ──
	setStr(&cfg.Court.SubgraphURL, "ORACLEVIEW_COURT_SUBGRAPH_URL")
	setInt64(&cfg.Court.ChainID, "ORACLEVIEW_COURT_CHAIN_ID")
	setStr(&cfg.Court.RPCURL, "ORACLEVIEW_COURT_RPC_URL")
	setStr(&cfg.Court.ArbitratorAddress, "ORACLEVIEW_COURT_ARBITRATOR_ADDRESS")

	// ── Kleros ──
	setStr(&cfg.Kleros.APIURL, "ORACLEVIEW_KLEROS_API_URL")
	setStr(&cfg.Kleros.CDNURL, "ORACLEVIEW_KLEROS_CDN_URL")
	setStr(&cfg.Kleros.IPFSURL, "ORACLEVIEW_KLEROS_IPFS_URL")
	setInt(&cfg.Kleros.EvidenceWorkers, "ORACLEVIEW_KLEROS_EVIDENCE_WORKERS")

	// ── Bridges ──
	setStr(&cfg.Bridges.Path, "ORACLEVIEW_BRIDGES_PATH")

	// ── Resolver ──
	setUint64(&cfg.Resolver.FromBlock, "ORACLEVIEW_RESOLVER_FROM_BLOCK")
	setUint64(&cfg.Resolver.BlockRange, "ORACLEVIEW_RESOLVER_BLOCK_RANGE")
	setDuration(&cfg.Resolver.Timeout, "ORACLEVIEW_RESOLVER_TIMEOUT")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ORACLEVIEW_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ORACLEVIEW_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ORACLEVIEW_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ORACLEVIEW_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ORACLEVIEW_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ORACLEVIEW_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.StreamMaxLen, "ORACLEVIEW_REDIS_STREAM_MAX_LEN")

	// ── Watcher ──
	setBool(&cfg.Watcher.Enabled, "ORACLEVIEW_WATCHER_ENABLED")
	setDuration(&cfg.Watcher.Interval, "ORACLEVIEW_WATCHER_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ORACLEVIEW_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ORACLEVIEW_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ORACLEVIEW_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ORACLEVIEW_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "ORACLEVIEW_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "ORACLEVIEW_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ORACLEVIEW_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ORACLEVIEW_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ORACLEVIEW_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ORACLEVIEW_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ORACLEVIEW_MODE")
	setStr(&cfg.LogLevel, "ORACLEVIEW_LOG_LEVEL")
}

// envKey upper-cases id and replaces anything that is not a letter or digit
// with an underscore.
func envKey(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, id)
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
