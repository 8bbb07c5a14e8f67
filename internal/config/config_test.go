package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.LogLevel = "verbose"
	cfg.Chains = append(cfg.Chains, ChainConfig{ID: "gnosis", SubgraphURL: "not a url", RPCURL: "https://rpc", ChainID: 100})
	cfg.Server.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		`unknown mode "trade"`,
		`unknown log_level "verbose"`,
		"chains.gnosis: duplicate id",
		"chains.gnosis: subgraph_url",
		"server: port must be 1-65535",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "server"
log_level = "debug"

[server]
port = 9100

[watcher]
interval = "45s"

[[chains]]
id = "gnosis"
name = "Gnosis"
chain_id = 100
subgraph_url = "https://example.com/subgraphs/gnosis"
rpc_url = "https://example.com/rpc/gnosis"
currency = "xDAI"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ORACLEVIEW_CHAIN_GNOSIS_RPC_URL", "https://override.example.com/rpc")
	t.Setenv("ORACLEVIEW_SERVER_RATE_LIMIT", "10")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "server" || cfg.LogLevel != "debug" {
		t.Errorf("top-level fields not read: mode=%q log_level=%q", cfg.Mode, cfg.LogLevel)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("server.port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Watcher.Interval.Duration != 45*time.Second {
		t.Errorf("watcher.interval = %v, want 45s", cfg.Watcher.Interval.Duration)
	}
	if len(cfg.Chains) != 1 {
		t.Fatalf("chains = %d, want 1", len(cfg.Chains))
	}
	if got := cfg.Chains[0].RPCURL; got != "https://override.example.com/rpc" {
		t.Errorf("chain rpc_url = %q, want env override", got)
	}
	if cfg.Server.RateLimit != 10 {
		t.Errorf("server.rate_limit = %d, want 10", cfg.Server.RateLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Chains) == 0 || cfg.Chains[0].ID != "gnosis" {
		t.Errorf("chains = %+v, want the default gnosis chain first", cfg.Chains)
	}
}

func TestValidateAcceptsKeyFileWithoutPassword(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.EncryptedKeyPath = "wallet.key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("key file without password should validate: %v", err)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "deadbeef"
	cfg.Server.APIKey = "secret"
	cfg.Notify.TelegramToken = "token"

	out := RedactedConfig(&cfg)
	if out.Wallet.PrivateKey != redacted || out.Server.APIKey != redacted || out.Notify.TelegramToken != redacted {
		t.Errorf("secrets not redacted: %+v", out)
	}
	if strings.Contains(out.Chains[0].SubgraphURL, "subgraphs") {
		t.Errorf("subgraph path should be hidden, got %q", out.Chains[0].SubgraphURL)
	}
	if cfg.Wallet.PrivateKey != "deadbeef" || !strings.Contains(cfg.Chains[0].SubgraphURL, "subgraphs") {
		t.Error("original config was modified")
	}
}

func TestLoadBridges(t *testing.T) {
	bridges, err := LoadBridges("")
	if err != nil {
		t.Fatalf("embedded bridges: %v", err)
	}
	if len(bridges) == 0 {
		t.Fatal("embedded registry is empty")
	}

	_, err = ParseBridges([]byte(`
bridges:
  - home_chain: gnosis
    home_proxy: "0x123"
    foreign_proxy: "0x29f39de98d750eb77b5fafb31b2837f079fce222"
`))
	if err == nil {
		t.Fatal("expected error for malformed bridge")
	}
	for _, want := range []string{"home_proxy", "foreign_chain is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}
