package config

import "net/url"

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Wallet
	out.Wallet = cfg.Wallet
	redact(&out.Wallet.PrivateKey)
	redact(&out.Wallet.KeyPassword)

	// Chain URLs can embed gateway API keys.
	if cfg.Chains != nil {
		out.Chains = make([]ChainConfig, len(cfg.Chains))
		copy(out.Chains, cfg.Chains)
		for i := range out.Chains {
			out.Chains[i].SubgraphURL = redactURL(out.Chains[i].SubgraphURL)
			out.Chains[i].RPCURL = redactURL(out.Chains[i].RPCURL)
		}
	}
	out.Court.SubgraphURL = redactURL(cfg.Court.SubgraphURL)
	out.Court.RPCURL = redactURL(cfg.Court.RPCURL)

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// Server
	out.Server = cfg.Server
	redact(&out.Server.APIKey)

	// Notify
	out.Notify = cfg.Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}

// redactURL keeps the scheme and host of a URL and hides the path, which is
// where hosted gateways put their keys.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Path == "" || u.Path == "/" {
		return raw
	}
	return u.Scheme + "://" + u.Host + "/" + redacted
}
