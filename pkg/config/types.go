package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent chatstream configuration stored as
// config.toml in the .chatstream/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Client  ClientConfig  `toml:"client"`
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Events  EventsConfig  `toml:"events"`
	Models  []ModelConfig `toml:"models,omitempty"`
}

// ClientConfig holds settings for commands that stream completions from a
// chat endpoint (chatstream chat, send, tui).
type ClientConfig struct {
	// Target is the base URL of the chat server (scheme + host + port).
	Target string `toml:"target,omitempty"`

	// Path is the completion endpoint path appended to Target.
	Path string `toml:"path,omitempty"`

	// Model is the model requested when none is selected.
	Model string `toml:"model,omitempty"`

	// Timeout bounds a whole streamed response, as a Go duration string.
	Timeout string `toml:"timeout,omitempty"`

	// ChunkSize is the read size used against the response body.
	ChunkSize uint `toml:"chunk_size,omitempty"`

	// DoneSentinel ends a stream at "data: [DONE]" instead of at
	// transport close.
	DoneSentinel bool `toml:"done_sentinel,omitempty"`
}

// ServerConfig holds settings for the development completion server.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`

	// Format is the default streaming format: "ndjson" or "sse".
	Format string `toml:"format,omitempty"`

	// TokenDelay is the pause between streamed tokens, as a Go duration string.
	TokenDelay string `toml:"token_delay,omitempty"`

	// RateLimit is the sustained requests per second allowed per client.
	RateLimit float64 `toml:"rate_limit,omitempty"`

	// Burst is the request burst allowed per client.
	Burst uint `toml:"burst,omitempty"`
}

// StorageConfig selects the session store.
type StorageConfig struct {
	// Driver is one of "memory", "sqlite" or "postgres".
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventsConfig selects the publisher for finalized message events.
type EventsConfig struct {
	// Provider is "none" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma separated list of Kafka bootstrap addresses.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// BrokerList splits Brokers into addresses.
func (e EventsConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// ModelConfig is one entry of the model catalog.
type ModelConfig struct {
	ID          string `toml:"id"`
	Name        string `toml:"name,omitempty"`
	Description string `toml:"description,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.target": stringKey(func(c *Config) *string { return &c.Client.Target }),
	"client.path":   stringKey(func(c *Config) *string { return &c.Client.Path }),
	"client.model":  stringKey(func(c *Config) *string { return &c.Client.Model }),
	"client.timeout": {
		get: func(c *Config) string { return c.Client.Timeout },
		set: func(c *Config, v string) error {
			if _, err := parseDuration(v); err != nil {
				return fmt.Errorf("invalid value for client.timeout: %w", err)
			}
			c.Client.Timeout = v
			return nil
		},
	},
	"client.chunk_size": uintKey("client.chunk_size", func(c *Config) *uint { return &c.Client.ChunkSize }),
	"client.done_sentinel": {
		get: func(c *Config) string { return strconv.FormatBool(c.Client.DoneSentinel) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for client.done_sentinel: %w", err)
			}
			c.Client.DoneSentinel = b
			return nil
		},
	},
	"server.listen": stringKey(func(c *Config) *string { return &c.Server.Listen }),
	"server.format": {
		get: func(c *Config) string { return c.Server.Format },
		set: func(c *Config, v string) error {
			if v != FormatNDJSON && v != FormatSSE {
				return fmt.Errorf("invalid value for server.format: %q (expected %s or %s)", v, FormatNDJSON, FormatSSE)
			}
			c.Server.Format = v
			return nil
		},
	},
	"server.token_delay": {
		get: func(c *Config) string { return c.Server.TokenDelay },
		set: func(c *Config, v string) error {
			if _, err := parseDuration(v); err != nil {
				return fmt.Errorf("invalid value for server.token_delay: %w", err)
			}
			c.Server.TokenDelay = v
			return nil
		},
	},
	"server.rate_limit": {
		get: func(c *Config) string {
			if c.Server.RateLimit == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Server.RateLimit, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for server.rate_limit: %w", err)
			}
			c.Server.RateLimit = f
			return nil
		},
	},
	"server.burst": uintKey("server.burst", func(c *Config) *uint { return &c.Server.Burst }),
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error {
			switch v {
			case StorageMemory, StorageSQLite, StoragePostgres:
				c.Storage.Driver = v
				return nil
			default:
				return fmt.Errorf("invalid value for storage.driver: %q", v)
			}
		},
	},
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error {
			if v != EventsNone && v != EventsKafka {
				return fmt.Errorf("invalid value for events.provider: %q", v)
			}
			c.Events.Provider = v
			return nil
		},
	},
	"events.brokers": stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":   stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
