package config

import "time"

// Streaming formats produced by the development server.
const (
	FormatNDJSON = "ndjson"
	FormatSSE    = "sse"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Event publishers.
const (
	EventsNone  = "none"
	EventsKafka = "kafka"
)

const (
	defaultClientTarget = "http://localhost:8080"
	defaultClientPath   = "/api/chat"
	defaultModel        = "gpt-4o-mini"
	defaultTimeout      = "5m"
	defaultChunkSize    = 4096

	defaultServerListen = ":8080"
	defaultTokenDelay   = "30ms"
	defaultRateLimit    = 5
	defaultBurst        = 10

	defaultEventsTopic = "chatstream.messages"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			Target:    defaultClientTarget,
			Path:      defaultClientPath,
			Model:     defaultModel,
			Timeout:   defaultTimeout,
			ChunkSize: defaultChunkSize,
		},
		Server: ServerConfig{
			Listen:     defaultServerListen,
			Format:     FormatNDJSON,
			TokenDelay: defaultTokenDelay,
			RateLimit:  defaultRateLimit,
			Burst:      defaultBurst,
		},
		Storage: StorageConfig{
			Driver: StorageSQLite,
		},
		Events: EventsConfig{
			Provider: EventsNone,
			Topic:    defaultEventsTopic,
		},
		Models: DefaultModels(),
	}
}

// DefaultModels is the catalog offered when config.toml defines none.
func DefaultModels() []ModelConfig {
	return []ModelConfig{
		{ID: "gpt-4o-mini", Name: "GPT-4o mini", Description: "Fast, inexpensive general model"},
		{ID: "gpt-4o", Name: "GPT-4o", Description: "Flagship multimodal model"},
		{ID: "llama3.2", Name: "Llama 3.2", Description: "Local model served by Ollama"},
		{ID: "echo", Name: "Echo", Description: "Development server echo model"},
	}
}

// TimeoutDuration parses Client.Timeout, returning 0 for an unset value.
func (c ClientConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration(c.Timeout)
}

// TokenDelayDuration parses Server.TokenDelay, returning 0 for an unset value.
func (s ServerConfig) TokenDelayDuration() (time.Duration, error) {
	return parseDuration(s.TokenDelay)
}

func parseDuration(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	return time.ParseDuration(v)
}
