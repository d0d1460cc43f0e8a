package types

import "time"

// BusConfig holds settings for the entity event bus.
type BusConfig struct {
	// IdleTimeout is how long the bus waits after the last qualifying
	// event before flushing with an idle trigger (default 4s).
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// EngineConfig holds settings for the relationship-extraction engine.
type EngineConfig struct {
	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the engine API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint. Empty uses the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// StoreConfig holds settings for the SQLite-backed registry and span cache.
type StoreConfig struct {
	// DataDir is the directory holding graph.db and spans.db.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// CoordinatorConfig holds settings for the scan coordinator.
type CoordinatorConfig struct {
	// OpenDebounce is the window within which a repeated full-document
	// scan for the same document is skipped (default 1s).
	OpenDebounce time.Duration `json:"open_debounce" yaml:"open_debounce"`

	Bus BusConfig `json:"bus" yaml:"bus"`
}

// Config is the root configuration loaded by the CLI.
type Config struct {
	Engine      EngineConfig      `json:"engine" yaml:"engine"`
	Store       StoreConfig       `json:"store" yaml:"store"`
	Coordinator CoordinatorConfig `json:"coordinator" yaml:"coordinator"`
}
