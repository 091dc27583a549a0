package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration. Values come from defaults, then the
// optional YAML file, then the environment, then flags.
type Config struct {
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
	NodeTimeout time.Duration `yaml:"node_timeout"`

	LLM      LLMConfig     `yaml:"llm"`
	Store    SQLConfig     `yaml:"store"`
	Database SQLConfig     `yaml:"database"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Tracing  bool          `yaml:"tracing"`
	Live     LiveConfig    `yaml:"live"`
	Archive  ArchiveConfig `yaml:"archive"`
}

// LLMConfig selects the chat model behind llm nodes.
type LLMConfig struct {
	// Provider is placeholder, openai, anthropic or google.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// SQLConfig names a database/sql driver and DSN.
type SQLConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LiveConfig points at a socket.io server that receives run progress.
type LiveConfig struct {
	URL                string `yaml:"url"`
	Namespace          string `yaml:"namespace"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// ArchiveConfig selects where finished run reports are kept.
type ArchiveConfig struct {
	// Kind is "", "file" or "minio".
	Kind      string `yaml:"kind"`
	Dir       string `yaml:"dir"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		LLM:       LLMConfig{Provider: "placeholder"},
		Store:     SQLConfig{Driver: "memory"},
		Archive:   ArchiveConfig{Region: "us-east-1", Prefix: "runs"},
	}
}

// LoadConfig builds a Config from defaults, the YAML file at path (if
// any) and the environment read through lookup.
func LoadConfig(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", key, err)
			}
			*dst = b
		}
		return nil
	}

	str("PIPELINE_LOG_LEVEL", &cfg.LogLevel)
	str("PIPELINE_LOG_FORMAT", &cfg.LogFormat)
	if v, ok := lookup("PIPELINE_NODE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PIPELINE_NODE_TIMEOUT: %w", err)
		}
		cfg.NodeTimeout = d
	}

	str("PIPELINE_LLM_PROVIDER", &cfg.LLM.Provider)
	str("PIPELINE_LLM_MODEL", &cfg.LLM.Model)
	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "openai":
			str("OPENAI_API_KEY", &cfg.LLM.APIKey)
		case "anthropic":
			str("ANTHROPIC_API_KEY", &cfg.LLM.APIKey)
		case "google":
			str("GOOGLE_API_KEY", &cfg.LLM.APIKey)
		}
	}

	str("PIPELINE_STORE_DRIVER", &cfg.Store.Driver)
	str("PIPELINE_STORE_DSN", &cfg.Store.DSN)
	str("PIPELINE_DB_DRIVER", &cfg.Database.Driver)
	str("PIPELINE_DB_DSN", &cfg.Database.DSN)
	str("PIPELINE_METRICS_ADDR", &cfg.Metrics.Addr)
	if err := boolean("PIPELINE_TRACING", &cfg.Tracing); err != nil {
		return err
	}
	str("PIPELINE_LIVE_URL", &cfg.Live.URL)
	str("PIPELINE_LIVE_NAMESPACE", &cfg.Live.Namespace)

	str("PIPELINE_ARCHIVE_KIND", &cfg.Archive.Kind)
	str("PIPELINE_ARCHIVE_DIR", &cfg.Archive.Dir)
	str("PIPELINE_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint)
	str("PIPELINE_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKey)
	str("PIPELINE_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretKey)
	str("PIPELINE_ARCHIVE_REGION", &cfg.Archive.Region)
	str("PIPELINE_ARCHIVE_BUCKET", &cfg.Archive.Bucket)
	str("PIPELINE_ARCHIVE_PREFIX", &cfg.Archive.Prefix)
	return boolean("PIPELINE_ARCHIVE_USE_SSL", &cfg.Archive.UseSSL)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be debug, info, warn or error", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", c.LogFormat)
	}
	if c.NodeTimeout < 0 {
		return errors.New("node timeout must not be negative")
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "", "placeholder":
	case "openai", "anthropic", "google":
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return fmt.Errorf("llm provider %s requires an api key", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	switch strings.ToLower(c.Store.Driver) {
	case "", "memory":
	case "sqlite", "sqlite3", "mysql":
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver %s requires a dsn", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}

	if c.Database.Driver != "" && c.Database.DSN == "" {
		return fmt.Errorf("database driver %s requires a dsn", c.Database.Driver)
	}

	switch strings.ToLower(c.Archive.Kind) {
	case "":
	case "file":
		if c.Archive.Dir == "" {
			return errors.New("file archive requires a dir")
		}
	case "minio":
		if c.Archive.Endpoint == "" || c.Archive.Bucket == "" {
			return errors.New("minio archive requires an endpoint and a bucket")
		}
	default:
		return fmt.Errorf("unknown archive kind %q", c.Archive.Kind)
	}
	return nil
}
