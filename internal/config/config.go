// Package config loads tarjim settings from tarjim.yaml, TARJIM_* environment
// variables and bound command-line flags, in viper's usual precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "TARJIM"

type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Engine EngineConfig `mapstructure:"engine"`
	Chunk  ChunkConfig  `mapstructure:"chunk"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Jobs   JobsConfig   `mapstructure:"jobs"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Server ServerConfig `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type EngineConfig struct {
	Services        []string      `mapstructure:"services"`
	Credentials     string        `mapstructure:"credentials"`
	ProjectID       string        `mapstructure:"project_id"`
	OllamaURL       string        `mapstructure:"ollama_url"`
	OllamaModel     string        `mapstructure:"ollama_model"`
	OpenRouterKey   string        `mapstructure:"openrouter_key"`
	OpenRouterModel string        `mapstructure:"openrouter_model"`
	OpenAIKey       string        `mapstructure:"openai_key"`
	OpenAIURL       string        `mapstructure:"openai_url"`
	OpenAIModel     string        `mapstructure:"openai_model"`
	SystranKey      string        `mapstructure:"systran_key"`
	MyMemoryEmail   string        `mapstructure:"mymemory_email"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Breaker         bool          `mapstructure:"breaker"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
	Validate        bool          `mapstructure:"validate"`
}

type ChunkConfig struct {
	MaxLength int `mapstructure:"max_length"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DB      string `mapstructure:"db"`
}

type JobsConfig struct {
	Workers        int     `mapstructure:"workers"`
	QueueSize      int     `mapstructure:"queue_size"`
	AdmissionRate  float64 `mapstructure:"admission_rate"`
	AdmissionBurst int     `mapstructure:"admission_burst"`
	// Store is one of memory, sqlite or redis.
	Store     string        `mapstructure:"store"`
	OutputDir string        `mapstructure:"output_dir"`
	UploadDir string        `mapstructure:"upload_dir"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadMB     int64         `mapstructure:"max_upload_mb"`
}

// SetDefaults registers every key so that environment variables resolve
// even when no config file mentions them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("engine.services", []string{"mymemory"})
	v.SetDefault("engine.credentials", "")
	v.SetDefault("engine.project_id", "")
	v.SetDefault("engine.ollama_url", "http://localhost:11434")
	v.SetDefault("engine.ollama_model", "")
	v.SetDefault("engine.openrouter_key", "")
	v.SetDefault("engine.openrouter_model", "")
	v.SetDefault("engine.openai_key", "")
	v.SetDefault("engine.openai_url", "")
	v.SetDefault("engine.openai_model", "")
	v.SetDefault("engine.systran_key", "")
	v.SetDefault("engine.mymemory_email", "")
	v.SetDefault("engine.timeout", 30*time.Second)
	v.SetDefault("engine.breaker", true)
	v.SetDefault("engine.breaker_failures", 5)
	v.SetDefault("engine.breaker_timeout", 30*time.Second)
	v.SetDefault("engine.validate", false)

	v.SetDefault("chunk.max_length", 512)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.db", "./data/tarjim.db")

	v.SetDefault("jobs.workers", 2)
	v.SetDefault("jobs.queue_size", 64)
	v.SetDefault("jobs.admission_rate", 0.0)
	v.SetDefault("jobs.admission_burst", 1)
	v.SetDefault("jobs.store", "memory")
	v.SetDefault("jobs.output_dir", "translated_files")
	v.SetDefault("jobs.upload_dir", "")
	v.SetDefault("jobs.ttl", time.Duration(0))

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_mb", 32)
}

// Load reads cfgFile, or tarjim.yaml from the working directory or
// $HOME/.config/tarjim when cfgFile is empty. A missing default file is not
// an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("tarjim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "tarjim"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Jobs.Store {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("jobs.store must be memory, sqlite or redis, got %q", c.Jobs.Store)
	}
	if c.Jobs.Workers < 1 {
		return fmt.Errorf("jobs.workers must be at least 1, got %d", c.Jobs.Workers)
	}
	if c.Jobs.QueueSize < 1 {
		return fmt.Errorf("jobs.queue_size must be at least 1, got %d", c.Jobs.QueueSize)
	}
	if c.Chunk.MaxLength < 1 {
		return fmt.Errorf("chunk.max_length must be positive, got %d", c.Chunk.MaxLength)
	}
	if len(c.Engine.Services) == 0 {
		return errors.New("engine.services must name at least one service")
	}
	return nil
}
