package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rickcrawford/defaultvocab/internal/vocab"
)

// Config holds all vocabulary tool configuration.
type Config struct {
	Vocab    VocabConfig  `mapstructure:"vocab"`
	Corpus   CorpusConfig `mapstructure:"corpus"`
	Cache    CacheConfig  `mapstructure:"cache"`
	Server   ServerConfig `mapstructure:"server"`
	Tokens   TokensConfig `mapstructure:"tokens"`
	LogLevel string       `mapstructure:"log_level"`
}

type VocabConfig struct {
	Type          string   `mapstructure:"type"`
	Inputs        []string `mapstructure:"inputs"`
	Level         string   `mapstructure:"level"`
	SpecialTokens []string `mapstructure:"special_tokens"`
	DefaultToken  string   `mapstructure:"default_token"`
	ModelDir      string   `mapstructure:"model_dir"`
	ModelFile     string   `mapstructure:"model_file"`
}

type CorpusConfig struct {
	Format      string        `mapstructure:"format"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxBodySize int64         `mapstructure:"max_body_size"`
	// Allow holds regexes URL sources must match. Empty allows all.
	Allow []string `mapstructure:"allow"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Dir     string        `mapstructure:"dir"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MCPTransport string        `mapstructure:"mcp_transport"`
	MCPAddr      string        `mapstructure:"mcp_addr"`
}

type TokensConfig struct {
	Encoding string `mapstructure:"encoding"`
}

// VocabOptions converts the vocab section into engine options.
func (c *Config) VocabOptions() (vocab.Options, error) {
	level, err := vocab.ParseLevel(c.Vocab.Level)
	if err != nil {
		return vocab.Options{}, err
	}
	return vocab.Options{
		Inputs:        c.Vocab.Inputs,
		Level:         level,
		SpecialTokens: c.Vocab.SpecialTokens,
		DefaultToken:  c.Vocab.DefaultToken,
	}, nil
}

// Load reads configuration from the given file path (or default locations)
// and environment variables, then unmarshals into a Config struct. Each call
// uses its own viper instance.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.defaultvocab")
		v.AddConfigPath("/etc/defaultvocab")
	}

	// Environment variable overrides (e.g. VOCAB_VOCAB_LEVEL)
	v.SetEnvPrefix("VOCAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("vocab.type", vocab.DefaultType)
	v.SetDefault("vocab.inputs", []string{"x"})
	v.SetDefault("vocab.level", string(vocab.LevelToken))
	v.SetDefault("vocab.special_tokens", []string{"<UNK>"})
	v.SetDefault("vocab.default_token", "<UNK>")
	v.SetDefault("vocab.model_dir", "./model")
	v.SetDefault("vocab.model_file", "vocab.txt")
	v.SetDefault("corpus.format", "auto")
	v.SetDefault("corpus.concurrency", 4)
	v.SetDefault("corpus.timeout", "30s")
	v.SetDefault("corpus.max_body_size", 10485760)
	v.SetDefault("corpus.allow", []string{})
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.mcp_transport", "stdio")
	v.SetDefault("server.mcp_addr", ":8091")
	v.SetDefault("tokens.encoding", "cl100k_base")
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}
