package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	ClaudeDir    string         `mapstructure:"claude_dir"`
	PreviewChars int            `mapstructure:"preview_chars"`
	Workers      int            `mapstructure:"workers"`
	Resolver     ResolverConfig `mapstructure:"resolver"`
	Watch        WatchConfig    `mapstructure:"watch"`
	Server       ServerConfig   `mapstructure:"server"`
	Log          LogConfig      `mapstructure:"log"`
}

type ResolverConfig struct {
	SniffLines int `mapstructure:"sniff_lines"`
}

type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EnvPrefix prefixes environment overrides, e.g. CLAUDE_LENS_SERVER_PORT
const EnvPrefix = "CLAUDE_LENS"

// New returns a viper instance with defaults and environment overrides set up
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("claude_dir", "~/.claude")
	v.SetDefault("preview_chars", 200)
	v.SetDefault("workers", 8)
	v.SetDefault("resolver.sniff_lines", 10)
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce", "500ms")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 7878)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds config keys to flags of the set, keyed by config key.
// Flags left unset on the command line fall through to file, env and defaults.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q for config key %s", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Load reads cfgFile, or config.yaml from the working directory or
// ~/.claude-lens when cfgFile is empty. A missing config file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".claude-lens"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	dir, err := expandHome(cfg.ClaudeDir)
	if err != nil {
		return nil, err
	}
	cfg.ClaudeDir = dir
	return &cfg, nil
}

// Addr returns the host:port the API server listens on
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
