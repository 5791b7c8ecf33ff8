// Package config loads server settings from defaults, an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. PORTFOLIO_SERVER_ADDR.
const EnvPrefix = "PORTFOLIO"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

type StorageConfig struct {
	// Root holds one directory per case study and is served at PublicPrefix.
	Root         string `mapstructure:"root"`
	PublicPrefix string `mapstructure:"publicPrefix"`
}

type AuthConfig struct {
	Password       string        `mapstructure:"password"`
	SessionTTL     time.Duration `mapstructure:"sessionTTL"`
	CookieSecure   bool          `mapstructure:"cookieSecure"`
	VerifySessions bool          `mapstructure:"verifySessions"`
}

type RedisConfig struct {
	// URL selects the Redis session store when set, e.g. redis://localhost:6379/0.
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SlogLevel parses Level, falling back to info for unknown values.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("storage.root", "public/case-studies")
	v.SetDefault("storage.publicPrefix", "/case-studies")
	v.SetDefault("auth.password", "")
	v.SetDefault("auth.sessionTTL", 24*time.Hour)
	v.SetDefault("auth.cookieSecure", false)
	v.SetDefault("auth.verifySessions", false)
	v.SetDefault("redis.url", "")
	v.SetDefault("log.level", "info")
}

// Loader wraps a viper instance so the file can be re-read on change.
type Loader struct {
	v      *viper.Viper
	logger *slog.Logger
}

// NewLoader reads cfgFile, or portfolio.yaml from the working directory when
// cfgFile is empty. A missing default file is not an error; a missing explicit
// one is.
func NewLoader(cfgFile string, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("portfolio")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("auth.password", EnvPrefix+"_AUTH_PASSWORD", "ADMIN_PASSWORD"); err != nil {
		return nil, fmt.Errorf("bind admin password env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logger.Info("No config file found, using defaults and environment")
	} else {
		logger.Info("Using config file", "path", v.ConfigFileUsed())
	}

	return &Loader{v: v, logger: logger}, nil
}

// Load decodes the current settings.
func (l *Loader) Load() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return cfg, nil
}

// ConfigFileUsed returns the path of the file in use, or "".
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch calls onChange with the re-decoded settings whenever the config file
// is written. It does nothing when no file is in use.
func (l *Loader) Watch(onChange func(Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.Load()
		if err != nil {
			l.logger.Error("Error reloading config", "path", e.Name, "error", err)
			return
		}
		l.logger.Info("Config reloaded", "path", e.Name, "op", e.Op.String())
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Load is a shortcut for NewLoader followed by Loader.Load.
func Load(cfgFile string, logger *slog.Logger) (Config, error) {
	l, err := NewLoader(cfgFile, logger)
	if err != nil {
		return Config{}, err
	}
	return l.Load()
}
