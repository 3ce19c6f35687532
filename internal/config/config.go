// Package config loads agencyhub settings from defaults, an optional YAML
// file, a .env file and AGENCYHUB_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AGENCYHUB"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Email    EmailConfig    `mapstructure:"email"`
	AI       AIConfig       `mapstructure:"ai"`
	Files    FilesConfig    `mapstructure:"files"`
	Session  SessionConfig  `mapstructure:"session"`
	Approval ApprovalConfig `mapstructure:"approval"`
}

type HTTPConfig struct {
	Addr        string   `mapstructure:"addr"`
	StaticDir   string   `mapstructure:"static_dir"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type AppConfig struct {
	PublicURL string `mapstructure:"public_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// EmailConfig selects the notifier. Without an API key mail is only logged.
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// AIConfig configures content generation. Without an API key generation
// reports the upstream as unavailable.
type AIConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	Model        string `mapstructure:"model"`
}

type FilesConfig struct {
	Dir        string `mapstructure:"dir"`
	PublicBase string `mapstructure:"public_base"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type ApprovalConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.static_dir", "web/dist")
	v.SetDefault("http.cors_origins", []string{})
	v.SetDefault("app.public_url", "http://localhost:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "data/agencyhub.db")
	v.SetDefault("email.resend_api_key", "")
	v.SetDefault("email.from", "AgencyHub <onboarding@resend.dev>")
	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("files.dir", "data/uploads")
	v.SetDefault("files.public_base", "/files")
	v.SetDefault("session.ttl", "720h")
	v.SetDefault("approval.ttl", "168h")
}

// Load reads configuration. An empty path looks for agencyhub.yaml in the
// working directory; a missing file is not an error. A .env file in the
// working directory is loaded first and never overrides variables already set.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("agencyhub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted sensibly.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database.dsn is required")
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported log.format %q", c.Log.Format)
	}
	if c.Session.TTL <= 0 || c.Approval.TTL <= 0 {
		return fmt.Errorf("config: session.ttl and approval.ttl must be positive")
	}
	return nil
}

func (c LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("config: invalid log.level %q", c.Level)
	}
	return lvl, nil
}

// Logger builds the root logger writing to w.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
