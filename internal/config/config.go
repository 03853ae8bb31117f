package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/book-inventory/internal/cataloging"
	"github.com/lehigh-university-libraries/book-inventory/internal/gemini"
	"github.com/lehigh-university-libraries/book-inventory/internal/ollama"
	"github.com/lehigh-university-libraries/book-inventory/internal/openai"
	"github.com/lehigh-university-libraries/book-inventory/internal/storage"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration keys. Each is read from the upper-cased environment variable
// of the same name.
const (
	KeyPort           = "port"
	KeyStoreDriver    = "store_driver"
	KeyMongoURI       = "mongo_uri"
	KeyMongoDatabase  = "mongo_database"
	KeySQLitePath     = "sqlite_path"
	KeyVisionProvider = "vision_provider"
	KeyVisionModel    = "vision_model"
	KeyGeminiAPIKey   = "gemini_api_key"
	KeyOpenAIAPIKey   = "openai_api_key"
	KeyOpenAIBaseURL  = "openai_base_url"
	KeyOllamaURL      = "ollama_url"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
)

// flagKeys maps command line flag names onto configuration keys
var flagKeys = map[string]string{
	"port":        KeyPort,
	"store":       KeyStoreDriver,
	"mongo-uri":   KeyMongoURI,
	"sqlite-path": KeySQLitePath,
	"provider":    KeyVisionProvider,
	"model":       KeyVisionModel,
	"log-level":   KeyLogLevel,
	"log-format":  KeyLogFormat,
}

type Config struct {
	Port           string
	StoreDriver    string
	MongoURI       string
	MongoDatabase  string
	SQLitePath     string
	VisionProvider string
	VisionModel    string
	GeminiAPIKey   string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OllamaURL      string
	LogLevel       string
	LogFormat      string
}

// SetDefaults registers the default of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, "5000")
	v.SetDefault(KeyStoreDriver, storage.DriverMongo)
	v.SetDefault(KeyMongoURI, storage.DefaultMongoURI)
	v.SetDefault(KeySQLitePath, "books.db")
	v.SetDefault(KeyVisionProvider, gemini.Name)
	v.SetDefault(KeyOllamaURL, ollama.DefaultURL)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// BindFlags lets any of the known flags present in flags override the
// environment.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the configuration from v, the environment and bound flags
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	// The Gemini key is also accepted under its older name
	if err := v.BindEnv(KeyGeminiAPIKey, "GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind gemini key: %w", err)
	}

	cfg := &Config{
		Port:           v.GetString(KeyPort),
		StoreDriver:    strings.ToLower(v.GetString(KeyStoreDriver)),
		MongoURI:       v.GetString(KeyMongoURI),
		MongoDatabase:  v.GetString(KeyMongoDatabase),
		SQLitePath:     v.GetString(KeySQLitePath),
		VisionProvider: strings.ToLower(v.GetString(KeyVisionProvider)),
		VisionModel:    v.GetString(KeyVisionModel),
		GeminiAPIKey:   v.GetString(KeyGeminiAPIKey),
		OpenAIAPIKey:   v.GetString(KeyOpenAIAPIKey),
		OpenAIBaseURL:  v.GetString(KeyOpenAIBaseURL),
		OllamaURL:      v.GetString(KeyOllamaURL),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      strings.ToLower(v.GetString(KeyLogFormat)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers, providers and log settings.
// Missing API keys are not an error here; they surface per request.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}

	switch c.StoreDriver {
	case storage.DriverMongo, storage.DriverSQLite, storage.DriverMemory:
	default:
		return fmt.Errorf("unsupported store driver: %s (supported: mongo, sqlite, memory)", c.StoreDriver)
	}

	switch c.VisionProvider {
	case gemini.Name, openai.Name, ollama.Name:
	default:
		return fmt.Errorf("unsupported vision provider: %s (supported: gemini, openai, ollama)", c.VisionProvider)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unsupported log format: %s (supported: text, json)", c.LogFormat)
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) StoreOptions() storage.Options {
	return storage.Options{
		Driver:        c.StoreDriver,
		MongoURI:      c.MongoURI,
		MongoDatabase: c.MongoDatabase,
		SQLitePath:    c.SQLitePath,
	}
}

func (c *Config) VisionOptions() cataloging.Options {
	return cataloging.Options{
		Provider:      c.VisionProvider,
		Model:         c.VisionModel,
		GeminiAPIKey:  c.GeminiAPIKey,
		OpenAIAPIKey:  c.OpenAIAPIKey,
		OpenAIBaseURL: c.OpenAIBaseURL,
		OllamaURL:     c.OllamaURL,
	}
}

// NewLogger builds a slog logger writing text or JSON records to w
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s (supported: text, json)", format)
	}
}

func parseLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
