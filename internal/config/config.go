package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort     = "8080"
	DefaultTimeZone = "UTC"
	DefaultLogLevel = "info"

	minSecretKeyLength = 32
)

var (
	ErrSecretKeyMissing     = errors.New("SECRET_KEY is required")
	ErrSecretKeyPlaceholder = errors.New("SECRET_KEY uses a placeholder value")
	ErrSecretKeyTooShort    = fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	ErrInvalidPort          = errors.New("PORT must be a number between 1 and 65535")
	ErrInvalidLogLevel      = errors.New("LOG_LEVEL must be one of debug, info, warn, error")
)

var secretKeyPlaceholders = []string{
	"change_me_in_production",
	"replace_with_at_least_32_random_characters",
	"changeme",
	"secret",
}

// Config holds the runtime settings. Values come from an optional YAML file, then a
// .env file, then the process environment, each overriding the previous one.
type Config struct {
	DBPath    string `yaml:"db_path"`
	Port      string `yaml:"port"`
	TimeZone  string `yaml:"tz"`
	SecretKey string `yaml:"secret_key"`
	LogLevel  string `yaml:"log_level"`
}

func Defaults() Config {
	return Config{
		DBPath:   filepath.Join("data", "timebill.db"),
		Port:     DefaultPort,
		TimeZone: DefaultTimeZone,
		LogLevel: DefaultLogLevel,
	}
}

// Load reads .env from the working directory when present, then the YAML file named by
// TIMEBILL_CONFIG, then environment overrides.
func Load() (Config, error) {
	return LoadFrom(".env")
}

func LoadFrom(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("TIMEBILL_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.mergeEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) mergeFile(path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	fromFile := Config{}
	if err := yaml.Unmarshal(body, &fromFile); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.DBPath = firstNonBlank(fromFile.DBPath, cfg.DBPath)
	cfg.Port = firstNonBlank(fromFile.Port, cfg.Port)
	cfg.TimeZone = firstNonBlank(fromFile.TimeZone, cfg.TimeZone)
	cfg.SecretKey = firstNonBlank(fromFile.SecretKey, cfg.SecretKey)
	cfg.LogLevel = firstNonBlank(fromFile.LogLevel, cfg.LogLevel)
	return nil
}

func (cfg *Config) mergeEnv() {
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.TimeZone = getEnv("TZ", cfg.TimeZone)
	cfg.SecretKey = getEnv("SECRET_KEY", cfg.SecretKey)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

// Validate checks the settings every command needs. The secret key is checked
// separately by commands that sign or verify tokens.
func (cfg Config) Validate() error {
	if _, err := ResolvePort(cfg.Port); err != nil {
		return err
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

// Location loads the configured zone, falling back to UTC for unknown names.
func (cfg Config) Location() (*time.Location, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return time.UTC, fmt.Errorf("invalid TZ %q: %w", cfg.TimeZone, err)
	}
	return location, nil
}

// Secret returns the signing key once it passes the strength rules.
func (cfg Config) Secret() (string, error) {
	return ResolveSecretKey(cfg.SecretKey)
}

func ResolveSecretKey(raw string) (string, error) {
	secret := strings.TrimSpace(raw)
	if secret == "" {
		return "", ErrSecretKeyMissing
	}
	for _, placeholder := range secretKeyPlaceholders {
		if strings.EqualFold(secret, placeholder) {
			return "", ErrSecretKeyPlaceholder
		}
	}
	if len(secret) < minSecretKeyLength {
		return "", ErrSecretKeyTooShort
	}
	return secret, nil
}

func ResolvePort(raw string) (string, error) {
	port := strings.TrimSpace(raw)
	if port == "" {
		return DefaultPort, nil
	}
	value, err := strconv.Atoi(port)
	if err != nil || value < 1 || value > 65535 {
		return "", ErrInvalidPort
	}
	return port, nil
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
