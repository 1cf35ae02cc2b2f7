// Package config loads application configuration from environment variables.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string

	// SecretKey is the 32-byte AES-256 key for encrypted settings. Nil
	// disables encryption; encrypted fields then fail to save.
	SecretKey []byte

	// SessionKey signs session cookies. When STOREADMIN_SESSION_KEY is unset a
	// random key is generated and SessionKeyGenerated is true.
	SessionKey          []byte
	SessionKeyGenerated bool

	CacheTTL      time.Duration
	GateWindow    time.Duration
	LogLevel      slog.Level
	LogFormat     string
	SecureCookies bool
}

// HasSecretKey returns true when encrypted settings can be stored.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) > 0
}

// LoadFile reads a dotenv file into the process environment, then calls Load.
// Variables already set in the environment win over the file. A missing file
// is not an error.
func LoadFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	return Load()
}

// Load reads configuration from environment variables and returns a validated Config.
// Optional variables with defaults: STOREADMIN_LISTEN_ADDR (127.0.0.1:8080),
// STOREADMIN_DB_PATH (storeadmin.db), STOREADMIN_CACHE_TTL (1h),
// STOREADMIN_GATE_WINDOW (30m), STOREADMIN_LOG_LEVEL (info),
// STOREADMIN_LOG_FORMAT (text), STOREADMIN_SECURE_COOKIES (false).
// STOREADMIN_SECRET_KEY and STOREADMIN_SESSION_KEY are 64 hex characters.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr: "127.0.0.1:8080",
		DBPath:     "storeadmin.db",
		CacheTTL:   time.Hour,
		GateWindow: 30 * time.Minute,
		LogLevel:   slog.LevelInfo,
		LogFormat:  "text",
	}

	if v, ok := os.LookupEnv("STOREADMIN_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("STOREADMIN_DB_PATH"); ok {
		cfg.DBPath = v
	}

	var err error
	if cfg.SecretKey, err = hexKey("STOREADMIN_SECRET_KEY"); err != nil {
		return nil, err
	}
	if cfg.SessionKey, err = hexKey("STOREADMIN_SESSION_KEY"); err != nil {
		return nil, err
	}
	if cfg.SessionKey == nil {
		cfg.SessionKey = make([]byte, 32)
		if _, err := rand.Read(cfg.SessionKey); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
		cfg.SessionKeyGenerated = true
	}

	if cfg.CacheTTL, err = duration("STOREADMIN_CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.GateWindow, err = duration("STOREADMIN_GATE_WINDOW", cfg.GateWindow); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("STOREADMIN_LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("STOREADMIN_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	if v, ok := os.LookupEnv("STOREADMIN_LOG_FORMAT"); ok && v != "" {
		v = strings.ToLower(v)
		if v != "text" && v != "json" {
			return nil, fmt.Errorf("STOREADMIN_LOG_FORMAT must be text or json, got %q", v)
		}
		cfg.LogFormat = v
	}

	if v, ok := os.LookupEnv("STOREADMIN_SECURE_COOKIES"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("STOREADMIN_SECURE_COOKIES has invalid boolean %q: %w", v, err)
		}
		cfg.SecureCookies = b
	}

	return cfg, nil
}

// hexKey decodes a 32-byte key from the named variable. Unset or empty is nil.
func hexKey(name string) ([]byte, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be hex encoded: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must be 64 hex characters (32 bytes), got %d bytes", name, len(key))
	}
	return key, nil
}

func duration(name string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", name, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, d)
	}
	return d, nil
}
