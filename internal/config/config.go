// Package config loads engine configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the full engine configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Storage  StorageConfig
	Server   ServerConfig
	Playback PlaybackConfig
	Catalog  CatalogConfig
	Admin    AdminConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds filesystem paths for durable state.
type StorageConfig struct {
	// DataPath is the directory holding the embedded remote store database.
	DataPath string
	// CachePath is the directory for the local catalog cache.
	CachePath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// AllowedOrigins for CORS, comma separated. "*" allows all.
	AllowedOrigins string
}

// PlaybackConfig holds playback engine settings.
type PlaybackConfig struct {
	// ThrottleInterval is the minimum spacing between remote progress writes.
	// Ticks landing on whole-second multiples of this interval are persisted.
	ThrottleInterval time.Duration
	// BaseAudioURL resolves relative topic audio references.
	BaseAudioURL string
	// DefaultRate is the playback rate for users with no stored preference.
	DefaultRate float64
	// MediaPath is an optional local directory of topic audio files used for
	// duration probing.
	MediaPath string
}

// CatalogConfig holds baseline catalog settings.
type CatalogConfig struct {
	// SeedPath is the JSON file holding the baseline catalog.
	SeedPath string
	// WatchSeed re-applies the baseline when the seed file changes.
	WatchSeed bool
}

// AdminConfig holds admin surface settings.
type AdminConfig struct {
	// PanelPassword unlocks the admin panel. Empty disables it.
	PanelPassword string
}

// LoadConfig loads configuration with precedence:
// 1. command-line flags, 2. environment variables, 3. .env file, 4. defaults.
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Directory for the embedded store database")
	cachePath := flag.String("cache-path", "", "Directory for the local catalog cache")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := flag.String("allowed-origins", "", "CORS allowed origins, comma separated")

	throttleInterval := flag.String("throttle-interval", "", "Progress write throttle interval (default: 10s)")
	baseAudioURL := flag.String("base-audio-url", "", "Base URL for relative topic audio references")
	defaultRate := flag.String("default-rate", "", "Default playback rate (default: 1.0)")
	mediaPath := flag.String("media-path", "", "Local directory of topic audio for duration probing")

	seedPath := flag.String("seed-path", "", "Path to the baseline catalog JSON file")
	watchSeed := flag.String("watch-seed", "", "Watch the seed file and re-apply on change (default: true)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Missing .env file is fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath:  getConfigValue(*dataPath, "DATA_PATH", ""),
			CachePath: getConfigValue(*cachePath, "CACHE_PATH", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "*"),
		},
		Playback: PlaybackConfig{
			BaseAudioURL: getConfigValue(*baseAudioURL, "BASE_AUDIO_URL", ""),
			DefaultRate:  getFloatConfigValue(*defaultRate, "DEFAULT_RATE", 1.0),
			MediaPath:    getConfigValue(*mediaPath, "MEDIA_PATH", ""),
		},
		Catalog: CatalogConfig{
			SeedPath:  getConfigValue(*seedPath, "SEED_PATH", ""),
			WatchSeed: getBoolConfigValue(*watchSeed, "WATCH_SEED", true),
		},
		Admin: AdminConfig{
			PanelPassword: getConfigValue("", "ADMIN_PASSWORD", ""),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Playback.ThrottleInterval, err = parseDurationValue(*throttleInterval, "THROTTLE_INTERVAL", "10s"); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Storage.CachePath == "" {
		return errors.New("cache path cannot be empty after expansion")
	}

	if c.Playback.ThrottleInterval < time.Second {
		return fmt.Errorf("throttle interval %s is below 1s", c.Playback.ThrottleInterval)
	}
	if c.Playback.ThrottleInterval.Truncate(time.Second) != c.Playback.ThrottleInterval {
		return fmt.Errorf("throttle interval %s must be a whole number of seconds", c.Playback.ThrottleInterval)
	}
	if c.Playback.DefaultRate <= 0 {
		return fmt.Errorf("default playback rate must be positive, got %v", c.Playback.DefaultRate)
	}
	return nil
}

// expandPaths resolves ~ and relative storage paths, applying defaults under
// the user's home directory.
func (c *Config) expandPaths() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	c.Storage.DataPath, err = expandPath(c.Storage.DataPath, filepath.Join(home, "SesliKitap", "data"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	c.Storage.CachePath, err = expandPath(c.Storage.CachePath, filepath.Join(home, "SesliKitap", "cache"))
	if err != nil {
		return fmt.Errorf("invalid cache path: %w", err)
	}

	if c.Catalog.SeedPath != "" {
		c.Catalog.SeedPath, err = expandPath(c.Catalog.SeedPath, "")
		if err != nil {
			return fmt.Errorf("invalid seed path: %w", err)
		}
	}
	if c.Playback.MediaPath != "" {
		c.Playback.MediaPath, err = expandPath(c.Playback.MediaPath, "")
		if err != nil {
			return fmt.Errorf("invalid media path: %w", err)
		}
	}
	return nil
}

// expandPath expands ~ and makes the path absolute. Empty input falls back to
// defaultPath unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve absolute path: %w", err)
		}
		path = abs
	}
	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1", "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	v := getConfigValue(flagValue, envKey, "")
	if v == "" {
		return defaultValue
	}
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

// getFloatConfigValue parses a float, falling back to the default on garbage.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	v := getConfigValue(flagValue, envKey, "")
	if v == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(v, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// parseDurationValue resolves a duration from flag, env var, or default.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	v := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(strings.ReplaceAll(envKey, "_", " ")), v, err)
	}
	return d, nil
}

// loadEnvFile loads KEY=value lines from a .env file. Real environment
// variables take precedence over file entries.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- config file path comes from the operator
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("set env var %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}
