package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds all cashcast configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Storage    StorageConfig    `toml:"storage"`
	Forecast   Tuning           `toml:"forecast"`
	Cache      CacheConfig      `toml:"cache"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Notify     NotifyConfig     `toml:"notify"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// GeneralConfig holds default forecast request parameters.
type GeneralConfig struct {
	HistoryMonths  int   `toml:"history_months"`
	ForecastMonths int   `toml:"forecast_months"`
	IncludeToday   bool  `toml:"include_today"`
	MonteCarloRuns int   `toml:"monte_carlo_runs"`
	Seed           int64 `toml:"seed,omitempty"`
}

// StorageConfig selects the transaction database.
type StorageConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path,omitempty"`
	DSN    string `toml:"dsn,omitempty"`
}

// CacheConfig holds the in-memory result cache settings.
type CacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
}

// DaemonConfig holds background refresh settings.
type DaemonConfig struct {
	Addr        string `toml:"addr"`
	RefreshCron string `toml:"refresh_cron"`
}

// NotifyConfig holds SMTP settings for budget alerts.
type NotifyConfig struct {
	SMTPHost   string   `toml:"smtp_host,omitempty"`
	SMTPPort   int      `toml:"smtp_port,omitempty"`
	Username   string   `toml:"username,omitempty"`
	Password   string   `toml:"password,omitempty"`
	From       string   `toml:"from,omitempty"`
	Recipients []string `toml:"recipients,omitempty"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (n NotifyConfig) Enabled() bool {
	return n.SMTPHost != "" && n.From != "" && len(n.Recipients) > 0
}

// AppearanceConfig holds theme and display settings.
type AppearanceConfig struct {
	Theme    string `toml:"theme"`
	Currency string `toml:"currency"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			HistoryMonths:  12,
			ForecastMonths: 1,
			IncludeToday:   true,
			MonteCarloRuns: 500,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
		},
		Forecast: DefaultTuning(),
		Cache: CacheConfig{
			TTLSeconds: 300,
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8787",
			RefreshCron: "@every 15m",
		},
		Notify: NotifyConfig{
			SMTPPort: 587,
		},
		Appearance: AppearanceConfig{
			Theme:    "flexoki-dark",
			Currency: "$",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cashcast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cashcast")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the platform-appropriate data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cashcast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "cashcast")
}

// DefaultDBPath returns the default SQLite database location.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "cashcast.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Forecast = cfg.Forecast.WithDefaults()
	applyEnv(&cfg)
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

func applyEnv(cfg *Config) {
	if dsn := os.Getenv("CASHCAST_DB_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if driver := os.Getenv("CASHCAST_DB_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if pw := os.Getenv("CASHCAST_SMTP_PASSWORD"); pw != "" {
		cfg.Notify.Password = pw
	}
	if lvl := os.Getenv("CASHCAST_LOG_LEVEL"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if runs := os.Getenv("CASHCAST_MC_RUNS"); runs != "" {
		if n, err := strconv.Atoi(runs); err == nil && n >= 0 {
			cfg.General.MonteCarloRuns = n
		}
	}
}
