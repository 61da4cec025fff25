package config

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr      string  `json:"listenAddr"`
	DatabasePath    string  `json:"databasePath"`
	DefaultTaxRate  float64 `json:"defaultTaxRate"`
	CSVEncoding     string  `json:"csvEncoding"`
	ImportBatchSize int     `json:"importBatchSize"`
	JWTSecret       string  `json:"jwtSecret"`
	JWTExpiry       string  `json:"jwtExpiry"`
	ResetURLBase    string  `json:"resetUrlBase"`
	LogLevel        string  `json:"logLevel"`
	LogFormat       string  `json:"logFormat"`
	OpenBrowser     bool    `json:"openBrowser"`
}

var (
	cfg Config
	mu  sync.RWMutex
)

// ConfigFilePath can be changed before LoadConfig (tests, CLI flag).
var ConfigFilePath = "./seibi_config.json"

func defaults() Config {
	return Config{
		ListenAddr:      ":8080",
		DatabasePath:    "./seibi.db",
		DefaultTaxRate:  10,
		CSVEncoding:     "shift_jis",
		ImportBatchSize: 100,
		JWTSecret:       "change-me",
		JWTExpiry:       "12h",
		ResetURLBase:    "http://localhost:8080/reset-password",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

func applyDefaults(c *Config) {
	d := defaults()
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.DatabasePath == "" {
		c.DatabasePath = d.DatabasePath
	}
	if c.DefaultTaxRate == 0 {
		c.DefaultTaxRate = d.DefaultTaxRate
	}
	if c.CSVEncoding == "" {
		c.CSVEncoding = d.CSVEncoding
	}
	if c.ImportBatchSize <= 0 {
		c.ImportBatchSize = d.ImportBatchSize
	}
	if c.JWTSecret == "" {
		c.JWTSecret = d.JWTSecret
	}
	if c.JWTExpiry == "" {
		c.JWTExpiry = d.JWTExpiry
	}
	if c.ResetURLBase == "" {
		c.ResetURLBase = d.ResetURLBase
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
}

// applyEnv lets SEIBI_* variables (optionally from .env) override file values.
func applyEnv(c *Config) {
	if v := os.Getenv("SEIBI_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("SEIBI_DB_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("SEIBI_TAX_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.DefaultTaxRate = f
		}
	}
	if v := os.Getenv("SEIBI_CSV_ENCODING"); v != "" {
		c.CSVEncoding = v
	}
	if v := os.Getenv("SEIBI_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("SEIBI_JWT_EXPIRY"); v != "" {
		c.JWTExpiry = v
	}
	if v := os.Getenv("SEIBI_RESET_URL"); v != "" {
		c.ResetURLBase = v
	}
	if v := os.Getenv("SEIBI_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SEIBI_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
}

func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	_ = godotenv.Load()

	tempCfg := defaults()
	file, err := os.ReadFile(ConfigFilePath)
	if err != nil && !os.IsNotExist(err) {
		applyEnv(&tempCfg)
		cfg = tempCfg
		return cfg, err
	}
	if err == nil {
		if err := json.Unmarshal(file, &tempCfg); err != nil {
			tempCfg = defaults()
			applyEnv(&tempCfg)
			cfg = tempCfg
			return cfg, err
		}
	}
	applyDefaults(&tempCfg)
	applyEnv(&tempCfg)
	cfg = tempCfg
	return cfg, nil
}

func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	applyDefaults(&newCfg)

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(ConfigFilePath, file, 0644); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	if cfg.ListenAddr == "" {
		c := defaults()
		return c
	}
	return cfg
}

// JWTExpiryDuration falls back to 12h when the configured value does not parse.
func (c Config) JWTExpiryDuration() time.Duration {
	d, err := time.ParseDuration(c.JWTExpiry)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}
