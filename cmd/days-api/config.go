package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	flags "github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type config struct {
	ListenAddr  string            `yaml:"listen_addr"`
	Log         logConfig         `yaml:"log"`
	Rate        rateConfig        `yaml:"rate"`
	Concurrency concurrencyConfig `yaml:"concurrency"`
	Stats       statsConfig       `yaml:"stats"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type rateConfig struct {
	Enabled    bool          `yaml:"enabled"`
	RPS        float64       `yaml:"rps"`
	Burst      int           `yaml:"burst"`
	KeyHeader  string        `yaml:"key_header"`
	TrustXFF   bool          `yaml:"trust_xff"`
	RetryAfter time.Duration `yaml:"retry_after"`
	AddHeaders bool          `yaml:"add_headers"`

	// ClearRPS/ClearBurst dão ao DELETE /history um bucket próprio;
	// zero usa o bucket comum.
	ClearRPS   float64 `yaml:"clear_rps"`
	ClearBurst int     `yaml:"clear_burst"`
}

type concurrencyConfig struct {
	Max     int           `yaml:"max"`
	Timeout time.Duration `yaml:"timeout"`
}

type statsConfig struct {
	RedisEnabled  bool          `yaml:"redis_enabled"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Prefix        string        `yaml:"prefix"`
	TTL           time.Duration `yaml:"ttl"`
}

// cliOptions são as flags de linha de comando; vencem arquivo e ambiente.
type cliOptions struct {
	Config   string `short:"c" long:"config" env:"CONFIG_FILE" description:"YAML config file"`
	Listen   string `short:"l" long:"listen" description:"Listen address (overrides LISTEN_ADDR)"`
	LogLevel string `long:"log-level" description:"debug | info | warn | error"`
}

func defaultConfig() config {
	return config{
		ListenAddr: ":8080",
		Log:        logConfig{Level: "info", Format: "text"},
		Rate: rateConfig{
			Enabled:    true,
			RPS:        10,
			Burst:      20,
			RetryAfter: 1 * time.Second,
		},
		Concurrency: concurrencyConfig{Max: 100},
		Stats: statsConfig{
			Prefix: "days:stats",
			TTL:    24 * time.Hour,
		},
	}
}

// readConfig aplica, em ordem: padrões, arquivo YAML, variáveis de ambiente e flags.
func readConfig(args []string) (config, error) {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "days-api"
	if _, err := parser.ParseArgs(args); err != nil {
		return config{}, err
	}

	cfg := defaultConfig()
	burstSet := false
	if opts.Config != "" {
		var err error
		if burstSet, err = loadFile(opts.Config, &cfg); err != nil {
			return config{}, err
		}
	}

	applyEnv(&cfg)
	if _, ok := lookupEnv("RATE_BURST"); ok {
		burstSet = true
	}
	// IMPORTANTE: com RPS < 1 o burst padrão (20) deixa passar uma rajada
	// grande antes do limiter agir; sem burst explícito, usa 1.
	if !burstSet && cfg.Rate.RPS > 0 && cfg.Rate.RPS < 1 {
		cfg.Rate.Burst = 1
	}

	if opts.Listen != "" {
		cfg.ListenAddr = opts.Listen
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// fileKeys registra só a presença das chaves cujo valor zero/padrão não
// basta para saber se vieram do arquivo.
type fileKeys struct {
	Rate struct {
		Burst *int `yaml:"burst"`
	} `yaml:"rate"`
}

// loadFile aplica o YAML sobre cfg e informa se rate.burst estava no arquivo.
func loadFile(path string, cfg *config) (burstSet bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("parsing config file: %w", err)
	}
	var keys fileKeys
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return false, fmt.Errorf("parsing config file: %w", err)
	}
	return keys.Rate.Burst != nil, nil
}

func applyEnv(cfg *config) {
	envString("LISTEN_ADDR", &cfg.ListenAddr)
	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)

	envBool("RATE_ENABLED", &cfg.Rate.Enabled)
	envFloat("RATE_RPS", &cfg.Rate.RPS)
	envInt("RATE_BURST", &cfg.Rate.Burst)
	envString("RATE_KEY_HEADER", &cfg.Rate.KeyHeader)
	envBool("TRUST_XFF", &cfg.Rate.TrustXFF)
	envDuration("RETRY_AFTER", &cfg.Rate.RetryAfter)
	envBool("ADD_RATELIMIT_HEADERS", &cfg.Rate.AddHeaders)
	envFloat("RATE_CLEAR_RPS", &cfg.Rate.ClearRPS)
	envInt("RATE_CLEAR_BURST", &cfg.Rate.ClearBurst)

	envInt("CONCURRENCY_MAX", &cfg.Concurrency.Max)
	envDuration("CONCURRENCY_TIMEOUT", &cfg.Concurrency.Timeout)

	envBool("STATS_REDIS_ENABLED", &cfg.Stats.RedisEnabled)
	envString("STATS_REDIS_ADDR", &cfg.Stats.RedisAddr)
	envString("STATS_REDIS_PASSWORD", &cfg.Stats.RedisPassword)
	envInt("STATS_REDIS_DB", &cfg.Stats.RedisDB)
	envString("STATS_PREFIX", &cfg.Stats.Prefix)
	envDuration("STATS_TTL", &cfg.Stats.TTL)
}

func (c config) validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if c.Rate.Enabled {
		if c.Rate.RPS <= 0 {
			return errors.New("RATE_RPS must be > 0")
		}
		if c.Rate.Burst <= 0 {
			return errors.New("RATE_BURST must be > 0")
		}
		if c.Rate.ClearRPS < 0 || c.Rate.ClearBurst < 0 {
			return errors.New("RATE_CLEAR_RPS and RATE_CLEAR_BURST must be >= 0")
		}
		if (c.Rate.ClearRPS > 0) != (c.Rate.ClearBurst > 0) {
			return errors.New("RATE_CLEAR_RPS and RATE_CLEAR_BURST must be set together")
		}
	}
	if c.Concurrency.Max < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.Stats.RedisEnabled && strings.TrimSpace(c.Stats.RedisAddr) == "" {
		return errors.New("STATS_REDIS_ADDR is required when STATS_REDIS_ENABLED=true")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Os helpers abaixo só sobrescrevem o destino quando a variável está definida
// e é válida; valor inválido mantém o que veio antes.

func lookupEnv(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func envString(k string, dst *string) {
	if v, ok := lookupEnv(k); ok {
		*dst = v
	}
}

func envInt(k string, dst *int) {
	if v, ok := lookupEnv(k); ok {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func envFloat(k string, dst *float64) {
	if v, ok := lookupEnv(k); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(k string, dst *bool) {
	if v, ok := lookupEnv(k); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(k string, dst *time.Duration) {
	if v, ok := lookupEnv(k); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
