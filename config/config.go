package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/verificapessoa/verificapessoa/internal/search/engine"
	"github.com/verificapessoa/verificapessoa/internal/search/retry"
)

// Config holds all configuration for the service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Search    SearchConfig    `mapstructure:"search"`
	Engines   EnginesConfig   `mapstructure:"engines"`
	Classify  ClassifyConfig  `mapstructure:"classify"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Env      string `mapstructure:"env"` // dev, docker or prod
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	AdminEmails  []string      `mapstructure:"admin_emails"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("server.address required")
	}
	if len(strings.TrimSpace(s.JWTSecret)) < 16 {
		return fmt.Errorf("server.jwt_secret must be at least 16 characters")
	}
	if s.TokenTTL <= 0 {
		return fmt.Errorf("server.token_ttl must be > 0")
	}
	return nil
}

// Normalize lower-cases admin emails and drops blanks.
func (s ServerConfig) Normalize() ServerConfig {
	admins := make([]string, 0, len(s.AdminEmails))
	for _, e := range s.AdminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			admins = append(admins, e)
		}
	}
	s.AdminEmails = admins
	return s
}

// SearchConfig tunes one search run end to end.
type SearchConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	QueryDelay         time.Duration `mapstructure:"query_delay"`
	QueryJitter        time.Duration `mapstructure:"query_jitter"`
	MinResults         int           `mapstructure:"min_results"`
	MaxResultsPerQuery int           `mapstructure:"max_results_per_query"`
	ConcurrentEngines  bool          `mapstructure:"concurrent_engines"`
	RiskThreshold      int           `mapstructure:"risk_threshold"`
	LockTTL            time.Duration `mapstructure:"lock_ttl"`
}

func (s SearchConfig) Validate() error {
	if s.Timeout <= 0 {
		return fmt.Errorf("search.timeout must be > 0")
	}
	if s.QueryDelay < 0 || s.QueryJitter < 0 {
		return fmt.Errorf("search.query_delay and search.query_jitter must be >= 0")
	}
	if s.MinResults <= 0 {
		return fmt.Errorf("search.min_results must be > 0")
	}
	if s.MaxResultsPerQuery <= 0 || s.MaxResultsPerQuery > engine.HardMaxResults {
		return fmt.Errorf("search.max_results_per_query must be in 1..%d", engine.HardMaxResults)
	}
	if s.RiskThreshold < 0 {
		return fmt.Errorf("search.risk_threshold must be >= 0")
	}
	if s.LockTTL < s.Timeout {
		return fmt.Errorf("search.lock_ttl must cover search.timeout")
	}
	return nil
}

// EnginesConfig selects and paces the search engines.
type EnginesConfig struct {
	Order      []string          `mapstructure:"order"`
	BaseURLs   map[string]string `mapstructure:"base_urls"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	MinDelay   time.Duration     `mapstructure:"min_delay"`
	MaxDelay   time.Duration     `mapstructure:"max_delay"`
	Retry      retry.Policy      `mapstructure:"retry"`
	Identities []engine.Identity `mapstructure:"identities"`
}

// Normalize lower-cases engine ids and removes duplicates keeping order.
func (e EnginesConfig) Normalize() EnginesConfig {
	seen := make(map[string]struct{}, len(e.Order))
	order := make([]string, 0, len(e.Order))
	for _, id := range e.Order {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		order = append(order, id)
	}
	e.Order = order
	if len(e.BaseURLs) > 0 {
		urls := make(map[string]string, len(e.BaseURLs))
		for id, u := range e.BaseURLs {
			if u = strings.TrimSpace(u); u != "" {
				urls[strings.ToLower(strings.TrimSpace(id))] = u
			}
		}
		e.BaseURLs = urls
	}
	e.Retry = e.Retry.Normalize()
	return e
}

func (e EnginesConfig) Validate() error {
	if len(e.Order) == 0 {
		return fmt.Errorf("engines.order must list at least one engine")
	}
	for _, id := range e.Order {
		if _, err := engine.SpecFor(id); err != nil {
			return fmt.Errorf("engines.order: %w", err)
		}
	}
	for id := range e.BaseURLs {
		if _, err := engine.SpecFor(id); err != nil {
			return fmt.Errorf("engines.base_urls: %w", err)
		}
	}
	if e.MinDelay < 0 || e.MaxDelay < e.MinDelay {
		return fmt.Errorf("engines.max_delay must be >= engines.min_delay >= 0")
	}
	if e.Timeout <= 0 {
		return fmt.Errorf("engines.timeout must be > 0")
	}
	for i, id := range e.Identities {
		if strings.TrimSpace(id.UserAgent) == "" {
			return fmt.Errorf("engines.identities[%d].user_agent required", i)
		}
	}
	return nil
}

// StorageConfig contains storage backend settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// Addr is host:port.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN returns URL when set, otherwise a postgres:// URL built from the parts.
func (p PostgresConfig) DSN() string {
	if u := strings.TrimSpace(p.URL); u != "" {
		return u
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DBName, ssl)
}

// Package is a purchasable bundle of search credits.
type Package struct {
	Name    string  `mapstructure:"name" json:"name"`
	Amount  float64 `mapstructure:"amount" json:"amount"`
	Credits int     `mapstructure:"credits" json:"credits"`
}

// PaymentConfig carries the PIX receiver and the package catalogue.
type PaymentConfig struct {
	PIXKey   string             `mapstructure:"pix_key"`
	PIXName  string             `mapstructure:"pix_name"`
	Packages map[string]Package `mapstructure:"packages"`
}

func (p PaymentConfig) Validate() error {
	if strings.TrimSpace(p.PIXKey) == "" {
		return fmt.Errorf("payment.pix_key required")
	}
	if len(p.Packages) == 0 {
		return fmt.Errorf("payment.packages must define at least one package")
	}
	for _, key := range p.PackageTypes() {
		pkg := p.Packages[key]
		if pkg.Credits <= 0 {
			return fmt.Errorf("payment.packages.%s.credits must be > 0", key)
		}
		if pkg.Amount <= 0 {
			return fmt.Errorf("payment.packages.%s.amount must be > 0", key)
		}
	}
	return nil
}

// PackageTypes lists package keys in a stable order.
func (p PaymentConfig) PackageTypes() []string {
	keys := make([]string, 0, len(p.Packages))
	for k := range p.Packages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JobsConfig schedules background maintenance.
type JobsConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	ExpirePendingCron string        `mapstructure:"expire_pending_cron"`
	PendingTTL        time.Duration `mapstructure:"pending_ttl"`
}

func (j JobsConfig) Validate() error {
	if !j.Enabled {
		return nil
	}
	if strings.TrimSpace(j.ExpirePendingCron) == "" {
		return fmt.Errorf("jobs.expire_pending_cron required when jobs are enabled")
	}
	if j.PendingTTL <= 0 {
		return fmt.Errorf("jobs.pending_ttl must be > 0")
	}
	return nil
}

// TelemetryConfig contains monitoring settings
type TelemetryConfig struct {
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	MetricsPath    string `mapstructure:"metrics_path"`
}

func (t TelemetryConfig) Validate() error {
	if t.MetricsEnabled && !strings.HasPrefix(t.MetricsPath, "/") {
		return fmt.Errorf("telemetry.metrics_path must start with / when metrics are enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.env", "dev")
	v.SetDefault("general.log_level", "info")

	v.SetDefault("server.address", ":8001")
	v.SetDefault("server.token_ttl", 30*24*time.Hour)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("search.timeout", 3*time.Minute)
	v.SetDefault("search.query_delay", 2*time.Second)
	v.SetDefault("search.query_jitter", time.Second)
	v.SetDefault("search.min_results", engine.DefaultMinResults)
	v.SetDefault("search.max_results_per_query", engine.DefaultMaxResults)
	v.SetDefault("search.concurrent_engines", false)
	v.SetDefault("search.risk_threshold", 2)
	v.SetDefault("search.lock_ttl", 4*time.Minute)

	def := retry.DefaultPolicy()
	v.SetDefault("engines.order", engine.DefaultOrder)
	v.SetDefault("engines.timeout", engine.DefaultTimeout)
	v.SetDefault("engines.min_delay", time.Second)
	v.SetDefault("engines.max_delay", 3*time.Second)
	v.SetDefault("engines.retry.max_attempts", def.MaxAttempts)
	v.SetDefault("engines.retry.backoff", def.Backoff)
	v.SetDefault("engines.retry.rate_limit_backoff", def.RateLimitBackoff)
	v.SetDefault("engines.retry.blocked_backoff", def.BlockedBackoff)

	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", "5432")
	v.SetDefault("storage.postgres.user", "postgres")
	v.SetDefault("storage.postgres.dbname", "verificapessoa")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.timeout", 5*time.Second)
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.timeout", 3*time.Second)

	v.SetDefault("payment.pix_name", "Verifica Pessoa")
	v.SetDefault("payment.packages", map[string]any{
		"individual": map[string]any{"name": "Consulta Individual", "amount": 9.90, "credits": 1},
		"pack10":     map[string]any{"name": "Pacote 10 Créditos", "amount": 79.90, "credits": 10},
		"pack20":     map[string]any{"name": "Pacote 20 Créditos", "amount": 139.90, "credits": 20},
		"pack50":     map[string]any{"name": "Pacote 50 Créditos", "amount": 299.90, "credits": 50},
	})

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.expire_pending_cron", "@hourly")
	v.SetDefault("jobs.pending_ttl", 72*time.Hour)

	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.metrics_path", "/metrics")
}

// LoadConfig reads and validates the full configuration.
func LoadConfig(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads config from file and environment and normalizes it without
// validating. An empty path searches the usual locations and falls back to
// defaults plus environment when none is found.
func Read(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)                                // bin/
			v.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("VERIFICA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match (VERIFICA_*)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	config.Server = config.Server.Normalize()
	config.Engines = config.Engines.Normalize()
	config.Classify = config.Classify.Normalize()
	return &config, nil
}

// ValidatePipeline checks only the sections a standalone search needs.
func (c *Config) ValidatePipeline() error {
	for _, check := range []func() error{c.Search.Validate, c.Engines.Validate, c.Classify.Validate} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []func() error{
		c.Server.Validate,
		c.Search.Validate,
		c.Engines.Validate,
		c.Classify.Validate,
		c.Storage.Postgres.Validate,
		c.Storage.Redis.Validate,
		c.Payment.Validate,
		c.Jobs.Validate,
		c.Telemetry.Validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// bindEnv registers keys that have no default so AutomaticEnv sees them
// during Unmarshal.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"server.jwt_secret",
		"server.cookie_secure",
		"server.admin_emails",
		"storage.postgres.url",
		"storage.postgres.password",
		"storage.redis.password",
		"storage.redis.db",
		"payment.pix_key",
	} {
		_ = v.BindEnv(key)
	}
}
