// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Source kinds accepted in source.kind.
const (
	SourceFixture       = "fixture"
	SourceCSV           = "csv"
	SourcePostgres      = "postgres"
	SourceElasticsearch = "elasticsearch"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Server   ServerConfig            `mapstructure:"server"`
	Source   SourceConfig            `mapstructure:"source"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Database DatabaseConfig          `mapstructure:"database"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Alerts   AlertsConfig            `mapstructure:"alerts"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Description string `mapstructure:"description"`
}

// ServerConfig holds HTTP listener settings. Timeouts are in milliseconds.
type ServerConfig struct {
	Host               string   `mapstructure:"host"`
	Port               int      `mapstructure:"port"`
	ReadTimeout        int      `mapstructure:"read_timeout"`
	WriteTimeout       int      `mapstructure:"write_timeout"`
	RequestTimeout     int      `mapstructure:"request_timeout"`
	ShutdownTimeout    int      `mapstructure:"shutdown_timeout"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SourceConfig selects where the insight collection comes from.
type SourceConfig struct {
	Kind               string `mapstructure:"kind"`
	FixturePath        string `mapstructure:"fixture_path"`
	CSVPath            string `mapstructure:"csv_path"`
	PostgresTable      string `mapstructure:"postgres_table"`
	ElasticsearchIndex string `mapstructure:"elasticsearch_index"`
	RegenerateFrom     string `mapstructure:"regenerate_from"`
	Timeout            int    `mapstructure:"timeout"` // milliseconds
}

// CacheConfig controls the Redis result cache in front of the store.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Key     string `mapstructure:"key"`
	TTL     int    `mapstructure:"ttl"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single address shorthand
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	HealthAddr     string `mapstructure:"health_addr"`     // worker-manager health/metrics listener
}

// WorkerConfig holds the settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// AlertsConfig holds the operator alert channels used when insight data is unavailable.
type AlertsConfig struct {
	Cooldown int    `mapstructure:"cooldown"` // milliseconds
	Region   string `mapstructure:"region"`
	SNS      struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email"`
		ToEmails  []string `mapstructure:"to_emails"`
	} `mapstructure:"ses"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// AnyWorkerEnabled reports whether at least one job worker is switched on.
func (c *Config) AnyWorkerEnabled() bool {
	for _, w := range c.Workers {
		if w.Enabled {
			return true
		}
	}
	return false
}

// RegenerationSource returns the appointment source kind the regeneration worker reads.
// It defaults to source.kind, or csv when the server itself serves the fixture.
func (c *Config) RegenerationSource() string {
	if c.Source.RegenerateFrom != "" {
		return c.Source.RegenerateFrom
	}
	if c.Source.Kind == SourceFixture {
		return SourceCSV
	}
	return c.Source.Kind
}

// SourceTimeout returns the per-load timeout for the backing source.
func (c *Config) SourceTimeout() time.Duration {
	return GetDuration(c.Source.Timeout)
}
