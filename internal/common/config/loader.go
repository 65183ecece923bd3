// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top of it and
// applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// SERVER_PORT overrides server.port
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every scalar key so that AutomaticEnv can override it even when
// the YAML file leaves it out.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "hms-analytics")
	v.SetDefault("app.version", "1.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.description", "Hospital Management System Analytics Microservice providing doctor-patient insights and dashboard data.")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 10000)
	v.SetDefault("server.write_timeout", 30000)
	v.SetDefault("server.request_timeout", 25000)
	v.SetDefault("server.shutdown_timeout", 30000)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("source.kind", SourceFixture)
	v.SetDefault("source.fixture_path", "data/insights.json")
	v.SetDefault("source.csv_path", "data/PatientAppointmentEntry.csv")
	v.SetDefault("source.postgres_table", "patient_appointments")
	v.SetDefault("source.elasticsearch_index", "patient-appointments")
	v.SetDefault("source.regenerate_from", "")
	v.SetDefault("source.timeout", 20000)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.key", "insights:doctor-patient:v1")
	v.SetDefault("cache.ttl", 300000)

	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.elasticsearch.url", "")
	v.SetDefault("database.elasticsearch.username", "")
	v.SetDefault("database.elasticsearch.password", "")
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.health_addr", ":8080")

	v.SetDefault("alerts.cooldown", 900000)
	v.SetDefault("alerts.region", "")
	v.SetDefault("alerts.sns.enabled", false)
	v.SetDefault("alerts.sns.topic_arn", "")
	v.SetDefault("alerts.ses.enabled", false)
	v.SetDefault("alerts.ses.from_email", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// loadEnvFile loads the first .env found walking up from the working directory and
// returns its path, or "" when none was found.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override for secrets that are usually provided under short names.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Alerts.SNS.TopicARN == "" {
		if val := os.Getenv("ALERTS_TOPIC_ARN"); val != "" {
			cfg.Alerts.SNS.TopicARN = val
		}
	}
	if cfg.Alerts.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Alerts.Region = val
		}
	}
}

// applyDefaults fills values viper defaults cannot express (map entries, non-positive
// durations written explicitly in YAML).
func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 25000
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Source.Timeout <= 0 {
		cfg.Source.Timeout = 20000
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 300000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	if cfg.Camunda.HealthAddr == "" {
		cfg.Camunda.HealthAddr = ":8080"
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL != "" {
		cfg.Database.Elasticsearch.Addresses = []string{cfg.Database.Elasticsearch.URL}
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 1
		}
		if worker.Timeout == 0 {
			worker.Timeout = 120000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates the fields required by the selected source and features.
func validateConfig(cfg *Config) error {
	switch cfg.Source.Kind {
	case SourceFixture:
		if cfg.Source.FixturePath == "" {
			return fmt.Errorf("source.fixture_path is required for source.kind=fixture")
		}
	case SourceCSV:
		if cfg.Source.CSVPath == "" {
			return fmt.Errorf("source.csv_path is required for source.kind=csv")
		}
	case SourcePostgres:
		if err := validatePostgres(cfg.Database.Postgres); err != nil {
			return err
		}
		if cfg.Source.PostgresTable == "" {
			return fmt.Errorf("source.postgres_table is required for source.kind=postgres")
		}
	case SourceElasticsearch:
		if len(cfg.Database.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses or url is required for source.kind=elasticsearch")
		}
		if cfg.Source.ElasticsearchIndex == "" {
			return fmt.Errorf("source.elasticsearch_index is required for source.kind=elasticsearch")
		}
	default:
		return fmt.Errorf("source.kind %q is not one of fixture, csv, postgres, elasticsearch", cfg.Source.Kind)
	}

	if cfg.Cache.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when cache.enabled")
	}
	if cfg.Cache.Enabled && cfg.Cache.Key == "" {
		return fmt.Errorf("cache.key is required when cache.enabled")
	}

	if cfg.AnyWorkerEnabled() {
		if cfg.Camunda.BrokerAddress == "" {
			return fmt.Errorf("camunda.broker_address is required when a worker is enabled")
		}
		if cfg.Source.FixturePath == "" {
			return fmt.Errorf("source.fixture_path is required when a worker is enabled")
		}
		switch cfg.RegenerationSource() {
		case SourceCSV:
			if cfg.Source.CSVPath == "" {
				return fmt.Errorf("source.csv_path is required to regenerate from csv")
			}
		case SourcePostgres:
			if err := validatePostgres(cfg.Database.Postgres); err != nil {
				return err
			}
		case SourceElasticsearch:
			if len(cfg.Database.Elasticsearch.Addresses) == 0 {
				return fmt.Errorf("database.elasticsearch.addresses or url is required to regenerate from elasticsearch")
			}
		default:
			return fmt.Errorf("source.regenerate_from %q is not one of csv, postgres, elasticsearch", cfg.RegenerationSource())
		}
	}

	if cfg.Alerts.SNS.Enabled && cfg.Alerts.SNS.TopicARN == "" {
		return fmt.Errorf("alerts.sns.topic_arn is required when alerts.sns.enabled")
	}
	if cfg.Alerts.SES.Enabled && (cfg.Alerts.SES.FromEmail == "" || len(cfg.Alerts.SES.ToEmails) == 0) {
		return fmt.Errorf("alerts.ses.from_email and alerts.ses.to_emails are required when alerts.ses.enabled")
	}
	if (cfg.Alerts.SNS.Enabled || cfg.Alerts.SES.Enabled) && cfg.Alerts.Region == "" {
		return fmt.Errorf("alerts.region is required when an alert channel is enabled")
	}

	return nil
}

func validatePostgres(pg PostgresConfig) error {
	if pg.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if pg.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if pg.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       false,
		MaxJobsActive: 1,
		Timeout:       120000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled. Workers are opt-in.
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return false
}
