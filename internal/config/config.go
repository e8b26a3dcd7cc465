package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Redis     RedisConfig     `yaml:"redis"`
	Estimator EstimatorConfig `yaml:"estimator"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the host, defaulting to localhost
func (c ServerConfig) GetHost() string {
	if c.Host == "" {
		return "localhost"
	}
	return c.Host
}

// Addr returns the listen address in host:port form
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// DatasetConfig describes where the three historical tables come from.
// Source selects the loader: "local" reads CSVs from DataDir, "s3" fetches
// the same files from an S3 bucket first, "sql" loads events and budget
// rows through database/sql (postgres or snowflake driver, by DSN).
type DatasetConfig struct {
	Source         string `yaml:"source"`
	DataDir        string `yaml:"data_dir"`
	EventsFile     string `yaml:"events_file"`
	QualityFile    string `yaml:"quality_file"`
	BudgetLogFile  string `yaml:"budget_log_file"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3Region       string `yaml:"s3_region"`
	S3Prefix       string `yaml:"s3_prefix"`
	AWSProfile     string `yaml:"aws_profile"`
	SQLDriver      string `yaml:"sql_driver"`
	SQLDSN         string `yaml:"sql_dsn"`
	ReferenceMonth string `yaml:"reference_month"` // Format: "2025-06"
}

// ReferenceMonthStart parses ReferenceMonth into the first day of that month.
func (c DatasetConfig) ReferenceMonthStart() (time.Time, error) {
	return time.Parse("2006-01", c.ReferenceMonth)
}

// RedisConfig holds the optional quality-score cache settings
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// TTL returns the cache TTL as a duration
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// EstimatorConfig holds the business constants for the estimation pipeline
type EstimatorConfig struct {
	MinBudget           float64 `yaml:"min_budget"`
	MinWindowDays       int     `yaml:"min_window_days"`
	MinCPAS             float64 `yaml:"min_cpas"`
	MaxCPAS             float64 `yaml:"max_cpas"`
	MaxApplyStartsPer30 float64 `yaml:"max_apply_starts_per_30_days"`
	SimplePathThreshold float64 `yaml:"simple_path_budget_threshold"`
}

// Load reads configuration from a YAML file and applies defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Dataset.Source == "" {
		cfg.Dataset.Source = "local"
	}
	if cfg.Dataset.DataDir == "" {
		cfg.Dataset.DataDir = "./data"
	}
	if cfg.Dataset.EventsFile == "" {
		cfg.Dataset.EventsFile = "events.csv"
	}
	if cfg.Dataset.QualityFile == "" {
		cfg.Dataset.QualityFile = "job_quality.csv"
	}
	if cfg.Dataset.BudgetLogFile == "" {
		cfg.Dataset.BudgetLogFile = "budget_log.csv"
	}
	if cfg.Dataset.ReferenceMonth == "" {
		cfg.Dataset.ReferenceMonth = "2025-06"
	}
	if cfg.Dataset.SQLDriver == "" {
		cfg.Dataset.SQLDriver = "postgres"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.TTLSeconds == 0 {
		cfg.Redis.TTLSeconds = 300
	}
	if cfg.Estimator.MinBudget == 0 {
		cfg.Estimator.MinBudget = 5000
	}
	if cfg.Estimator.MinWindowDays == 0 {
		cfg.Estimator.MinWindowDays = 7
	}
	if cfg.Estimator.MinCPAS == 0 {
		cfg.Estimator.MinCPAS = 3.0
	}
	if cfg.Estimator.MaxCPAS == 0 {
		cfg.Estimator.MaxCPAS = 15.0
	}
	if cfg.Estimator.MaxApplyStartsPer30 == 0 {
		cfg.Estimator.MaxApplyStartsPer30 = 50000
	}
	if cfg.Estimator.SimplePathThreshold == 0 {
		cfg.Estimator.SimplePathThreshold = 50000
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		cfg.Server.Host = host
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.Dataset.DataDir = dir
	}
	if source := os.Getenv("DATASET_SOURCE"); source != "" {
		cfg.Dataset.Source = source
	}
	if bucket := os.Getenv("DATASET_S3_BUCKET"); bucket != "" {
		cfg.Dataset.S3Bucket = bucket
	}
	if region := os.Getenv("DATASET_S3_REGION"); region != "" {
		cfg.Dataset.S3Region = region
	}
	if dsn := os.Getenv("DATASET_SQL_DSN"); dsn != "" {
		cfg.Dataset.SQLDSN = dsn
	}
	if driver := os.Getenv("DATASET_SQL_DRIVER"); driver != "" {
		cfg.Dataset.SQLDriver = driver
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}

	return cfg, nil
}
