package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/oumarfall/procureflow/internal/domain/approval"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Approval ApprovalConfig `mapstructure:"approval"`
	Report   ReportConfig   `mapstructure:"report"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// ThresholdConfig is one approval level and the amount at which it starts
type ThresholdConfig struct {
	Level   int    `mapstructure:"level"`
	Minimum string `mapstructure:"minimum"`
}

// ApprovalConfig holds the amount thresholds for approval routing
type ApprovalConfig struct {
	RequestThresholds []ThresholdConfig `mapstructure:"request_thresholds"`
	OrderThresholds   []ThresholdConfig `mapstructure:"order_thresholds"`
	TVARate           string            `mapstructure:"tva_rate"`
}

// ReportConfig holds report generation configuration
type ReportConfig struct {
	OutputDir   string `mapstructure:"output_dir"`
	CompanyName string `mapstructure:"company_name"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/procureflow.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	viper.SetDefault("approval.tva_rate", "0.18")

	viper.SetDefault("report.output_dir", "generated_reports")
	viper.SetDefault("report.company_name", "ProcureFlow")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("report.company_name", "COMPANY_NAME")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := decimal.NewFromString(c.Approval.TVARate); err != nil {
		return fmt.Errorf("approval.tva_rate: %w", err)
	}
	if _, err := c.RequestThresholds(); err != nil {
		return err
	}
	if _, err := c.OrderThresholds(); err != nil {
		return err
	}
	return nil
}

// RequestThresholds builds the purchase request threshold table; an empty
// configuration selects the standard table
func (c *Config) RequestThresholds() (*approval.ThresholdTable, error) {
	return buildThresholds(c.Approval.RequestThresholds, approval.DefaultRequestThresholds)
}

// OrderThresholds builds the purchase order threshold table; an empty
// configuration selects the standard table
func (c *Config) OrderThresholds() (*approval.ThresholdTable, error) {
	return buildThresholds(c.Approval.OrderThresholds, approval.DefaultOrderThresholds)
}

// TVA returns the configured VAT rate
func (c *Config) TVA() decimal.Decimal {
	rate, err := decimal.NewFromString(c.Approval.TVARate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func buildThresholds(entries []ThresholdConfig, fallback func() *approval.ThresholdTable) (*approval.ThresholdTable, error) {
	if len(entries) == 0 {
		return fallback(), nil
	}

	minima := make(map[int]decimal.Decimal, len(entries))
	for _, entry := range entries {
		minimum, err := decimal.NewFromString(entry.Minimum)
		if err != nil {
			return nil, fmt.Errorf("approval threshold level %d: %w", entry.Level, err)
		}
		minima[entry.Level] = minimum
	}

	table, err := approval.NewThresholdTable(minima)
	if err != nil {
		return nil, fmt.Errorf("approval thresholds: %w", err)
	}
	return table, nil
}
