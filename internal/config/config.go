package config

import (
	"fmt"
	"os"

	dserrors "github.com/systmms/containerkit/internal/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its configuration file.
const DefaultPath = "toolkit.yaml"

// Config holds the toolkit.yaml structure.
type Config struct {
	SecretFolder string          `yaml:"secret_folder"`
	Storage      StorageConfig   `yaml:"storage"`
	Warehouse    WarehouseConfig `yaml:"warehouse"`
	Tasks        TasksConfig     `yaml:"tasks"`
	Metrics      MetricsConfig   `yaml:"metrics"`
}

// StorageConfig holds object-storage settings.
type StorageConfig struct {
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	DefaultFileType string `yaml:"default_file_type,omitempty"`
}

// WarehouseConfig holds warehouse connection settings.
type WarehouseConfig struct {
	Driver string `yaml:"driver,omitempty"`
	DSN    string `yaml:"dsn,omitempty"`
}

// TasksConfig holds task store settings.
type TasksConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Listen  string `yaml:"listen,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		SecretFolder: "/vault/secrets",
		Storage:      StorageConfig{DefaultFileType: "parquet"},
	}
}

// Load reads toolkit.yaml from path, applies environment overrides and
// validates the result. A missing file is not an error: containers
// frequently run on defaults plus environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus env only.
	case err != nil:
		return Config{}, dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, dserrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "invalid YAML syntax in configuration file",
				Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		name  string
		field *string
	}{
		{"CONTAINERKIT_SECRET_FOLDER", &c.SecretFolder},
		{"CONTAINERKIT_STORAGE_REGION", &c.Storage.Region},
		{"CONTAINERKIT_STORAGE_ENDPOINT", &c.Storage.Endpoint},
		{"CONTAINERKIT_WAREHOUSE_DRIVER", &c.Warehouse.Driver},
		{"CONTAINERKIT_WAREHOUSE_DSN", &c.Warehouse.DSN},
		{"CONTAINERKIT_TASKS_DIR", &c.Tasks.Dir},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.name); v != "" {
			*o.field = v
		}
	}
}

// Validate checks field values that have a closed set of options.
func (c *Config) Validate() error {
	switch c.Storage.DefaultFileType {
	case "", "parquet", "csv", "json", "raw":
	default:
		return dserrors.ConfigError{
			Field:      "storage.default_file_type",
			Value:      c.Storage.DefaultFileType,
			Message:    "unsupported default file type",
			Suggestion: "Use one of: parquet, csv, json, raw",
		}
	}

	switch c.Warehouse.Driver {
	case "", "postgres", "mysql":
	default:
		return dserrors.ConfigError{
			Field:      "warehouse.driver",
			Value:      c.Warehouse.Driver,
			Message:    fmt.Sprintf("unsupported warehouse driver %q", c.Warehouse.Driver),
			Suggestion: "Use 'postgres' or 'mysql'",
		}
	}

	if c.SecretFolder == "" {
		return dserrors.ConfigError{
			Field:      "secret_folder",
			Message:    "secret folder must not be empty",
			Suggestion: "Set secret_folder in toolkit.yaml or leave it out to use /vault/secrets",
		}
	}

	return nil
}
