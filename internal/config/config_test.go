package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/containerkit/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toolkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/vault/secrets", cfg.SecretFolder)
	assert.Equal(t, "parquet", cfg.Storage.DefaultFileType)
	assert.Empty(t, cfg.Warehouse.Driver)
}

func TestLoadParsesAllSections(t *testing.T) {
	path := writeConfig(t, `
secret_folder: /run/secrets
storage:
  region: eu-west-1
  endpoint: http://minio:9000
  default_file_type: csv
warehouse:
  driver: postgres
  dsn: postgres://etl@wh/analytics
tasks:
  dir: /data/tasks
metrics:
  enabled: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/run/secrets", cfg.SecretFolder)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.Equal(t, "http://minio:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "csv", cfg.Storage.DefaultFileType)
	assert.Equal(t, "postgres", cfg.Warehouse.Driver)
	assert.Equal(t, "/data/tasks", cfg.Tasks.Dir)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeConfig(t, "secret_folder: [\n")
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "warehouse:\n  driver: postgres\n")
	t.Setenv("CONTAINERKIT_WAREHOUSE_DRIVER", "mysql")
	t.Setenv("CONTAINERKIT_SECRET_FOLDER", "/env/secrets")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Warehouse.Driver)
	assert.Equal(t, "/env/secrets", cfg.SecretFolder)
}

func TestValidateRejectsBadValues(t *testing.T) {
	_, err := config.Load(writeConfig(t, "warehouse:\n  driver: oracle\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warehouse.driver")

	_, err = config.Load(writeConfig(t, "storage:\n  default_file_type: xlsx\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_file_type")

	_, err = config.Load(writeConfig(t, `secret_folder: ""`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret_folder")
}
