package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtcs8803/submit/internal/config"
	"github.com/gtcs8803/submit/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "submit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		conf, err := config.Load(writeConfig(t, "{}\n"))
		require.NoError(t, err)

		assert.Equal(t, "cs8803-02", conf.CourseID)
		assert.Equal(t, 30*time.Second, conf.HTTP.Timeout)
		assert.Equal(t, int(slog.LevelInfo), conf.Logging.App.Level)
		assert.Equal(t, "none", conf.Telemetry.Exporter)
		assert.False(t, conf.Archive.Enabled)
		assert.False(t, conf.ExitCodes.Distinct)
		assert.Empty(t, conf.Audit.Path)

		endpoint, err := conf.Endpoint(types.EnvironmentLocal, types.ProviderUdacity)
		require.NoError(t, err)
		assert.Equal(t, config.LocalEndpoint, endpoint)
	})

	t.Run("File", func(t *testing.T) {
		conf, err := config.Load(writeConfig(t, `
credentials:
  api_key_id: id
  api_key_token: token
endpoints:
  production:
    gt: https://grader.example.edu
http:
  timeout: 10s
exit_codes:
  distinct: true
audit:
  path: /tmp/submit-audit.jsonl
`))
		require.NoError(t, err)

		assert.Equal(t, "id", conf.Credentials.APIKeyID)
		assert.Equal(t, "token", conf.Credentials.APIKeyToken)
		assert.Equal(t, 10*time.Second, conf.HTTP.Timeout)
		assert.True(t, conf.ExitCodes.Distinct)
		assert.Equal(t, "/tmp/submit-audit.jsonl", conf.Audit.Path)

		endpoint, err := conf.Endpoint(types.EnvironmentProduction, types.ProviderGT)
		require.NoError(t, err)
		assert.Equal(t, "https://grader.example.edu", endpoint)

		local, err := conf.Endpoint(types.EnvironmentLocal, types.ProviderGT)
		require.NoError(t, err, "defaults should merge with the file")
		assert.Equal(t, config.LocalEndpoint, local)

		_, err = conf.Endpoint(types.EnvironmentStaging, types.ProviderGT)
		require.ErrorIs(t, err, config.ErrNoEndpoint)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("SUBMIT_CREDENTIALS_API_KEY_TOKEN", "from-env")
		t.Setenv("SUBMIT_EXIT_CODES_DISTINCT", "true")

		conf, err := config.Load(writeConfig(t, "credentials:\n  api_key_token: from-file\n"))
		require.NoError(t, err)

		assert.Equal(t, "from-env", conf.Credentials.APIKeyToken)
		assert.True(t, conf.ExitCodes.Distinct)
	})

	t.Run("MissingExplicitFile", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("InvalidExporter", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, "telemetry:\n  exporter: jaeger\n"))
		require.ErrorContains(t, err, "exporter")
	})

	t.Run("ArchiveMissingFields", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, `
archive:
  enabled: true
  backend: azure
  azure:
    account_name: devstoreaccount1
    container: artifacts
`))
		require.ErrorContains(t, err, "archive.azure.account_key, archive.azure.service_url")
	})

	t.Run("ArchiveMinio", func(t *testing.T) {
		conf, err := config.Load(writeConfig(t, `
archive:
  enabled: true
  minio:
    endpoint: localhost:9000
    access_key_id: minio
    secret_access_key: minio123
    bucket: artifacts
    ssl_enabled: false
`))
		require.NoError(t, err)

		assert.Equal(t, "minio", conf.Archive.Backend)
		assert.False(t, conf.Archive.Minio.SSLEnabled)
		assert.Equal(t, "artifacts", conf.Archive.Minio.Bucket)
	})
}
