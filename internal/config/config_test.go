package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STRAVIZ_HTTP_PORT", "STRAVIZ_DB_DRIVER", "STRAVIZ_POSTGRES_DSN",
		"STRAVIZ_SQLITE_PATH", "STRAVIZ_STARTUP_RETRIES", "STRAVIZ_CREDENTIALS_FILE",
	} {
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRAVIZ_DB_DRIVER", "sqlite")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.HTTPPort)
	require.Equal(t, "straviz.db", cfg.SQLitePath)
	require.Equal(t, ".env", cfg.CredentialsFile)
	require.Equal(t, 5, cfg.StartupRetries)
	require.Equal(t, "https://www.strava.com/api/v3", cfg.StravaAPIURL)
}

func TestConfigLoad_PostgresRequiresDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRAVIZ_DB_DRIVER", "postgres")

	_, err := New()
	require.Error(t, err)

	t.Setenv("STRAVIZ_POSTGRES_DSN", "postgres://user:pw@localhost:5432/straviz")
	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.DBDriver)
}

func TestConfigLoad_RejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRAVIZ_DB_DRIVER", "spanner")

	_, err := New()
	require.Error(t, err)
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRAVIZ_DB_DRIVER", "sqlite")
	t.Setenv("STRAVIZ_HTTP_PORT", "9100")
	t.Setenv("STRAVIZ_STARTUP_RETRIES", "0")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, ":9100", cfg.GetHTTPAddr())
	require.Equal(t, 1, cfg.StartupRetries)
}
