package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Leopold1975/awr_control/internal/pkg/config"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestNewDefaults(t *testing.T) {
	t.Setenv("SECRET", "from-env")

	cfg, err := config.New(writeConfig(t, "auth:\n  secret: from-file\n"))
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, config.BackendMemory, cfg.Storage.Backend)
	require.Equal(t, "./migrations", cfg.PostgresDB.MigrationsDir)
	require.Equal(t, 24*time.Hour, cfg.Auth.TTL)
	require.Equal(t, "from-env", cfg.Auth.Secret)
	require.Equal(t, time.Minute, cfg.RedisCache.ExpTime)
	require.Empty(t, cfg.RedisCache.Addr)
	require.Equal(t, config.NotifyLog, cfg.Telegram.Mode)

	require.NoError(t, cfg.Validate())
}

func TestNewMissingFile(t *testing.T) {
	_, err := config.New(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.Config{ //nolint:exhaustruct
		Storage: config.Storage{Backend: config.BackendMemory},
	}
	require.ErrorIs(t, cfg.Validate(), config.ErrNoSecret)

	cfg.Auth.Secret = "s"
	require.NoError(t, cfg.Validate())

	cfg.Storage.Backend = config.BackendPostgres
	require.ErrorIs(t, cfg.Validate(), config.ErrNoDBCreds)

	cfg.PostgresDB.Username = "awr"
	cfg.PostgresDB.DB = "awr"
	require.NoError(t, cfg.Validate())

	cfg.Storage.Backend = "sqlite"
	require.ErrorIs(t, cfg.Validate(), config.ErrUnknownBackend)
}

func TestValidateNotifier(t *testing.T) {
	cfg := config.Config{ //nolint:exhaustruct
		Telegram: config.Telegram{Mode: config.NotifyReply},
	}
	require.ErrorIs(t, cfg.ValidateNotifier(), config.ErrNoToken)

	cfg.Telegram.Token = "123:abc"
	require.NoError(t, cfg.ValidateNotifier())

	cfg.Telegram.Mode = "broadcast"
	require.ErrorIs(t, cfg.ValidateNotifier(), config.ErrUnknownMode)
}
