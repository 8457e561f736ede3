package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitConfig(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		config := DefaultConfig()
		require.NoError(t, InitConfig(config, "abc123", "v1.0.0", "2023-07-02"))
		assert.Equal(t, "abc123", config.GitCommit)
		assert.Equal(t, "v1.0.0", config.GitTag)
		assert.Equal(t, "2023-07-02", config.BuildTime)
	})

	t.Run("empty build values keep existing", func(t *testing.T) {
		config := DefaultConfig()
		config.GitTag = "v0.1.0"
		require.NoError(t, InitConfig(config, "", "", ""))
		assert.Equal(t, "v0.1.0", config.GitTag)
	})

	t.Run("missing server port", func(t *testing.T) {
		config := DefaultConfig()
		config.Server.Port = ""
		assert.Error(t, InitConfig(config, "", "", ""))
	})

	t.Run("missing data file", func(t *testing.T) {
		config := DefaultConfig()
		config.DataFile = ""
		assert.Error(t, InitConfig(config, "", "", ""))
	})

	t.Run("unknown queue", func(t *testing.T) {
		config := DefaultConfig()
		config.Journal.Queue = "kafka"
		assert.EqualError(t, InitConfig(config, "", "", ""), `unknown journal queue "kafka"`)
	})

	t.Run("redis queue without address", func(t *testing.T) {
		config := DefaultConfig()
		config.Journal.Queue = QueueRedis
		config.Redis.Host = ""
		assert.Error(t, InitConfig(config, "", "", ""))
	})

	t.Run("disabled journal skips its checks", func(t *testing.T) {
		config := DefaultConfig()
		config.Journal.Enabled = false
		config.Journal.Queue = "kafka"
		config.BoltDB.FilePath = ""
		assert.NoError(t, InitConfig(config, "", "", ""))
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		content := []byte("log_level: debug\ndata_file: /tmp/books.txt\nserver:\n  port: \"9090\"\n  request_timeout: 3s\njournal:\n  queue: redis\n")
		require.NoError(t, os.WriteFile(path, content, 0o600))

		config := DefaultConfig()
		require.NoError(t, LoadConfigFile(path, config))
		assert.Equal(t, zapcore.DebugLevel, config.LogLevel)
		assert.Equal(t, "/tmp/books.txt", config.DataFile)
		assert.Equal(t, "9090", config.Server.Port)
		assert.Equal(t, 3*time.Second, config.Server.RequestTimeout)
		assert.Equal(t, QueueRedis, config.Journal.Queue)
		// untouched keys keep their default.
		assert.Equal(t, "localhost", config.Server.Host)
		assert.Equal(t, 256, config.Journal.QueueSize)
	})

	t.Run("missing file", func(t *testing.T) {
		config := DefaultConfig()
		require.NoError(t, LoadConfigFile(filepath.Join(t.TempDir(), "none.yml"), config))
		assert.Equal(t, DefaultConfig(), config)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0o600))
		assert.Error(t, LoadConfigFile(path, DefaultConfig()))
	})
}

func TestLoadConfigEnvs(t *testing.T) {
	t.Setenv("LCAP_SERVER_PORT", "7070")
	t.Setenv("LCAP_DATA_FILE", "env_data.txt")
	t.Setenv("LCAP_JOURNAL_QUEUE_SIZE", "16")
	t.Setenv("LCAP_LOG_LEVEL", "warn")

	config := DefaultConfig()
	require.NoError(t, LoadConfigEnvs("LCAP", config))
	assert.Equal(t, "7070", config.Server.Port)
	assert.Equal(t, "env_data.txt", config.DataFile)
	assert.Equal(t, 16, config.Journal.QueueSize)
	assert.Equal(t, zapcore.WarnLevel, config.LogLevel)
}

func TestLoadAndInitConfigs(t *testing.T) {
	// restored once the test ends since config.env does not override them.
	t.Setenv("LCAP_LOG_LEVEL", "error")
	t.Setenv("LCAP_JOURNAL_QUEUE", QueueMemory)
	t.Setenv("LCAP_SERVER_PORT", "6060")

	config, err := LoadAndInitConfigs("c0ffee", "", "")
	require.NoError(t, err)
	assert.Equal(t, "6060", config.Server.Port)
	assert.Equal(t, zapcore.ErrorLevel, config.LogLevel)
	assert.Equal(t, "c0ffee", config.GitCommit)
	assert.Equal(t, "library_data.txt", config.DataFile)
}
