package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cfoust/snake/pkg/game"
	"github.com/cfoust/snake/pkg/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir string, name string, contents string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestProcessDefault(t *testing.T) {
	config, err := Process([]string{})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:42069", config.Server.Address)
	assert.Equal(t, game.DefaultSettings(), config.Server.Game)
	assert.Equal(t, server.DefaultConfig(), config.Server.Simulation())
	assert.Equal(t, uint64(16<<20), config.Server.MaxFrameBytes)
	assert.False(t, config.Server.Web.Enabled)
	assert.Equal(t, "snake:servers", config.Server.Redis.Key)
	assert.Equal(t, 30, config.Server.Redis.TTLSeconds)
	assert.Equal(t, "player", config.Client.Username)
	assert.True(t, config.Client.Fancy)
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()

	// yaml config
	{
		yaml := write(t, dir, "config.yaml", `
server:
  game:
    width: 60
  web:
    enabled: true
`)
		config, err := Process([]string{yaml})
		require.NoError(t, err)
		assert.Equal(t, 60, config.Server.Game.Width)
		// Filled in by the schema
		assert.Equal(t, 20, config.Server.Game.Height)
		assert.True(t, config.Server.Web.Enabled)
		assert.Equal(t, "0.0.0.0:8080", config.Server.Web.Address)
	}

	// json config
	{
		json := write(t, dir, "config.json", `{
  "server": {
    "tickMillis": 50,
    "idleTimeoutSeconds": 30
  }
}`)
		config, err := Process([]string{json})
		require.NoError(t, err)
		assert.Equal(t, 50, config.Server.TickMillis)
		assert.Equal(t, "30s", config.Server.IdleTimeout().String())
	}

	// multiple files
	{
		first := write(t, dir, "config1.yaml", `
server:
  address: "127.0.0.1:4000"
`)
		second := write(t, dir, "config2.yml", `
server:
  description: "Hello, World!"
client:
  username: "alice"
`)
		config, err := Process([]string{first, second})
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:4000", config.Server.Address)
		assert.Equal(t, "Hello, World!", config.Server.Description)
		assert.Equal(t, "alice", config.Client.Username)
	}
}

func TestProcessInvalid(t *testing.T) {
	dir := t.TempDir()

	tooSmall := write(t, dir, "small.yaml", `
server:
  game:
    width: 1
`)
	_, err := Process([]string{tooSmall})
	assert.Error(t, err)

	// Two files may not disagree
	a := write(t, dir, "a.yaml", "server:\n  tickMillis: 10\n")
	b := write(t, dir, "b.yaml", "server:\n  tickMillis: 20\n")
	_, err = Process([]string{a, b})
	assert.Error(t, err)

	unknown := write(t, dir, "config.toml", "server = 1")
	_, err = Process([]string{unknown})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Process([]string{filepath.Join(dir, "missing.yaml")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPaths(t *testing.T) {
	t.Setenv(ENV_CONFIG, "")
	assert.Empty(t, Paths())

	t.Setenv(ENV_CONFIG, strings.Join([]string{"a.yaml", "", "b.json"}, string(os.PathListSeparator)))
	assert.Equal(t, []string{"a.yaml", "b.json"}, Paths())
}
