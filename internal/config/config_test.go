package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8080/ws", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.PingPeriod)
	assert.Equal(t, 3*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 5, cfg.MaxReconnectAttempts)
	assert.Equal(t, int64(65536), cfg.ReadLimit)
	assert.Equal(t, 5, cfg.SendRateLimit)
	assert.Equal(t, time.Second, cfg.SendRateInterval)
	assert.Empty(t, cfg.StatusAddr)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFrom_FileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
server_url: ws://chat.example:9000/ws
username: alice
ping_period: 15s
status_addr: 127.0.0.1:9090
`)
	t.Setenv("CHATCUBE_USERNAME", "bob")
	t.Setenv("CHATCUBE_RECONNECT_DELAY", "500ms")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("server", "", "")
	flags.String("status-addr", "", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--log-level=debug"}))

	cfg, err := LoadFrom(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "ws://chat.example:9000/ws", cfg.ServerURL, "unset flag keeps file value")
	assert.Equal(t, "bob", cfg.Username, "env beats file")
	assert.Equal(t, 500*time.Millisecond, cfg.ReconnectDelay)
	assert.Equal(t, 15*time.Second, cfg.PingPeriod)
	assert.Equal(t, "127.0.0.1:9090", cfg.StatusAddr)
	assert.Equal(t, "debug", cfg.LogLevel, "set flag beats everything")
}

func TestLoadFrom_Invalid(t *testing.T) {
	cases := map[string]string{
		"scheme":   "server_url: http://localhost:8080/ws\n",
		"host":     "server_url: ws:///ws\n",
		"duration": "ping_period: 0s\n",
		"mode":     "mode: verbose\n",
		"buffer":   "send_buffer: 0\n",
		"attempts": "max_reconnect_attempts: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, body), nil)
			assert.Error(t, err)
		})
	}
}
