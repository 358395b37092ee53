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

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kvmConf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	// run from an empty directory so no stray kvmConf.yaml is picked up
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.ServerCfg.Port)
	assert.Equal(t, ":55555", cfg.ServerCfg.Address())
	assert.Equal(t, DefaultMaxConnections, cfg.ServerCfg.MaxConnections)
	assert.Equal(t, uint32(DefaultMaxFrameSize), cfg.ServerCfg.MaxFrameSize)
	assert.Equal(t, "hash", cfg.StoreCfg.Engine)
	assert.True(t, cfg.LimiterCfg.Enabled)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.LimiterCfg.WhiteList)
	assert.False(t, cfg.StatusCfg.Enabled)
	assert.Equal(t, "INFO", cfg.LogCfg.Level)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConf(t, `
server:
  port: 6000
  maxconnections: 2
  idletimeout: 30s
store:
  engine: ordered
limiter:
  whitelist: ["10.0.0.1", "10.0.0.2"]
log:
  level: DEBUG
  console: false
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.ServerCfg.Port)
	assert.Equal(t, 2, cfg.ServerCfg.MaxConnections)
	assert.Equal(t, 30*time.Second, cfg.ServerCfg.IdleTimeout)
	assert.Equal(t, DefaultPipelineDepth, cfg.ServerCfg.PipelineDepth)
	assert.Equal(t, "ordered", cfg.StoreCfg.Engine)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.LimiterCfg.WhiteList)
	assert.Equal(t, "DEBUG", cfg.LogCfg.Level)
	assert.False(t, cfg.LogCfg.Console)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConf(t, "server:\n  port: 6000\n")

	os.Setenv("KVM_SERVER_MAXCONNECTIONS", "7")
	defer os.Unsetenv("KVM_SERVER_MAXCONNECTIONS")

	fs := pflag.NewFlagSet("kvmd", pflag.ContinueOnError)
	fs.Int("port", DefaultPort, "")
	fs.String("engine", "hash", "")
	require.NoError(t, fs.Parse([]string{"--port", "7000"}))

	cfg, err := LoadConfig(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.ServerCfg.Port)
	assert.Equal(t, 7, cfg.ServerCfg.MaxConnections)
	assert.Equal(t, "hash", cfg.StoreCfg.Engine)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	_, err = LoadConfig(writeConf(t, "server:\n  maxconnections: 0\n"), nil)
	assert.Error(t, err)

	_, err = LoadConfig(writeConf(t, "server:\n  port: 70000\n"), nil)
	assert.Error(t, err)
}
