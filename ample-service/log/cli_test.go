package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"
)

func runWithFlags(t *testing.T, args ...string) CLIConfig {
	var cfg CLIConfig
	app := cli.NewApp()
	app.Flags = CLIFlags("TEST")
	app.Action = func(ctx *cli.Context) error {
		cfg = ReadCLIConfig(ctx)
		return nil
	}
	require.NoError(t, app.Run(append([]string{"app"}, args...)))
	return cfg
}

func TestReadCLIConfigDefaults(t *testing.T) {
	cfg := runWithFlags(t, "--log.color=false")
	require.Equal(t, log.LevelInfo, cfg.Level)
	require.Equal(t, FormatText, cfg.Format)
	require.False(t, cfg.Color)
}

func TestReadCLIConfigOverrides(t *testing.T) {
	cfg := runWithFlags(t, "--log.level=debug", "--log.format=json", "--log.color")
	require.Equal(t, log.LevelDebug, cfg.Level)
	require.Equal(t, FormatJSON, cfg.Format)
	require.True(t, cfg.Color)
}

func TestReadCLIConfigEnv(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "error")
	cfg := runWithFlags(t)
	require.Equal(t, log.LevelError, cfg.Level)
}

func TestInvalidFlagValues(t *testing.T) {
	var ft FormatType
	require.Error(t, ft.Set("xml"))
	_, err := LevelFromString("loud")
	require.Error(t, err)
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	lgr := NewLogger(&buf, CLIConfig{Level: log.LevelInfo, Format: FormatJSON})
	lgr.Debug("filtered")
	lgr.Info("kept", "network", "sepolia")
	require.NotContains(t, buf.String(), "filtered")
	require.Contains(t, buf.String(), `"network":"sepolia"`)
}
