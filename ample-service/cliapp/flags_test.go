package cliapp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestPrefixEnvVar(t *testing.T) {
	require.Equal(t, []string{"AMPLE_DEPLOYER_NETWORKS"}, PrefixEnvVar("AMPLE_DEPLOYER", "NETWORKS"))
}

func TestProtectFlags(t *testing.T) {
	orig := &cli.StringFlag{Name: "token-name", Value: "XC Ampleforth"}
	protected := ProtectFlags([]cli.Flag{orig})
	require.Len(t, protected, 1)

	cpy, ok := protected[0].(*cli.StringFlag)
	require.True(t, ok)
	require.NotSame(t, orig, cpy)
	cpy.Value = "changed"
	require.Equal(t, "XC Ampleforth", orig.Value)
	require.Equal(t, []string{"token-name"}, FlagNames(protected))
}

func TestRequireArgs(t *testing.T) {
	app := cli.NewApp()
	var got error
	app.Action = func(ctx *cli.Context) error {
		got = RequireArgs(ctx, 1, "network")
		return nil
	}
	require.NoError(t, app.Run([]string{"app", "sepolia"}))
	require.NoError(t, got)
	require.NoError(t, app.Run([]string{"app"}))
	require.ErrorContains(t, got, "expected 1 argument(s)")
}
