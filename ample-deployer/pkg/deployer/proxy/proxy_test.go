package proxy

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/broadcaster"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/chaintest"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/testlog"
)

var owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func TestDeployProxied(t *testing.T) {
	ctx := context.Background()
	lgr := testlog.Logger(t, slog.LevelDebug)
	chain := chaintest.New(owner)

	admin, err := DeployAdmin(ctx, chain)
	require.NoError(t, err)
	ampl, err := admin.DeployProxied(ctx, lgr, chain, standard.UFragmentsArtifact, "initialize", owner)
	require.NoError(t, err)
	require.Equal(t, standard.UFragmentsArtifact, ampl.Name)
	require.NotEqual(t, ampl.Address, ampl.Implementation)

	// the proxy speaks the implementation's ABI
	out, err := chain.Call(ctx, ampl.Contract, "owner")
	require.NoError(t, err)
	require.Equal(t, []any{owner}, out)

	impl, err := admin.Implementation(ctx, chain, ampl.Address)
	require.NoError(t, err)
	require.Equal(t, ampl.Implementation, impl)

	attached, err := AttachAdmin(chain, admin.Address)
	require.NoError(t, err)
	impl, err = attached.Implementation(ctx, chain, ampl.Address)
	require.NoError(t, err)
	require.Equal(t, ampl.Implementation, impl)
}

func TestDeployProxiedBadInitializer(t *testing.T) {
	ctx := context.Background()
	chain := chaintest.New(owner)
	admin, err := DeployAdmin(ctx, chain)
	require.NoError(t, err)

	_, err = admin.DeployProxied(ctx, testlog.Logger(t, slog.LevelDebug), chain, standard.UFragmentsArtifact, "initialize", "not an address")
	require.Error(t, err)
	for _, tx := range chain.Transactions() {
		require.NotEqual(t, standard.ProxyArtifact, tx.Contract)
	}
}

func TestDeployProxiedInitializerReverts(t *testing.T) {
	ctx := context.Background()
	chain := chaintest.New(owner)
	admin, err := DeployAdmin(ctx, chain)
	require.NoError(t, err)
	chain.Revert(standard.ProxyArtifact, chaintest.ConstructorMethod, "initializer reverted")

	_, err = admin.DeployProxied(ctx, testlog.Logger(t, slog.LevelDebug), chain, standard.UFragmentsArtifact, "initialize", owner)
	require.ErrorIs(t, err, broadcaster.ErrTransactionFailure)
	require.ErrorContains(t, err, "proxy")
}

func TestImplementationReadFailure(t *testing.T) {
	ctx := context.Background()
	chain := chaintest.New(owner)
	admin, err := DeployAdmin(ctx, chain)
	require.NoError(t, err)

	// not a proxy
	_, err = admin.Implementation(ctx, chain, common.Address{0x42})
	require.ErrorIs(t, err, ErrReadFailure)
}
