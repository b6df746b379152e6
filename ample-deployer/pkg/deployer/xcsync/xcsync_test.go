package xcsync

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/chaintest"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/testlog"
)

var owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

// deployPolicy deploys an initialized token and policy pair directly, without proxies.
func deployPolicy(t *testing.T, chain *chaintest.Chain) common.Address {
	ctx := context.Background()
	ampl, err := chain.Deploy(ctx, standard.UFragmentsArtifact)
	require.NoError(t, err)
	_, err = chain.Send(ctx, ampl, "initialize", owner)
	require.NoError(t, err)
	policy, err := chain.Deploy(ctx, standard.UFragmentsPolicyArtifact)
	require.NoError(t, err)
	_, err = chain.Send(ctx, policy, "initialize", owner, ampl.Address, standard.AmplBaseCPI)
	require.NoError(t, err)
	return policy.Address
}

type fixture struct {
	chain   *chaintest.Chain
	store   *registry.Store
	sync    *Synchronizer
	dialed  []string
	dialErr error
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		chain: chaintest.New(owner),
		store: registry.NewStore(afero.NewMemMapFs(), "deployments"),
	}
	f.sync = &Synchronizer{
		Logger:   testlog.Logger(t, slog.LevelDebug),
		Registry: f.store,
		Dial: func(ctx context.Context, network string) (Session, error) {
			f.dialed = append(f.dialed, network)
			if f.dialErr != nil {
				return nil, f.dialErr
			}
			return f.chain, nil
		},
	}
	return f
}

func (f *fixture) record(t *testing.T, network string, isBase bool, entries map[string]registry.Entry) {
	require.NoError(t, f.store.WriteBulk(network, registry.Batch{IsBaseChain: &isBase, Entries: entries}))
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	policy := deployPolicy(t, f.chain)
	f.record(t, "sepolia", true, map[string]registry.Entry{
		standard.RolePolicy: {Address: policy, ABI: []string{}},
	})
	before := len(f.chain.Transactions())

	snap, err := f.sync.Snapshot(context.Background(), "sepolia")
	require.NoError(t, err)
	require.Zero(t, snap.Epoch.Sign())
	require.Equal(t, chaintest.InitialFragmentsSupply, snap.TotalSupply)
	require.Equal(t, []string{"sepolia"}, f.dialed)
	// reads never produce transactions
	require.Len(t, f.chain.Transactions(), before)
}

func TestSnapshotDependencyMissing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture)
	}{
		{
			name:  "no record",
			setup: func(t *testing.T, f *fixture) {},
		},
		{
			name: "no policy entry",
			setup: func(t *testing.T, f *fixture) {
				f.record(t, "sepolia", true, map[string]registry.Entry{
					standard.RoleAmpl: {Address: common.Address{1}, ABI: []string{}},
				})
			},
		},
		{
			name: "satellite record",
			setup: func(t *testing.T, f *fixture) {
				f.record(t, "sepolia", false, map[string]registry.Entry{
					standard.RolePolicy: {Address: common.Address{1}, ABI: []string{}},
				})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(t, f)
			_, err := f.sync.Snapshot(context.Background(), "sepolia")
			require.ErrorIs(t, err, ErrDependencyMissing)
			require.Empty(t, f.dialed)
		})
	}
}

func TestSnapshotReadFailure(t *testing.T) {
	t.Run("call reverts", func(t *testing.T) {
		f := newFixture(t)
		policy := deployPolicy(t, f.chain)
		f.record(t, "sepolia", true, map[string]registry.Entry{
			standard.RolePolicy: {Address: policy, ABI: []string{}},
		})
		f.chain.Revert(standard.UFragmentsPolicyArtifact, epochAndSupplyMethod, "paused")
		_, err := f.sync.Snapshot(context.Background(), "sepolia")
		require.ErrorIs(t, err, ErrReadFailure)
	})

	t.Run("no code at policy", func(t *testing.T) {
		f := newFixture(t)
		f.record(t, "sepolia", true, map[string]registry.Entry{
			standard.RolePolicy: {Address: common.Address{0xaa}, ABI: []string{}},
		})
		_, err := f.sync.Snapshot(context.Background(), "sepolia")
		require.ErrorIs(t, err, ErrReadFailure)
	})

	t.Run("dial fails", func(t *testing.T) {
		f := newFixture(t)
		f.dialErr = errors.New("connection refused")
		f.record(t, "sepolia", true, map[string]registry.Entry{
			standard.RolePolicy: {Address: common.Address{0xaa}, ABI: []string{}},
		})
		_, err := f.sync.Snapshot(context.Background(), "sepolia")
		require.ErrorIs(t, err, ErrReadFailure)
		require.ErrorContains(t, err, "connection refused")
	})
}
