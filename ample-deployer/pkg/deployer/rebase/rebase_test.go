package rebase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/broadcaster"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/chaintest"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/pipeline"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/testlog"
)

var owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func setup(t *testing.T) (*Protocol, *chaintest.Chain) {
	lgr := testlog.Logger(t, slog.LevelDebug)
	chain := chaintest.New(owner)
	suite, err := pipeline.DeployBaseSuite(context.Background(), &pipeline.Env{Logger: lgr, Chain: chain}, &pipeline.BaseConfig{
		Owner:   owner,
		BaseCPI: standard.AmplBaseCPI,
	})
	require.NoError(t, err)
	rec := registry.NewRecord()
	rec.Contracts = suite.Entries()
	p, err := FromRecord(lgr, chain, rec, NewTracker())
	require.NoError(t, err)
	return p, chain
}

func countTxs(chain *chaintest.Chain, artifact, method string) int {
	n := 0
	for _, tx := range chain.Transactions() {
		if tx.Contract == artifact && tx.Method == method {
			n++
		}
	}
	return n
}

func TestExecuteInitialRebase(t *testing.T) {
	p, chain := setup(t)
	res, err := p.Execute(context.Background(), Request{Epoch: 0})
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.Epoch.Uint64())
	require.Equal(t, chaintest.InitialFragmentsSupply, res.SupplyBefore)
	require.Equal(t, chaintest.InitialFragmentsSupply, res.SupplyAfter)
	require.NotEqual(t, common.Hash{}, res.TxHash)
	require.Equal(t, Confirmed, p.Tracker.State(0))

	// both reports land before the rebase
	txs := chain.Transactions()
	n := len(txs)
	require.Equal(t, "pushReport", txs[n-3].Method)
	require.Equal(t, "pushReport", txs[n-2].Method)
	require.Equal(t, standard.OrchestratorArtifact, txs[n-1].Contract)
	require.Equal(t, "rebase", txs[n-1].Method)
	require.Equal(t, []any{standard.AmplBaseRate}, txs[n-3].Args)
	require.Equal(t, []any{standard.AmplBaseCPI}, txs[n-2].Args)
}

func TestExecuteExpandsSupply(t *testing.T) {
	p, _ := setup(t)
	rate, err := standard.ToRateFixedPt("1.1")
	require.NoError(t, err)
	res, err := p.Execute(context.Background(), Request{Epoch: 0, Rate: rate})
	require.NoError(t, err)
	expected := new(big.Int).Div(new(big.Int).Mul(chaintest.InitialFragmentsSupply, big.NewInt(11)), big.NewInt(10))
	require.Equal(t, 0, expected.Cmp(res.SupplyAfter), "got %s", res.SupplyAfter)
}

func TestExecuteReportFailure(t *testing.T) {
	p, chain := setup(t)
	chain.Revert(standard.MedianOracleArtifact, "pushReport", "only providers can push reports")

	_, err := p.Execute(context.Background(), Request{Epoch: 0})
	require.ErrorIs(t, err, ErrReportSubmissionFailed)
	require.Equal(t, PendingReports, p.Tracker.State(0))
	require.Zero(t, countTxs(chain, standard.OrchestratorArtifact, "rebase"))
}

// failingChain fails sends of method to one address, leaving every other contract
// of the same artifact untouched.
type failingChain struct {
	contracts.Chain
	to     common.Address
	method string
	err    error
}

func (c *failingChain) Send(ctx context.Context, ct *contracts.Contract, method string, args ...any) (*types.Receipt, error) {
	if ct.Address == c.to && method == c.method {
		return nil, fmt.Errorf("%s.%s: %w", ct.Name, method, c.err)
	}
	return c.Chain.Send(ctx, ct, method, args...)
}

func TestExecuteCPIReportFailure(t *testing.T) {
	p, chain := setup(t)
	p.Chain = &failingChain{
		Chain:  chain,
		to:     p.CPIOracle.Address,
		method: "pushReport",
		err:    &broadcaster.RevertError{TxHash: common.Hash{1}, Reason: "execution reverted: stale"},
	}

	_, err := p.Execute(context.Background(), Request{Epoch: 0})
	require.ErrorIs(t, err, ErrReportSubmissionFailed)
	require.ErrorContains(t, err, "cpi oracle")
	require.Equal(t, PendingReports, p.Tracker.State(0))
	// the rate report landed, the rebase was never sent
	require.Equal(t, 1, countTxs(chain, standard.MedianOracleArtifact, "pushReport"))
	require.Zero(t, countTxs(chain, standard.OrchestratorArtifact, "rebase"))
}

func TestExecuteRebaseSendFailure(t *testing.T) {
	p, chain := setup(t)
	p.Chain = &failingChain{
		Chain:  chain,
		to:     p.Orchestrator.Address,
		method: "rebase",
		err:    fmt.Errorf("%w: replacement transaction underpriced", broadcaster.ErrTransactionFailure),
	}

	_, err := p.Execute(context.Background(), Request{Epoch: 0})
	require.ErrorIs(t, err, broadcaster.ErrTransactionFailure)
	require.NotErrorIs(t, err, ErrRebaseReverted)
	require.ErrorContains(t, err, "failed to submit rebase")
	require.Equal(t, RebaseSubmitted, p.Tracker.State(0))
	require.Zero(t, countTxs(chain, standard.OrchestratorArtifact, "rebase"))
}

func TestExecuteRebaseRevertedThenRetried(t *testing.T) {
	ctx := context.Background()
	p, chain := setup(t)
	chain.Revert(standard.OrchestratorArtifact, "rebase", "too soon")

	_, err := p.Execute(ctx, Request{Epoch: 0})
	require.ErrorIs(t, err, ErrRebaseReverted)
	require.ErrorIs(t, err, broadcaster.ErrTransactionFailure)
	require.ErrorContains(t, err, "too soon")
	require.Equal(t, RebaseSubmitted, p.Tracker.State(0))
	reports := countTxs(chain, standard.MedianOracleArtifact, "pushReport")
	require.Equal(t, 2, reports)

	// the reports are still valid, so the retry only resubmits the rebase
	chain.Heal(standard.OrchestratorArtifact, "rebase")
	res, err := p.Execute(ctx, Request{Epoch: 0})
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.Epoch.Uint64())
	require.Equal(t, reports, countTxs(chain, standard.MedianOracleArtifact, "pushReport"))
	require.Equal(t, Confirmed, p.Tracker.State(0))

	_, err = p.Execute(ctx, Request{Epoch: 0})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestExecuteWithoutCPIOracle(t *testing.T) {
	ctx := context.Background()
	p, chain := setup(t)
	_, err := p.Execute(ctx, Request{Epoch: 0})
	require.NoError(t, err)

	p.CPIOracle = nil
	before := countTxs(chain, standard.MedianOracleArtifact, "pushReport")
	res, err := p.Execute(ctx, Request{Epoch: 1})
	require.NoError(t, err)
	require.Equal(t, uint64(2), res.Epoch.Uint64())
	require.Equal(t, before+1, countTxs(chain, standard.MedianOracleArtifact, "pushReport"))
}

func TestFromRecordMissingRole(t *testing.T) {
	rec := registry.NewRecord()
	rec.Contracts[standard.RolePolicy] = registry.Entry{Address: common.Address{1}}
	_, err := FromRecord(testlog.Logger(t, slog.LevelDebug), chaintest.New(owner), rec, NewTracker())
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestInfo(t *testing.T) {
	p, _ := setup(t)
	info, err := p.Info(context.Background())
	require.NoError(t, err)
	require.Zero(t, info.Epoch.Sign())
	require.Equal(t, chaintest.InitialFragmentsSupply, info.Supply)
}
