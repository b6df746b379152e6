// Package rebase pushes oracle reports and triggers the orchestrator's rebase.
package rebase

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/broadcaster"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
)

var (
	ErrReportSubmissionFailed = errors.New("oracle report submission failed")
	ErrRebaseReverted         = errors.New("rebase reverted")
)

type Request struct {
	// Epoch identifies the run in the tracker.
	Epoch uint64
	// Rate defaults to standard.AmplBaseRate.
	Rate *big.Int
	// CPI defaults to standard.AmplBaseCPI. Ignored without a CPI oracle.
	CPI *big.Int
}

type Result struct {
	// Epoch is the policy's epoch after the rebase.
	Epoch        *big.Int
	SupplyBefore *big.Int
	SupplyAfter  *big.Int
	TxHash       common.Hash
}

// Info is the policy's view of the current rebase cycle.
type Info struct {
	Epoch  *big.Int
	Supply *big.Int
}

type Protocol struct {
	Logger       log.Logger
	Chain        contracts.Chain
	Tracker      *Tracker
	Policy       *contracts.Contract
	Orchestrator *contracts.Contract
	RateOracle   *contracts.Contract
	// CPIOracle is optional.
	CPIOracle *contracts.Contract
}

// FromRecord attaches to the rebase contracts of a base chain record.
func FromRecord(lgr log.Logger, chain contracts.Chain, rec *registry.Record, tracker *Tracker) (*Protocol, error) {
	attach := func(role string, required bool) (*contracts.Contract, error) {
		e, ok := rec.Contracts[role]
		if !ok {
			if required {
				return nil, fmt.Errorf("%w: %s", registry.ErrNotFound, role)
			}
			return nil, nil
		}
		return chain.Attach(standard.RoleArtifacts[role], e.Address)
	}
	p := &Protocol{Logger: lgr, Chain: chain, Tracker: tracker}
	var err error
	if p.Policy, err = attach(standard.RolePolicy, true); err != nil {
		return nil, err
	}
	if p.Orchestrator, err = attach(standard.RoleOrchestrator, true); err != nil {
		return nil, err
	}
	if p.RateOracle, err = attach(standard.RoleRateOracle, true); err != nil {
		return nil, err
	}
	if p.CPIOracle, err = attach(standard.RoleCPIOracle, false); err != nil {
		return nil, err
	}
	return p, nil
}

// Info reads the policy's epoch and the token supply in one call.
func (p *Protocol) Info(ctx context.Context) (*Info, error) {
	out, err := p.Chain.Call(ctx, p.Policy, "globalAmpleforthEpochAndAMPLSupply")
	if err != nil {
		return nil, fmt.Errorf("failed to read rebase info: %w", err)
	}
	if len(out) != 2 {
		return nil, fmt.Errorf("unexpected rebase info %v", out)
	}
	epoch, ok1 := out[0].(*big.Int)
	supply, ok2 := out[1].(*big.Int)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("unexpected rebase info types %T, %T", out[0], out[1])
	}
	return &Info{Epoch: epoch, Supply: supply}, nil
}

// Execute submits the oracle reports and then the rebase, waiting for each transaction.
// A failed step leaves the epoch in its current state, so a later Execute for the same
// epoch resumes where this one stopped.
func (p *Protocol) Execute(ctx context.Context, req Request) (*Result, error) {
	lgr := p.Logger.New("epoch", req.Epoch)
	rate, cpi := req.Rate, req.CPI
	if rate == nil {
		rate = standard.AmplBaseRate
	}
	if cpi == nil {
		cpi = standard.AmplBaseCPI
	}

	state := p.Tracker.State(req.Epoch)
	if state == Confirmed {
		return nil, fmt.Errorf("%w: epoch %d already confirmed", ErrInvalidTransition, req.Epoch)
	}
	if state == PendingReports {
		if err := p.pushReports(ctx, lgr, rate, cpi); err != nil {
			return nil, err
		}
		if err := p.Tracker.Advance(req.Epoch, ReportsSubmitted); err != nil {
			return nil, err
		}
	} else {
		lgr.Info("Reports already submitted", "state", state)
	}

	before, err := p.Info(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Tracker.Advance(req.Epoch, RebaseSubmitted); err != nil {
		return nil, err
	}
	receipt, err := p.Chain.Send(ctx, p.Orchestrator, "rebase")
	if err != nil {
		var revert *broadcaster.RevertError
		if errors.As(err, &revert) {
			return nil, fmt.Errorf("%w: %w", ErrRebaseReverted, err)
		}
		return nil, fmt.Errorf("failed to submit rebase: %w", err)
	}
	if err := p.Tracker.Advance(req.Epoch, Confirmed); err != nil {
		return nil, err
	}

	after, err := p.Info(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Epoch:        after.Epoch,
		SupplyBefore: before.Supply,
		SupplyAfter:  after.Supply,
		TxHash:       receipt.TxHash,
	}
	lgr.Info("Rebase confirmed", "policyEpoch", res.Epoch, "supplyBefore", res.SupplyBefore,
		"supplyAfter", res.SupplyAfter, "tx", res.TxHash)
	return res, nil
}

func (p *Protocol) pushReports(ctx context.Context, lgr log.Logger, rate, cpi *big.Int) error {
	if _, err := p.Chain.Send(ctx, p.RateOracle, "pushReport", rate); err != nil {
		return fmt.Errorf("%w: rate oracle: %v", ErrReportSubmissionFailed, err)
	}
	lgr.Info("Pushed rate report", "oracle", p.RateOracle.Address, "rate", rate)
	if p.CPIOracle == nil {
		return nil
	}
	if _, err := p.Chain.Send(ctx, p.CPIOracle, "pushReport", cpi); err != nil {
		return fmt.Errorf("%w: cpi oracle: %v", ErrReportSubmissionFailed, err)
	}
	lgr.Info("Pushed cpi report", "oracle", p.CPIOracle.Address, "cpi", cpi)
	return nil
}
