package inspect

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
	"github.com/lmittmann/w3/w3types"
)

var (
	epochAndSupplyFunc   = w3.MustNewFunc("globalAmpleforthEpochAndAMPLSupply()", "uint256,uint256")
	lastRebaseFunc       = w3.MustNewFunc("lastRebaseTimestampSec()", "uint256")
	rebaseIntervalFunc   = w3.MustNewFunc("minRebaseTimeIntervalSec()", "uint256")
	marketOracleFunc     = w3.MustNewFunc("marketOracle()", "address")
	cpiOracleFunc        = w3.MustNewFunc("cpiOracle()", "address")
	orchestratorFunc     = w3.MustNewFunc("orchestrator()", "address")
	globalAMPLSupplyFunc = w3.MustNewFunc("globalAMPLSupply()", "uint256")
	globalEpochFunc      = w3.MustNewFunc("globalAmpleforthEpoch()", "uint256")
)

// RebaseInfo is the base chain policy's view of the rebase cycle.
type RebaseInfo struct {
	Epoch                    *big.Int
	Supply                   *big.Int
	LastRebaseTimestampSec   *big.Int
	MinRebaseTimeIntervalSec *big.Int
	MarketOracle             common.Address
	CPIOracle                common.Address
	Orchestrator             common.Address
}

// NextRebaseTimestampSec is the earliest time the policy accepts another rebase.
func (i *RebaseInfo) NextRebaseTimestampSec() *big.Int {
	return new(big.Int).Add(i.LastRebaseTimestampSec, i.MinRebaseTimeIntervalSec)
}

// MirrorInfo is the satellite chain's copy of the base chain state.
type MirrorInfo struct {
	GlobalAmpleforthEpoch *big.Int
	GlobalAMPLSupply      *big.Int
}

type call struct {
	to   common.Address
	fn   w3types.Func
	out  []byte
	into []any
}

// batch performs every call in one JSON-RPC batch and decodes the results.
func batch(ctx context.Context, client *rpc.Client, calls []*call) error {
	reqs := make([]w3types.RPCCaller, 0, len(calls))
	for _, c := range calls {
		reqs = append(reqs, eth.Call(&w3types.Message{To: &c.to, Func: c.fn}, nil, nil).Returns(&c.out))
	}
	if err := w3.NewClient(client).CallCtx(ctx, reqs...); err != nil {
		return fmt.Errorf("failed to read contract state: %w", err)
	}
	for _, c := range calls {
		if err := c.fn.DecodeReturns(c.out, c.into...); err != nil {
			return fmt.Errorf("failed to decode contract state: %w", err)
		}
	}
	return nil
}

// ReadRebaseInfo reads the policy's rebase state in a single batch.
func ReadRebaseInfo(ctx context.Context, client *rpc.Client, policy common.Address) (*RebaseInfo, error) {
	info := new(RebaseInfo)
	err := batch(ctx, client, []*call{
		{to: policy, fn: epochAndSupplyFunc, into: []any{&info.Epoch, &info.Supply}},
		{to: policy, fn: lastRebaseFunc, into: []any{&info.LastRebaseTimestampSec}},
		{to: policy, fn: rebaseIntervalFunc, into: []any{&info.MinRebaseTimeIntervalSec}},
		{to: policy, fn: marketOracleFunc, into: []any{&info.MarketOracle}},
		{to: policy, fn: cpiOracleFunc, into: []any{&info.CPIOracle}},
		{to: policy, fn: orchestratorFunc, into: []any{&info.Orchestrator}},
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ReadMirrorInfo reads the satellite's global epoch and supply in a single batch.
func ReadMirrorInfo(ctx context.Context, client *rpc.Client, xcAmple, controller common.Address) (*MirrorInfo, error) {
	info := new(MirrorInfo)
	err := batch(ctx, client, []*call{
		{to: xcAmple, fn: globalAMPLSupplyFunc, into: []any{&info.GlobalAMPLSupply}},
		{to: controller, fn: globalEpochFunc, into: []any{&info.GlobalAmpleforthEpoch}},
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}
