package deployer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/urfave/cli/v2"

	"github.com/vidit21srivastava/cross-chain-ample/ample-service/cliutil"
)

// TxParams apply to every transaction of one invocation.
type TxParams struct {
	// GasPrice nil means query the network.
	GasPrice *big.Int
	// GasLimit 0 means let the node estimate.
	GasLimit uint64
}

type GasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// ReadTxParams reads the gas flags. An explicit gas price of 0 is treated like an
// unset one.
func ReadTxParams(cliCtx *cli.Context) (TxParams, error) {
	price, err := cliutil.OptionalBigIntFlag(cliCtx, GasPriceFlagName)
	if err != nil {
		return TxParams{}, configErrorf("invalid --%s: %v", GasPriceFlagName, err)
	}
	if price != nil && price.Sign() < 0 {
		return TxParams{}, configErrorf("--%s must not be negative", GasPriceFlagName)
	}
	if price != nil && price.Sign() == 0 {
		price = nil
	}
	return TxParams{GasPrice: price, GasLimit: cliCtx.Uint64(GasLimitFlagName)}, nil
}

// ResolveTxParams fixes the gas price, querying pricer once when none was given.
// The result is used unchanged for the rest of the run.
func ResolveTxParams(ctx context.Context, p TxParams, pricer GasPricer) (TxParams, error) {
	if p.GasPrice != nil {
		return p, nil
	}
	price, err := pricer.SuggestGasPrice(ctx)
	if err != nil {
		return TxParams{}, fmt.Errorf("failed to query gas price: %w", err)
	}
	return TxParams{GasPrice: price, GasLimit: p.GasLimit}, nil
}
