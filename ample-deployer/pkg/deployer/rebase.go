package deployer

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/rebase"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/ctxinterrupt"
)

type RebaseConfig struct {
	Network string
	Request rebase.Request
}

func RebaseCLI(cliCtx *cli.Context) error {
	network, err := networkArg(cliCtx)
	if err != nil {
		return err
	}
	rate, err := standard.ToRateFixedPt(cliCtx.String(RateFlagName))
	if err != nil {
		return configErrorf("invalid --%s: %v", RateFlagName, err)
	}
	cpi, err := standard.ToRateFixedPt(cliCtx.String(CPIFlagName))
	if err != nil {
		return configErrorf("invalid --%s: %v", CPIFlagName, err)
	}
	env, err := NewEnvFromCLI(cliCtx)
	if err != nil {
		return err
	}
	ctx := ctxinterrupt.WithCancelOnInterrupt(cliCtx.Context)
	_, err = Rebase(ctx, env, RebaseConfig{
		Network: network,
		Request: rebase.Request{Epoch: cliCtx.Uint64(EpochFlagName), Rate: rate, CPI: cpi},
	})
	return err
}

// Rebase reports the rate and CPI and triggers a rebase on a recorded base chain.
func Rebase(ctx context.Context, env *Env, cfg RebaseConfig) (*rebase.Result, error) {
	rec, err := env.Registry.Record(cfg.Network)
	if err != nil {
		return nil, err
	}
	if rec.IsBaseChain == nil || !*rec.IsBaseChain {
		return nil, configErrorf("%s is not a base chain deployment", cfg.Network)
	}
	sess, err := env.Dial(ctx, cfg.Network, false)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	lgr := env.Logger.New("task", "rebase", "network", cfg.Network)
	proto, err := rebase.FromRecord(lgr, sess.Chain, rec, rebase.NewTracker())
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}
	res, err := proto.Execute(ctx, cfg.Request)
	if err != nil {
		return nil, fmt.Errorf("rebase: %w", err)
	}
	if env.Out != nil {
		fmt.Fprintf(env.Out, "epoch %s: supply %s -> %s (tx %s)\n", res.Epoch, res.SupplyBefore, res.SupplyAfter, res.TxHash)
	}
	return res, nil
}
