package deployer

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/pipeline"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/rebase"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/cliapp"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/ctxinterrupt"
)

type DeployBaseConfig struct {
	Network string
	Funding []pipeline.Funding
}

func (c *DeployBaseConfig) Check() error {
	if c.Network == "" {
		return configErrorf("network is required")
	}
	return nil
}

// BaseDeployment is the outcome of a base chain deployment.
type BaseDeployment struct {
	Suite  *pipeline.BaseSuite
	Rebase *rebase.Result
}

func DeployBaseCLI(cliCtx *cli.Context) error {
	network, err := networkArg(cliCtx)
	if err != nil {
		return err
	}
	funding, err := ParseFunding(cliCtx.String(FundingWalletsFlagName), cliCtx.String(AmountFlagName))
	if err != nil {
		return err
	}
	env, err := NewEnvFromCLI(cliCtx)
	if err != nil {
		return err
	}
	ctx := ctxinterrupt.WithCancelOnInterrupt(cliCtx.Context)
	_, err = DeployBase(ctx, env, DeployBaseConfig{Network: network, Funding: funding})
	return err
}

// DeployBase deploys the base suite on cfg.Network, funds the configured wallets,
// records the suite and runs the initial rebase. Verification follows and never
// fails the deployment.
func DeployBase(ctx context.Context, env *Env, cfg DeployBaseConfig) (*BaseDeployment, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	lgr := env.Logger.New("task", "deploy-base", "network", cfg.Network)
	if err := checkTopology(env.Registry, cfg.Network, true); err != nil {
		return nil, err
	}

	sess, err := env.Dial(ctx, cfg.Network, false)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	owner := sess.Chain.From()
	lgr.Info("Deploying base chain contracts", "deployer", owner, "fundingWallets", len(cfg.Funding))

	suite, err := pipeline.DeployBaseSuite(ctx, &pipeline.Env{Logger: lgr, Chain: sess.Chain}, &pipeline.BaseConfig{
		Owner:   owner,
		BaseCPI: standard.AmplBaseCPI,
		Funding: cfg.Funding,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy-base: %w", err)
	}

	isBase := true
	if err := env.Registry.WriteBulk(cfg.Network, registry.Batch{
		IsBaseChain: &isBase,
		Entries:     suite.Entries(),
	}); err != nil {
		return nil, fmt.Errorf("deploy-base: failed to record deployment: %w", err)
	}
	lgr.Info("Recorded deployment", "dir", env.Registry.Dir())

	proto := &rebase.Protocol{
		Logger:       lgr,
		Chain:        sess.Chain,
		Tracker:      rebase.NewTracker(),
		Policy:       suite.Policy.Contract,
		Orchestrator: suite.Orchestrator,
		RateOracle:   suite.RateOracle,
		CPIOracle:    suite.CPIOracle,
	}
	res, err := proto.Execute(ctx, rebase.Request{Epoch: 0})
	if err != nil {
		return nil, fmt.Errorf("deploy-base: initial rebase: %w", err)
	}

	verifyPhase(ctx, env, sess)
	return &BaseDeployment{Suite: suite, Rebase: res}, nil
}

// checkTopology fails when network already holds a record of the other kind.
func checkTopology(store *registry.Store, network string, isBase bool) error {
	rec, err := store.Record(network)
	if errors.Is(err, registry.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.IsBaseChain != nil && *rec.IsBaseChain != isBase {
		return fmt.Errorf("%w: %s already records isBaseChain=%t", registry.ErrInconsistentTopology, network, *rec.IsBaseChain)
	}
	return nil
}

func networkArg(cliCtx *cli.Context) (string, error) {
	if err := cliapp.RequireArgs(cliCtx, 1, "network"); err != nil {
		return "", fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return cliCtx.Args().First(), nil
}
