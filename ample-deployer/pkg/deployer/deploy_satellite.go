package deployer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/inspect"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/pipeline"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/xcsync"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/ctxinterrupt"
)

type DeploySatelliteConfig struct {
	Network          string
	BaseChainNetwork string
	TokenName        string
	TokenSymbol      string
}

func (c *DeploySatelliteConfig) Check() error {
	switch {
	case c.Network == "":
		return configErrorf("network is required")
	case c.BaseChainNetwork == "":
		return configErrorf("--%s is required", BaseChainNetworkFlagName)
	case c.BaseChainNetwork == c.Network:
		return configErrorf("satellite network %s cannot be its own base chain", c.Network)
	case c.TokenName == "":
		return configErrorf("--%s is required", TokenNameFlagName)
	case c.TokenSymbol == "":
		return configErrorf("--%s is required", TokenSymbolFlagName)
	}
	return nil
}

// SatelliteDeployment is the outcome of a satellite chain deployment.
type SatelliteDeployment struct {
	Snapshot *xcsync.Snapshot
	Suite    *pipeline.SatelliteSuite
}

func DeploySatelliteCLI(cliCtx *cli.Context) error {
	network, err := networkArg(cliCtx)
	if err != nil {
		return err
	}
	env, err := NewEnvFromCLI(cliCtx)
	if err != nil {
		return err
	}
	ctx := ctxinterrupt.WithCancelOnInterrupt(cliCtx.Context)
	_, err = DeploySatellite(ctx, env, DeploySatelliteConfig{
		Network:          network,
		BaseChainNetwork: cliCtx.String(BaseChainNetworkFlagName),
		TokenName:        cliCtx.String(TokenNameFlagName),
		TokenSymbol:      cliCtx.String(TokenSymbolFlagName),
	})
	return err
}

// DeploySatellite deploys the mirror suite on cfg.Network, seeded with the base
// chain's current epoch and supply. Nothing is dialed on either chain before the
// registry confirms the base deployment exists.
func DeploySatellite(ctx context.Context, env *Env, cfg DeploySatelliteConfig) (*SatelliteDeployment, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	lgr := env.Logger.New("task", "deploy-satellite", "network", cfg.Network, "baseChain", cfg.BaseChainNetwork)
	if err := checkTopology(env.Registry, cfg.Network, false); err != nil {
		return nil, err
	}

	var opened []*Session
	defer func() {
		for _, s := range opened {
			s.Close()
		}
	}()
	synchronizer := &xcsync.Synchronizer{
		Logger:   lgr,
		Registry: env.Registry,
		Dial: func(ctx context.Context, network string) (xcsync.Session, error) {
			sess, err := env.Dial(ctx, network, true)
			if err != nil {
				return nil, err
			}
			opened = append(opened, sess)
			logRebaseInfo(ctx, lgr, env.Registry, sess)
			return sess.Chain, nil
		},
	}
	snap, err := synchronizer.Snapshot(ctx, cfg.BaseChainNetwork)
	if err != nil {
		return nil, fmt.Errorf("deploy-satellite: %w", err)
	}

	sess, err := env.Dial(ctx, cfg.Network, false)
	if err != nil {
		return nil, err
	}
	opened = append(opened, sess)
	lgr.Info("Deploying satellite chain contracts", "deployer", sess.Chain.From(),
		"epoch", snap.Epoch, "totalSupply", snap.TotalSupply)

	suite, err := pipeline.DeploySatelliteSuite(ctx, &pipeline.Env{Logger: lgr, Chain: sess.Chain}, &pipeline.SatelliteConfig{
		BaseChainNetwork: cfg.BaseChainNetwork,
		TokenName:        cfg.TokenName,
		TokenSymbol:      cfg.TokenSymbol,
		Snapshot:         snap,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy-satellite: %w", err)
	}

	isBase := false
	if err := env.Registry.WriteBulk(cfg.Network, registry.Batch{
		IsBaseChain:      &isBase,
		BaseChainNetwork: cfg.BaseChainNetwork,
		Entries:          suite.Entries(),
	}); err != nil {
		return nil, fmt.Errorf("deploy-satellite: failed to record deployment: %w", err)
	}
	lgr.Info("Recorded deployment", "dir", env.Registry.Dir())

	verifyPhase(ctx, env, sess)
	return &SatelliteDeployment{Snapshot: snap, Suite: suite}, nil
}

// logRebaseInfo logs the base chain's rebase schedule. It needs a node-backed
// session and only warns on failure.
func logRebaseInfo(ctx context.Context, lgr log.Logger, store *registry.Store, sess *Session) {
	if sess.RPC == nil {
		return
	}
	entry, err := store.Read(sess.Network, standard.RolePolicy)
	if err != nil {
		return
	}
	info, err := inspect.ReadRebaseInfo(ctx, sess.RPC, entry.Address)
	if err != nil {
		lgr.Warn("Failed to read base chain rebase info", "err", err)
		return
	}
	lgr.Info("Base chain rebase info", "epoch", info.Epoch, "supply", info.Supply,
		"lastRebase", info.LastRebaseTimestampSec, "nextRebase", info.NextRebaseTimestampSec())
}
