package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/proxy"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/xcsync"
)

type SatelliteConfig struct {
	BaseChainNetwork string
	TokenName        string
	TokenSymbol      string
	// Snapshot is the base chain state the mirror starts from.
	Snapshot *xcsync.Snapshot
}

func (c *SatelliteConfig) Check() error {
	if c.BaseChainNetwork == "" {
		return errors.New("base chain network must be specified")
	}
	if c.TokenName == "" {
		return errors.New("token name must be specified")
	}
	if c.TokenSymbol == "" {
		return errors.New("token symbol must be specified")
	}
	if c.Snapshot == nil || c.Snapshot.Epoch == nil || c.Snapshot.TotalSupply == nil {
		return errors.New("base chain snapshot must be specified")
	}
	return nil
}

// SatelliteSuite is the XC-AMPL mirror on a satellite chain.
type SatelliteSuite struct {
	ProxyAdmin    *proxy.Admin
	XCAmple       *proxy.Proxied
	Controller    *proxy.Proxied
	RebaseRelayer *contracts.Contract
}

func (s *SatelliteSuite) Entries() map[string]registry.Entry {
	return entries(map[string]*contracts.Contract{
		standard.RoleProxyAdmin:        s.ProxyAdmin.Contract,
		standard.RoleXCAmple:           s.XCAmple.Contract,
		standard.RoleXCAmpleController: s.Controller.Contract,
		standard.RoleRebaseRelayer:     s.RebaseRelayer,
	})
}

// DeploySatelliteSuite deploys the mirror token and its controller seeded with the
// configured snapshot, then the relayer that forwards base chain rebases.
func DeploySatelliteSuite(ctx context.Context, env *Env, cfg *SatelliteConfig) (*SatelliteSuite, error) {
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid satellite config: %w", err)
	}
	st := new(SatelliteSuite)
	err := runStages(ctx, env, cfg, st, []stage[SatelliteConfig, SatelliteSuite]{
		{"proxy-admin", deploySatelliteProxyAdmin},
		{"xc-ample", deployXCAmple},
		{"xc-ample-controller", deployController},
		{"rebase-relayer", deployRebaseRelayer},
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func deploySatelliteProxyAdmin(ctx context.Context, env *Env, _ *SatelliteConfig, st *SatelliteSuite) error {
	admin, err := proxy.DeployAdmin(ctx, env.Chain)
	if err != nil {
		return err
	}
	env.Logger.Info("Deployed proxy admin", "stage", "deploy-proxy-admin", "address", admin.Address)
	st.ProxyAdmin = admin
	return nil
}

func deployXCAmple(ctx context.Context, env *Env, cfg *SatelliteConfig, st *SatelliteSuite) error {
	lgr := env.Logger.New("stage", "deploy-xc-ample")
	xc, err := st.ProxyAdmin.DeployProxied(ctx, lgr, env.Chain, standard.XCAmpleArtifact, "initialize",
		cfg.TokenName, cfg.TokenSymbol, cfg.Snapshot.TotalSupply)
	if err != nil {
		return err
	}
	st.XCAmple = xc
	return nil
}

func deployController(ctx context.Context, env *Env, cfg *SatelliteConfig, st *SatelliteSuite) error {
	lgr := env.Logger.New("stage", "deploy-xc-ample-controller")
	ctrl, err := st.ProxyAdmin.DeployProxied(ctx, lgr, env.Chain, standard.XCAmpleControllerArtifact, "initialize",
		st.XCAmple.Address, cfg.Snapshot.Epoch)
	if err != nil {
		return err
	}
	if _, err := env.Chain.Send(ctx, st.XCAmple.Contract, "setController", ctrl.Address); err != nil {
		return fmt.Errorf("failed to set controller: %w", err)
	}
	lgr.Info("Set controller", "xcAmple", st.XCAmple.Address, "controller", ctrl.Address,
		"baseChainNetwork", cfg.BaseChainNetwork, "epoch", cfg.Snapshot.Epoch)
	st.Controller = ctrl
	return nil
}

func deployRebaseRelayer(ctx context.Context, env *Env, _ *SatelliteConfig, st *SatelliteSuite) error {
	lgr := env.Logger.New("stage", "deploy-rebase-relayer")
	relayer, err := env.Chain.Deploy(ctx, standard.BatchTxExecutorArtifact)
	if err != nil {
		return fmt.Errorf("failed to deploy rebase relayer: %w", err)
	}
	if _, err := env.Chain.Send(ctx, st.Controller.Contract, "setRebaseRelayer", relayer.Address); err != nil {
		return fmt.Errorf("failed to set rebase relayer: %w", err)
	}
	lgr.Info("Deployed rebase relayer", "address", relayer.Address)
	st.RebaseRelayer = relayer
	return nil
}
