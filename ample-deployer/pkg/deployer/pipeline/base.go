package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/proxy"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
)

type BaseConfig struct {
	// Owner receives the initial AMPL supply and owns the upgradeable contracts.
	Owner   common.Address
	BaseCPI *big.Int
	Funding []Funding
}

func (c *BaseConfig) Check() error {
	if c.Owner == (common.Address{}) {
		return errors.New("owner must be specified")
	}
	if c.BaseCPI == nil || c.BaseCPI.Sign() <= 0 {
		return errors.New("base CPI must be positive")
	}
	for i, f := range c.Funding {
		if f.Recipient == (common.Address{}) {
			return fmt.Errorf("funding %d: recipient must be specified", i)
		}
		if f.Amount == nil || f.Amount.Sign() < 0 {
			return fmt.Errorf("funding %d: amount must not be negative", i)
		}
	}
	return nil
}

// BaseSuite is the AMPL monetary system on the base chain.
type BaseSuite struct {
	ProxyAdmin   *proxy.Admin
	Ampl         *proxy.Proxied
	Policy       *proxy.Proxied
	Orchestrator *contracts.Contract
	RateOracle   *contracts.Contract
	CPIOracle    *contracts.Contract
}

// Entries returns the registry entries of the suite, keyed by role.
func (s *BaseSuite) Entries() map[string]registry.Entry {
	return entries(map[string]*contracts.Contract{
		standard.RoleProxyAdmin:   s.ProxyAdmin.Contract,
		standard.RoleAmpl:         s.Ampl.Contract,
		standard.RolePolicy:       s.Policy.Contract,
		standard.RoleOrchestrator: s.Orchestrator,
		standard.RoleRateOracle:   s.RateOracle,
		standard.RoleCPIOracle:    s.CPIOracle,
	})
}

func entries(byRole map[string]*contracts.Contract) map[string]registry.Entry {
	out := make(map[string]registry.Entry, len(byRole))
	for role, c := range byRole {
		out[role] = registry.Entry{Address: c.Address, ABI: c.Interface()}
	}
	return out
}

// DeployBaseSuite deploys the base-chain contracts in dependency order and funds the
// configured wallets once every contract is wired. The first failing stage aborts the run.
func DeployBaseSuite(ctx context.Context, env *Env, cfg *BaseConfig) (*BaseSuite, error) {
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid base config: %w", err)
	}
	st := new(BaseSuite)
	err := runStages(ctx, env, cfg, st, []stage[BaseConfig, BaseSuite]{
		{"proxy-admin", deployBaseProxyAdmin},
		{"ampl", deployAmpl},
		{"policy", deployPolicy},
		{"orchestrator", deployOrchestrator},
		{"oracles", deployOracles},
		{"funding", fundWallets},
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func deployBaseProxyAdmin(ctx context.Context, env *Env, _ *BaseConfig, st *BaseSuite) error {
	lgr := env.Logger.New("stage", "deploy-proxy-admin")
	admin, err := proxy.DeployAdmin(ctx, env.Chain)
	if err != nil {
		return err
	}
	lgr.Info("Deployed proxy admin", "address", admin.Address)
	st.ProxyAdmin = admin
	return nil
}

func deployAmpl(ctx context.Context, env *Env, cfg *BaseConfig, st *BaseSuite) error {
	lgr := env.Logger.New("stage", "deploy-ampl")
	ampl, err := st.ProxyAdmin.DeployProxied(ctx, lgr, env.Chain, standard.UFragmentsArtifact, "initialize", cfg.Owner)
	if err != nil {
		return err
	}
	st.Ampl = ampl
	return nil
}

func deployPolicy(ctx context.Context, env *Env, cfg *BaseConfig, st *BaseSuite) error {
	lgr := env.Logger.New("stage", "deploy-policy")
	policy, err := st.ProxyAdmin.DeployProxied(ctx, lgr, env.Chain, standard.UFragmentsPolicyArtifact, "initialize",
		cfg.Owner, st.Ampl.Address, cfg.BaseCPI)
	if err != nil {
		return err
	}
	if _, err := env.Chain.Send(ctx, st.Ampl.Contract, "setMonetaryPolicy", policy.Address); err != nil {
		return fmt.Errorf("failed to set monetary policy: %w", err)
	}
	lgr.Info("Set monetary policy", "ampl", st.Ampl.Address, "policy", policy.Address)
	st.Policy = policy
	return nil
}

func deployOrchestrator(ctx context.Context, env *Env, _ *BaseConfig, st *BaseSuite) error {
	lgr := env.Logger.New("stage", "deploy-orchestrator")
	orch, err := env.Chain.Deploy(ctx, standard.OrchestratorArtifact, st.Policy.Address)
	if err != nil {
		return fmt.Errorf("failed to deploy orchestrator: %w", err)
	}
	if _, err := env.Chain.Send(ctx, st.Policy.Contract, "setOrchestrator", orch.Address); err != nil {
		return fmt.Errorf("failed to set orchestrator: %w", err)
	}
	lgr.Info("Deployed orchestrator", "address", orch.Address)
	st.Orchestrator = orch
	return nil
}

func deployOracles(ctx context.Context, env *Env, _ *BaseConfig, st *BaseSuite) error {
	lgr := env.Logger.New("stage", "deploy-oracles")
	rate, err := deployOracle(ctx, env, "rate")
	if err != nil {
		return err
	}
	cpi, err := deployOracle(ctx, env, "cpi")
	if err != nil {
		return err
	}
	if _, err := env.Chain.Send(ctx, st.Policy.Contract, "setMarketOracle", rate.Address); err != nil {
		return fmt.Errorf("failed to set market oracle: %w", err)
	}
	if _, err := env.Chain.Send(ctx, st.Policy.Contract, "setCpiOracle", cpi.Address); err != nil {
		return fmt.Errorf("failed to set cpi oracle: %w", err)
	}
	lgr.Info("Deployed oracles", "rateOracle", rate.Address, "cpiOracle", cpi.Address)
	st.RateOracle = rate
	st.CPIOracle = cpi
	return nil
}

// deployOracle deploys a MedianOracle and registers the deployer as its only provider.
func deployOracle(ctx context.Context, env *Env, kind string) (*contracts.Contract, error) {
	oracle, err := env.Chain.Deploy(ctx, standard.MedianOracleArtifact,
		new(big.Int).SetUint64(standard.OracleReportExpirationTimeSec),
		new(big.Int).SetUint64(standard.OracleReportDelaySec),
		new(big.Int).SetUint64(standard.OracleMinimumProviders),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s oracle: %w", kind, err)
	}
	if _, err := env.Chain.Send(ctx, oracle, "addProvider", env.Chain.From()); err != nil {
		return nil, fmt.Errorf("failed to add provider to %s oracle: %w", kind, err)
	}
	return oracle, nil
}

func fundWallets(ctx context.Context, env *Env, cfg *BaseConfig, st *BaseSuite) error {
	lgr := env.Logger.New("stage", "funding")
	for _, f := range cfg.Funding {
		if _, err := env.Chain.Send(ctx, st.Ampl.Contract, "transfer", f.Recipient, f.Amount); err != nil {
			return fmt.Errorf("failed to fund %s: %w", f.Recipient, err)
		}
		lgr.Info("Funded wallet", "recipient", f.Recipient, "amount", f.Amount)
	}
	return nil
}
