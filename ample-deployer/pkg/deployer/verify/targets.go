package verify

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/log"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/proxy"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
)

// proxiedRoles are deployed behind a TransparentUpgradeableProxy.
var proxiedRoles = map[string]bool{
	standard.RoleAmpl:              true,
	standard.RolePolicy:            true,
	standard.RoleXCAmple:           true,
	standard.RoleXCAmpleController: true,
}

type Session interface {
	contracts.Deployer
	contracts.Caller
}

// Targets lists the contracts of rec to verify. Proxied contracts are verified at their
// implementation; when that lookup fails the contract is logged and left out.
func Targets(ctx context.Context, lgr log.Logger, chain Session, rec *registry.Record) ([]Target, error) {
	var admin *proxy.Admin
	if e, ok := rec.Contracts[standard.RoleProxyAdmin]; ok {
		a, err := proxy.AttachAdmin(chain, e.Address)
		if err != nil {
			return nil, err
		}
		admin = a
	}

	var targets []Target
	for _, role := range rec.Names() {
		entry := rec.Contracts[role]
		name, ok := standard.RoleArtifacts[role]
		if !ok {
			lgr.Warn("Not verifying contract with unknown role", "role", role, "address", entry.Address)
			continue
		}
		if proxiedRoles[role] {
			if admin == nil {
				lgr.Warn("Not verifying proxied contract without a proxy admin", "role", role)
				continue
			}
			impl, err := admin.Implementation(ctx, chain, entry.Address)
			if err != nil {
				lgr.Warn("Not verifying proxied contract", "role", role, "proxy", entry.Address, "err", err)
				continue
			}
			targets = append(targets, Target{Role: role, Name: name, Address: impl})
			continue
		}
		args, err := constructorArgs(chain, rec, role, name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, Target{Role: role, Name: name, Address: entry.Address, ConstructorArgs: args})
	}
	return targets, nil
}

func constructorArgs(chain Session, rec *registry.Record, role string, name string) ([]byte, error) {
	var args []any
	switch role {
	case standard.RoleOrchestrator:
		policy, ok := rec.Contracts[standard.RolePolicy]
		if !ok {
			return nil, fmt.Errorf("%w: %s is required to verify %s", registry.ErrNotFound, standard.RolePolicy, role)
		}
		args = []any{policy.Address}
	case standard.RoleRateOracle, standard.RoleCPIOracle:
		args = []any{
			new(big.Int).SetUint64(standard.OracleReportExpirationTimeSec),
			new(big.Int).SetUint64(standard.OracleReportDelaySec),
			new(big.Int).SetUint64(standard.OracleMinimumProviders),
		}
	default:
		return nil, nil
	}
	c, err := chain.Attach(name, rec.Contracts[role].Address)
	if err != nil {
		return nil, err
	}
	return c.Pack("", args...)
}
