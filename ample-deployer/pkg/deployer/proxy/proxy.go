// Package proxy deploys upgradeable contracts behind transparent proxies owned by
// a ProxyAdmin.
package proxy

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
)

var ErrReadFailure = errors.New("proxy read failed")

// Admin is a deployed ProxyAdmin.
type Admin struct {
	*contracts.Contract
}

// Proxied is an upgradeable contract: the proxy, attached with the implementation's ABI,
// and the implementation address behind it.
type Proxied struct {
	*contracts.Contract
	Implementation common.Address
}

func DeployAdmin(ctx context.Context, chain contracts.Deployer) (*Admin, error) {
	c, err := chain.Deploy(ctx, standard.ProxyAdminArtifact)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy proxy admin: %w", err)
	}
	return &Admin{Contract: c}, nil
}

// AttachAdmin wraps an already deployed ProxyAdmin.
func AttachAdmin(chain contracts.Deployer, addr common.Address) (*Admin, error) {
	c, err := chain.Attach(standard.ProxyAdminArtifact, addr)
	if err != nil {
		return nil, err
	}
	return &Admin{Contract: c}, nil
}

// DeployProxied deploys the implementation of artifact, then a proxy administered by a
// that delegates to it and runs initializer(args...) in its constructor.
func (a *Admin) DeployProxied(ctx context.Context, lgr log.Logger, chain contracts.Deployer, artifact string, initializer string, args ...any) (*Proxied, error) {
	impl, err := chain.Deploy(ctx, artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s implementation: %w", artifact, err)
	}
	initData, err := impl.Pack(initializer, args...)
	if err != nil {
		return nil, err
	}
	p, err := chain.Deploy(ctx, standard.ProxyArtifact, impl.Address, a.Address, initData)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s proxy: %w", artifact, err)
	}
	proxied, err := chain.Attach(artifact, p.Address)
	if err != nil {
		return nil, err
	}
	lgr.Info("Deployed proxied contract", "contract", artifact, "proxy", p.Address, "implementation", impl.Address)
	return &Proxied{Contract: proxied, Implementation: impl.Address}, nil
}

// Implementation asks the admin which implementation proxyAddr delegates to.
func (a *Admin) Implementation(ctx context.Context, caller contracts.Caller, proxyAddr common.Address) (common.Address, error) {
	out, err := caller.Call(ctx, a.Contract, "getProxyImplementation", proxyAddr)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: implementation of %s: %v", ErrReadFailure, proxyAddr, err)
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("%w: unexpected getProxyImplementation result %v", ErrReadFailure, out)
	}
	impl, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: unexpected getProxyImplementation result type %T", ErrReadFailure, out[0])
	}
	return impl, nil
}
