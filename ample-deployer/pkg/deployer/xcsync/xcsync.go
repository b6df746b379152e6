// Package xcsync reads the base chain's rebase state that seeds a satellite deployment.
package xcsync

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
)

var (
	ErrDependencyMissing = errors.New("dependency missing")
	ErrReadFailure       = errors.New("base chain read failed")
)

const epochAndSupplyMethod = "globalAmpleforthEpochAndAMPLSupply"

// Snapshot is the base chain's epoch and AMPL supply at the time it was read.
type Snapshot struct {
	Epoch       *big.Int
	TotalSupply *big.Int
}

// Session is a read-only view of a chain.
type Session interface {
	Attach(artifact string, addr common.Address) (*contracts.Contract, error)
	contracts.Caller
}

// DialFunc opens a session with the named network. It is only invoked once the
// registry confirms the network carries a base deployment.
type DialFunc func(ctx context.Context, network string) (Session, error)

type Synchronizer struct {
	Logger   log.Logger
	Registry *registry.Store
	Dial     DialFunc
}

// Resolve returns the base network's policy entry. It fails with ErrDependencyMissing
// when the network has no base deployment.
func (s *Synchronizer) Resolve(baseNetwork string) (registry.Entry, error) {
	rec, err := s.Registry.Record(baseNetwork)
	if errors.Is(err, registry.ErrNotFound) {
		return registry.Entry{}, fmt.Errorf("%w: %v", ErrDependencyMissing, err)
	}
	if err != nil {
		return registry.Entry{}, err
	}
	if rec.IsBaseChain != nil && !*rec.IsBaseChain {
		return registry.Entry{}, fmt.Errorf("%w: %s is a satellite chain", ErrDependencyMissing, baseNetwork)
	}
	entry, ok := rec.Contracts[standard.RolePolicy]
	if !ok {
		return registry.Entry{}, fmt.Errorf("%w: %s has no %s deployment", ErrDependencyMissing, baseNetwork, standard.RolePolicy)
	}
	return entry, nil
}

// Snapshot reads the base chain's epoch and total supply with a single call.
func (s *Synchronizer) Snapshot(ctx context.Context, baseNetwork string) (*Snapshot, error) {
	entry, err := s.Resolve(baseNetwork)
	if err != nil {
		return nil, err
	}
	sess, err := s.Dial(ctx, baseNetwork)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %v", ErrReadFailure, baseNetwork, err)
	}
	snap, err := Read(ctx, sess, entry)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Read base chain state", "network", baseNetwork, "policy", entry.Address,
		"epoch", snap.Epoch, "totalSupply", snap.TotalSupply)
	return snap, nil
}

// Read calls globalAmpleforthEpochAndAMPLSupply on the policy at entry.
func Read(ctx context.Context, sess Session, entry registry.Entry) (*Snapshot, error) {
	policy, err := sess.Attach(standard.UFragmentsPolicyArtifact, entry.Address)
	if err != nil {
		return nil, err
	}
	out, err := sess.Call(ctx, policy, epochAndSupplyMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailure, epochAndSupplyMethod, err)
	}
	if len(out) != 2 {
		return nil, fmt.Errorf("%w: unexpected %s result %v", ErrReadFailure, epochAndSupplyMethod, out)
	}
	epoch, ok1 := out[0].(*big.Int)
	supply, ok2 := out[1].(*big.Int)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: unexpected %s result types %T, %T", ErrReadFailure, epochAndSupplyMethod, out[0], out[1])
	}
	return &Snapshot{Epoch: epoch, TotalSupply: supply}, nil
}
