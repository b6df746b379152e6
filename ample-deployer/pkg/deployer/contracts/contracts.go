// Package contracts adapts compiled artifacts into deployable factories and
// addressable contract handles.
package contracts

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/artifacts"
)

// Contract is a deployed contract: the artifact it was built from, where it lives,
// and the ABI used to talk to it.
type Contract struct {
	Name    string
	Address common.Address
	ABI     *abi.ABI
}

// Interface is the human-readable ABI description stored in the registry.
func (c *Contract) Interface() []string {
	if c.ABI == nil {
		return []string{}
	}
	return artifacts.Interface(*c.ABI)
}

// Pack encodes a call to method.
func (c *Contract) Pack(method string, args ...any) ([]byte, error) {
	if c.ABI == nil {
		return nil, fmt.Errorf("contract %s has no abi", c.Name)
	}
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s.%s: %w", c.Name, method, err)
	}
	return data, nil
}

func (c *Contract) String() string {
	return fmt.Sprintf("%s@%s", c.Name, c.Address)
}

// Factory deploys or attaches to one artifact.
type Factory struct {
	Artifact *artifacts.Artifact
}

// DeployData is the creation code followed by the ABI-encoded constructor arguments.
func (f *Factory) DeployData(args ...any) ([]byte, error) {
	if len(f.Artifact.Bytecode) == 0 {
		return nil, fmt.Errorf("artifact %s has no creation bytecode", f.Artifact.ContractName)
	}
	packed, err := f.Artifact.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor args of %s: %w", f.Artifact.ContractName, err)
	}
	data := make([]byte, 0, len(f.Artifact.Bytecode)+len(packed))
	data = append(data, f.Artifact.Bytecode...)
	return append(data, packed...), nil
}

// ConstructorArgs ABI-encodes args without the creation code, as explorers expect them.
func (f *Factory) ConstructorArgs(args ...any) ([]byte, error) {
	return f.Artifact.ABI.Pack("", args...)
}

func (f *Factory) Attach(addr common.Address) *Contract {
	a := f.Artifact.ABI
	return &Contract{Name: f.Artifact.ContractName, Address: addr, ABI: &a}
}

// Provider hands out factories by artifact name, reading each artifact once.
type Provider struct {
	fs *artifacts.FS

	mu        sync.Mutex
	factories map[string]*Factory
}

func NewProvider(fs *artifacts.FS) *Provider {
	return &Provider{fs: fs, factories: make(map[string]*Factory)}
}

func (p *Provider) Artifacts() *artifacts.FS {
	return p.fs
}

func (p *Provider) GetFactory(name string) (*Factory, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.factories[name]; ok {
		return f, nil
	}
	art, err := p.fs.ReadArtifact(name)
	if err != nil {
		return nil, err
	}
	f := &Factory{Artifact: art}
	p.factories[name] = f
	return f, nil
}

// Deployer creates and attaches contracts as one account.
type Deployer interface {
	From() common.Address
	Deploy(ctx context.Context, artifact string, args ...any) (*Contract, error)
	Attach(artifact string, addr common.Address) (*Contract, error)
}

// Caller performs read-only calls and returns the decoded outputs.
type Caller interface {
	Call(ctx context.Context, c *Contract, method string, args ...any) ([]any, error)
}

// Sender submits a state-changing call and waits until it is mined.
type Sender interface {
	Send(ctx context.Context, c *Contract, method string, args ...any) (*types.Receipt, error)
}

// Chain is a full session with one network.
type Chain interface {
	Deployer
	Caller
	Sender
}
