package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/broadcaster"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
)

// ConstructorMethod is the method name recorded for contract creations.
const ConstructorMethod = "constructor"

// Tx is a transaction the chain accepted for execution.
type Tx struct {
	Hash     common.Hash
	From     common.Address
	To       common.Address
	Contract string
	Method   string
	Args     []any
}

type handler func(c *Chain, self *instance, from common.Address, args []any) ([]any, error)

type instance struct {
	addr     common.Address
	artifact string
	// impl is set on proxies; calls run the implementation's code on the proxy's state.
	impl     common.Address
	state    map[string]any
	balances map[common.Address]*big.Int
}

func (i *instance) address(key string) common.Address {
	v, _ := i.state[key].(common.Address)
	return v
}

func (i *instance) bigint(key string) *big.Int {
	if v, ok := i.state[key].(*big.Int); ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// Chain is an in-memory contracts.Chain. Calls and transactions execute Go models of
// the deployed contracts. Every transaction is mined immediately.
type Chain struct {
	mu        sync.Mutex
	from      common.Address
	provider  *contracts.Provider
	nonce     uint64
	block     uint64
	time      uint64
	instances map[common.Address]*instance
	txs       []Tx
	failures  map[string]string
}

var _ contracts.Chain = (*Chain)(nil)

func New(from common.Address) *Chain {
	return NewWithProvider(from, NewProvider())
}

func NewWithProvider(from common.Address, provider *contracts.Provider) *Chain {
	return &Chain{
		from:      from,
		provider:  provider,
		block:     1,
		time:      1_700_000_000,
		instances: make(map[common.Address]*instance),
		failures:  make(map[string]string),
	}
}

func (c *Chain) Provider() *contracts.Provider {
	return c.provider
}

func (c *Chain) From() common.Address {
	return c.from
}

func failureKey(artifact, method string) string {
	return artifact + "." + method
}

// Revert makes every later call or transaction of artifact.method fail with reason.
// Use ConstructorMethod to make deployments of artifact fail.
func (c *Chain) Revert(artifact, method, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[failureKey(artifact, method)] = reason
}

// Heal removes a failure installed with Revert.
func (c *Chain) Heal(artifact, method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failures, failureKey(artifact, method))
}

// Transactions returns the accepted transactions in order.
func (c *Chain) Transactions() []Tx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Tx(nil), c.txs...)
}

// Implementation returns the implementation behind a proxy.
func (c *Chain) Implementation(proxy common.Address) common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	if inst, ok := c.instances[proxy]; ok {
		return inst.impl
	}
	return common.Address{}
}

// AdvanceTime moves the block timestamp forward.
func (c *Chain) AdvanceTime(seconds uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time += seconds
}

func (c *Chain) Attach(artifact string, addr common.Address) (*contracts.Contract, error) {
	f, err := c.provider.GetFactory(artifact)
	if err != nil {
		return nil, err
	}
	return f.Attach(addr), nil
}

func (c *Chain) Deploy(ctx context.Context, artifact string, args ...any) (*contracts.Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := c.provider.GetFactory(artifact)
	if err != nil {
		return nil, err
	}
	// the real session packs constructor args too, so type errors surface the same way
	if _, err := f.DeployData(args...); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	addr := crypto.CreateAddress(c.from, c.nonce)
	tx := c.recordTx(addr, artifact, ConstructorMethod, args)
	if reason, ok := c.failures[failureKey(artifact, ConstructorMethod)]; ok {
		return nil, c.revert(tx, reason)
	}

	inst := &instance{
		addr:     addr,
		artifact: artifact,
		state:    make(map[string]any),
		balances: make(map[common.Address]*big.Int),
	}
	c.instances[addr] = inst
	if err := c.construct(inst, args); err != nil {
		delete(c.instances, addr)
		return nil, c.revert(tx, err.Error())
	}
	return f.Attach(addr), nil
}

func (c *Chain) construct(inst *instance, args []any) error {
	if inst.artifact != standard.ProxyArtifact {
		if h, ok := models[inst.artifact][ConstructorMethod]; ok {
			_, err := h(c, inst, c.from, args)
			return err
		}
		return nil
	}
	impl, _ := args[0].(common.Address)
	admin, _ := args[1].(common.Address)
	data, _ := args[2].([]byte)
	implInst, ok := c.instances[impl]
	if !ok {
		return fmt.Errorf("implementation %s has no code", impl)
	}
	inst.impl = impl
	inst.artifact = implInst.artifact
	inst.state["__admin"] = admin
	if len(data) == 0 {
		return nil
	}
	f, err := c.provider.GetFactory(implInst.artifact)
	if err != nil {
		return err
	}
	method, err := f.Artifact.ABI.MethodById(data[:4])
	if err != nil {
		return err
	}
	vals, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return err
	}
	_, err = c.exec(inst, c.from, method.RawName, vals)
	return err
}

func (c *Chain) Call(ctx context.Context, ct *contracts.Contract, method string, args ...any) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := ct.Pack(method, args...); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if reason, ok := c.failures[failureKey(ct.Name, method)]; ok {
		return nil, fmt.Errorf("call %s.%s: execution reverted: %s", ct.Name, method, reason)
	}
	inst, ok := c.instances[ct.Address]
	if !ok {
		return nil, fmt.Errorf("call %s.%s: no contract code at %s", ct.Name, method, ct.Address)
	}
	// calls never persist state changes
	snapshot := c.snapshot()
	defer c.restore(snapshot)
	out, err := c.exec(inst, c.from, method, args)
	if err != nil {
		return nil, fmt.Errorf("call %s.%s: execution reverted: %w", ct.Name, method, err)
	}
	return out, nil
}

func (c *Chain) Send(ctx context.Context, ct *contracts.Contract, method string, args ...any) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := ct.Pack(method, args...); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	tx := c.recordTx(ct.Address, ct.Name, method, args)
	if reason, ok := c.failures[failureKey(ct.Name, method)]; ok {
		return nil, fmt.Errorf("%s.%s: %w", ct.Name, method, c.revert(tx, reason))
	}
	inst, ok := c.instances[ct.Address]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", ct.Name, method, c.revert(tx, "no contract code"))
	}
	snapshot := c.snapshot()
	if _, err := c.exec(inst, c.from, method, args); err != nil {
		c.restore(snapshot)
		return nil, fmt.Errorf("%s.%s: %w", ct.Name, method, c.revert(tx, err.Error()))
	}
	return c.receipt(tx, types.ReceiptStatusSuccessful), nil
}

func (c *Chain) exec(inst *instance, from common.Address, method string, args []any) ([]any, error) {
	h, ok := models[inst.artifact][method]
	if !ok {
		return nil, fmt.Errorf("%s has no method %s", inst.artifact, method)
	}
	return h(c, inst, from, args)
}

// callAs runs method on the contract at addr with from as msg.sender. Used by models
// that call into other contracts.
func (c *Chain) callAs(from common.Address, addr common.Address, method string, args ...any) ([]any, error) {
	inst, ok := c.instances[addr]
	if !ok {
		return nil, fmt.Errorf("no contract code at %s", addr)
	}
	return c.exec(inst, from, method, args)
}

func (c *Chain) recordTx(to common.Address, artifact, method string, args []any) Tx {
	c.nonce++
	c.block++
	c.time += 12
	tx := Tx{
		Hash:     crypto.Keccak256Hash(c.from.Bytes(), new(big.Int).SetUint64(c.nonce).Bytes()),
		From:     c.from,
		To:       to,
		Contract: artifact,
		Method:   method,
		Args:     args,
	}
	c.txs = append(c.txs, tx)
	return tx
}

func (c *Chain) revert(tx Tx, reason string) error {
	return &broadcaster.RevertError{TxHash: tx.Hash, Reason: "execution reverted: " + reason}
}

func (c *Chain) receipt(tx Tx, status uint64) *types.Receipt {
	return &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash,
		BlockNumber: new(big.Int).SetUint64(c.block),
		GasUsed:     21000,
	}
}

type instanceSnapshot struct {
	state    map[string]any
	balances map[common.Address]*big.Int
}

func (c *Chain) snapshot() map[common.Address]instanceSnapshot {
	out := make(map[common.Address]instanceSnapshot, len(c.instances))
	for addr, inst := range c.instances {
		s := instanceSnapshot{state: make(map[string]any, len(inst.state)), balances: make(map[common.Address]*big.Int, len(inst.balances))}
		for k, v := range inst.state {
			if b, ok := v.(*big.Int); ok {
				v = new(big.Int).Set(b)
			}
			s.state[k] = v
		}
		for k, v := range inst.balances {
			s.balances[k] = new(big.Int).Set(v)
		}
		out[addr] = s
	}
	return out
}

func (c *Chain) restore(snap map[common.Address]instanceSnapshot) {
	for addr, s := range snap {
		if inst, ok := c.instances[addr]; ok {
			inst.state = s.state
			inst.balances = s.balances
		}
	}
}

var errUnauthorized = errors.New("Ownable: caller is not the owner")
