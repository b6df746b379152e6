// Package broadcaster signs, submits and awaits the transactions of one deployer
// account on one chain.
package broadcaster

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/signer"
)

var (
	ErrTransactionFailure = errors.New("transaction failed")
	ErrReadOnly           = errors.New("broadcaster has no signer")
)

// RevertError is a transaction the contract rejected: either its receipt reports
// failure, or gas estimation hit a revert and nothing was sent (zero TxHash).
type RevertError struct {
	TxHash common.Hash
	Reason string
}

func (e *RevertError) Error() string {
	if e.TxHash == (common.Hash{}) {
		return fmt.Sprintf("transaction would revert: %s", e.Reason)
	}
	if e.Reason == "" {
		return fmt.Sprintf("transaction %s reverted", e.TxHash)
	}
	return fmt.Sprintf("transaction %s reverted: %s", e.TxHash, e.Reason)
}

func (e *RevertError) Unwrap() error {
	return ErrTransactionFailure
}

// Backend is what the broadcaster needs from a node.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

type Config struct {
	Logger    log.Logger
	Backend   Backend
	Factories *contracts.Provider
	// Signer may be nil for a read-only session.
	Signer  signer.Signer
	ChainID *big.Int
	// GasPrice nil lets the node price each transaction.
	GasPrice *big.Int
	// GasLimit 0 lets the node estimate each transaction.
	GasLimit uint64
}

type Broadcaster struct {
	lgr       log.Logger
	backend   Backend
	factories *contracts.Provider
	from      common.Address
	opts      *bind.TransactOpts
}

var _ contracts.Chain = (*Broadcaster)(nil)

func New(cfg Config) (*Broadcaster, error) {
	if cfg.Backend == nil {
		return nil, errors.New("backend is required")
	}
	if cfg.Factories == nil {
		return nil, errors.New("contract factories are required")
	}
	b := &Broadcaster{
		lgr:       cfg.Logger,
		backend:   cfg.Backend,
		factories: cfg.Factories,
	}
	if cfg.Signer != nil {
		if cfg.ChainID == nil {
			return nil, errors.New("chain ID is required to sign transactions")
		}
		b.from = cfg.Signer.Address()
		b.opts = &bind.TransactOpts{
			From:     b.from,
			Signer:   cfg.Signer.SignerFn(cfg.ChainID),
			GasPrice: cfg.GasPrice,
			GasLimit: cfg.GasLimit,
		}
	}
	return b, nil
}

func (b *Broadcaster) From() common.Address {
	return b.from
}

func (b *Broadcaster) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if b.opts == nil {
		return nil, ErrReadOnly
	}
	opts := *b.opts
	opts.Context = ctx
	return &opts, nil
}

func (b *Broadcaster) Attach(artifact string, addr common.Address) (*contracts.Contract, error) {
	f, err := b.factories.GetFactory(artifact)
	if err != nil {
		return nil, err
	}
	return f.Attach(addr), nil
}

// Deploy submits the creation transaction of artifact and waits for the contract to exist.
func (b *Broadcaster) Deploy(ctx context.Context, artifact string, args ...any) (*contracts.Contract, error) {
	f, err := b.factories.GetFactory(artifact)
	if err != nil {
		return nil, err
	}
	opts, err := b.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	addr, tx, _, err := bind.DeployContract(opts, f.Artifact.ABI, f.Artifact.Bytecode, b.backend, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: deploy %s: %v", ErrTransactionFailure, artifact, err)
	}
	lgr := b.lgr.New("contract", artifact, "tx", tx.Hash())
	lgr.Debug("Sent deployment transaction", "address", addr, "nonce", tx.Nonce())

	receipt, err := b.awaitReceipt(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", artifact, err)
	}
	if receipt.ContractAddress != (common.Address{}) {
		addr = receipt.ContractAddress
	}
	lgr.Info("Deployed contract", "address", addr, "gasUsed", receipt.GasUsed)
	return f.Attach(addr), nil
}

func (b *Broadcaster) Call(ctx context.Context, c *contracts.Contract, method string, args ...any) ([]any, error) {
	if c.ABI == nil {
		return nil, fmt.Errorf("contract %s has no abi", c.Name)
	}
	bound := bind.NewBoundContract(c.Address, *c.ABI, b.backend, b.backend, b.backend)
	var out []any
	if err := bound.Call(&bind.CallOpts{Context: ctx, From: b.from}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("call %s.%s: %w", c.Name, method, err)
	}
	return out, nil
}

// Send submits method on c and waits for it to be mined successfully.
func (b *Broadcaster) Send(ctx context.Context, c *contracts.Contract, method string, args ...any) (*types.Receipt, error) {
	if c.ABI == nil {
		return nil, fmt.Errorf("contract %s has no abi", c.Name)
	}
	opts, err := b.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	bound := bind.NewBoundContract(c.Address, *c.ABI, b.backend, b.backend, b.backend)
	tx, err := bound.Transact(opts, method, args...)
	if err != nil {
		if isEstimateRevert(err) {
			return nil, fmt.Errorf("%s.%s: %w", c.Name, method, &RevertError{Reason: err.Error()})
		}
		return nil, fmt.Errorf("%w: %s.%s: %v", ErrTransactionFailure, c.Name, method, err)
	}
	lgr := b.lgr.New("contract", c.Name, "method", method, "tx", tx.Hash())
	lgr.Debug("Sent transaction", "nonce", tx.Nonce())

	receipt, err := b.awaitReceipt(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	lgr.Info("Transaction mined", "block", receipt.BlockNumber, "gasUsed", receipt.GasUsed)
	return receipt, nil
}

func (b *Broadcaster) awaitReceipt(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, b.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for %s: %v", ErrTransactionFailure, tx.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &RevertError{TxHash: tx.Hash(), Reason: b.revertReason(ctx, tx, receipt)}
	}
	return receipt, nil
}

func isEstimateRevert(err error) bool {
	return strings.Contains(err.Error(), "execution reverted")
}

// revertReason replays the failed transaction as a call at its block to recover the reason.
func (b *Broadcaster) revertReason(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) string {
	msg := ethereum.CallMsg{
		From:     b.from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}
	_, err := b.backend.CallContract(ctx, msg, receipt.BlockNumber)
	if err == nil {
		return ""
	}
	return err.Error()
}
