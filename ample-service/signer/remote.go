package signer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

const remoteSignTimeout = 30 * time.Second

// TransactionArgs is the eth_signTransaction request body.
type TransactionArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"data"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

func NewTransactionArgs(from common.Address, tx *types.Transaction, chainID *big.Int) *TransactionArgs {
	args := &TransactionArgs{
		From:    from,
		To:      tx.To(),
		Gas:     hexutil.Uint64(tx.Gas()),
		Value:   (*hexutil.Big)(tx.Value()),
		Nonce:   hexutil.Uint64(tx.Nonce()),
		Data:    tx.Data(),
		ChainID: (*hexutil.Big)(chainID),
	}
	if tx.Type() == types.DynamicFeeTxType {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	} else {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	}
	return args
}

// RemoteSigner delegates signing to a JSON-RPC signer service.
type RemoteSigner struct {
	lgr     log.Logger
	client  *rpc.Client
	address common.Address
}

var _ Signer = (*RemoteSigner)(nil)

func NewRemoteSigner(ctx context.Context, lgr log.Logger, endpoint string, address common.Address) (*RemoteSigner, error) {
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial remote signer: %w", err)
	}
	return NewRemoteSignerFromClient(lgr, client, address), nil
}

func NewRemoteSignerFromClient(lgr log.Logger, client *rpc.Client, address common.Address) *RemoteSigner {
	return &RemoteSigner{lgr: lgr, client: client, address: address}
}

func (s *RemoteSigner) Address() common.Address {
	return s.address
}

func (s *RemoteSigner) SignerFn(chainID *big.Int) bind.SignerFn {
	return func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if addr != s.address {
			return nil, bind.ErrNotAuthorized
		}
		if s.client == nil {
			return nil, errors.New("signer is closed")
		}
		ctx, cancel := context.WithTimeout(context.Background(), remoteSignTimeout)
		defer cancel()

		var raw hexutil.Bytes
		if err := s.client.CallContext(ctx, &raw, "eth_signTransaction", NewTransactionArgs(addr, tx, chainID)); err != nil {
			return nil, fmt.Errorf("eth_signTransaction failed: %w", err)
		}
		signed := new(types.Transaction)
		if err := signed.UnmarshalBinary(raw); err != nil {
			return nil, fmt.Errorf("invalid signed transaction: %w", err)
		}
		sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
		if err != nil {
			return nil, fmt.Errorf("cannot recover signer: %w", err)
		}
		if sender != addr {
			return nil, fmt.Errorf("remote signer signed as %s, expected %s", sender, addr)
		}
		s.lgr.Debug("Remote signer signed transaction", "hash", signed.Hash(), "nonce", signed.Nonce())
		return signed, nil
	}
}

func (s *RemoteSigner) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	s.client = nil
	return nil
}
