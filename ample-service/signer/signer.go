package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	hdwallet "github.com/ethereum-optimism/go-ethereum-hdwallet"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
)

// Signer signs the transactions of a single account.
type Signer interface {
	Address() common.Address
	SignerFn(chainID *big.Int) bind.SignerFn
	Close() error
}

// Load builds the signer selected by cfg.
func Load(ctx context.Context, lgr log.Logger, cfg CLIConfig) (Signer, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	switch {
	case cfg.PrivateKey != "":
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		return NewLocalSigner(key), nil
	case cfg.Mnemonic != "":
		key, err := KeyFromMnemonic(cfg.Mnemonic, cfg.HDPath)
		if err != nil {
			return nil, err
		}
		return NewLocalSigner(key), nil
	default:
		return NewRemoteSigner(ctx, lgr, cfg.Endpoint, common.HexToAddress(cfg.Address))
	}
}

// KeyFromMnemonic derives the private key at hdPath; an empty path means DefaultHDPath.
func KeyFromMnemonic(mnemonic string, hdPath string) (*ecdsa.PrivateKey, error) {
	if hdPath == "" {
		hdPath = DefaultHDPath
	}
	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	account := accounts.Account{URL: accounts.URL{Path: hdPath}}
	priv, err := w.PrivateKey(account)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key of path %s: %w", hdPath, err)
	}
	return priv, nil
}

// LocalSigner signs with a private key held in memory.
type LocalSigner struct {
	priv *ecdsa.PrivateKey
	addr common.Address
}

var _ Signer = (*LocalSigner)(nil)

func NewLocalSigner(priv *ecdsa.PrivateKey) *LocalSigner {
	return &LocalSigner{priv: priv, addr: crypto.PubkeyToAddress(priv.PublicKey)}
}

func (s *LocalSigner) Address() common.Address {
	return s.addr
}

func (s *LocalSigner) SignerFn(chainID *big.Int) bind.SignerFn {
	signer := types.LatestSignerForChainID(chainID)
	return func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if addr != s.addr {
			return nil, bind.ErrNotAuthorized
		}
		if s.priv == nil {
			return nil, fmt.Errorf("signer is closed")
		}
		return types.SignTx(tx, signer, s.priv)
	}
}

func (s *LocalSigner) Close() error {
	s.priv = nil
	return nil
}
