package broadcaster

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/artifacts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/signer"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/testlog"
)

// Answer returns 42 for every call; Reverter reverts every call.
const (
	answerInitCode   = "0x600a600c600039600a6000f3602a60005260206000f3"
	reverterInitCode = "0x6005600c60003960056000f360006000fd"
	answerABI        = `[{"type":"function","name":"answer","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}]`
	reverterABI      = `[{"type":"function","name":"poke","inputs":[],"outputs":[],"stateMutability":"nonpayable"}]`
)

func writeArtifact(t *testing.T, fs afero.Fs, name, abiJSON, code string) {
	p := filepath.Join("artifacts", name+".sol", name+".json")
	require.NoError(t, fs.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, afero.WriteFile(fs, p, []byte(`{"contractName":"`+name+`","abi":`+abiJSON+`,"bytecode":"`+code+`"}`), 0o644))
}

func setup(t *testing.T, gasLimit uint64) *Broadcaster {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	s := signer.NewLocalSigner(key)

	sim := simulated.NewBackend(types.GenesisAlloc{
		s.Address(): {Balance: new(big.Int).Mul(big.NewInt(100), big.NewInt(params.Ether))},
	})
	t.Cleanup(func() { _ = sim.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sim.Commit()
			}
		}
	}()

	fs := afero.NewMemMapFs()
	writeArtifact(t, fs, "Answer", answerABI, answerInitCode)
	writeArtifact(t, fs, "Reverter", reverterABI, reverterInitCode)

	b, err := New(Config{
		Logger:    testlog.Logger(t, log.LevelDebug),
		Backend:   sim.Client(),
		Factories: contracts.NewProvider(artifacts.NewFS(fs, "artifacts")),
		Signer:    s,
		ChainID:   params.AllDevChainProtocolChanges.ChainID,
		GasLimit:  gasLimit,
	})
	require.NoError(t, err)
	return b
}

func TestDeployCallSend(t *testing.T) {
	b := setup(t, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := b.Deploy(ctx, "Answer")
	require.NoError(t, err)
	require.Equal(t, "Answer", c.Name)

	out, err := b.Call(ctx, c, "answer")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, big.NewInt(42), out[0])

	receipt, err := b.Send(ctx, c, "answer")
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
}

func TestSendEstimationFailure(t *testing.T) {
	b := setup(t, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := b.Deploy(ctx, "Reverter")
	require.NoError(t, err)
	_, err = b.Send(ctx, c, "poke")
	require.ErrorIs(t, err, ErrTransactionFailure)
	var revert *RevertError
	require.True(t, errors.As(err, &revert))
	require.Equal(t, common.Hash{}, revert.TxHash)
	require.Contains(t, revert.Reason, "execution reverted")
}

func TestSendNotRevert(t *testing.T) {
	b := setup(t, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := b.Deploy(ctx, "Answer")
	require.NoError(t, err)
	cancel()
	_, err = b.Send(ctx, c, "answer")
	require.Error(t, err)
	var revert *RevertError
	require.False(t, errors.As(err, &revert))
}

func TestSendMinedRevert(t *testing.T) {
	b := setup(t, 100_000)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := b.Deploy(ctx, "Reverter")
	require.NoError(t, err)
	_, err = b.Send(ctx, c, "poke")
	require.ErrorIs(t, err, ErrTransactionFailure)
	var revert *RevertError
	require.True(t, errors.As(err, &revert))
	require.NotEqual(t, common.Hash{}, revert.TxHash)
}

func TestReadOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeArtifact(t, fs, "Answer", answerABI, answerInitCode)
	sim := simulated.NewBackend(types.GenesisAlloc{})
	t.Cleanup(func() { _ = sim.Close() })

	b, err := New(Config{
		Logger:    testlog.Logger(t, log.LevelInfo),
		Backend:   sim.Client(),
		Factories: contracts.NewProvider(artifacts.NewFS(fs, "artifacts")),
	})
	require.NoError(t, err)
	_, err = b.Deploy(context.Background(), "Answer")
	require.ErrorIs(t, err, ErrReadOnly)
}
