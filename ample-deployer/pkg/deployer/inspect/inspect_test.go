package inspect

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
)

var (
	policyAddr  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	xcAmpleAddr = common.HexToAddress("0x2000000000000000000000000000000000000002")
	ctrlAddr    = common.HexToAddress("0x3000000000000000000000000000000000000003")
	oracleAddr  = common.HexToAddress("0x4000000000000000000000000000000000000004")
	orchAddr    = common.HexToAddress("0x5000000000000000000000000000000000000005")
)

type callMsg struct {
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

// ethService answers eth_call from canned return data keyed by contract and selector.
type ethService struct {
	returns map[common.Address]map[string][]byte
	calls   int
}

func (s *ethService) Call(msg callMsg, block *string, overrides *map[string]any) (hexutil.Bytes, error) {
	s.calls++
	input := msg.Input
	if len(input) == 0 {
		input = msg.Data
	}
	if msg.To == nil || len(input) < 4 {
		return nil, errors.New("invalid call")
	}
	out, ok := s.returns[*msg.To][string(input[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return out, nil
}

func selector(sig string) string {
	return string(crypto.Keccak256([]byte(sig))[:4])
}

func encode(t *testing.T, typ string, values ...any) []byte {
	ty, err := abi.NewType(typ, "", nil)
	require.NoError(t, err)
	args := make(abi.Arguments, len(values))
	for i := range values {
		args[i] = abi.Argument{Type: ty}
	}
	out, err := args.Pack(values...)
	require.NoError(t, err)
	return out
}

func newClient(t *testing.T, svc *ethService) *rpc.Client {
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", svc))
	t.Cleanup(srv.Stop)
	client := rpc.DialInProc(srv)
	t.Cleanup(client.Close)
	return client
}

func TestReadRebaseInfo(t *testing.T) {
	svc := &ethService{returns: map[common.Address]map[string][]byte{
		policyAddr: {
			selector("globalAmpleforthEpochAndAMPLSupply()"): encode(t, "uint256", big.NewInt(3), big.NewInt(55_000_000)),
			selector("lastRebaseTimestampSec()"):             encode(t, "uint256", big.NewInt(1_700_000_000)),
			selector("minRebaseTimeIntervalSec()"):           encode(t, "uint256", big.NewInt(86400)),
			selector("marketOracle()"):                       encode(t, "address", oracleAddr),
			selector("cpiOracle()"):                          encode(t, "address", oracleAddr),
			selector("orchestrator()"):                       encode(t, "address", orchAddr),
		},
	}}
	info, err := ReadRebaseInfo(context.Background(), newClient(t, svc), policyAddr)
	require.NoError(t, err)
	require.Equal(t, 6, svc.calls)
	require.Equal(t, uint64(3), info.Epoch.Uint64())
	require.Equal(t, uint64(55_000_000), info.Supply.Uint64())
	require.Equal(t, uint64(1_700_086_400), info.NextRebaseTimestampSec().Uint64())
	require.Equal(t, oracleAddr, info.MarketOracle)
	require.Equal(t, orchAddr, info.Orchestrator)

	color.NoColor = true
	var buf bytes.Buffer
	WriteRebaseInfo(&buf, info)
	require.Contains(t, buf.String(), "55000000")
	require.Contains(t, buf.String(), "2023-11-15T22:13:20Z")
	require.Contains(t, buf.String(), orchAddr.Hex())
}

func TestReadRebaseInfoFailure(t *testing.T) {
	svc := &ethService{returns: map[common.Address]map[string][]byte{}}
	_, err := ReadRebaseInfo(context.Background(), newClient(t, svc), policyAddr)
	require.Error(t, err)
}

func TestReadMirrorInfo(t *testing.T) {
	svc := &ethService{returns: map[common.Address]map[string][]byte{
		xcAmpleAddr: {selector("globalAMPLSupply()"): encode(t, "uint256", big.NewInt(42))},
		ctrlAddr:    {selector("globalAmpleforthEpoch()"): encode(t, "uint256", big.NewInt(9))},
	}}
	info, err := ReadMirrorInfo(context.Background(), newClient(t, svc), xcAmpleAddr, ctrlAddr)
	require.NoError(t, err)
	require.Equal(t, uint64(42), info.GlobalAMPLSupply.Uint64())
	require.Equal(t, uint64(9), info.GlobalAmpleforthEpoch.Uint64())
}

func TestWriteRecord(t *testing.T) {
	color.NoColor = true
	isBase := false
	rec := &registry.Record{
		IsBaseChain:      &isBase,
		BaseChainNetwork: "sepolia",
		Contracts: map[string]registry.Entry{
			"xcAmple":       {Address: xcAmpleAddr, ABI: []string{"function name() view returns (string)"}},
			"rebaseRelayer": {Address: ctrlAddr, ABI: []string{}},
		},
	}
	var buf bytes.Buffer
	WriteRecord(&buf, "arbitrum", rec)
	out := buf.String()
	require.Contains(t, out, "Network arbitrum (satellite of sepolia)")
	require.Contains(t, out, xcAmpleAddr.Hex())
	require.Less(t, bytes.Index(buf.Bytes(), []byte("rebaseRelayer")), bytes.Index(buf.Bytes(), []byte("xcAmple")))
}
