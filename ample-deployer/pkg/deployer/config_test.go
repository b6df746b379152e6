package deployer

import (
	"context"
	"errors"
	"flag"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestParseFunding(t *testing.T) {
	t.Run("wallets", func(t *testing.T) {
		funding, err := ParseFunding(`["0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"]`, "0.000000001")
		require.NoError(t, err)
		require.Len(t, funding, 2)
		require.Equal(t, common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"), funding[1].Recipient)
		require.Equal(t, big.NewInt(1), funding[1].Amount)
	})
	t.Run("empty", func(t *testing.T) {
		for _, in := range []string{"", "[]", "  [] "} {
			funding, err := ParseFunding(in, "not a number")
			require.NoError(t, err)
			require.Nil(t, funding)
		}
	})
	tests := []struct {
		name    string
		wallets string
		amount  string
	}{
		{"not json", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "1"},
		{"not a list of strings", "[1, 2]", "1"},
		{"bad address", `["0x1234"]`, "1"},
		{"bad amount", `["0x70997970C51812dc3A010C7d01b50e0d17dc79C8"]`, "lots"},
		{"too many decimals", `["0x70997970C51812dc3A010C7d01b50e0d17dc79C8"]`, "0.0000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFunding(tt.wallets, tt.amount)
			require.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

type fixedPricer struct {
	price *big.Int
	err   error
	calls int
}

func (p *fixedPricer) SuggestGasPrice(context.Context) (*big.Int, error) {
	p.calls++
	return p.price, p.err
}

func TestResolveTxParams(t *testing.T) {
	ctx := context.Background()
	pricer := &fixedPricer{price: big.NewInt(7)}

	p, err := ResolveTxParams(ctx, TxParams{GasLimit: 100}, pricer)
	require.NoError(t, err)
	require.Equal(t, TxParams{GasPrice: big.NewInt(7), GasLimit: 100}, p)
	require.Equal(t, 1, pricer.calls)

	p, err = ResolveTxParams(ctx, TxParams{GasPrice: big.NewInt(3)}, pricer)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(3), p.GasPrice)
	require.Equal(t, 1, pricer.calls)

	pricer.err = errors.New("node down")
	_, err = ResolveTxParams(ctx, TxParams{}, pricer)
	require.ErrorContains(t, err, "node down")
}

func txParamsFromArgs(t *testing.T, args ...string) (TxParams, error) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range TxFlags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return ReadTxParams(cli.NewContext(cli.NewApp(), set, nil))
}

func TestReadTxParams(t *testing.T) {
	p, err := txParamsFromArgs(t)
	require.NoError(t, err)
	require.Nil(t, p.GasPrice)
	require.Zero(t, p.GasLimit)

	p, err = txParamsFromArgs(t, "--gas-price", "0")
	require.NoError(t, err)
	require.Nil(t, p.GasPrice)

	p, err = txParamsFromArgs(t, "--gas-price", "25000000000", "--gas-limit", "6000000")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(25_000_000_000), p.GasPrice)
	require.Equal(t, uint64(6_000_000), p.GasLimit)

	_, err = txParamsFromArgs(t, "--gas-price", "-1")
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = txParamsFromArgs(t, "--gas-price", "cheap")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadNetworks(t *testing.T) {
	t.Setenv("TEST_INFURA_KEY", "secret")
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "networks.toml", []byte(`
[networks.sepolia]
rpc-url = "https://sepolia.infura.io/v3/${TEST_INFURA_KEY}"
chain-id = 11155111
explorer-api-url = "https://api-sepolia.etherscan.io/api"

[networks.local]
rpc-url = "http://127.0.0.1:8545"
`), 0o644))

	nets, err := LoadNetworks(fs, "networks.toml")
	require.NoError(t, err)
	require.Equal(t, []string{"local", "sepolia"}, nets.Names())
	sepolia, err := nets.Get("sepolia")
	require.NoError(t, err)
	require.Equal(t, Network{
		RPCURL:         "https://sepolia.infura.io/v3/secret",
		ChainID:        11155111,
		ExplorerAPIURL: "https://api-sepolia.etherscan.io/api",
	}, sepolia)

	_, err = nets.Get("mainnet")
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorContains(t, err, "local")
}

func TestLoadNetworksErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "[networks.local]\nrpc-url = \"http://127.0.0.1:8545\"\nrpc = \"x\"\n"},
		{"no rpc url", "[networks.local]\nchain-id = 1\n"},
		{"bad toml", "[networks.local\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "networks.toml", []byte(tt.data), 0o644))
			_, err := LoadNetworks(fs, "networks.toml")
			require.ErrorIs(t, err, ErrConfiguration)
		})
	}
	_, err := LoadNetworks(afero.NewMemMapFs(), "missing.toml")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestLazyDialerLoadsNetworksOnDial(t *testing.T) {
	fs := afero.NewMemMapFs()
	dial := lazyDialer(fs, "networks.toml", DialerConfig{})

	// nothing is read until the first dial
	require.NoError(t, afero.WriteFile(fs, "networks.toml", []byte("[networks.local]\nrpc-url = \"http://127.0.0.1:8545\"\n"), 0o644))
	_, err := dial(context.Background(), "mainnet", true)
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorContains(t, err, "local")

	missing := lazyDialer(fs, "missing.toml", DialerConfig{})
	_, err = missing(context.Background(), "local", true)
	require.ErrorIs(t, err, ErrConfiguration)
}
