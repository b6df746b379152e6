package contracts

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/artifacts"
)

func testProvider(t *testing.T) *Provider {
	fs := afero.NewMemMapFs()
	p := "artifacts/contracts/Orchestrator.sol/Orchestrator.json"
	require.NoError(t, fs.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, afero.WriteFile(fs, p, []byte(`{
		"contractName": "Orchestrator",
		"sourceName": "contracts/Orchestrator.sol",
		"abi": [
			{"type":"constructor","inputs":[{"name":"policy_","type":"address"}],"stateMutability":"nonpayable"},
			{"type":"function","name":"rebase","inputs":[],"outputs":[],"stateMutability":"nonpayable"}
		],
		"bytecode": "0xaabb"
	}`), 0o644))
	return NewProvider(artifacts.NewFS(fs, "artifacts"))
}

func TestFactoryDeployData(t *testing.T) {
	p := testProvider(t)
	f, err := p.GetFactory("Orchestrator")
	require.NoError(t, err)

	again, err := p.GetFactory("Orchestrator")
	require.NoError(t, err)
	require.Same(t, f, again)

	policy := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	data, err := f.DeployData(policy)
	require.NoError(t, err)
	require.Len(t, data, 2+32)
	require.Equal(t, []byte{0xaa, 0xbb}, data[:2])
	require.Equal(t, policy.Bytes(), data[len(data)-20:])

	_, err = f.DeployData()
	require.Error(t, err)
}

func TestAttachAndPack(t *testing.T) {
	p := testProvider(t)
	f, err := p.GetFactory("Orchestrator")
	require.NoError(t, err)

	c := f.Attach(common.Address{0x01})
	require.Equal(t, "Orchestrator", c.Name)
	require.Contains(t, c.Interface(), "function rebase()")

	data, err := c.Pack("rebase")
	require.NoError(t, err)
	require.Len(t, data, 4)

	_, err = c.Pack("missing")
	require.Error(t, err)

	require.Empty(t, (&Contract{Name: "bare"}).Interface())
}

func TestGetFactoryMissing(t *testing.T) {
	_, err := testProvider(t).GetFactory("UFragments")
	require.ErrorIs(t, err, artifacts.ErrArtifactNotFound)
}
