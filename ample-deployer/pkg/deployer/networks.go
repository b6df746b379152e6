package deployer

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
)

// Network is one entry of the networks file.
type Network struct {
	RPCURL string `toml:"rpc-url"`
	// ChainID, when set, is checked against the node on dial.
	ChainID        uint64 `toml:"chain-id"`
	ExplorerAPIURL string `toml:"explorer-api-url"`
}

type Networks struct {
	Networks map[string]Network `toml:"networks"`
}

// LoadNetworks reads a networks file such as
//
//	[networks.sepolia]
//	rpc-url = "https://sepolia.infura.io/v3/${INFURA_KEY}"
//	chain-id = 11155111
//	explorer-api-url = "https://api-sepolia.etherscan.io/api"
//
// Environment variables in URLs are expanded.
func LoadNetworks(fs afero.Fs, path string) (*Networks, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, configErrorf("failed to read networks file: %v", err)
	}
	var n Networks
	md, err := toml.Decode(string(data), &n)
	if err != nil {
		return nil, configErrorf("failed to decode networks file %s: %v", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, configErrorf("unknown keys in networks file %s: %v", path, undecoded)
	}
	for name, net := range n.Networks {
		net.RPCURL = os.ExpandEnv(net.RPCURL)
		net.ExplorerAPIURL = os.ExpandEnv(net.ExplorerAPIURL)
		if net.RPCURL == "" {
			return nil, configErrorf("network %s has no rpc-url", name)
		}
		n.Networks[name] = net
	}
	return &n, nil
}

func (n *Networks) Get(name string) (Network, error) {
	net, ok := n.Networks[name]
	if !ok {
		return Network{}, configErrorf("unknown network %q (known: %v)", name, n.Names())
	}
	return net, nil
}

func (n *Networks) Names() []string {
	names := make([]string, 0, len(n.Networks))
	for name := range n.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
