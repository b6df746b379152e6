package deployer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/ctxinterrupt"
)

const fetchTimeout = 30 * time.Second

// importedRoles maps the keys of an Ampleforth deployment YAML to registry roles.
var importedRoles = map[string]string{
	"UFragments":       standard.RoleAmpl,
	"UFragmentsPolicy": standard.RolePolicy,
	"Orchestrator":     standard.RoleOrchestrator,
	"RateOracle":       standard.RoleRateOracle,
	"CpiOracle":        standard.RoleCPIOracle,
}

func UseDeployedCLI(cliCtx *cli.Context) error {
	network, err := networkArg(cliCtx)
	if err != nil {
		return err
	}
	env, err := NewEnvFromCLI(cliCtx)
	if err != nil {
		return err
	}
	ctx := ctxinterrupt.WithCancelOnInterrupt(cliCtx.Context)
	return UseDeployed(ctx, env, network, cliCtx.String(DeploymentYAMLFlagName))
}

// UseDeployed records an existing base deployment on network from the YAML at
// location, a local path or an http(s) URL. No transaction is sent.
func UseDeployed(ctx context.Context, env *Env, network string, location string) error {
	if network == "" {
		return configErrorf("network is required")
	}
	data, err := readLocation(ctx, env.FS, location)
	if err != nil {
		return err
	}
	addrs, err := ParseDeploymentYAML(data)
	if err != nil {
		return err
	}

	entries := make(map[string]registry.Entry, len(addrs))
	for role, addr := range addrs {
		f, err := env.Provider.GetFactory(standard.RoleArtifacts[role])
		if err != nil {
			return fmt.Errorf("failed to load %s artifact: %w", role, err)
		}
		entries[role] = registry.Entry{Address: addr, ABI: f.Attach(addr).Interface()}
	}
	isBase := true
	if err := env.Registry.WriteBulk(network, registry.Batch{IsBaseChain: &isBase, Entries: entries}); err != nil {
		return fmt.Errorf("use-deployed: %w", err)
	}
	env.Logger.Info("Recorded existing deployment", "network", network, "source", location, "contracts", len(entries))
	return nil
}

// ParseDeploymentYAML reads the addresses of the base contracts. Every role must
// be present; other keys are ignored.
func ParseDeploymentYAML(data []byte) (map[string]common.Address, error) {
	// Nodes keep hex addresses from being resolved as YAML integers.
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, configErrorf("invalid deployment yaml: %v", err)
	}
	keys := make([]string, 0, len(importedRoles))
	for k := range importedRoles {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]common.Address, len(importedRoles))
	for _, key := range keys {
		node, ok := raw[key]
		if !ok {
			return nil, configErrorf("deployment yaml has no %s address", key)
		}
		v := node.Value
		if node.Kind != yaml.ScalarNode || !common.IsHexAddress(v) {
			return nil, configErrorf("deployment yaml: invalid %s address %q", key, v)
		}
		out[importedRoles[key]] = common.HexToAddress(v)
	}
	return out, nil
}

func readLocation(ctx context.Context, fs afero.Fs, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		resp, err := resty.New().SetTimeout(fetchTimeout).R().SetContext(ctx).Get(location)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
		}
		if resp.IsError() {
			return nil, configErrorf("failed to fetch %s: %s", location, resp.Status())
		}
		return resp.Body(), nil
	}
	data, err := afero.ReadFile(fs, location)
	if err != nil {
		return nil, configErrorf("failed to read %s: %v", location, err)
	}
	return data, nil
}
