// Package chaintest provides an in-memory chain that models the Ampleforth contracts
// closely enough to exercise deployment, cross-chain sync and rebase flows in tests.
package chaintest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/artifacts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
)

const (
	ArtifactsDir    = "artifacts"
	SolcLongVersion = "0.8.4+commit.c7e474f2"
	buildInfoID     = "5c1d6a1e0bfa7fb0d4ad5e1c0e6e4a4b"
)

// signatures lists the parts of each contract interface the tooling touches.
var signatures = map[string][]string{
	standard.ProxyAdminArtifact: {
		"function owner() view returns (address)",
		"function getProxyImplementation(address proxy) view returns (address)",
		"function getProxyAdmin(address proxy) view returns (address)",
	},
	standard.ProxyArtifact: {
		"constructor(address _logic, address admin_, bytes _data)",
	},
	standard.UFragmentsArtifact: {
		"function initialize(address owner_)",
		"function setMonetaryPolicy(address monetaryPolicy_)",
		"function monetaryPolicy() view returns (address)",
		"function owner() view returns (address)",
		"function transfer(address to, uint256 value) returns (bool)",
		"function balanceOf(address who) view returns (uint256)",
		"function totalSupply() view returns (uint256)",
		"function rebase(uint256 epoch, int256 supplyDelta) returns (uint256)",
	},
	standard.UFragmentsPolicyArtifact: {
		"function initialize(address owner_, address uFrags_, uint256 baseCpi_)",
		"function setOrchestrator(address orchestrator_)",
		"function setMarketOracle(address marketOracle_)",
		"function setCpiOracle(address cpiOracle_)",
		"function rebase()",
		"function epoch() view returns (uint256)",
		"function globalAmpleforthEpochAndAMPLSupply() view returns (uint256, uint256)",
		"function orchestrator() view returns (address)",
		"function marketOracle() view returns (address)",
		"function cpiOracle() view returns (address)",
		"function uFrags() view returns (address)",
		"function lastRebaseTimestampSec() view returns (uint256)",
		"function minRebaseTimeIntervalSec() view returns (uint256)",
	},
	standard.OrchestratorArtifact: {
		"constructor(address policy_)",
		"function rebase()",
		"function policy() view returns (address)",
	},
	standard.MedianOracleArtifact: {
		"constructor(uint256 reportExpirationTimeSec_, uint256 reportDelaySec_, uint256 minimumProviders_)",
		"function addProvider(address provider)",
		"function pushReport(uint256 payload)",
		"function getData() returns (uint256, bool)",
		"function providersSize() view returns (uint256)",
		"function reportExpirationTimeSec() view returns (uint256)",
	},
	standard.XCAmpleArtifact: {
		"function initialize(string name, string symbol, uint256 globalAMPLSupply_)",
		"function setController(address controller_)",
		"function controller() view returns (address)",
		"function globalAMPLSupply() view returns (uint256)",
		"function totalSupply() view returns (uint256)",
		"function name() view returns (string)",
		"function symbol() view returns (string)",
	},
	standard.XCAmpleControllerArtifact: {
		"function initialize(address xcAmple_, uint256 globalAmpleforthEpoch_)",
		"function setRebaseRelayer(address rebaseRelayer_)",
		"function globalAmpleforthEpoch() view returns (uint256)",
		"function xcAmple() view returns (address)",
		"function rebaseRelayer() view returns (address)",
	},
	standard.BatchTxExecutorArtifact: {
		"function owner() view returns (address)",
		"function transactionsSize() view returns (uint256)",
	},
}

var sources = map[string]string{
	standard.ProxyAdminArtifact:        "@openzeppelin/contracts/proxy/transparent/ProxyAdmin.sol",
	standard.ProxyArtifact:             "@openzeppelin/contracts/proxy/transparent/TransparentUpgradeableProxy.sol",
	standard.UFragmentsArtifact:        "contracts/base-chain/UFragments.sol",
	standard.UFragmentsPolicyArtifact:  "contracts/base-chain/UFragmentsPolicy.sol",
	standard.OrchestratorArtifact:      "contracts/base-chain/Orchestrator.sol",
	standard.MedianOracleArtifact:      "contracts/base-chain/MedianOracle.sol",
	standard.XCAmpleArtifact:           "contracts/satellite-chain/xc-ampleforth/XCAmple.sol",
	standard.XCAmpleControllerArtifact: "contracts/satellite-chain/xc-ampleforth/XCAmpleController.sol",
	standard.BatchTxExecutorArtifact:   "contracts/_utilities/BatchTxExecutor.sol",
}

type abiParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed,omitempty"`
}

type abiEntry struct {
	Type            string     `json:"type"`
	Name            string     `json:"name,omitempty"`
	Inputs          []abiParam `json:"inputs"`
	Outputs         []abiParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability"`
}

// parseSignature turns "function name(type a, type b) view returns (type)" into an ABI entry.
func parseSignature(sig string) abiEntry {
	e := abiEntry{StateMutability: "nonpayable"}
	rest := sig
	switch {
	case strings.HasPrefix(rest, "constructor"):
		e.Type = "constructor"
		rest = strings.TrimPrefix(rest, "constructor")
	case strings.HasPrefix(rest, "function "):
		e.Type = "function"
		rest = strings.TrimPrefix(rest, "function ")
		open := strings.Index(rest, "(")
		e.Name = rest[:open]
		rest = rest[open:]
	default:
		panic(fmt.Sprintf("unsupported signature %q", sig))
	}
	closeIdx := strings.Index(rest, ")")
	e.Inputs = parseParams(rest[1:closeIdx])
	rest = strings.TrimSpace(rest[closeIdx+1:])
	if strings.HasPrefix(rest, "view") {
		e.StateMutability = "view"
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "view"))
	}
	e.Outputs = []abiParam{}
	if strings.HasPrefix(rest, "returns (") {
		e.Outputs = parseParams(strings.TrimSuffix(strings.TrimPrefix(rest, "returns ("), ")"))
	}
	if e.Type == "constructor" {
		e.Outputs = nil
	}
	return e
}

func parseParams(s string) []abiParam {
	out := []abiParam{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		p := abiParam{Type: fields[0]}
		if len(fields) > 1 {
			p.Name = fields[len(fields)-1]
		}
		out = append(out, p)
	}
	return out
}

func abiJSON(name string) []byte {
	entries := make([]abiEntry, 0, len(signatures[name]))
	for _, sig := range signatures[name] {
		entries = append(entries, parseSignature(sig))
	}
	data, err := json.Marshal(entries)
	if err != nil {
		panic(err)
	}
	return data
}

// ArtifactsFS returns a hardhat-style artifacts tree for every contract the tooling
// deploys, including the debug files and one shared build-info file.
func ArtifactsFS() afero.Fs {
	fs := afero.NewMemMapFs()
	inputSources := make(map[string]any)
	for name, source := range sources {
		dir := filepath.Join(ArtifactsDir, source)
		art := map[string]any{
			"_format":                "hh-sol-artifact-1",
			"contractName":           name,
			"sourceName":             source,
			"abi":                    json.RawMessage(abiJSON(name)),
			"bytecode":               "0x608060405234801561001057600080fd5b50",
			"deployedBytecode":       "0x6080604052",
			"linkReferences":         map[string]any{},
			"deployedLinkReferences": map[string]any{},
		}
		mustWriteJSON(fs, filepath.Join(dir, name+".json"), art)
		mustWriteJSON(fs, filepath.Join(dir, name+".dbg.json"), map[string]any{
			"_format":   "hh-sol-dbg-1",
			"buildInfo": relBuildInfo(source),
		})
		inputSources[source] = map[string]string{"content": "// " + name}
	}
	mustWriteJSON(fs, filepath.Join(ArtifactsDir, "build-info", buildInfoID+".json"), map[string]any{
		"id":              buildInfoID,
		"_format":         "hh-sol-build-info-1",
		"solcVersion":     "0.8.4",
		"solcLongVersion": SolcLongVersion,
		"input": map[string]any{
			"language": "Solidity",
			"sources":  inputSources,
			"settings": map[string]any{"optimizer": map[string]any{"enabled": true, "runs": 750}},
		},
	})
	return fs
}

// relBuildInfo is the build-info path relative to the directory of a source's artifacts.
func relBuildInfo(source string) string {
	depth := strings.Count(source, "/") + 1
	return strings.Repeat("../", depth) + "build-info/" + buildInfoID + ".json"
}

func mustWriteJSON(fs afero.Fs, p string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err)
	}
	if err := fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		panic(err)
	}
	if err := afero.WriteFile(fs, p, data, 0o644); err != nil {
		panic(err)
	}
}

// NewArtifacts returns an artifacts reader over ArtifactsFS.
func NewArtifacts() *artifacts.FS {
	return artifacts.NewFS(ArtifactsFS(), ArtifactsDir)
}

// NewProvider returns a factory provider over ArtifactsFS.
func NewProvider() *contracts.Provider {
	return contracts.NewProvider(NewArtifacts())
}
