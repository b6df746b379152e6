package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrArtifactNotFound   = errors.New("artifact not found")
	ErrLinkingUnsupported = errors.New("artifact requires library linking, which is not supported")
	ErrBuildInfoNotFound  = errors.New("build info not found")
	ErrAmbiguousArtifact  = errors.New("artifact name is ambiguous")
	errUnrecognizedFormat = errors.New("unrecognized artifact format")
)

const unlinkedLibraryPattern = "__$"

// Artifact is a compiled contract: its ABI and creation code.
type Artifact struct {
	ContractName     string
	SourceName       string
	ABI              abi.ABI
	Bytecode         []byte
	DeployedBytecode []byte
	// CompilerVersion is set for forge artifacts, which embed their solc metadata.
	CompilerVersion string

	path string
}

// Path is the location the artifact was read from, relative to the artifacts root.
func (a *Artifact) Path() string {
	return a.path
}

// FullyQualifiedName is the "<source>:<contract>" form explorers expect.
func (a *Artifact) FullyQualifiedName() string {
	return a.SourceName + ":" + a.ContractName
}

type rawArtifact struct {
	ContractName     string          `json:"contractName"`
	SourceName       string          `json:"sourceName"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         json.RawMessage `json:"bytecode"`
	DeployedBytecode json.RawMessage `json:"deployedBytecode"`
	LinkReferences   map[string]any  `json:"linkReferences"`
	Metadata         json.RawMessage `json:"metadata"`
}

type forgeBytecode struct {
	Object         string         `json:"object"`
	LinkReferences map[string]any `json:"linkReferences"`
}

type forgeMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Settings struct {
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
}

// ParseArtifact decodes a hardhat or forge artifact.
func ParseArtifact(name string, data []byte) (*Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", name, err)
	}
	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("%w: %s has no abi", errUnrecognizedFormat, name)
	}
	parsedABI, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi of %s: %w", name, err)
	}

	art := &Artifact{
		ContractName: raw.ContractName,
		SourceName:   raw.SourceName,
		ABI:          parsedABI,
	}
	if art.ContractName == "" {
		art.ContractName = name
	}
	if meta := parseForgeMetadata(raw.Metadata); meta != nil {
		art.CompilerVersion = meta.Compiler.Version
		for source, contract := range meta.Settings.CompilationTarget {
			if art.SourceName == "" {
				art.SourceName = source
			}
			if raw.ContractName == "" {
				art.ContractName = contract
			}
		}
	}

	code, links, err := decodeBytecode(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode in %s: %w", name, err)
	}
	if len(raw.LinkReferences) > 0 || links {
		return nil, fmt.Errorf("%s: %w", name, ErrLinkingUnsupported)
	}
	art.Bytecode = code

	deployed, _, err := decodeBytecode(raw.DeployedBytecode)
	if err != nil {
		return nil, fmt.Errorf("invalid deployedBytecode in %s: %w", name, err)
	}
	art.DeployedBytecode = deployed
	return art, nil
}

// parseForgeMetadata returns nil for hardhat artifacts and for the older forge
// layout that stores metadata as an opaque string.
func parseForgeMetadata(raw json.RawMessage) *forgeMetadata {
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var meta forgeMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil
	}
	return &meta
}

// decodeBytecode accepts the hardhat string form and the forge {"object": ...} form.
// It reports whether unresolved library references are present.
func decodeBytecode(raw json.RawMessage) ([]byte, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, nil
	}
	var hexStr string
	var links bool
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &hexStr); err != nil {
			return nil, false, err
		}
	} else {
		var fb forgeBytecode
		if err := json.Unmarshal(raw, &fb); err != nil {
			return nil, false, err
		}
		hexStr = fb.Object
		links = len(fb.LinkReferences) > 0
	}
	if strings.Contains(hexStr, unlinkedLibraryPattern) {
		return nil, true, nil
	}
	if hexStr == "" || hexStr == "0x" {
		return nil, links, nil
	}
	if !strings.HasPrefix(hexStr, "0x") {
		hexStr = "0x" + hexStr
	}
	code, err := hexutil.Decode(hexStr)
	if err != nil {
		return nil, false, err
	}
	return code, links, nil
}
