// Package artifact resolves compiled contract artifacts, the ABI and creation bytecode a
// deployment needs, from the JSON files written by Hardhat or Foundry.
package artifact

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
	// ErrArtifactNotFound is returned when no artifact matches the requested contract name.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrAmbiguousArtifact is returned when a bare contract name matches more than one artifact.
	ErrAmbiguousArtifact = errors.New("ambiguous artifact name")
	// ErrNoBytecode is returned for artifacts of interfaces and abstract contracts.
	ErrNoBytecode = errors.New("artifact has no creation bytecode")
)

// Artifact is a compiled contract ready to be deployed.
type Artifact struct {
	// ContractName is the name of the contract, e.g. "BullBear".
	ContractName string
	// SourceName is the source file the contract was compiled from, e.g. "contracts/BullBear.sol".
	SourceName string
	ABI        abi.ABI
	// Bytecode is the creation bytecode, without constructor arguments.
	Bytecode []byte
}

// FullyQualifiedName returns the "<source>:<contract>" form of the artifact name.
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.ContractName
	}

	return a.SourceName + ":" + a.ContractName
}

// Resolver looks up a compiled contract by name.
type Resolver interface {
	Resolve(name string) (*Artifact, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (*Artifact, error)

// Resolve calls f(name).
func (f ResolverFunc) Resolve(name string) (*Artifact, error) {
	return f(name)
}

// ParseName splits a contract name into its source and contract parts. A bare name such as
// "BullBear" has an empty source.
func ParseName(name string) (sourceName, contractName string, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", errors.New("contract name is required")
	}

	i := strings.LastIndex(name, ":")
	if i < 0 {
		return "", name, nil
	}

	sourceName, contractName = name[:i], name[i+1:]
	if sourceName == "" || contractName == "" {
		return "", "", fmt.Errorf("invalid fully qualified contract name %q", name)
	}

	return sourceName, contractName, nil
}

// fileFormat covers both the Hardhat (hh-sol-artifact-1) and the Foundry artifact layouts.
// Hardhat stores the bytecode as a hex string, Foundry as an object with the hex in "object".
type fileFormat struct {
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

// Parse decodes a single artifact file. Names missing from the file, as in Foundry output, are
// taken from the arguments.
func Parse(data []byte, sourceName, contractName string) (*Artifact, error) {
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}
	if f.ContractName == "" {
		f.ContractName = contractName
	}
	if f.SourceName == "" {
		f.SourceName = sourceName
	}

	if len(f.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", f.ContractName)
	}
	parsedABI, err := abi.JSON(bytes.NewReader(f.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi of %s: %w", f.ContractName, err)
	}

	code, err := decodeBytecode(f.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bytecode of %s: %w", f.ContractName, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBytecode, f.ContractName)
	}

	return &Artifact{
		ContractName: f.ContractName,
		SourceName:   f.SourceName,
		ABI:          parsedABI,
		Bytecode:     code,
	}, nil
}

func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var hexCode string
	if raw[0] == '{' {
		var obj struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		hexCode = obj.Object
	} else if err := json.Unmarshal(raw, &hexCode); err != nil {
		return nil, err
	}

	hexCode = strings.TrimSpace(hexCode)
	if hexCode == "" || hexCode == "0x" {
		return nil, nil
	}
	if strings.Contains(hexCode, "__") {
		return nil, errors.New("bytecode has unlinked library references")
	}
	if !strings.HasPrefix(hexCode, "0x") {
		hexCode = "0x" + hexCode
	}

	return hexutil.Decode(hexCode)
}
