package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	chainsel "github.com/smartcontractkit/chain-selectors"
)

// URL schemes accepted in RPC.PreferredURLScheme.
const (
	URLSchemeHTTP = "http"
	URLSchemeWS   = "ws"
)

// Selector resolves the chain selector of the configured network. When only the chain ID is set
// it is looked up in the chain-selectors registry.
func (n NetworkConfig) Selector() (uint64, error) {
	switch {
	case n.ChainSelector == 0 && n.ChainID == 0:
		return 0, errors.New("network.chain_selector or network.chain_id is required")
	case n.ChainSelector != 0 && n.ChainID != 0:
		return 0, errors.New("only one of network.chain_selector and network.chain_id may be set")
	case n.ChainID != 0:
		selector, err := chainsel.SelectorFromChainId(n.ChainID)
		if err != nil {
			return 0, fmt.Errorf("unknown EVM chain ID %d: %w", n.ChainID, err)
		}

		return selector, nil
	}

	family, err := chainsel.GetSelectorFamily(n.ChainSelector)
	if err != nil {
		return 0, fmt.Errorf("unknown chain selector %d: %w", n.ChainSelector, err)
	}
	if family != chainsel.FamilyEVM {
		return 0, fmt.Errorf("chain selector %d belongs to the %s family, only %s is supported",
			n.ChainSelector, family, chainsel.FamilyEVM,
		)
	}

	return n.ChainSelector, nil
}

// Endpoints returns the RPCs to connect to, in order. The rpc_url shorthand comes first.
func (n NetworkConfig) Endpoints() []RPC {
	rpcs := make([]RPC, 0, len(n.RPCs)+1)

	if url := strings.TrimSpace(n.RPCURL); url != "" {
		rpc := RPC{RPCName: "rpc_url", PreferredURLScheme: URLSchemeHTTP, HTTPURL: url}
		if strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://") {
			rpc = RPC{RPCName: "rpc_url", PreferredURLScheme: URLSchemeWS, WSURL: url}
		}
		rpcs = append(rpcs, rpc)
	}

	for i, rpc := range n.RPCs {
		if rpc.RPCName == "" {
			rpc.RPCName = "rpcs[" + strconv.Itoa(i) + "]"
		}
		rpcs = append(rpcs, rpc)
	}

	return rpcs
}

func (r RPC) validate() error {
	switch r.PreferredURLScheme {
	case "", URLSchemeHTTP:
		if r.HTTPURL == "" {
			return fmt.Errorf("rpc %s: http_url is required", r.RPCName)
		}
	case URLSchemeWS:
		if r.WSURL == "" {
			return fmt.Errorf("rpc %s: ws_url is required", r.RPCName)
		}
	default:
		return fmt.Errorf("rpc %s: unknown preferred_url_scheme %q", r.RPCName, r.PreferredURLScheme)
	}

	return nil
}
