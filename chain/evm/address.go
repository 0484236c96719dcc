package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress converts an EVM address string into a common.Address.
//
// The address must be 0x followed by 40 hex characters. All-lower and all-upper case addresses
// are accepted as is. Mixed case addresses are treated as EIP-55 checksummed and must match their
// checksum.
func ParseAddress(address string) (common.Address, error) {
	body, ok := strings.CutPrefix(address, "0x")
	if !ok || len(body) != 2*common.AddressLength || !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("invalid EVM address format: %q, want 0x followed by 40 hex characters", address)
	}

	addr := common.HexToAddress(address)

	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if want := addr.Hex()[2:]; body != want {
			return common.Address{}, fmt.Errorf("invalid EIP-55 checksum for address %q, want 0x%s", address, want)
		}
	}

	return addr, nil
}
