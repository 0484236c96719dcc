package deployer

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/bullbear-labs/bullbear-deploy/chain/evm"
)

// ContractName is the contract type this tool deploys.
const ContractName = "BullBear"

// Params are the BullBear constructor arguments, in constructor order.
type Params struct {
	// Interval is the update interval as a base 10 string, encoded as uint256.
	Interval string `json:"interval"`
	// PriceReferenceA is the first price reference address.
	PriceReferenceA string `json:"priceReferenceA"`
	// PriceReferenceB is the second price reference address.
	PriceReferenceB string `json:"priceReferenceB"`
}

// DefaultParams returns the arguments BullBear is deployed with.
func DefaultParams() Params {
	return Params{
		Interval:        "60",
		PriceReferenceA: "0x2Ca8E0C643bDe4C2E08ab1fA0da3401AdAD7734D",
		PriceReferenceB: "0xA39434A63A52E749F02807ae27335515BA4b07F7",
	}
}

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Args converts the parameters into values the ABI encoder accepts for
// (uint256, address, address).
func (p Params) Args() ([]any, error) {
	interval, err := parseUint256(p.Interval)
	if err != nil {
		return nil, fmt.Errorf("invalid interval: %w", err)
	}

	refA, err := evm.ParseAddress(p.PriceReferenceA)
	if err != nil {
		return nil, fmt.Errorf("invalid price reference A: %w", err)
	}

	refB, err := evm.ParseAddress(p.PriceReferenceB)
	if err != nil {
		return nil, fmt.Errorf("invalid price reference B: %w", err)
	}

	return []any{interval, refA, refB}, nil
}

func parseUint256(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("value is empty")
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a base 10 integer", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%q is negative", s)
	}
	if v.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%q overflows uint256", s)
	}

	return v, nil
}
