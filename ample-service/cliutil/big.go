package cliutil

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/urfave/cli/v2"
)

var ErrFlagBlank = errors.New("cannot parse blank flag")

// BigIntFlag parses a decimal or 0x-prefixed hex flag value.
func BigIntFlag(cliCtx *cli.Context, flagName string) (*big.Int, error) {
	return ParseBigInt(cliCtx.String(flagName))
}

func ParseBigInt(intStr string) (*big.Int, error) {
	if intStr == "" {
		return nil, ErrFlagBlank
	}
	base := 10
	if strings.HasPrefix(intStr, "0x") {
		base = 16
		intStr = intStr[2:]
	}
	out, ok := new(big.Int).SetString(intStr, base)
	if !ok {
		return nil, fmt.Errorf("error parsing bigint '%s'", intStr)
	}
	return out, nil
}

// OptionalBigIntFlag returns nil when the flag is not set.
func OptionalBigIntFlag(cliCtx *cli.Context, flagName string) (*big.Int, error) {
	if !cliCtx.IsSet(flagName) {
		return nil, nil
	}
	return BigIntFlag(cliCtx, flagName)
}

// ParseFixedPoint converts a decimal string such as "1.5" into an integer scaled by
// 10^decimals. Values carrying more fractional digits than decimals are rejected.
func ParseFixedPoint(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrFlagBlank
	}
	r, ok := new(big.Rat).SetString(value)
	if !ok {
		return nil, fmt.Errorf("invalid decimal '%s'", value)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("negative value '%s'", value)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	if !r.IsInt() {
		return nil, fmt.Errorf("value '%s' has more than %d decimals", value, decimals)
	}
	return new(big.Int).Set(r.Num()), nil
}
