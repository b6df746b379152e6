package cliutil

import (
	"flag"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestBigIntFlag(t *testing.T) {
	validBigIntStr := "123456789012345678901234567890"
	expectedBigInt, _ := new(big.Int).SetString(validBigIntStr, 10)

	tests := []struct {
		name        string
		flagValue   string
		expectedVal *big.Int
		expectErr   bool
	}{
		{name: "decimal", flagValue: validBigIntStr, expectedVal: expectedBigInt},
		{name: "hex", flagValue: "0x1234", expectedVal: big.NewInt(0x1234)},
		{name: "invalid hex", flagValue: "0xgibberish", expectErr: true},
		{name: "empty hex", flagValue: "0x", expectErr: true},
		{name: "not a number", flagValue: "not-a-number", expectErr: true},
		{name: "blank", flagValue: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fs.String("gas-price", tt.flagValue, "doc")
			val, err := BigIntFlag(cli.NewContext(nil, fs, nil), "gas-price")
			if tt.expectErr {
				require.Nil(t, val)
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, 0, tt.expectedVal.Cmp(val), "expected %s, got %s", tt.expectedVal, val)
		})
	}
}

func TestParseFixedPoint(t *testing.T) {
	tests := []struct {
		value     string
		decimals  uint8
		expected  string
		expectErr bool
	}{
		{value: "1", decimals: 9, expected: "1000000000"},
		{value: "100.5", decimals: 9, expected: "100500000000"},
		{value: "0.000000001", decimals: 9, expected: "1"},
		{value: "1.0", decimals: 18, expected: "1000000000000000000"},
		{value: "0.0000000001", decimals: 9, expectErr: true},
		{value: "-1", decimals: 9, expectErr: true},
		{value: "abc", decimals: 9, expectErr: true},
		{value: "", decimals: 9, expectErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseFixedPoint(tt.value, tt.decimals)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got.String())
		})
	}
}
