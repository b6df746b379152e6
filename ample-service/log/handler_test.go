package log

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

func TestLogfmtMsHandler(t *testing.T) {
	var buf bytes.Buffer
	lgr := log.NewLogger(LogfmtMsHandler(&buf))
	supply, _ := new(big.Int).SetString("50000000000000000", 10)
	lgr.Info("rebase executed", "supply", supply, "epoch", uint256.NewInt(7), "policy", common.Address{0x01})

	out := buf.String()
	require.Contains(t, out, "lvl=info")
	require.Contains(t, out, "supply=50000000000000000")
	require.Contains(t, out, "epoch=7")
	require.Contains(t, out, "policy=0x0100000000000000000000000000000000000000")
	require.True(t, strings.HasPrefix(out, "t="))
}

func TestJSONMsHandlerNilValues(t *testing.T) {
	var buf bytes.Buffer
	lgr := log.NewLogger(JSONMsHandler(&buf))
	var gasPrice *big.Int
	var tip *uint256.Int
	lgr.Warn("tx params", "gasPrice", gasPrice, "tip", tip)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "warn", entry["lvl"])
	require.Equal(t, "<nil>", entry["gasPrice"])
	require.Equal(t, "<nil>", entry["tip"])
	require.Contains(t, entry, "t")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	lgr := log.NewLogger(LogfmtMsHandlerWithLevel(&buf, log.LevelWarn))
	lgr.Info("hidden")
	require.Empty(t, buf.String())
	lgr.Error("shown")
	require.Contains(t, buf.String(), "shown")
}
