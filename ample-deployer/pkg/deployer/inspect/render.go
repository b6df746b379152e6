// Package inspect renders a network's recorded deployments and live rebase state.
package inspect

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	baseColor    = color.New(color.FgGreen)
	mirrorColor  = color.New(color.FgYellow)
)

func topology(rec *registry.Record) string {
	switch {
	case rec.IsBaseChain == nil:
		return "unknown"
	case *rec.IsBaseChain:
		return baseColor.Sprint("base chain")
	default:
		return mirrorColor.Sprintf("satellite of %s", rec.BaseChainNetwork)
	}
}

// WriteRecord renders the contracts recorded for network, one row per role.
func WriteRecord(w io.Writer, network string, rec *registry.Record) {
	fmt.Fprintf(w, "%s %s (%s)\n", headingColor.Sprint("Network"), network, topology(rec))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Role", "Address", "ABI entries"})
	table.SetAutoWrapText(false)
	for _, name := range rec.Names() {
		e := rec.Contracts[name]
		table.Append([]string{name, e.Address.Hex(), strconv.Itoa(len(e.ABI))})
	}
	table.Render()
}

func WriteRebaseInfo(w io.Writer, info *RebaseInfo) {
	next := "now"
	if info.LastRebaseTimestampSec.Sign() > 0 {
		next = formatTimestamp(info.NextRebaseTimestampSec().Int64())
	}
	fmt.Fprintln(w, headingColor.Sprint("Rebase"))
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.AppendBulk([][]string{
		{"Epoch", info.Epoch.String()},
		{"Total supply", info.Supply.String()},
		{"Last rebase", formatTimestamp(info.LastRebaseTimestampSec.Int64())},
		{"Next rebase after", next},
		{"Market oracle", info.MarketOracle.Hex()},
		{"CPI oracle", info.CPIOracle.Hex()},
		{"Orchestrator", info.Orchestrator.Hex()},
	})
	table.Render()
}

func WriteMirrorInfo(w io.Writer, info *MirrorInfo) {
	fmt.Fprintln(w, headingColor.Sprint("Mirror"))
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.AppendBulk([][]string{
		{"Global epoch", info.GlobalAmpleforthEpoch.String()},
		{"Global supply", info.GlobalAMPLSupply.String()},
	})
	table.Render()
}

func formatTimestamp(sec int64) string {
	if sec == 0 {
		return "never"
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
