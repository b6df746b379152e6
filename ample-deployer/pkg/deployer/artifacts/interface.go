package artifacts

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Interface renders abi in the human-readable form stored in deployment records:
// the constructor, then functions, events and errors, each group sorted by name.
func Interface(contractABI abi.ABI) []string {
	var out []string
	if len(contractABI.Constructor.Inputs) > 0 {
		out = append(out, "constructor("+formatArgs(contractABI.Constructor.Inputs, false)+")")
	}

	methods := make([]abi.Method, 0, len(contractABI.Methods))
	for _, m := range contractABI.Methods {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].Sig < methods[j].Sig })
	for _, m := range methods {
		out = append(out, formatMethod(m))
	}
	if contractABI.HasFallback() {
		out = append(out, "fallback()")
	}
	if contractABI.HasReceive() {
		out = append(out, "receive() payable")
	}

	events := make([]abi.Event, 0, len(contractABI.Events))
	for _, e := range contractABI.Events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Sig < events[j].Sig })
	for _, e := range events {
		line := "event " + e.RawName + "(" + formatArgs(e.Inputs, true) + ")"
		if e.Anonymous {
			line += " anonymous"
		}
		out = append(out, line)
	}

	errs := make([]abi.Error, 0, len(contractABI.Errors))
	for _, e := range contractABI.Errors {
		errs = append(errs, e)
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Sig < errs[j].Sig })
	for _, e := range errs {
		out = append(out, "error "+e.Name+"("+formatArgs(e.Inputs, false)+")")
	}
	return out
}

func formatMethod(m abi.Method) string {
	var b strings.Builder
	b.WriteString("function ")
	b.WriteString(m.RawName)
	b.WriteString("(")
	b.WriteString(formatArgs(m.Inputs, false))
	b.WriteString(")")
	switch m.StateMutability {
	case "view", "pure", "payable":
		b.WriteString(" " + m.StateMutability)
	}
	if len(m.Outputs) > 0 {
		b.WriteString(" returns (")
		b.WriteString(formatArgs(m.Outputs, false))
		b.WriteString(")")
	}
	return b.String()
}

func formatArgs(args abi.Arguments, withIndexed bool) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		p := arg.Type.String()
		if withIndexed && arg.Indexed {
			p += " indexed"
		}
		if arg.Name != "" {
			p += " " + arg.Name
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}
