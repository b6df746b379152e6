package cliapp

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/urfave/cli/v2"
)

// PrefixEnvVar returns the env var name(s) for a flag, e.g. AMPLE_DEPLOYER_LOG_LEVEL.
func PrefixEnvVar(prefix, suffix string) []string {
	return []string{prefix + "_" + suffix}
}

type cloneable interface {
	Clone() any
}

// ProtectFlags copies every flag so that parsing into one command's flag set
// never mutates the defaults shared with another command.
func ProtectFlags(flags []cli.Flag) []cli.Flag {
	out := make([]cli.Flag, 0, len(flags))
	for _, f := range flags {
		fCopy, err := cloneFlag(f)
		if err != nil {
			panic(fmt.Errorf("failed to clone flag %q: %w", f.Names()[0], err))
		}
		out = append(out, fCopy)
	}
	return out
}

func cloneFlag(f cli.Flag) (cli.Flag, error) {
	v := reflect.ValueOf(f)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected pointer to flag struct, got %T", f)
	}
	cpy := reflect.New(v.Elem().Type())
	cpy.Elem().Set(v.Elem())
	if g, ok := f.(*cli.GenericFlag); ok && g.Value != nil {
		if c, ok := g.Value.(cloneable); ok {
			cloned, ok := c.Clone().(cli.Generic)
			if !ok {
				return nil, fmt.Errorf("clone of %T is not a cli.Generic", g.Value)
			}
			cpy.Interface().(*cli.GenericFlag).Value = cloned
		}
	}
	out, ok := cpy.Interface().(cli.Flag)
	if !ok {
		return nil, fmt.Errorf("copy of %T is not a flag", f)
	}
	return out, nil
}

// FlagNames lists the primary names of flags, for usage output and tests.
func FlagNames(flags []cli.Flag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, f.Names()[0])
	}
	return out
}

// RequireArgs fails unless exactly n positional arguments were given.
func RequireArgs(ctx *cli.Context, n int, usage string) error {
	if ctx.NArg() != n {
		return fmt.Errorf("expected %d argument(s) (%s), got %d: %s",
			n, usage, ctx.NArg(), strings.Join(ctx.Args().Slice(), " "))
	}
	return nil
}
