package deployer

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/inspect"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/ctxinterrupt"
)

func InspectCLI(cliCtx *cli.Context) error {
	network, err := networkArg(cliCtx)
	if err != nil {
		return err
	}
	env, err := NewEnvFromCLI(cliCtx)
	if err != nil {
		return err
	}
	ctx := ctxinterrupt.WithCancelOnInterrupt(cliCtx.Context)
	return Inspect(ctx, env, network, cliCtx.Bool(RebaseInfoFlagName))
}

// Inspect prints the record of network and, with live set, the rebase state read
// from the network itself.
func Inspect(ctx context.Context, env *Env, network string, live bool) error {
	rec, err := env.Registry.Record(network)
	if err != nil {
		return err
	}
	inspect.WriteRecord(env.Out, network, rec)
	if !live || rec.IsBaseChain == nil {
		return nil
	}

	sess, err := env.Dial(ctx, network, true)
	if err != nil {
		return err
	}
	defer sess.Close()
	if sess.RPC == nil {
		return fmt.Errorf("network %s has no RPC client", network)
	}
	if *rec.IsBaseChain {
		policy, err := entryOf(rec, standard.RolePolicy)
		if err != nil {
			return err
		}
		info, err := inspect.ReadRebaseInfo(ctx, sess.RPC, policy.Address)
		if err != nil {
			return err
		}
		inspect.WriteRebaseInfo(env.Out, info)
		return nil
	}
	xcAmple, err := entryOf(rec, standard.RoleXCAmple)
	if err != nil {
		return err
	}
	controller, err := entryOf(rec, standard.RoleXCAmpleController)
	if err != nil {
		return err
	}
	info, err := inspect.ReadMirrorInfo(ctx, sess.RPC, xcAmple.Address, controller.Address)
	if err != nil {
		return err
	}
	inspect.WriteMirrorInfo(env.Out, info)
	return nil
}

func entryOf(rec *registry.Record, role string) (registry.Entry, error) {
	e, ok := rec.Contracts[role]
	if !ok {
		return registry.Entry{}, fmt.Errorf("%w: %s", registry.ErrNotFound, role)
	}
	return e, nil
}
