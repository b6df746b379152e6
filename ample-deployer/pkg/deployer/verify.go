package deployer

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/verify"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/ctxinterrupt"
)

// verifyPhase submits the recorded contracts of the session's network for
// verification. Failures are logged and never returned.
func verifyPhase(ctx context.Context, env *Env, sess *Session) {
	lgr := env.Logger.New("phase", "verify", "network", sess.Network)
	if env.NewVerifier == nil {
		return
	}
	v, err := env.NewVerifier(sess)
	if err != nil {
		lgr.Warn("Skipping verification", "err", err)
		return
	}
	if v == nil {
		return
	}
	if err := runVerification(ctx, env, sess, v); err != nil {
		lgr.Warn("Verification incomplete", "err", err)
	}
}

func runVerification(ctx context.Context, env *Env, sess *Session, v *verify.Verifier) error {
	rec, err := env.Registry.Record(sess.Network)
	if err != nil {
		return err
	}
	targets, err := verify.Targets(ctx, env.Logger, sess.Chain, rec)
	if err != nil {
		return fmt.Errorf("failed to list verification targets: %w", err)
	}
	verr := v.VerifyAll(ctx, targets)
	if env.Out != nil {
		v.WriteSummary(env.Out)
	}
	return verr
}

func VerifyCLI(cliCtx *cli.Context) error {
	network, err := networkArg(cliCtx)
	if err != nil {
		return err
	}
	env, err := NewEnvFromCLI(cliCtx)
	if err != nil {
		return err
	}
	ctx := ctxinterrupt.WithCancelOnInterrupt(cliCtx.Context)
	return Verify(ctx, env, network)
}

// Verify verifies the recorded contracts of network. Unlike the verification
// phase of a deployment, a missing explorer configuration is an error here.
// Contracts that fail to verify are only reported.
func Verify(ctx context.Context, env *Env, network string) error {
	if _, err := env.Registry.Record(network); err != nil {
		return err
	}
	sess, err := env.Dial(ctx, network, true)
	if err != nil {
		return err
	}
	defer sess.Close()
	if env.NewVerifier == nil {
		return configErrorf("verification is disabled")
	}
	v, err := env.NewVerifier(sess)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if v == nil {
		return configErrorf("verification of %s needs an explorer API key and explorer-api-url, and no --%s", network, SkipVerifyFlagName)
	}
	if err := runVerification(ctx, env, sess, v); err != nil {
		env.Logger.Warn("Verification incomplete", "network", network, "err", err)
	}
	return nil
}
