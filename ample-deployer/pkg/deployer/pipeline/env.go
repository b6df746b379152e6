// Package pipeline deploys and wires the base and satellite contract suites.
package pipeline

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
)

type Env struct {
	Logger log.Logger
	Chain  contracts.Chain
}

// Funding is one token transfer made after the base suite is deployed.
type Funding struct {
	Recipient common.Address
	Amount    *big.Int
}

type stage[C any, S any] struct {
	name string
	run  func(ctx context.Context, env *Env, cfg *C, st *S) error
}

// runStages applies stages in order and stops at the first failure.
func runStages[C any, S any](ctx context.Context, env *Env, cfg *C, st *S, stages []stage[C, S]) error {
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stage %q: %w", s.name, err)
		}
		if err := s.run(ctx, env, cfg, st); err != nil {
			return fmt.Errorf("stage %q: %w", s.name, err)
		}
	}
	return nil
}
