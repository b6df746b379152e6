// Package verify submits deployed contracts' sources to an Etherscan-compatible explorer.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/hashicorp/go-multierror"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/time/rate"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/artifacts"
)

type Status int

const (
	StatusVerified Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusVerified:
		return "verified"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Target is a contract to verify.
type Target struct {
	// Role labels the target in logs and the summary.
	Role string
	// Name is the artifact the contract was built from.
	Name            string
	Address         common.Address
	ConstructorArgs []byte
}

type result struct {
	target Target
	status Status
	err    error
}

type Verifier struct {
	lgr       log.Logger
	artifacts *artifacts.FS
	etherscan *EtherscanClient

	numVerified int
	numSkipped  int
	numFailed   int
	results     []result
}

func NewVerifier(apiKey string, apiURL string, artifactsFS *artifacts.FS, lgr log.Logger) (*Verifier, error) {
	if apiKey == "" {
		return nil, errors.New("explorer API key is required")
	}
	if apiURL == "" {
		return nil, errors.New("explorer API url is required")
	}
	return &Verifier{
		lgr:       lgr,
		artifacts: artifactsFS,
		etherscan: NewEtherscanClient(apiKey, apiURL, rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1)),
	}, nil
}

// Verify makes sure the explorer has the source of t. Already verified contracts are
// skipped, so repeating a verification is a no-op.
func (v *Verifier) Verify(ctx context.Context, t Target) (Status, error) {
	lgr := v.lgr.New("contract", t.Name, "address", t.Address)
	verified, err := v.etherscan.IsVerified(ctx, t.Address)
	if err != nil {
		return StatusFailed, err
	}
	if verified {
		lgr.Info("Contract already verified")
		return StatusSkipped, nil
	}

	art, err := v.artifacts.ReadArtifact(t.Name)
	if err != nil {
		return StatusFailed, fmt.Errorf("%w: %v", ErrVerificationRejected, err)
	}
	bi, err := v.artifacts.ReadBuildInfo(art)
	if err != nil {
		return StatusFailed, fmt.Errorf("%w: %v", ErrVerificationRejected, err)
	}
	guid, err := v.etherscan.SubmitSource(ctx, SourceSubmission{
		Address:           t.Address,
		ContractName:      art.FullyQualifiedName(),
		CompilerVersion:   bi.CompilerVersion(),
		StandardJSONInput: bi.Input,
		ConstructorArgs:   t.ConstructorArgs,
	})
	if err != nil {
		return StatusFailed, err
	}
	if guid == "" {
		lgr.Info("Contract already verified")
		return StatusSkipped, nil
	}
	lgr.Info("Submitted contract for verification", "guid", guid)
	if err := v.etherscan.PollStatus(ctx, guid); err != nil {
		return StatusFailed, err
	}
	lgr.Info("Contract verified")
	return StatusVerified, nil
}

// VerifyAll verifies every target, continuing past failures. The returned error
// collects the failures; callers treat it as a warning.
func (v *Verifier) VerifyAll(ctx context.Context, targets []Target) error {
	var errs *multierror.Error
	for _, t := range targets {
		status, err := v.Verify(ctx, t)
		v.results = append(v.results, result{target: t, status: status, err: err})
		switch status {
		case StatusVerified:
			v.numVerified++
		case StatusSkipped:
			v.numSkipped++
		default:
			v.numFailed++
			v.lgr.Warn("Failed to verify contract", "contract", t.Name, "address", t.Address, "err", err)
			errs = multierror.Append(errs, fmt.Errorf("%s at %s: %w", t.Name, t.Address, err))
		}
	}
	v.lgr.Info("Verification complete", "numVerified", v.numVerified, "numSkipped", v.numSkipped, "numFailed", v.numFailed)
	return errs.ErrorOrNil()
}

// Summary is the running count of outcomes.
type Summary struct {
	Verified int
	Skipped  int
	Failed   int
}

func (v *Verifier) Summary() Summary {
	return Summary{Verified: v.numVerified, Skipped: v.numSkipped, Failed: v.numFailed}
}

// WriteSummary renders one row per target verified so far.
func (v *Verifier) WriteSummary(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Role", "Contract", "Address", "Status", "Error"})
	table.SetAutoWrapText(false)
	for _, r := range v.results {
		msg := ""
		if r.err != nil {
			msg = r.err.Error()
		}
		table.Append([]string{r.target.Role, r.target.Name, r.target.Address.Hex(), r.status.String(), msg})
	}
	table.SetFooter([]string{"", "", "total", strconv.Itoa(len(v.results)), ""})
	table.Render()
}
