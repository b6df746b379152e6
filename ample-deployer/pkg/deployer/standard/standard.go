// Package standard holds the fixed parameters of an Ampleforth deployment:
// artifact names, registry role names, oracle settings and fixed-point scales.
package standard

import (
	"math/big"

	"github.com/vidit21srivastava/cross-chain-ample/ample-service/cliutil"
)

const (
	AmplDecimals uint8 = 9
	// RateDecimals is the scale of market-rate and CPI oracle reports.
	RateDecimals uint8 = 18

	OracleReportExpirationTimeSec uint64 = 3600 * 24 * 365
	OracleReportDelaySec          uint64 = 0
	OracleMinimumProviders        uint64 = 1
)

// Artifact names, as produced by the contracts build.
const (
	ProxyAdminArtifact        = "ProxyAdmin"
	ProxyArtifact             = "TransparentUpgradeableProxy"
	UFragmentsArtifact        = "UFragments"
	UFragmentsPolicyArtifact  = "UFragmentsPolicy"
	OrchestratorArtifact      = "Orchestrator"
	MedianOracleArtifact      = "MedianOracle"
	XCAmpleArtifact           = "XCAmple"
	XCAmpleControllerArtifact = "XCAmpleController"
	BatchTxExecutorArtifact   = "BatchTxExecutor"
)

// Registry role names.
const (
	RoleProxyAdmin        = "proxyAdmin"
	RoleAmpl              = "ampl"
	RolePolicy            = "policy"
	RoleOrchestrator      = "orchestrator"
	RoleRateOracle        = "rateOracle"
	RoleCPIOracle         = "cpiOracle"
	RoleXCAmple           = "xcAmple"
	RoleXCAmpleController = "xcAmpleController"
	RoleRebaseRelayer     = "rebaseRelayer"
)

// RoleArtifacts maps every registry role to the artifact whose ABI it is recorded with.
var RoleArtifacts = map[string]string{
	RoleProxyAdmin:        ProxyAdminArtifact,
	RoleAmpl:              UFragmentsArtifact,
	RolePolicy:            UFragmentsPolicyArtifact,
	RoleOrchestrator:      OrchestratorArtifact,
	RoleRateOracle:        MedianOracleArtifact,
	RoleCPIOracle:         MedianOracleArtifact,
	RoleXCAmple:           XCAmpleArtifact,
	RoleXCAmpleController: XCAmpleControllerArtifact,
	RoleRebaseRelayer:     BatchTxExecutorArtifact,
}

var (
	// AmplBaseRate is the 1.0 target market rate.
	AmplBaseRate = mustFixedPt("1", RateDecimals)
	// AmplBaseCPI is the 100.0 base CPI.
	AmplBaseCPI = mustFixedPt("100", RateDecimals)
)

// ToAmplFixedPt converts a decimal AMPL amount to its 9-decimal integer representation.
func ToAmplFixedPt(amount string) (*big.Int, error) {
	return cliutil.ParseFixedPoint(amount, AmplDecimals)
}

// ToRateFixedPt converts a decimal rate or CPI value to its 18-decimal integer representation.
func ToRateFixedPt(value string) (*big.Int, error) {
	return cliutil.ParseFixedPoint(value, RateDecimals)
}

func mustFixedPt(v string, decimals uint8) *big.Int {
	out, err := cliutil.ParseFixedPoint(v, decimals)
	if err != nil {
		panic(err)
	}
	return out
}
