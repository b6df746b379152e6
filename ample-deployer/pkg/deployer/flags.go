package deployer

import (
	"github.com/urfave/cli/v2"

	"github.com/vidit21srivastava/cross-chain-ample/ample-service/cliapp"
	oplog "github.com/vidit21srivastava/cross-chain-ample/ample-service/log"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/signer"
)

const EnvVarPrefix = "AMPLE_DEPLOYER"

func PrefixEnvVar(name string) []string {
	return cliapp.PrefixEnvVar(EnvVarPrefix, name)
}

const (
	NetworksFlagName         = "networks"
	DeploymentsDirFlagName   = "deployments-dir"
	ArtifactsDirFlagName     = "artifacts-dir"
	EtherscanAPIKeyFlagName  = "etherscan-api-key"
	SkipVerifyFlagName       = "skip-verify"
	GasPriceFlagName         = "gas-price"
	GasLimitFlagName         = "gas-limit"
	FundingWalletsFlagName   = "funding-wallets"
	AmountFlagName           = "amount"
	BaseChainNetworkFlagName = "base-chain-network"
	TokenSymbolFlagName      = "token-symbol"
	TokenNameFlagName        = "token-name"
	DeploymentYAMLFlagName   = "deployment-yaml"
	RateFlagName             = "rate"
	CPIFlagName              = "cpi"
	EpochFlagName            = "epoch"
	RebaseInfoFlagName       = "rebase-info"
)

var (
	NetworksFlag = &cli.StringFlag{
		Name:    NetworksFlagName,
		Usage:   "TOML file describing the networks: rpc-url, chain-id and explorer-api-url per [networks.<name>] table.",
		EnvVars: PrefixEnvVar("NETWORKS"),
		Value:   "networks.toml",
	}
	DeploymentsDirFlag = &cli.StringFlag{
		Name:    DeploymentsDirFlagName,
		Usage:   "Directory holding one deployment record per network.",
		EnvVars: PrefixEnvVar("DEPLOYMENTS_DIR"),
		Value:   "deployments",
	}
	ArtifactsDirFlag = &cli.StringFlag{
		Name:    ArtifactsDirFlagName,
		Usage:   "Directory of compiled contract artifacts (hardhat or forge layout).",
		EnvVars: PrefixEnvVar("ARTIFACTS_DIR"),
		Value:   "artifacts",
	}
	EtherscanAPIKeyFlag = &cli.StringFlag{
		Name:    EtherscanAPIKeyFlagName,
		Usage:   "API key of the network's block explorer. Verification is skipped without one.",
		EnvVars: PrefixEnvVar("ETHERSCAN_API_KEY"),
	}
	SkipVerifyFlag = &cli.BoolFlag{
		Name:    SkipVerifyFlagName,
		Usage:   "Do not submit deployed contracts for source verification.",
		EnvVars: PrefixEnvVar("SKIP_VERIFY"),
	}
	GasPriceFlag = &cli.StringFlag{
		Name:    GasPriceFlagName,
		Usage:   "Gas price in wei for every transaction. Unset or 0 queries the network once.",
		EnvVars: PrefixEnvVar("GAS_PRICE"),
	}
	GasLimitFlag = &cli.Uint64Flag{
		Name:    GasLimitFlagName,
		Usage:   "Gas limit for every transaction. 0 lets the node estimate each one.",
		EnvVars: PrefixEnvVar("GAS_LIMIT"),
	}
	FundingWalletsFlag = &cli.StringFlag{
		Name:    FundingWalletsFlagName,
		Usage:   "JSON list of addresses funded with --amount AMPL after deployment.",
		EnvVars: PrefixEnvVar("FUNDING_WALLETS"),
		Value:   "[]",
	}
	AmountFlag = &cli.StringFlag{
		Name:    AmountFlagName,
		Usage:   "AMPL amount transferred to each funding wallet, e.g. 1000.5.",
		EnvVars: PrefixEnvVar("AMOUNT"),
		Value:   "0",
	}
	BaseChainNetworkFlag = &cli.StringFlag{
		Name:     BaseChainNetworkFlagName,
		Usage:    "Network name of the base chain the satellite mirrors.",
		EnvVars:  PrefixEnvVar("BASE_CHAIN_NETWORK"),
		Required: true,
	}
	TokenSymbolFlag = &cli.StringFlag{
		Name:     TokenSymbolFlagName,
		Usage:    "Symbol of the cross-chain token.",
		EnvVars:  PrefixEnvVar("TOKEN_SYMBOL"),
		Required: true,
	}
	TokenNameFlag = &cli.StringFlag{
		Name:     TokenNameFlagName,
		Usage:    "Full name of the cross-chain token.",
		EnvVars:  PrefixEnvVar("TOKEN_NAME"),
		Required: true,
	}
	DeploymentYAMLFlag = &cli.StringFlag{
		Name:     DeploymentYAMLFlagName,
		Usage:    "Path or http(s) URL of the YAML listing an existing deployment's addresses.",
		EnvVars:  PrefixEnvVar("DEPLOYMENT_YAML"),
		Required: true,
	}
	RateFlag = &cli.StringFlag{
		Name:    RateFlagName,
		Usage:   "Market rate reported to the rate oracle.",
		EnvVars: PrefixEnvVar("RATE"),
		Value:   "1",
	}
	CPIFlag = &cli.StringFlag{
		Name:    CPIFlagName,
		Usage:   "CPI reported to the CPI oracle.",
		EnvVars: PrefixEnvVar("CPI"),
		Value:   "100",
	}
	EpochFlag = &cli.Uint64Flag{
		Name:    EpochFlagName,
		Usage:   "Epoch label of the rebase run.",
		EnvVars: PrefixEnvVar("EPOCH"),
	}
	RebaseInfoFlag = &cli.BoolFlag{
		Name:    RebaseInfoFlagName,
		Usage:   "Also read the live rebase state from the network.",
		EnvVars: PrefixEnvVar("REBASE_INFO"),
	}
)

var GlobalFlags = append(append([]cli.Flag{
	NetworksFlag,
	DeploymentsDirFlag,
	ArtifactsDirFlag,
	EtherscanAPIKeyFlag,
	SkipVerifyFlag,
}, signer.CLIFlags(EnvVarPrefix)...), oplog.CLIFlags(EnvVarPrefix)...)

var TxFlags = []cli.Flag{
	GasPriceFlag,
	GasLimitFlag,
}

var DeployBaseFlags = append([]cli.Flag{
	FundingWalletsFlag,
	AmountFlag,
}, TxFlags...)

var DeploySatelliteFlags = append([]cli.Flag{
	BaseChainNetworkFlag,
	TokenSymbolFlag,
	TokenNameFlag,
}, TxFlags...)

var UseDeployedFlags = []cli.Flag{
	DeploymentYAMLFlag,
}

var RebaseFlags = append([]cli.Flag{
	RateFlag,
	CPIFlag,
	EpochFlag,
}, TxFlags...)

var InspectFlags = []cli.Flag{
	RebaseInfoFlag,
}
