package signer

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vidit21srivastava/cross-chain-ample/ample-service/cliapp"
)

const (
	PrivateKeyFlagName = "private-key"
	MnemonicFlagName   = "mnemonic"
	HDPathFlagName     = "hd-path"
	EndpointFlagName   = "signer.endpoint"
	AddressFlagName    = "signer.address"

	DefaultHDPath = "m/44'/60'/0'/0/0"
)

var (
	ErrNoSigner        = errors.New("no signer configured: set a private key, a mnemonic or a remote signer endpoint")
	ErrMultipleSigners = errors.New("only one of private key, mnemonic and remote signer endpoint may be set")
)

func CLIFlags(envPrefix string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     PrivateKeyFlagName,
			Usage:    "Hex private key of the deployer account",
			EnvVars:  cliapp.PrefixEnvVar(envPrefix, "PRIVATE_KEY"),
			Category: "SIGNER",
		},
		&cli.StringFlag{
			Name:     MnemonicFlagName,
			Usage:    "BIP-39 mnemonic of the deployer wallet",
			EnvVars:  cliapp.PrefixEnvVar(envPrefix, "MNEMONIC"),
			Category: "SIGNER",
		},
		&cli.StringFlag{
			Name:     HDPathFlagName,
			Usage:    "HD derivation path used with --mnemonic",
			Value:    DefaultHDPath,
			EnvVars:  cliapp.PrefixEnvVar(envPrefix, "HD_PATH"),
			Category: "SIGNER",
		},
		&cli.StringFlag{
			Name:     EndpointFlagName,
			Usage:    "JSON-RPC endpoint of a remote signer serving eth_signTransaction",
			EnvVars:  cliapp.PrefixEnvVar(envPrefix, "SIGNER_ENDPOINT"),
			Category: "SIGNER",
		},
		&cli.StringFlag{
			Name:     AddressFlagName,
			Usage:    "Address the remote signer signs for",
			EnvVars:  cliapp.PrefixEnvVar(envPrefix, "SIGNER_ADDRESS"),
			Category: "SIGNER",
		},
	}
}

type CLIConfig struct {
	PrivateKey string
	Mnemonic   string
	HDPath     string
	Endpoint   string
	Address    string
}

func ReadCLIConfig(ctx *cli.Context) CLIConfig {
	return CLIConfig{
		PrivateKey: ctx.String(PrivateKeyFlagName),
		Mnemonic:   ctx.String(MnemonicFlagName),
		HDPath:     ctx.String(HDPathFlagName),
		Endpoint:   ctx.String(EndpointFlagName),
		Address:    ctx.String(AddressFlagName),
	}
}

func (c CLIConfig) Check() error {
	set := 0
	for _, v := range []string{c.PrivateKey, c.Mnemonic, c.Endpoint} {
		if v != "" {
			set++
		}
	}
	if set == 0 {
		return ErrNoSigner
	}
	if set > 1 {
		return ErrMultipleSigners
	}
	if c.Endpoint != "" {
		if c.Address == "" {
			return errors.New("remote signer requires --" + AddressFlagName)
		}
		if !common.IsHexAddress(c.Address) {
			return errors.New("invalid remote signer address: " + c.Address)
		}
	}
	return nil
}
