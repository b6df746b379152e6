package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/cliapp"
)

// NewApp creates and configures a new CLI application
func NewApp(versionWithMeta string) *cli.App {
	app := cli.NewApp()
	app.Version = versionWithMeta
	app.Name = "ample-deployer"
	app.Usage = "Tool to deploy Ampleforth and its cross-chain mirror."
	app.Flags = cliapp.ProtectFlags(deployer.GlobalFlags)
	app.Commands = []*cli.Command{
		{
			Name:      "deploy-base",
			Usage:     "deploys the AMPL suite on a base chain, funds wallets and runs the initial rebase",
			ArgsUsage: "<network>",
			Flags:     cliapp.ProtectFlags(deployer.DeployBaseFlags),
			Action:    deployer.DeployBaseCLI,
		},
		{
			Name:      "deploy-satellite",
			Usage:     "deploys the XC-AMPL suite on a satellite chain, seeded from the base chain",
			ArgsUsage: "<network>",
			Flags:     cliapp.ProtectFlags(deployer.DeploySatelliteFlags),
			Action:    deployer.DeploySatelliteCLI,
		},
		{
			Name:      "use-deployed",
			Usage:     "records an existing base chain deployment from its YAML address list",
			ArgsUsage: "<network>",
			Flags:     cliapp.ProtectFlags(deployer.UseDeployedFlags),
			Action:    deployer.UseDeployedCLI,
		},
		{
			Name:      "rebase",
			Usage:     "pushes oracle reports and triggers a rebase on a base chain",
			ArgsUsage: "<network>",
			Flags:     cliapp.ProtectFlags(deployer.RebaseFlags),
			Action:    deployer.RebaseCLI,
		},
		{
			Name:      "verify",
			Usage:     "submits the recorded contracts of a network for source verification",
			ArgsUsage: "<network>",
			Action:    deployer.VerifyCLI,
		},
		{
			Name:      "inspect",
			Usage:     "prints the recorded deployment of a network",
			ArgsUsage: "<network>",
			Flags:     cliapp.ProtectFlags(deployer.InspectFlags),
			Action:    deployer.InspectCLI,
		},
	}
	return app
}
