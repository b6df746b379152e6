package main

import (
	"fmt"
	"os"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/cli"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/version"

	ample_service "github.com/vidit21srivastava/cross-chain-ample/ample-service"
)

var (
	GitCommit = ""
	GitDate   = ""
)

// VersionWithMeta holds the textual version string including the metadata.
var VersionWithMeta = ample_service.FormatVersion(version.Version, GitCommit, GitDate, version.Meta)

func main() {
	app := cli.NewApp(VersionWithMeta)
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	err := app.Run(os.Args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}
