package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zerobounce/zerobounce-cli/internal/update"
)

// version is set at build time via ldflags
var version = "dev"

const (
	envReleasesURL   = "ZEROBOUNCE_RELEASES_URL"
	envNoUpdateCheck = "ZEROBOUNCE_NO_UPDATE_CHECK"
)

type versionOutput struct {
	Version string              `json:"version"`
	Update  *update.CheckResult `json:"update,omitempty"`
}

func newVersionCmd() *cobra.Command {
	var noCheck bool

	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var result *update.CheckResult
			if !noCheck {
				result = update.Checker{URL: os.Getenv(envReleasesURL)}.Check(cmd.Context(), version)
			}

			if isJSON(cmd) {
				return printJSON(cmd, versionOutput{Version: version, Update: result})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "zerobounce-cli version %s\n", version)

			if result != nil && result.UpdateAvailable {
				errOut := cmd.ErrOrStderr()
				_, _ = fmt.Fprintf(errOut, "\nUpdate available: %s -> %s\n", result.CurrentVersion, result.LatestVersion)
				_, _ = fmt.Fprintf(errOut, "Download: %s\n", result.UpdateURL)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&noCheck, "no-update-check", parseBoolEnv(os.Getenv(envNoUpdateCheck)), "Skip the release check (env "+envNoUpdateCheck+")")
	return cmd
}
