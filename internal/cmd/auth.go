package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zerobounce/zerobounce-cli/internal/config"
	"github.com/zerobounce/zerobounce-cli/internal/iocontext"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage the stored API key",
		Long:    "Store ZeroBounce API keys in your OS keychain, one per named profile.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	return cmd
}

type authLoginOutput struct {
	Profile  string `json:"profile"`
	Verified bool   `json:"verified"`
	Credits  *int   `json:"credits,omitempty"`
}

func newAuthLoginCmd() *cobra.Command {
	var (
		apiKey   string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save an API key",
		Long: strings.TrimSpace(`
Save a ZeroBounce API key to the OS keychain and make its profile current.

The key comes from --key (or the global --api-key), else from stdin. A
global --api-version is stored with the profile. Unless --no-verify is set,
the key is checked by fetching the credit balance first.
`),
		Example: strings.TrimSpace(`
  zb auth login --key YOUR_API_KEY
  echo "$KEY" | zb auth login --profile work
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			apiKey = strings.TrimSpace(apiKey)
			if apiKey == "" {
				apiKey = strings.TrimSpace(flags.APIKey)
			}
			if apiKey == "" {
				lines, err := iocontext.GetIO(cmd.Context()).ReadLines()
				if err != nil {
					return fmt.Errorf("read API key from stdin: %w", err)
				}
				if len(lines) > 0 {
					apiKey = lines[0]
				}
			}
			if apiKey == "" {
				return fmt.Errorf("--key is required (or pipe the key on stdin)")
			}

			apiVersion := strings.TrimSpace(flags.APIVersion)
			profile := strings.TrimSpace(flags.Profile)
			if profile == "" {
				profile = "default"
			}
			out := authLoginOutput{Profile: profile}

			if !noVerify {
				f := newClientFactory()
				client, done, err := f.clientForKey(apiKey, apiVersion)
				if err != nil {
					return err
				}
				credits, err := client.GetCredits(cmd.Context())
				done()
				if err != nil {
					return fmt.Errorf("API key verification failed: %w", err)
				}
				out.Verified = true
				out.Credits = &credits
			}

			if err := config.SaveProfile(profile, config.Profile{APIKey: apiKey, APIVersion: apiVersion}); err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, out)
			}
			printIfNotQuiet(cmd, "Saved API key to profile %q\n", profile)
			if out.Credits != nil {
				printIfNotQuiet(cmd, "Credits remaining: %d\n", *out.Credits)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&apiKey, "key", "", "API key to store (read from stdin when omitted)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Save without checking the key")
	return cmd
}

type authStatusOutput struct {
	Authenticated bool     `json:"authenticated"`
	Source        string   `json:"source,omitempty"`
	Profile       string   `json:"profile,omitempty"`
	APIKey        string   `json:"api_key,omitempty"`
	APIVersion    string   `json:"api_version,omitempty"`
	Profiles      []string `json:"profiles,omitempty"`
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which API key would be used",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			out := authStatusOutput{}
			profiles, _ := config.ListProfiles()
			out.Profiles = profiles

			creds, err := config.ResolveCredentials(flags.APIKey, flags.Profile)
			if err != nil {
				if isJSON(cmd) {
					return printJSON(cmd, out)
				}
				return err
			}
			out.Authenticated = true
			out.Source = string(creds.Source)
			out.Profile = creds.Profile
			out.APIKey = config.MaskKey(creds.APIKey)
			out.APIVersion = creds.APIVersion

			if isJSON(cmd) {
				return printJSON(cmd, out)
			}
			f := newFormatter(cmd)
			f.Field("Source", out.Source)
			f.Field("Profile", out.Profile)
			f.Field("API key", out.APIKey)
			f.Field("API version", out.APIVersion)
			f.Field("Profiles", strings.Join(out.Profiles, ", "))
			return f.EndTable()
		}),
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove a stored API key",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profile := strings.TrimSpace(flags.Profile)
			if profile == "" {
				current, err := config.CurrentProfile()
				if err != nil {
					return err
				}
				profile = current
			}
			if err := config.DeleteProfile(profile); err != nil {
				return err
			}
			printIfNotQuiet(cmd, "Removed profile %q\n", profile)
			return nil
		}),
	}
}
