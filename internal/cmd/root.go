package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zerobounce/zerobounce-cli/internal/debug"
	"github.com/zerobounce/zerobounce-cli/internal/iocontext"
	"github.com/zerobounce/zerobounce-cli/internal/outfmt"
	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

const (
	envOutput     = "ZEROBOUNCE_OUTPUT"
	envCache      = "ZEROBOUNCE_CACHE"
	envRedisURL   = "ZEROBOUNCE_REDIS_URL"
	envEnvFile    = "ZEROBOUNCE_ENV_FILE"
	envAPIURL     = "ZEROBOUNCE_API_URL"
	envBulkAPIURL = "ZEROBOUNCE_BULK_API_URL"
	envCacheDir   = "ZEROBOUNCE_CACHE_DIR"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output      string
	JSON        bool
	Query       string
	JQ          string
	Compact     bool
	Debug       bool
	Quiet       bool
	Timeout     time.Duration
	APIVersion  string
	APIKey      string
	Profile     string
	Cache       string
	CacheTTL    time.Duration
	CachePrefix string
	RedisURL    string
}

// flags is reset at the start of every Execute call; anything reading it
// outside a command's RunE sees the previous invocation's values.
var flags = defaultFlags()

func defaultFlags() rootFlags {
	return rootFlags{
		Output:      envOr(envOutput, "text"),
		Timeout:     zerobounce.DefaultTimeout,
		Cache:       envOr(envCache, cacheNone),
		CacheTTL:    zerobounce.DefaultCacheTTL,
		CachePrefix: zerobounce.DefaultCachePrefix,
		RedisURL:    os.Getenv(envRedisURL),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// loadDotEnv loads ZEROBOUNCE_ENV_FILE, or ./.env when present.
// Variables already in the environment win.
func loadDotEnv() {
	path := strings.TrimSpace(os.Getenv(envEnvFile))
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	loadDotEnv()
	flags = defaultFlags()

	root := &cobra.Command{
		Use:   "zb",
		Short: "Command-line client for the ZeroBounce email validation API",
		Long: `zb validates email addresses, reports credits and API usage, and runs
bulk validation or scoring jobs against the ZeroBounce API.

The API key is taken from --api-key, then ZEROBOUNCE_API_KEY, then the
profile saved by 'zb auth login'.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if flags.JSON {
				if flagOrAliasChanged(cmd, "output") && !strings.EqualFold(flags.Output, "json") {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}
			query := flags.JQ
			if query == "" {
				query = flags.Query
			}
			if query != "" && strings.EqualFold(flags.Output, "text") {
				if flagOrAliasChanged(cmd, "output") {
					return fmt.Errorf("--query/--jq require --output json or jsonl")
				}
				flags.Output = "json"
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return err
			}
			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)
			if query != "" {
				ctx = outfmt.WithQuery(ctx, query)
			}

			if flags.Timeout <= 0 {
				return fmt.Errorf("--timeout must be positive")
			}
			if err := validateCacheFlags(); err != nil {
				return err
			}

			ioStreams := iocontext.DefaultIO()
			if flags.Quiet {
				ioStreams.ErrOut = io.Discard
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			debug.SetupLogger(flags.Debug)
			ctx = debug.WithDebug(ctx, flags.Debug)

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl (env "+envOutput+")")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVarP(&flags.Query, "query", "q", "", "jq expression applied to JSON output")
	pf.StringVar(&flags.JQ, "jq", "", "Alias for --query")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress progress and informational output")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Per-request timeout (e.g. 10s, 2m)")
	pf.StringVar(&flags.APIVersion, "api-version", "", "API version (default "+zerobounce.DefaultVersion+", or the profile's)")
	pf.StringVar(&flags.APIKey, "api-key", "", "API key (overrides ZEROBOUNCE_API_KEY and saved profiles)")
	pf.StringVar(&flags.Profile, "profile", "", "Saved profile to use (env ZEROBOUNCE_PROFILE)")
	pf.StringVar(&flags.Cache, "cache", flags.Cache, "Response cache: none|file|memory|redis (env "+envCache+")")
	pf.DurationVar(&flags.CacheTTL, "cache-ttl", flags.CacheTTL, "How long cached responses stay valid")
	pf.StringVar(&flags.CachePrefix, "cache-prefix", flags.CachePrefix, "Prefix for cache keys")
	pf.StringVar(&flags.RedisURL, "redis-url", flags.RedisURL, "Redis URL for --cache redis (env "+envRedisURL+")")

	flagAlias(pf, "output", "out")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "timeout", "to")
	flagAlias(pf, "debug", "dbg")

	root.AddCommand(newCreditsCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newUsageCmd())
	root.AddCommand(newBulkCmd())
	root.AddCommand(newExplainCmd())
	root.AddCommand(newAuthCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanceUnknownError(err, root, targetCmd))
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			parent := root
			if targetCmd != nil {
				parent = targetCmd
			}
			var names []string
			for _, c := range parent.Commands() {
				if c.IsAvailableCommand() {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := closest(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
		return msg
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		unknown := extractFlag(msg)
		if unknown == "" {
			return msg
		}
		cmd := root
		if targetCmd != nil {
			cmd = targetCmd
		}
		var names []string
		collect := func(fs *pflag.FlagSet) {
			fs.VisitAll(func(f *pflag.Flag) {
				if !f.Hidden {
					names = append(names, "--"+f.Name)
				}
			})
		}
		collect(cmd.Flags())
		collect(cmd.InheritedFlags())
		help := strings.TrimSpace(cmd.CommandPath()) + " --help"
		if suggestion := closest(unknown, names); suggestion != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, help)
		}
		return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, help)
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name (e.g. "--foo" or "-x") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		idx++
	}
	rest := s[idx:]
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	rest = strings.TrimRight(rest, ".,;:!?\"'")
	if len(strings.TrimLeft(rest, "-")) == 0 {
		return ""
	}
	return rest
}
