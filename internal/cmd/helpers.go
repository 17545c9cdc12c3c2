package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zerobounce/zerobounce-cli/internal/iocontext"
	"github.com/zerobounce/zerobounce-cli/internal/outfmt"
)

// errAlreadyHandled marks an error that RunE has already printed.
// Cobra still sees a failure (for the exit code) but root does not print it again.
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() []error {
	return []error{errAlreadyHandled, e.err}
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// RunE wraps a command body so failures are reported once, in the active output mode.
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		if isJSON(cmd) {
			_ = printJSONErr(cmd, err)
		} else {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
		}
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}

func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

func newFormatter(cmd *cobra.Command) *outfmt.Formatter {
	io := iocontext.GetIO(cmd.Context())
	return outfmt.NewFormatter(cmd.Context(), io.Out, io.ErrOut)
}

// printJSON writes v honoring --query, --output jsonl and --compact-json.
func printJSON(cmd *cobra.Command, v any) error {
	return newFormatter(cmd).Output(v)
}

type jsonError struct {
	Error jsonErrorBody `json:"error"`
}

type jsonErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Code    int    `json:"exit_code"`
}

// printJSONErr writes a machine-readable error to stderr. The query is not applied.
func printJSONErr(cmd *cobra.Command, err error) error {
	io := iocontext.GetIO(cmd.Context())
	body := jsonError{Error: jsonErrorBody{
		Kind:    errorKind(err),
		Message: err.Error(),
		Code:    ExitCode(err),
	}}
	return outfmt.WriteJSON(io.ErrOut, body, outfmt.IsCompact(cmd.Context()))
}

// printIfNotQuiet prints to stdout only if not in quiet mode
func printIfNotQuiet(cmd *cobra.Command, format string, args ...any) {
	if flags.Quiet {
		return
	}
	_, _ = fmt.Fprintf(iocontext.GetIO(cmd.Context()).Out, format, args...)
}

// progressf writes status lines to stderr unless --quiet.
func progressf(cmd *cobra.Command, format string, args ...any) {
	if flags.Quiet {
		return
	}
	_, _ = fmt.Fprintf(iocontext.GetIO(cmd.Context()).ErrOut, format, args...)
}

func parseBoolEnv(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// aliasBridgeValue forwards Set to the canonical flag and marks it Changed,
// so flagOrAliasChanged works no matter which spelling the user typed.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// flagAlias registers a hidden alias sharing the named flag's value.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	a.Value = &aliasBridgeValue{Value: f.Value, canonical: f}
	a.Annotations = map[string][]string{"alias-of": {name}}
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or one of its aliases was set.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}
	changed := false
	visit := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			if ann := f.Annotations["alias-of"]; len(ann) > 0 && ann[0] == name && fs.Changed(f.Name) {
				changed = true
			}
		})
	}
	visit(cmd.Flags())
	visit(cmd.InheritedFlags())
	return changed
}

// intFlagIfChanged returns a pointer to the flag value when it was set, nil otherwise.
func intFlagIfChanged(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	f := cmd.Flags().Lookup(name)
	n, err := strconv.Atoi(f.Value.String())
	if err != nil {
		return nil
	}
	return &n
}
