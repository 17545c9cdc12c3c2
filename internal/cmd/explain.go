package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/zerobounce/zerobounce-cli/internal/resolve"
	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

const (
	kindStatus    = "status"
	kindSubStatus = "sub_status"
)

type statusExplanation struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "explain [status]",
		Aliases: []string{"meaning"},
		Short:   "Explain validation statuses and sub-statuses",
		Long: `Describe what a status or sub-status means. The name is matched loosely,
so "catch all" finds catch-all and "mailbox not found" finds
mailbox_not_found. Without an argument every status and sub-status is listed.`,
		Example: `  zb explain catch-all
  zb explain mailbox_not_found -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			all := allExplanations()
			if len(args) == 0 {
				return printExplanations(cmd, all)
			}

			names := make([]string, len(all))
			for i, e := range all {
				names[i] = e.Name
			}
			name, err := resolve.FuzzyMatch(args[0], names)
			if err != nil {
				return err
			}
			for _, e := range all {
				if e.Name == name {
					if isJSON(cmd) {
						return printJSON(cmd, e)
					}
					f := newFormatter(cmd)
					f.Field("Name", e.Name)
					f.Field("Kind", e.Kind)
					f.Field("Meaning", e.Description)
					return f.EndTable()
				}
			}
			return &resolve.NoMatchError{Query: args[0]}
		}),
	}
}

// allExplanations lists statuses before sub-statuses, each group sorted by name.
// No sub-status shares a name with a status.
func allExplanations() []statusExplanation {
	out := make([]statusExplanation, 0, len(zerobounce.StatusDescriptions)+len(zerobounce.SubStatusDescriptions))
	out = appendSorted(out, kindStatus, zerobounce.StatusDescriptions)
	out = appendSorted(out, kindSubStatus, zerobounce.SubStatusDescriptions)
	return out
}

func appendSorted(out []statusExplanation, kind string, descriptions map[string]string) []statusExplanation {
	names := make([]string, 0, len(descriptions))
	for name := range descriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, statusExplanation{Name: name, Kind: kind, Description: descriptions[name]})
	}
	return out
}

func printExplanations(cmd *cobra.Command, all []statusExplanation) error {
	if isJSON(cmd) {
		return printJSON(cmd, all)
	}
	f := newFormatter(cmd)
	f.StartTable("NAME", "KIND", "MEANING")
	for _, e := range all {
		f.Row(e.Name, e.Kind, e.Description)
	}
	return f.EndTable()
}
