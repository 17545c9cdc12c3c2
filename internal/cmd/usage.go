package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

func newUsageCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show API usage counters for a period",
		Long: `Show how many validations were run in a period, broken down by status.

Dates accept YYYY-MM-DD, MM/DD/YYYY, RFC3339, "today", "yesterday",
weekday names like "last monday", relative forms like "3d ago" or "2mo ago",
and unix seconds. --to defaults to now.`,
		Example: `  zb usage --from 2026-01-01
  zb usage --from "1mo ago" --to yesterday -o json`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, done, err := newClientFactory().client()
			if err != nil {
				return err
			}
			defer done()

			usage, err := client.GetUsage(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, usage)
			}
			return printUsage(cmd, usage)
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "Start of the period (required)")
	cmd.Flags().StringVar(&to, "to", "", "End of the period (default today)")
	flagAlias(cmd.Flags(), "from", "start")
	flagAlias(cmd.Flags(), "to", "end")
	return cmd
}

func printUsage(cmd *cobra.Command, u *zerobounce.Usage) error {
	f := newFormatter(cmd)
	f.Field("Period", u.StartDate+" to "+u.EndDate)
	f.Field("Total", strconv.Itoa(u.Total))
	f.EndTable()

	rows := [][2]any{
		{"valid", u.StatusValid},
		{"invalid", u.StatusInvalid},
		{"catch-all", u.StatusCatchAll},
		{"do_not_mail", u.StatusDoNotMail},
		{"spamtrap", u.StatusSpamtrap},
		{"unknown", u.StatusUnknown},
		{"toxic", u.SubStatusToxic},
		{"disposable", u.SubStatusDisposable},
		{"role_based", u.SubStatusRoleBased},
		{"possible_trap", u.SubStatusPossibleTrap},
		{"global_suppression", u.SubStatusGlobalSuppression},
		{"timeout_exceeded", u.SubStatusTimeoutExceeded},
		{"mail_server_temporary_error", u.SubStatusMailServerTemporaryError},
		{"mail_server_did_not_respond", u.SubStatusMailServerDidNotRespond},
		{"greylisted", u.SubStatusGreylisted},
		{"antispam_system", u.SubStatusAntispamSystem},
		{"does_not_accept_mail", u.SubStatusDoesNotAcceptMail},
		{"exception_occurred", u.SubStatusExceptionOccurred},
		{"failed_syntax_check", u.SubStatusFailedSyntaxCheck},
		{"mailbox_not_found", u.SubStatusMailboxNotFound},
		{"unroutable_ip_address", u.SubStatusUnroutableIPAddress},
		{"possible_typo", u.SubStatusPossibleTypo},
		{"no_dns_entries", u.SubStatusNoDNSEntries},
		{"role_based_catch_all", u.SubStatusRoleBasedCatchAll},
		{"mailbox_quota_exceeded", u.SubStatusMailboxQuotaExceeded},
		{"forcible_disconnect", u.SubStatusForcibleDisconnect},
		{"failed_smtp_connection", u.SubStatusFailedSMTPConnection},
	}

	f.Row("")
	f.StartTable("COUNTER", "COUNT")
	for _, r := range rows {
		if n := r[1].(int); n > 0 {
			f.Row(r[0].(string), strconv.Itoa(n))
		}
	}
	return f.EndTable()
}
