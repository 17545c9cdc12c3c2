package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zerobounce/zerobounce-cli/internal/iocontext"
	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

const defaultValidateConcurrency = 4

// validateRow is one line of batch output. Either Email or Error is set.
type validateRow struct {
	Input string `json:"input"`
	*zerobounce.Email
	Error string `json:"error,omitempty"`

	err error
}

func newValidateCmd() *cobra.Command {
	var (
		ip          string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "validate <email>... | -",
		Short: "Validate one or more email addresses",
		Long: `Validate email addresses one request at a time.

Pass "-" to read addresses from stdin, one per line. Several addresses are
validated concurrently (--concurrency) and reported in input order.`,
		Example: `  zb validate user@example.com
  zb validate --ip 99.110.204.1 user@example.com
  zb validate -o jsonl - < emails.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			emails, err := collectEmails(cmd.Context(), args)
			if err != nil {
				return err
			}
			if len(emails) == 0 {
				return fmt.Errorf("no email addresses given")
			}

			client, done, err := newClientFactory().client()
			if err != nil {
				return err
			}
			defer done()

			if len(emails) == 1 {
				email, err := client.Validate(cmd.Context(), emails[0], ip)
				if err != nil {
					return err
				}
				if isJSON(cmd) {
					return printJSON(cmd, email)
				}
				return printEmailDetail(cmd, email)
			}

			rows := validateAll(cmd.Context(), client, emails, ip, concurrency)
			if err := printValidateRows(cmd, rows); err != nil {
				return err
			}
			return batchError(rows)
		}),
	}

	cmd.Flags().StringVar(&ip, "ip", "", "IP address the address signed up from")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", defaultValidateConcurrency, "Parallel requests for multiple addresses")
	return cmd
}

func collectEmails(ctx context.Context, args []string) ([]string, error) {
	var emails []string
	for _, arg := range args {
		if arg != "-" {
			emails = append(emails, strings.TrimSpace(arg))
			continue
		}
		lines, err := iocontext.GetIO(ctx).ReadLines()
		if err != nil {
			return nil, fmt.Errorf("read addresses from stdin: %w", err)
		}
		emails = append(emails, lines...)
	}
	return emails, nil
}

// validateAll validates every address, at most limit at a time. Failures are
// recorded per row; the group itself never fails so every row gets a result.
func validateAll(ctx context.Context, client *zerobounce.Client, emails []string, ip string, limit int) []validateRow {
	rows := make([]validateRow, len(emails))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, addr := range emails {
		i, addr := i, addr
		g.Go(func() error {
			email, err := client.Validate(gctx, addr, ip)
			rows[i] = validateRow{Input: addr, Email: email, err: err}
			if err != nil {
				rows[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	return rows
}

func batchError(rows []validateRow) error {
	var first error
	failed := 0
	for _, r := range rows {
		if r.err != nil {
			failed++
			if first == nil {
				first = r.err
			}
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d validations failed: %w", failed, len(rows), first)
}

func printValidateRows(cmd *cobra.Command, rows []validateRow) error {
	if isJSON(cmd) {
		return printJSON(cmd, rows)
	}
	f := newFormatter(cmd)
	f.StartTable("EMAIL", "STATUS", "SUB_STATUS", "FREE", "DID_YOU_MEAN")
	for _, r := range rows {
		if r.Email == nil {
			f.Row(r.Input, "error", r.Error, "", "")
			continue
		}
		f.Row(r.Address, r.Status, r.SubStatus, strconv.FormatBool(r.FreeEmail), r.DidYouMean)
	}
	return f.EndTable()
}

func printEmailDetail(cmd *cobra.Command, e *zerobounce.Email) error {
	f := newFormatter(cmd)
	f.Field("Address", e.Address)
	f.Field("Status", e.Status)
	f.Field("Sub-status", e.SubStatus)
	f.Field("Meaning", describeEmail(e))
	f.Field("Free email", strconv.FormatBool(e.FreeEmail))
	f.Field("Did you mean", e.DidYouMean)
	f.Field("Domain", e.Domain)
	if e.DomainAgeDays > 0 {
		f.Field("Domain age", fmt.Sprintf("%d days", e.DomainAgeDays))
	}
	f.Field("MX found", strconv.FormatBool(e.MXFound))
	f.Field("MX record", e.MXRecord)
	f.Field("SMTP provider", e.SMTPProvider)
	f.Field("Name", strings.TrimSpace(e.FirstName+" "+e.LastName))
	f.Field("Gender", e.Gender)
	f.Field("Location", joinNonEmpty(", ", e.City, e.Region, e.ZipCode, e.Country))
	if t := e.ProcessedTime(); !t.IsZero() {
		f.Field("Processed at", t.Format("2006-01-02 15:04:05 MST"))
	}
	return f.EndTable()
}

func describeEmail(e *zerobounce.Email) string {
	if d := e.SubStatusDescription(); d != "" {
		return d
	}
	return e.StatusDescription()
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
