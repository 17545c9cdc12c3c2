package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zerobounce/zerobounce-cli/internal/iocontext"
	"github.com/zerobounce/zerobounce-cli/internal/resolve"
	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

const defaultPollInterval = 10 * time.Second

var jobTypeNames = []string{string(zerobounce.JobValidation), string(zerobounce.JobScoring)}

func newBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bulk",
		Aliases: []string{"file", "b"},
		Short:   "Upload lists for bulk validation or scoring",
		Long: `Manage bulk jobs. Upload a CSV or TXT list, follow its progress, then
download the results. --type scoring routes every call to the AI scoring API.`,
	}

	cmd.AddCommand(newBulkSendCmd())
	cmd.AddCommand(newBulkStatusCmd())
	cmd.AddCommand(newBulkGetCmd())
	cmd.AddCommand(newBulkDeleteCmd())
	return cmd
}

// addJobTypeFlag registers --type on cmd and returns a resolver for it.
func addJobTypeFlag(cmd *cobra.Command) func() (zerobounce.JobType, error) {
	var raw string
	cmd.Flags().StringVarP(&raw, "type", "t", string(zerobounce.JobValidation), "Job type: validation|scoring")
	return func() (zerobounce.JobType, error) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return zerobounce.JobValidation, nil
		}
		if jt, err := zerobounce.ParseJobType(raw); err == nil {
			return jt, nil
		}
		name, err := resolve.FuzzyMatch(raw, jobTypeNames)
		if err != nil {
			return "", fmt.Errorf("invalid --type %q: %w", raw, err)
		}
		return zerobounce.ParseJobType(name)
	}
}

func newBulkSendCmd() *cobra.Command {
	var (
		returnURL    string
		header       bool
		wait         bool
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send <file>",
		Short: "Upload a list for processing",
		Example: `  zb bulk send emails.csv --email-column 1 --header
  zb bulk send leads.csv --email-column 2 --type scoring --wait`,
		Args: cobra.ExactArgs(1),
	}
	jobType := addJobTypeFlag(cmd)

	cmd.Flags().Int("email-column", 0, "Column holding the email address, from 1 (required)")
	cmd.Flags().Int("first-name-column", 0, "Column holding the first name")
	cmd.Flags().Int("last-name-column", 0, "Column holding the last name")
	cmd.Flags().Int("gender-column", 0, "Column holding the gender")
	cmd.Flags().Int("ip-column", 0, "Column holding the signup IP address")
	cmd.Flags().BoolVar(&header, "header", false, "The first row is a header")
	cmd.Flags().StringVar(&returnURL, "return-url", "", "URL called back when processing completes")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the file is processed")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", defaultPollInterval, "Delay between status checks with --wait")
	flagAlias(cmd.Flags(), "email-column", "email-col")
	flagAlias(cmd.Flags(), "header", "has-header-row")

	cmd.RunE = RunE(func(cmd *cobra.Command, args []string) error {
		jt, err := jobType()
		if err != nil {
			return err
		}
		if wait && pollInterval <= 0 {
			return fmt.Errorf("--poll-interval must be positive")
		}

		params := zerobounce.BulkSendFileParams{
			EmailAddressColumn: intFlagIfChanged(cmd, "email-column"),
			FirstNameColumn:    intFlagIfChanged(cmd, "first-name-column"),
			LastNameColumn:     intFlagIfChanged(cmd, "last-name-column"),
			GenderColumn:       intFlagIfChanged(cmd, "gender-column"),
			IPAddressColumn:    intFlagIfChanged(cmd, "ip-column"),
		}
		if flagOrAliasChanged(cmd, "header") {
			params.HasHeaderRow = zerobounce.Bool(header)
		}
		if returnURL != "" {
			params.ReturnURL = zerobounce.String(returnURL)
		}

		client, done, err := newClientFactory().client()
		if err != nil {
			return err
		}
		defer done()

		file, err := client.BulkSendFile(cmd.Context(), args[0], jt, params)
		if err != nil {
			return err
		}
		progressf(cmd, "Uploaded %s as %s\n", args[0], file.FileID)

		if wait {
			file, err = waitForFile(cmd, client, file.FileID, jt, pollInterval)
			if err != nil {
				return err
			}
		}
		return printBulkFile(cmd, file)
	})
	return cmd
}

// waitForFile polls the file status until processing completes. Status reads
// skip the response cache so each poll sees fresh progress.
func waitForFile(cmd *cobra.Command, client *zerobounce.Client, fileID string, jt zerobounce.JobType, interval time.Duration) (*zerobounce.BulkFile, error) {
	ctx := zerobounce.WithoutCache(cmd.Context())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		file, err := client.BulkFileStatus(ctx, fileID, jt)
		if err != nil {
			return nil, err
		}
		if file.IsComplete() {
			progressf(cmd, "%s complete\n", fileID)
			return file, nil
		}
		progressf(cmd, "%s %s (%d%%)\n", fileID, strings.ToLower(file.Status), file.Percent)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newBulkStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <file-id>",
		Short: "Show the processing state of an uploaded file",
		Args:  cobra.ExactArgs(1),
	}
	jobType := addJobTypeFlag(cmd)

	cmd.RunE = RunE(func(cmd *cobra.Command, args []string) error {
		jt, err := jobType()
		if err != nil {
			return err
		}
		client, done, err := newClientFactory().client()
		if err != nil {
			return err
		}
		defer done()

		file, err := client.BulkFileStatus(cmd.Context(), args[0], jt)
		if err != nil {
			return err
		}
		return printBulkFile(cmd, file)
	})
	return cmd
}

type bulkGetOutput struct {
	File  string `json:"file"`
	Bytes int    `json:"bytes"`
}

func newBulkGetCmd() *cobra.Command {
	var name, dir string

	cmd := &cobra.Command{
		Use:   "get <file-id>",
		Short: "Download the results of a processed file",
		Long: `Download results. Without --dir the raw content is written to stdout.
With --dir the file is saved there as <name>.csv or <name>.zip, depending on
what the service returned.`,
		Example: `  zb bulk get 2f1e... > results.csv
  zb bulk get 2f1e... --dir ./results --out march-list`,
		Args: cobra.ExactArgs(1),
	}
	jobType := addJobTypeFlag(cmd)
	cmd.Flags().StringVar(&dir, "dir", "", "Save the result file into this directory")
	cmd.Flags().StringVar(&name, "out", "", "Base file name used with --dir (default the file id)")

	cmd.RunE = RunE(func(cmd *cobra.Command, args []string) error {
		jt, err := jobType()
		if err != nil {
			return err
		}
		if name != "" && dir == "" {
			return fmt.Errorf("--out requires --dir")
		}
		client, done, err := newClientFactory().client()
		if err != nil {
			return err
		}
		defer done()

		fileID := args[0]
		if dir == "" {
			content, err := client.BulkGetFile(cmd.Context(), fileID, jt)
			if err != nil {
				return err
			}
			_, err = iocontext.GetIO(cmd.Context()).Out.Write(content)
			return err
		}

		if name == "" {
			name = fileID
		}
		sink := &zerobounce.DirSink{Dir: dir}
		content, err := client.BulkGetFileTo(cmd.Context(), fileID, jt, name, sink)
		if err != nil {
			return err
		}
		if isJSON(cmd) {
			return printJSON(cmd, bulkGetOutput{File: sink.Written, Bytes: len(content)})
		}
		printIfNotQuiet(cmd, "Saved %s (%d bytes)\n", sink.Written, len(content))
		return nil
	})
	return cmd
}

type bulkDeleteOutput struct {
	FileID  string `json:"file_id"`
	Deleted bool   `json:"deleted"`
}

func newBulkDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <file-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an uploaded file and its results",
		Args:    cobra.ExactArgs(1),
	}
	jobType := addJobTypeFlag(cmd)

	cmd.RunE = RunE(func(cmd *cobra.Command, args []string) error {
		jt, err := jobType()
		if err != nil {
			return err
		}
		client, done, err := newClientFactory().client()
		if err != nil {
			return err
		}
		defer done()

		deleted, err := client.BulkDeleteFile(cmd.Context(), args[0], jt)
		if err != nil {
			return err
		}
		if isJSON(cmd) {
			return printJSON(cmd, bulkDeleteOutput{FileID: args[0], Deleted: deleted})
		}
		printIfNotQuiet(cmd, "Deleted %s\n", args[0])
		return nil
	})
	return cmd
}

func printBulkFile(cmd *cobra.Command, file *zerobounce.BulkFile) error {
	if isJSON(cmd) {
		return printJSON(cmd, file)
	}
	f := newFormatter(cmd)
	f.Field("File ID", file.FileID)
	f.Field("Name", file.FileName)
	f.Field("Status", file.Status)
	f.Field("Progress", strconv.Itoa(file.Percent)+"%")
	if !file.UploadedAt.IsZero() {
		f.Field("Uploaded", file.UploadedAt.Format(time.RFC3339))
	} else {
		f.Field("Uploaded", file.UploadDate)
	}
	f.Field("Return URL", file.ReturnURL)
	return f.EndTable()
}
