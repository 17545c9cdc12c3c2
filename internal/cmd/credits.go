package cmd

import (
	"github.com/spf13/cobra"
)

type creditsOutput struct {
	Credits int `json:"credits"`
}

func newCreditsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "credits",
		Aliases: []string{"balance"},
		Short:   "Show the remaining credit balance",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, done, err := newClientFactory().client()
			if err != nil {
				return err
			}
			defer done()

			credits, err := client.GetCredits(cmd.Context())
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, creditsOutput{Credits: credits})
			}
			printIfNotQuiet(cmd, "%d\n", credits)
			return nil
		}),
	}
}
