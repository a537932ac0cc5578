package cmd

import (
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/denizsoft/go-efatura/efatura/api"
	"github.com/denizsoft/go-efatura/efatura/model"
)

var (
	pollTransfers []string
	pollArchive   bool
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Query transfer processing state for one or more transfers",
	Long: `Queries the provider for the processing state of earlier
transfers. Identifiers beyond the provider's batch limit are chunked
automatically inside a single session.`,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)

	pollCmd.Flags().StringSliceVar(&pollTransfers, "transfer", nil, "Transfer identifier (repeatable)")
	pollCmd.Flags().BoolVar(&pollArchive, "archive", false, "Query via the archive endpoint")
	_ = pollCmd.MarkFlagRequired("transfer")
}

func runPoll(cmd *cobra.Command, args []string) error {
	profile := model.ProfileEInvoice
	if pollArchive {
		profile = model.ProfileEArchive
	}
	client := api.ForTenant(tenantFromEnv(), profile)

	var results []model.TransferStatusResult
	err := api.WithSession(cmd.Context(), client, func(session string) error {
		for start := 0; start < len(pollTransfers); start += api.BatchLimit {
			end := start + api.BatchLimit
			if end > len(pollTransfers) {
				end = len(pollTransfers)
			}
			chunk, err := client.QueryStatusBatch(cmd.Context(), session, pollTransfers[start:end])
			if err != nil {
				return err
			}
			results = append(results, chunk...)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "query transfers")
	}

	printJSON(results)
	return nil
}
