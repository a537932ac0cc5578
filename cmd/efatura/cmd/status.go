package cmd

import (
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/denizsoft/go-efatura/efatura/api"
	"github.com/denizsoft/go-efatura/efatura/model"
)

var (
	statusDocument string
	statusArchive  bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query document level state by document identifier",
	Long: `Queries the provider for the document level state of a
transmitted invoice: processing state, the recipient's accept/reject
answer and the provider side document number.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusDocument, "document", "", "Document identifier (ETTN)")
	statusCmd.Flags().BoolVar(&statusArchive, "archive", false, "Query via the archive endpoint")
	_ = statusCmd.MarkFlagRequired("document")
}

func runStatus(cmd *cobra.Command, args []string) error {
	profile := model.ProfileEInvoice
	if statusArchive {
		profile = model.ProfileEArchive
	}
	client := api.ForTenant(tenantFromEnv(), profile)

	var result *model.DocumentStatusResult
	err := api.WithSession(cmd.Context(), client, func(session string) error {
		var err error
		result, err = client.QueryDocument(cmd.Context(), session, statusDocument)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "query document")
	}

	printJSON(result)
	return nil
}
