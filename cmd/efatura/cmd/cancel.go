package cmd

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/denizsoft/go-efatura/efatura/api"
	"github.com/denizsoft/go-efatura/efatura/model"
)

var cancelNumber string

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a transmitted archive invoice by its legal number",
	Long: `Voids an archive invoice at the provider. Only archive
invoices can be cancelled; basic profile invoices are answered by the
recipient instead.`,
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)

	cancelCmd.Flags().StringVar(&cancelNumber, "number", "", "Legal number of the invoice to cancel")
	_ = cancelCmd.MarkFlagRequired("number")
}

func runCancel(cmd *cobra.Command, args []string) error {
	client := api.ForTenant(tenantFromEnv(), model.ProfileEArchive)

	err := api.WithSession(cmd.Context(), client, func(session string) error {
		return client.CancelDocument(cmd.Context(), session, cancelNumber, time.Now())
	})
	if err != nil {
		return errors.Wrap(err, "cancel document")
	}

	printJSON(map[string]string{"number": cancelNumber, "status": "cancelled"})
	return nil
}
