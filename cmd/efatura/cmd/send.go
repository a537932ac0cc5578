package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/denizsoft/go-efatura/efatura/model"
	"github.com/denizsoft/go-efatura/efatura/store/memory"
	"github.com/denizsoft/go-efatura/efatura/transfer"
)

var (
	sendForce bool
	sendAlias string
	sendMails []string
	sendGsm   string
)

var sendCmd = &cobra.Command{
	Use:   "send <invoice.json>",
	Short: "Compile and transmit one invoice snapshot",
	Long: `Reads an invoice snapshot from a JSON file, assigns a legal
number when the snapshot has none, compiles the UBL document and
transfers it to the provider. The resulting transfer record, including
the document identifier needed for later status queries, is printed as
JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolVar(&sendForce, "force", false, "Resend even when a transfer is already in flight")
	sendCmd.Flags().StringVar(&sendAlias, "alias", "", "Override the buyer's registered postbox alias")
	sendCmd.Flags().StringSliceVar(&sendMails, "mail", nil, "Delivery mail address for archive invoices (repeatable)")
	sendCmd.Flags().StringVar(&sendGsm, "gsm", "", "Delivery GSM number for archive invoices")
}

func runSend(cmd *cobra.Command, args []string) error {
	inv, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}

	st := memory.New()
	st.SetTenant(tenantFromEnv())
	st.PutInvoice(inv)

	o := transfer.NewOrchestrator(st, st, st, st)
	out, err := o.Submit(cmd.Context(), inv.ID, transfer.SubmitOptions{
		Force:         sendForce,
		CustomerAlias: sendAlias,
		MailAddresses: sendMails,
		GsmNumber:     sendGsm,
	})
	if out != nil && out.Record != nil {
		printJSON(out.Record)
	}
	return err
}

func loadSnapshot(path string) (*model.InvoiceSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot file")
	}

	var inv model.InvoiceSnapshot
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	if inv.ID == "" {
		return nil, errors.New("snapshot has no id")
	}
	if inv.Profile == "" {
		inv.Profile = model.ProfileFor(inv.Buyer)
	}
	return &inv, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
