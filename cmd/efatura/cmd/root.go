package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/denizsoft/go-efatura/efatura/config"
	"github.com/denizsoft/go-efatura/efatura/util"
)

var (
	version = "1.0.0"

	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "efatura",
	Short: "Transmit Turkish e-invoices through a clearinghouse provider",
	Long: `efatura compiles invoice snapshots into UBL-TR documents and
transmits them to the configured clearinghouse provider.

Provider configuration comes from the environment:
  EFATURA_PROVIDER          veriban or elogo (default veriban)
  EFATURA_ENDPOINT          e-invoice webservice URL (required)
  EFATURA_ARCHIVE_ENDPOINT  e-archive webservice URL (optional)
  EFATURA_USERNAME          provider account user (required)
  EFATURA_PASSWORD          provider account password (required)
  EFATURA_SERIES            e-invoice series, 3 characters (default FAT)
  EFATURA_SERIES_ARCHIVE    e-archive series, 3 characters (default EAR)

Examples:
  # Send an invoice snapshot
  efatura send invoice.json

  # Query a transfer
  efatura poll --transfer 8a1f...

  # Query a document by its identifier
  efatura status --document f47ac10b-58cc-4372-a567-0e02b2c3d479

  # Run the HTTP API
  efatura serve --address :8080`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (env: EFATURA_DEBUG)")
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	if debug || util.DebugEnabled() {
		log.SetLevel(log.DebugLevel)
	}
}

// tenantFromEnv builds the provider configuration for every command.
func tenantFromEnv() config.Tenant {
	timeout, _ := time.ParseDuration(util.GetEnvOrDefault("EFATURA_TIMEOUT", "60s"))
	return config.Tenant{
		Provider:        config.ProviderKind(util.GetEnvOrDefault("EFATURA_PROVIDER", "veriban")),
		Endpoint:        util.GetEnvOrFailed("EFATURA_ENDPOINT"),
		ArchiveEndpoint: util.GetEnvOrDefault("EFATURA_ARCHIVE_ENDPOINT", ""),
		Username:        util.GetEnvOrFailed("EFATURA_USERNAME"),
		Password:        util.GetEnvOrFailed("EFATURA_PASSWORD"),
		Active:          true,
		SeriesEInvoice:  util.GetEnvOrDefault("EFATURA_SERIES", "FAT"),
		SeriesEArchive:  util.GetEnvOrDefault("EFATURA_SERIES_ARCHIVE", "EAR"),
		Timeout:         timeout,
	}
}
