package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/denizsoft/go-efatura/efatura/store/memory"
	"github.com/denizsoft/go-efatura/internal/server"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
	seedGlob     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for the transmission operations.

The API provides endpoints for:
  - POST /api/v1/invoices/:id/send    - Compile and transmit an invoice
  - POST /api/v1/invoices/:id/status  - Refresh transfer state
  - POST /api/v1/invoices/:id/cancel  - Cancel an archive invoice
  - POST /api/v1/transfers/poll       - Sweep pending transfers
  - GET  /health                      - Health check

Examples:
  # Start with snapshots preloaded from a directory
  efatura serve --seed 'snapshots/*.json'

  # Start in debug mode on a custom port
  efatura serve --address :9090 --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", ":8080", "Server listen address")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 5*time.Minute, "HTTP write timeout")
	serveCmd.Flags().StringVar(&seedGlob, "seed", "", "Glob of invoice snapshot JSON files to preload")
}

func runServe(cmd *cobra.Command, args []string) error {
	st := memory.New()
	st.SetTenant(tenantFromEnv())

	if seedGlob != "" {
		paths, err := filepath.Glob(seedGlob)
		if err != nil {
			return err
		}
		for _, path := range paths {
			inv, err := loadSnapshot(path)
			if err != nil {
				return fmt.Errorf("seed %s: %w", path, err)
			}
			st.PutInvoice(inv)
		}
		fmt.Printf("Preloaded %d invoice snapshots\n", len(paths))
	}

	config := &server.Config{
		Address:      serverAddr,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		Debug:        serverDebug,
	}
	srv := server.NewServer(config, st, st, st, st)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down server...")
		os.Exit(0)
	}()

	fmt.Printf("Starting server on %s\n", serverAddr)
	return srv.Run()
}
