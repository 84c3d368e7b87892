// File: cmd/server/main.go
package main

import (
	"log" // Standard log for messages before zap is active

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "clinic-server",
		Short:        "Clinic appointments and patient records backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Running the binary with no subcommand starts the HTTP server.
			return runServe()
		},
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newSyncAppointmentsCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}
