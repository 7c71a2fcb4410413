package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/servicedesk/ticket-service/docs"
)

// @title        Service Desk Ticket API
// @version      1.0
// @description  Helpdesk ticket lifecycle with an append-only audit trail and evidence attachments.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	rootCmd := &cobra.Command{
		Use:          "servicedesk",
		Short:        "Service desk ticket API",
		Long:         `Runs the helpdesk ticket API and its database maintenance commands.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
