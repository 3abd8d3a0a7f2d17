// Command wardenlink is the operator CLI: database migration and seeding,
// plus a thin client over the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		apiURL string
		output string
	)
	client := &apiClient{}

	root := &cobra.Command{
		Use:           "wardenlink",
		Short:         "Warden network administration CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("api") {
				if v := os.Getenv("WARDENLINK_API"); v != "" {
					apiURL = v
				}
			}
			if output != "table" && output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
			}
			client.baseURL = apiURL
			client.token = loadToken()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:4000/api", "API base URL")
	root.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newAuthCmd(client),
		newInviteCmd(client),
		newUsersCmd(client),
		newPollsCmd(client),
	)
	return root
}

func outputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}
