package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Alwanly/service-feed-ingest/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ingestctl",
		Short: "Control a running feed ingest pool",
		Long: `ingestctl talks to the control plane of a running pool to list and
add agencies without a restart.`,
		SilenceUsage: true,
	}
	cli.AddPersistentFlags(rootCmd)

	rootCmd.AddCommand(cli.ListCmd())
	rootCmd.AddCommand(cli.AddCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
