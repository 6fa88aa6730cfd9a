package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/sqlmcp/client"
)

var (
	queryLimit int

	queryCmd = &cobra.Command{
		Use:   "query <sql>",
		Short: "run a read-only query via the tool host",
		Args:  cobra.ExactArgs(1),
		Run:   runQueryCmd,
	}
)

func init() {
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "max rows to return (default 100, capped at 1000)")
	rootCmd.AddCommand(queryCmd)
}

func runQueryCmd(cmd *cobra.Command, args []string) {
	facade, err := client.NewFacade()
	if err != nil {
		log.Fatal(err)
	}

	result, err := facade.ReadData(context.Background(), args[0], queryLimit)
	if err != nil {
		log.Fatal(err)
	}
	printResult(result)
}
