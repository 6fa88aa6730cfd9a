package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlmcp/client"
)

var (
	describeSchema string

	describeCmd = &cobra.Command{
		Use:   "describe <table>",
		Short: "describe a table's structure via the tool host",
		Args:  cobra.ExactArgs(1),
		Run:   runDescribeCmd,
	}
)

func init() {
	describeCmd.Flags().StringVar(&describeSchema, "schema", "", "table schema (default dbo)")
	rootCmd.AddCommand(describeCmd)
}

func runDescribeCmd(cmd *cobra.Command, args []string) {
	facade, err := client.NewFacade()
	if err != nil {
		log.Fatal(err)
	}

	result, err := facade.DescribeTable(context.Background(), args[0], describeSchema)
	if err != nil {
		log.Fatal(err)
	}
	printResult(result)
}

func printResult(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Fprintln(os.Stdout, string(out))
}
