package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/sqlmcp/client"
	"github.com/sqlmcp/gateway"
)

var (
	gatewayCmd = &cobra.Command{
		Use:   "gateway",
		Short: "serve the HTTP gateway in front of the tool host",
		Run:   runGatewayCmd,
	}
)

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

func runGatewayCmd(cmd *cobra.Command, args []string) {
	facade, err := client.NewFacade()
	if err != nil {
		log.Fatal(err)
	}
	gateway.NewServer(facade).Run()
}
