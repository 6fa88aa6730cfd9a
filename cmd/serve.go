package cmd

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlmcp/db"
	"github.com/sqlmcp/server"
	"github.com/sqlmcp/sqlguard"
	"github.com/sqlmcp/tools"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "run the tool host on stdin/stdout",
		Run:   runServeCmd,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServeCmd(cmd *cobra.Command, args []string) {
	cfg, err := db.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	registry, err := tools.NewRegistry(tools.NewCatalog(db.NewMSSQL(cfg), sqlguard.New())...)
	if err != nil {
		log.Fatal(err)
	}

	srv := server.New(os.Stdin, os.Stdout, registry)
	if err := srv.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
