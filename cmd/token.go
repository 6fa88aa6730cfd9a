package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sqlmcp/auth"
)

var (
	tokenSubject string

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "mint a bearer token for the HTTP gateway",
		Run:   runTokenCmd,
	}
)

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject (default random)")
	rootCmd.AddCommand(tokenCmd)
}

func runTokenCmd(cmd *cobra.Command, args []string) {
	subject := tokenSubject
	if subject == "" {
		subject = uuid.NewString()
	}

	signed, err := auth.NewT().Create(subject)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(signed)
}
