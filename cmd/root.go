package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgfile string

	rootCmd = &cobra.Command{
		Use:   "sqlmcp",
		Short: "Read-only SQL Server tool host, client and HTTP gateway",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgfile, "config", "", "config file (default $HOME/.sqlmcp.yaml)")
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if cfgfile != "" {
		viper.SetConfigFile(cfgfile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sqlmcp")
	}

	viper.SetEnvPrefix("SQLMCP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		// stdout stays reserved for protocol frames
		fmt.Fprintf(os.Stderr, "Using config file: %v\n", viper.ConfigFileUsed())
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
