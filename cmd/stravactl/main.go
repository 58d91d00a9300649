package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag  string
	credFlag string
	rootCmd  = &cobra.Command{
		Use:   "stravactl",
		Short: "CLI client for the straviz backend",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8000", "Straviz service base URL")
	rootCmd.PersistentFlags().StringVarP(&credFlag, "credentials", "c", ".env", "Strava credentials file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
