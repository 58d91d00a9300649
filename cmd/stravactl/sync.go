package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Trigger a Strava sync on the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doPost(apiFlag + "/strava/sync")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(syncCmd)

	var year string
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Fetch stored activities for a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := apiFlag + "/strava/data"
			if year != "" {
				url += "?year=" + year
			}
			data, err := doGet(url)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	dataCmd.Flags().StringVarP(&year, "year", "y", "", "Calendar year or 'last_year' (defaults to previous year)")
	rootCmd.AddCommand(dataCmd)
}
