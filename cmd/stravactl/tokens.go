package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/straviz/straviz-server/internal/credstore"
	"github.com/straviz/straviz-server/internal/strava"
)

const (
	defaultAPIURL   = "https://www.strava.com/api/v3"
	defaultTokenURL = "https://www.strava.com/oauth/token"
)

func init() {
	var tokenURL string
	refreshCmd := &cobra.Command{
		Use:   "refresh-token",
		Short: "Refresh the Strava access token and rewrite the credentials file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			creds, err := credstore.NewFileStore(credFlag).Load(ctx)
			if err != nil {
				return err
			}
			if !creds.CanRefresh() {
				return fmt.Errorf("credentials file %s is missing client id, secret or refresh token", credFlag)
			}

			client := strava.New(defaultAPIURL, tokenURL, 30*time.Second)
			pair, err := client.RefreshToken(ctx, creds)
			if err != nil {
				return err
			}

			creds.AccessToken = pair.AccessToken
			creds.RefreshToken = pair.RefreshToken
			if err := credstore.NewFileStore(credFlag).Save(ctx, creds); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "token refreshed")
			return nil
		},
	}
	refreshCmd.Flags().StringVar(&tokenURL, "token-url", defaultTokenURL, "OAuth token endpoint")
	rootCmd.AddCommand(refreshCmd)

	var apiURL string
	verifyCmd := &cobra.Command{
		Use:   "verify-token",
		Short: "Check the stored access token against the athlete endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			creds, err := credstore.NewFileStore(credFlag).Load(ctx)
			if err != nil {
				return err
			}
			if !creds.HasToken() {
				return fmt.Errorf("credentials file %s has no access token", credFlag)
			}

			client := strava.New(apiURL, defaultTokenURL, 30*time.Second)
			athlete, err := client.VerifyToken(ctx, creds.AccessToken)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "token valid for athlete %d %q (%s %s)\n",
				athlete.ID, athlete.Username, athlete.Firstname, athlete.Lastname)
			return nil
		},
	}
	verifyCmd.Flags().StringVar(&apiURL, "api-url", defaultAPIURL, "Strava API base URL")
	rootCmd.AddCommand(verifyCmd)
}
