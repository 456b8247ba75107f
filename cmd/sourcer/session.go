package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-sourcer/internal/linkedin"
)

var sessionFile string

var sessionCommand = &cobra.Command{
	Use:   "session",
	Short: "Check whether the saved LinkedIn session is usable",
	Long: `Checks the saved LinkedIn session cookie file: present, parseable, and
with an unexpired auth cookie. Sourcing needs a valid session; create one by
logging in to LinkedIn in a browser and exporting the cookies as JSON.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := linkedin.CheckSession(sessionFile, time.Now()); err != nil {
			return err
		}
		fmt.Printf("Session at %s is valid\n", sessionFile)
		return nil
	},
}

func init() {
	sessionCommand.Flags().StringVar(&sessionFile, "session-file", linkedin.DefaultSessionFile, "Path to saved LinkedIn session cookies")
	rootCmd.AddCommand(sessionCommand)
}
