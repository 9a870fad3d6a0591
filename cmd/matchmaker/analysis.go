package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/strategic-matchmaker/internal/observability"
)

var analysisUser string

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Inspect or drop cached profile analyses",
	Long: `Profile analyses are computed once per attendee and reused by every later match run.
Editing a profile does not refresh its analysis; use "analysis invalidate" to force a new one.`,
}

var analysisShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored analysis of an attendee",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, err := uuid.Parse(analysisUser)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}

		a, err := newApp(cmd.Context(), cmd, appOptions{store: storeDatabase})
		if err != nil {
			return err
		}
		defer a.Close()

		found, err := a.analyses.Peek(cmd.Context(), []uuid.UUID{userID})
		if err != nil {
			return fmt.Errorf("failed to read analysis: %w", err)
		}
		if found[userID] == nil {
			return fmt.Errorf("no analysis stored for %s", userID)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintAnalysis(found[userID])
		return nil
	},
}

var analysisInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop the stored analysis of an attendee",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, err := uuid.Parse(analysisUser)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}

		a, err := newApp(cmd.Context(), cmd, appOptions{store: storeDatabase})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.service.InvalidateAnalysis(cmd.Context(), userID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "analysis for %s invalidated\n", userID)
		return nil
	},
}

func init() {
	analysisCmd.PersistentFlags().StringVarP(&analysisUser, "user", "u", "", "Attendee user id (required)")
	_ = analysisCmd.MarkPersistentFlagRequired("user")
	analysisCmd.AddCommand(analysisShowCmd, analysisInvalidateCmd)
	rootCmd.AddCommand(analysisCmd)
}
