package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/strategic-matchmaker/internal/observability"
	"github.com/jonathan/strategic-matchmaker/internal/types"
)

var (
	matchUser     string
	matchProfiles string
	matchJSON     bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Compute and store the matches of one attendee",
	Long: `Compute the ranked matches of --user against every other onboarded attendee and store them.

With --profiles the attendees are read from a JSON array of profiles into an in-memory store,
so no database is needed and nothing is persisted.`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVarP(&matchUser, "user", "u", "", "Requester user id (required)")
	matchCmd.Flags().StringVarP(&matchProfiles, "profiles", "p", "", "Path to a JSON array of profiles to match in memory")
	matchCmd.Flags().BoolVar(&matchJSON, "output-json", false, "Print the result as JSON")
	_ = matchCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := uuid.Parse(matchUser)
	if err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}

	mode := storeDatabase
	if matchProfiles != "" {
		mode = storeMemory
	}
	a, err := newApp(ctx, cmd, appOptions{store: mode})
	if err != nil {
		return err
	}
	defer a.Close()

	if matchProfiles != "" {
		if err := seedProfiles(ctx, a.store, matchProfiles); err != nil {
			return err
		}
	}

	result, err := a.service.ComputeMatches(ctx, userID)
	if err != nil {
		return fmt.Errorf("match computation failed: %w", err)
	}

	if matchJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	analyses, err := a.analyses.Peek(ctx, []uuid.UUID{userID})
	if err == nil && analyses[userID] != nil {
		printer.PrintAnalysis(analyses[userID])
	}
	printer.PrintMatches(result.Matches, result.Notice)
	printer.PrintWarnings(result.Warnings)
	return nil
}

// seedProfiles loads a JSON array of profiles from path into s.
func seedProfiles(ctx context.Context, s store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profiles: %w", err)
	}

	var profiles []types.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return fmt.Errorf("failed to parse profiles %s: %w", path, err)
	}

	for i := range profiles {
		p := &profiles[i]
		if p.UserID == uuid.Nil {
			return fmt.Errorf("profile %d has no user_id", i)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", p.UserID, err)
		}
		if _, err := s.UpsertProfile(ctx, p); err != nil {
			return fmt.Errorf("failed to store profile %s: %w", p.UserID, err)
		}
	}
	return nil
}
