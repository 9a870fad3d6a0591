package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/strategic-matchmaker/internal/prompts"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the embedded model prompts and their placeholders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		keys, err := prompts.List(prompts.Matching)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, key := range keys {
			template, err := prompts.Get(prompts.Matching, key)
			if err != nil {
				return err
			}
			names := prompts.Placeholders(template)
			if len(names) == 0 {
				fmt.Fprintln(out, key)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", key, strings.Join(names, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptsCmd)
}
