// Package observability provides structured logging and formatted CLI output.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/strategic-matchmaker/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if runes := []rune(line); len(runes) > boxWidth-4 {
			line = string(runes[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintAnalysis outputs the semantic analysis of a profile.
func (p *Printer) PrintAnalysis(analysis *types.ProfileAnalysis) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Intent:    %s\n", analysis.IntentVector.PrimaryIntent)
	fmt.Fprintf(&sb, "Horizon:   %s (urgency %s)\n", analysis.IntentVector.TimeHorizon, analysis.IntentVector.Urgency)
	fmt.Fprintf(&sb, "Source:    %s\n", analysis.Source)
	if len(analysis.ContentTags) > 0 {
		fmt.Fprintf(&sb, "Tags:      %s\n", strings.Join(analysis.ContentTags, ", "))
	}
	if len(analysis.PowerMap.Controls) > 0 {
		fmt.Fprintf(&sb, "Controls:  %s\n", strings.Join(analysis.PowerMap.Controls, ", "))
	}
	if len(analysis.PowerMap.Seeks) > 0 {
		fmt.Fprintf(&sb, "Seeks:     %s\n", strings.Join(analysis.PowerMap.Seeks, ", "))
	}

	p.printBox("PROFILE ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMatches outputs the top ranked matches with their score breakdown.
func (p *Printer) PrintMatches(matches []types.MatchResult, notice string) {
	var sb strings.Builder
	if len(matches) == 0 {
		if notice == "" {
			notice = "No matches above the relevance floor."
		}
		p.printBox("MATCHES", notice)
		return
	}

	fmt.Fprintf(&sb, "Total matches: %d\n\n", len(matches))
	count := min(len(matches), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := matches[i]
		name := m.MatchedUserID.String()
		if m.MatchedProfile != nil && m.MatchedProfile.FullName != "" {
			name = m.MatchedProfile.FullName
		}
		fmt.Fprintf(&sb, "#%d  %s  (overall %.2f)\n", m.Rank, name, m.OverallScore)
		fmt.Fprintf(&sb, "    SA %.2f  MV %.2f  C %.2f\n",
			m.StrategicAlignmentScore, m.MeetingValueScore, m.ComplementarityScore)
		if m.Rationale != "" {
			fmt.Fprintf(&sb, "    %s\n", m.Rationale)
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(matches) > maxItemsToShow {
		fmt.Fprintf(&sb, "\n... and %d more matches", len(matches)-maxItemsToShow)
	}

	p.printBox("TOP MATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWarnings outputs non-fatal problems encountered during a run.
func (p *Printer) PrintWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	var sb strings.Builder
	for _, w := range warnings {
		fmt.Fprintf(&sb, "• %s\n", w)
	}
	p.printBox("WARNINGS", strings.TrimSuffix(sb.String(), "\n"))
}
