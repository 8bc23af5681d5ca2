package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

var (
	draftJSON    bool
	draftTopK    int
	draftTimeout time.Duration
)

var draftCmd = &cobra.Command{
	Use:   "draft [job-post-file]",
	Short: "Draft a cover letter, CV bullets and ATS report",
	Long: `Reads a job post from a file or stdin, retrieves the most relevant
passages from your stored documents and asks the configured LLM for a
cover letter, tailored CV bullets and an ATS keyword report.

Sections the model did not return are reported as missing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDraft,
}

func init() {
	draftCmd.Flags().BoolVar(&draftJSON, "json", false, "output the draft as JSON")
	draftCmd.Flags().IntVarP(&draftTopK, "top-k", "k", 0, "number of retrieved chunks (default from settings)")
	draftCmd.Flags().DurationVar(&draftTimeout, "timeout", 0, "overall time limit, e.g. 3m")
	rootCmd.AddCommand(draftCmd)
}

func runDraft(cmd *cobra.Command, args []string) error {
	if draftService == nil {
		return errors.New("draft service not configured")
	}

	jobPost, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if draftTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, draftTimeout)
		defer cancel()
	}

	draft, err := draftService.Compose(ctx, jobPost, driving.DraftOptions{TopK: draftTopK})
	if err != nil {
		return err
	}

	if draftJSON {
		data, err := json.MarshalIndent(draft, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal draft: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Print(renderDraft(draft))
	return nil
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	coveredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// renderDraft formats a draft for the terminal.
func renderDraft(d *domain.Draft) string {
	var b strings.Builder

	b.WriteString(headingStyle.Render("Cover Letter") + "\n\n")
	b.WriteString(d.CoverLetterMarkdown + "\n\n")

	b.WriteString(headingStyle.Render("CV Bullets") + "\n\n")
	for _, bullet := range d.CVBullets {
		b.WriteString("  • " + bullet + "\n")
	}
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("ATS Report") + "\n\n")
	b.WriteString("  Covered: " + coveredStyle.Render(joinOrNone(d.ATS.Covered)) + "\n")
	b.WriteString("  Missing: " + missingStyle.Render(joinOrNone(d.ATS.Missing)) + "\n")

	if len(d.Sources) > 0 {
		b.WriteString("\n" + faintStyle.Render("Sources:") + "\n")
		for i := range d.Sources {
			src := &d.Sources[i]
			b.WriteString(faintStyle.Render(fmt.Sprintf("  [%d] %s (%s)", src.Rank, src.Document.Filename(), src.Document.Type)) + "\n")
		}
	}

	if d.Partial {
		names := make([]string, len(d.Missing))
		for i, s := range d.Missing {
			names[i] = string(s)
		}
		b.WriteString("\n" + missingStyle.Render("Partial draft, missing: "+strings.Join(names, ", ")) + "\n")
	}
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
