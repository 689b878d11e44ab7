package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/arthur-debert/stowaway/pkg/config"
	"github.com/arthur-debert/stowaway/pkg/stow"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func styled() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func render(style lipgloss.Style, s string) string {
	if !styled() {
		return s
	}
	return style.Render(s)
}

// renderResult formats the run summary block printed after every invocation.
func renderResult(result *stow.Result, opts config.Options) string {
	var b strings.Builder

	title := "stow"
	if opts.Unstow {
		title = "unstow"
	}
	if opts.DryRun {
		title += " (dry run)"
	}
	b.WriteString(render(headerStyle, fmt.Sprintf("stowaway %s: %d entries", title, result.Entries)))
	b.WriteString("\n")

	if result.Migration != nil {
		b.WriteString(fmt.Sprintf("  %-18s%d files (%s), %d skipped, %d symlinks left alone\n",
			"migrated",
			result.Migration.Moved,
			result.Migration.HumanBytes(),
			result.Migration.SkippedExisting,
			result.Migration.SkippedSymlinks))
	}

	s := result.Summary
	rows := []struct {
		label string
		count int
	}{
		{"created", s.Created},
		{"already correct", s.AlreadyCorrect},
		{"skipped", s.Skipped},
		{"replaced", s.Replaced},
		{"backed up", s.BackedUp},
		{"circular", s.CircularRejects},
		{"removed", s.Removed},
		{"restored", s.Restored},
		{"not found", s.NotFound},
		{"not ours", s.NotOwned},
	}
	for _, row := range rows {
		if row.count == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  %-18s%d\n", row.label, row.count))
	}

	if s.Errors > 0 {
		b.WriteString(fmt.Sprintf("  %s%d\n", render(errorStyle, fmt.Sprintf("%-18s", "errors")), s.Errors))
	}

	return b.String()
}
