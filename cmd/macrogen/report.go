package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Kanrog/kanrog.github.io/pkg/macro"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
	"github.com/Kanrog/kanrog.github.io/pkg/resolve"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a29bfe"))
	okStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00b894"))
	blockingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4d4d"))
	advisoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fdcb6e"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#636e72"))
)

// renderReport formats a validation result for the terminal.
func renderReport(p profile.Profile, res resolve.Result) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s %gx%gx%g, margin %g, %s %g/%g°C",
		strings.ToUpper(p.Archetype.String()), p.MaxX, p.MaxY, p.MaxZ, p.Margin,
		p.Material, p.PrintTemp, p.BedTemp)))
	sb.WriteByte('\n')

	for _, v := range res.Blocking() {
		sb.WriteString(blockingStyle.Render("  ✗ " + v.String()))
		sb.WriteString(mutedStyle.Render(" [" + v.Code + "]"))
		sb.WriteByte('\n')
	}
	for _, v := range res.Advisories() {
		sb.WriteString(advisoryStyle.Render("  ! " + v.String()))
		sb.WriteString(mutedStyle.Render(" [" + v.Code + "]"))
		sb.WriteByte('\n')
	}

	if res.Valid() {
		sb.WriteString(okStyle.Render("  ✓ ready to generate"))
	} else {
		sb.WriteString(blockingStyle.Render(fmt.Sprintf("  generation blocked by %d violation(s)", len(res.Blocking()))))
	}
	sb.WriteByte('\n')
	return sb.String()
}

// renderIssues formats lint issues, one per line.
func renderIssues(w io.Writer, issues []macro.Issue) {
	for _, issue := range issues {
		fmt.Fprintln(w, blockingStyle.Render(issue.String()))
	}
}

// renderMaterials formats the preset table.
func renderMaterials() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%-8s %8s %8s", "MATERIAL", "HOTEND", "BED")))
	sb.WriteByte('\n')
	for _, preset := range profile.Presets() {
		fmt.Fprintf(&sb, "%-8s %7g° %7g°\n", preset.Material, preset.PrintTemp, preset.BedTemp)
	}
	sb.WriteString(mutedStyle.Render("CUSTOM keeps --print-temp and --bed-temp as given"))
	sb.WriteByte('\n')
	return sb.String()
}
