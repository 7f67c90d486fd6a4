package cli

import "github.com/charmbracelet/lipgloss"

var (
	OKStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	FailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)
)

// CheckResult is the outcome of one diagnostic line.
type CheckResult int

const (
	CheckOK CheckResult = iota
	CheckWarn
	CheckFail
	CheckSkipped
)

// StatusLine renders a diagnostic line in the "✓ Label: OK" form.
func StatusLine(result CheckResult, label, detail string) string {
	var line string
	switch result {
	case CheckOK:
		line = OKStyle.Render("✓ " + label + ": OK")
	case CheckWarn:
		line = WarnStyle.Render("⚠ " + label + ": WARNING")
	case CheckFail:
		line = FailStyle.Render("❌ " + label + ": FAIL")
	default:
		line = MutedStyle.Render("⊘ " + label + ": SKIPPED")
	}
	if detail != "" {
		line += "\n   " + MutedStyle.Render(detail)
	}
	return line
}
