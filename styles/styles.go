// Package styles holds the console palette and the few text treatments every
// page shares: field labels and values, warnings, and inline key hints.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	CBg      = lipgloss.Color("#0B0F14")
	CPanel   = lipgloss.Color("#0F1720")
	CBorder  = lipgloss.Color("#874BFD")
	CMuted   = lipgloss.Color("#8AA0B6")
	CText    = lipgloss.Color("#D6E2F0")
	CAccent  = lipgloss.Color("#7EE787") // confirmed, connected
	CAccent2 = lipgloss.Color("#79C0FF") // titles, labels
	CWarn    = lipgloss.Color("#FFA657") // failed or ambiguous writes
	CDown    = lipgloss.Color("#C01C28") // endpoint unreachable
)

// Layout
var (
	AppStyle = lipgloss.NewStyle().
			Background(CBg).
			Foreground(CText)

	TitleStyle = lipgloss.NewStyle().
			Foreground(CAccent2).
			Bold(true)

	PanelStyle = lipgloss.NewStyle().
			Background(CPanel).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(CBorder).
			Padding(1, 2)

	NavStyle = lipgloss.NewStyle().
			Background(CPanel).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(CBorder).
			Padding(0, 1)
)

// Contract fields and write status
var (
	LabelStyle = lipgloss.NewStyle().Foreground(CAccent2).Bold(true)
	ValueStyle = lipgloss.NewStyle().Foreground(CText)
	MutedStyle = lipgloss.NewStyle().Foreground(CMuted)
	WarnStyle  = lipgloss.NewStyle().Foreground(CWarn)
	OKStyle    = lipgloss.NewStyle().Foreground(CAccent)

	keyStyle = lipgloss.NewStyle().
			Foreground(CAccent).
			Bold(true)
)

// Key renders a hotkey inline
func Key(s string) string {
	return keyStyle.Render(s)
}

// Hint renders "before <key> after" with the key highlighted, e.g.
// Hint("Press ", "Enter", " to dismiss").
func Hint(before, key, after string) string {
	var out string
	if before != "" {
		out = MutedStyle.Render(before)
	}
	out += Key(key)
	if after != "" {
		out += MutedStyle.Render(after)
	}
	return out
}

// Warning renders msg behind the warning sign
func Warning(msg string) string {
	return WarnStyle.Render("⚠ " + msg)
}
