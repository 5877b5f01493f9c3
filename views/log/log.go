package log

import (
	"dapp-console/helpers"
	"dapp-console/styles"
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// Render renders the log panel below the page. It takes at most a third of
// the screen and never more than 15 lines.
func Render(width, height int, logReady bool, logSpinnerView string, vp viewport.Model) string {
	title := lipgloss.NewStyle().
		Foreground(styles.CAccent2).
		Bold(true).
		Render("Log")

	// header (3) + nav (1) + title and borders (4) + margins (2)
	availableHeight := helpers.Max(5, height-10)
	logPanelHeight := helpers.Min(availableHeight, helpers.Min(height/3, 15))
	vp.Height = logPanelHeight

	border := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Width(helpers.Max(0, width-2)).
		Height(logPanelHeight + 2)

	if !logReady {
		return border.Render(title + "\n\n" + "initializing...\n" + logSpinnerView)
	}

	info := ""
	if n := vp.TotalLineCount(); n > vp.Height {
		info = fmt.Sprintf(" %d lines [%d%%]", n, int(vp.ScrollPercent()*100))
	}
	info = lipgloss.NewStyle().Foreground(styles.CMuted).Render(info)

	return border.Render(title + info + "\n\n" + vp.View())
}
