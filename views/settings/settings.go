package settings

import (
	"dapp-console/config"
	"dapp-console/helpers"
	"dapp-console/styles"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for settings view
func Nav(width int, settingsMode string) string {
	var left string
	if settingsMode == "add" || settingsMode == "edit" {
		left = strings.Join([]string{
			styles.Key("l") + " debug log",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " select",
			styles.Key("Enter") + " activate",
			styles.Key("a") + " add",
			styles.Key("e") + " edit",
			styles.Key("d") + " delete",
			styles.Key("h") + " home",
			styles.Key("l") + " debug log",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the wallet endpoint list and the configured contracts
func Render(rpcURLs []config.RPCUrl, selectedIdx int, contracts []config.ContractEntry) string {
	h := styles.TitleStyle.Render("Wallet Endpoints")
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)

	lines := []string{h, ""}

	if len(rpcURLs) == 0 {
		lines = append(lines, muted.Render("No wallet endpoints configured."))
		lines = append(lines, "")
		lines = append(lines, muted.Render("Press ")+styles.Key("a")+muted.Render(" to add one."))
	} else {
		for i, rpc := range rpcURLs {
			var marker string
			if rpc.Active {
				marker = lipgloss.NewStyle().Foreground(styles.CAccent).Render("● ")
			} else {
				marker = muted.Render("○ ")
			}

			nameStyle := lipgloss.NewStyle().Foreground(styles.CText)
			urlStyle := muted

			if i == selectedIdx {
				nameStyle = nameStyle.Background(styles.CPanel).Foreground(styles.CAccent2).Bold(true)
				urlStyle = urlStyle.Background(styles.CPanel)
				marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Render("▶ ")
			}

			lines = append(lines, marker+nameStyle.Render(rpc.Name))
			lines = append(lines, "  "+urlStyle.Render(rpc.URL))
			lines = append(lines, "")
		}
	}

	lines = append(lines, styles.TitleStyle.Render("Contracts"), "")
	for _, c := range contracts {
		row := fmt.Sprintf("%-10s %-10s %s",
			lipgloss.NewStyle().Foreground(styles.CAccent).Render(c.Kind),
			c.Name,
			muted.Render(helpers.ShortenAddr(c.Address)),
		)
		lines = append(lines, row)
		if c.ABIPath != "" {
			lines = append(lines, "  "+muted.Render("abi "+c.ABIPath))
		}
		if len(c.Methods) > 0 {
			roles := make([]string, 0, len(c.Methods))
			for role := range c.Methods {
				roles = append(roles, role)
			}
			sort.Strings(roles)
			for i, role := range roles {
				roles[i] = role + "→" + c.Methods[role]
			}
			lines = append(lines, "  "+muted.Render(strings.Join(roles, "  ")))
		}
	}
	lines = append(lines, "", muted.Render("Contracts are edited in "+config.Path()))

	return strings.Join(lines, "\n")
}
