package details

import (
	"fmt"
	"strings"

	"dapp-console/helpers"
	"dapp-console/rpc"
	"dapp-console/styles"

	"github.com/charmbracelet/lipgloss"
)

// Render renders the connected account panel
func Render(details rpc.AccountDetails, connected, connecting, loading bool, copiedMsg string, spinnerView string) string {
	h := styles.TitleStyle.Render("Account")

	if connecting {
		return h + "\n" + spinnerView + " waiting for the wallet to grant access…"
	}
	if !connected {
		hint := styles.Hint("Not connected. Press ", "c", " to request accounts from the wallet.")
		return h + "\n" + hint
	}

	// OSC 8 hyperlink to the block explorer
	etherscanURL := fmt.Sprintf("https://etherscan.io/address/%s", details.Address)
	addrStyle := lipgloss.NewStyle().Foreground(styles.CMuted).Underline(true)
	sub := fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", etherscanURL, addrStyle.Render(details.Address))

	if copiedMsg != "" {
		sub += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(copiedMsg)
	}

	if loading {
		return h + "\n" + sub + "\n\n" + spinnerView + " fetching balance…"
	}

	if details.ErrMessage != "" {
		msg := styles.Warning(details.ErrMessage)
		return h + "\n" + sub + "\n\n" + msg
	}

	ethLine := fmt.Sprintf("%s  %s  %s",
		styles.LabelStyle.Render("ETH"),
		lipgloss.NewStyle().Foreground(styles.CText).Render(helpers.FormatETH(details.Wei)),
		styles.MutedStyle.Render("at "+helpers.LoadedAt(details.LoadedAt, false)),
	)

	return strings.Join([]string{h, sub, "", ethLine}, "\n")
}
