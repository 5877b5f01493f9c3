package escrow

import (
	"math/big"
	"strings"

	"dapp-console/apps"
	"dapp-console/helpers"
	"dapp-console/styles"
	"dapp-console/views/field"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for the escrow view
func Nav(width int, formActive bool) string {
	var left string
	if formActive {
		left = strings.Join([]string{
			styles.Key("Tab") + " next field",
			styles.Key("Enter") + " submit",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("p") + " deposit",
			styles.Key("w") + " withdraw",
			styles.Key("g") + " QR",
			styles.Key("y") + " copy address",
			styles.Key("r") + " refresh",
			styles.Key("c") + " connect",
			styles.Key("h") + " home",
			styles.Key("l") + " logger",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the escrow page. qr is shown beside the balance when not empty.
func Render(e *apps.Escrow, connected bool, formView, qr, spinnerView string) string {
	desc := e.Descriptor()
	h := styles.TitleStyle.Render("Escrow · " + desc.Name)
	sub := styles.MutedStyle.Render(desc.Address.Hex())

	f, ok := e.Balance()
	lines := []string{h, sub, "", field.Render("Balance", f, ok, formatEther, spinnerView)}

	if status := field.Status(e.Lifecycle(), spinnerView); status != "" {
		lines = append(lines, "", status)
	}
	if hint := field.Disabled(connected, e.Lifecycle().State()); hint != "" && formView == "" {
		lines = append(lines, "", hint)
	}
	if formView != "" {
		lines = append(lines, "", formView)
	}

	body := strings.Join(lines, "\n")
	if qr == "" {
		return body
	}
	caption := styles.MutedStyle.Render("Scan to fund from a phone wallet")
	return lipgloss.JoinHorizontal(lipgloss.Top, body, "    ", qr+"\n"+caption)
}

func formatEther(v interface{}) string {
	wei, _ := v.(*big.Int)
	return helpers.FormatETH(wei)
}
