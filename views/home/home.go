package home

import (
	"dapp-console/styles"
	"strings"

	"github.com/charmbracelet/huh"
)

// TempSelection stores the home menu selection
var TempSelection string

// CreateForm creates the home menu form
func CreateForm() *huh.Form {
	TempSelection = ""

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Options(
					huh.NewOption("Name Registry", "registry"),
					huh.NewOption("Escrow", "escrow"),
					huh.NewOption("Counter", "counter"),
					huh.NewOption("Settings", "settings"),
				).
				Title("Contracts").
				Description("Select a contract to work with").
				Value(&TempSelection),
		),
	).WithTheme(huh.ThemeCatppuccin())

	form.Init()
	return form
}

// Render renders the home view: the menu above the account panel
func Render(form *huh.Form, account string) string {
	menu := "Loading menu..."
	if form != nil {
		menu = form.View()
	}
	if account == "" {
		return menu
	}
	return menu + "\n\n" + account
}

// Nav returns the navigation bar for home view
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " select",
		styles.Key("Enter") + " go",
		styles.Key("c") + " connect",
		styles.Key("y") + " copy account",
		styles.Key("l") + " logger",
		styles.Key("Esc") + " quit",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}
