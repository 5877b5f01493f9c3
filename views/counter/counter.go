package counter

import (
	"fmt"
	"strings"

	"dapp-console/apps"
	"dapp-console/styles"
	"dapp-console/views/field"
)

// Nav returns the navigation bar for the counter view
func Nav(width int, formActive bool) string {
	var left string
	if formActive {
		left = strings.Join([]string{
			styles.Key("Enter") + " submit",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("+") + " like",
			styles.Key("s") + " store",
			styles.Key("r") + " refresh",
			styles.Key("c") + " connect",
			styles.Key("h") + " home",
			styles.Key("l") + " logger",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the counter page
func Render(c *apps.Counter, connected bool, formView, spinnerView string) string {
	desc := c.Descriptor()
	h := styles.TitleStyle.Render("Counter · " + desc.Name)
	sub := styles.MutedStyle.Render(desc.Address.Hex())

	f, ok := c.Value()
	lines := []string{h, sub, "", field.Render("Likes", f, ok, func(v interface{}) string { return fmt.Sprint(v) }, spinnerView)}

	if status := field.Status(c.Lifecycle(), spinnerView); status != "" {
		lines = append(lines, "", status)
	}
	if hint := field.Disabled(connected, c.Lifecycle().State()); hint != "" && formView == "" {
		lines = append(lines, "", hint)
	}
	if formView != "" {
		lines = append(lines, "", formView)
	}

	return strings.Join(lines, "\n")
}
