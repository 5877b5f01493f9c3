package registry

import (
	"strings"

	"dapp-console/apps"
	"dapp-console/helpers"
	"dapp-console/styles"
	"dapp-console/views/field"
)

// Nav returns the navigation bar for the registry view
func Nav(width int, formActive bool) string {
	var left string
	if formActive {
		left = strings.Join([]string{
			styles.Key("Enter") + " submit",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("s") + " set name",
			styles.Key("d") + " delete name",
			styles.Key("f") + " lookup",
			styles.Key("r") + " refresh",
			styles.Key("c") + " connect",
			styles.Key("h") + " home",
			styles.Key("l") + " logger",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the registry page
func Render(r *apps.Registry, connected bool, formView, spinnerView string) string {
	desc := r.Descriptor()
	h := styles.TitleStyle.Render("Name Registry · " + desc.Name)
	sub := styles.MutedStyle.Render(desc.Address.Hex())

	lines := []string{h, sub, ""}

	if connected {
		f, ok := r.MyName()
		lines = append(lines, field.Render("Your name", f, ok, nameOrNone, spinnerView))
	} else {
		lines = append(lines, styles.MutedStyle.Render("Your name   not connected"))
	}

	if target, f, ok := r.LookupField(); ok {
		label := helpers.ShortenAddr(target.Hex())
		lines = append(lines, field.Render(label, f, true, nameOrNone, spinnerView))
	}

	if status := field.Status(r.Lifecycle(), spinnerView); status != "" {
		lines = append(lines, "", status)
	}
	if hint := field.Disabled(connected, r.Lifecycle().State()); hint != "" && formView == "" {
		lines = append(lines, "", hint)
	}
	if formView != "" {
		lines = append(lines, "", formView)
	}

	return strings.Join(lines, "\n")
}

func nameOrNone(v interface{}) string {
	if name, _ := v.(string); name != "" {
		return name
	}
	return "(none)"
}
