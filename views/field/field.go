package field

import (
	"errors"
	"fmt"
	"strings"

	"dapp-console/cache"
	"dapp-console/chainerr"
	"dapp-console/helpers"
	"dapp-console/lifecycle"
	"dapp-console/styles"

	"github.com/ethereum/go-ethereum/common"
)

// Render draws one cached view field. The last known value stays visible while
// the field is stale or refreshing.
func Render(label string, f cache.Field, ok bool, format func(interface{}) string, spinnerView string) string {
	line := styles.LabelStyle.Render(fmt.Sprintf("%-10s", label)) + "  "
	switch {
	case !ok || (!f.HasValue() && f.InFlight):
		return line + spinnerView + styles.MutedStyle.Render(" loading…")
	case !f.HasValue() && f.Err != nil:
		return line + styles.Warning(Message(f.Err))
	case !f.HasValue():
		return line + styles.MutedStyle.Render("unknown")
	}

	line += styles.ValueStyle.Render(format(f.Value))
	var notes []string
	if f.InFlight {
		notes = append(notes, spinnerView+" refreshing")
	} else if f.Stale {
		notes = append(notes, "stale")
	}
	notes = append(notes, "at "+helpers.LoadedAt(f.RefreshedAt, false))
	line += "  " + styles.MutedStyle.Render(strings.Join(notes, " · "))
	if f.Err != nil {
		line += "\n" + strings.Repeat(" ", 12) + styles.Warning(Message(f.Err))
	}
	return line
}

// Message is the single line shown for any failure
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *chainerr.Error
	if !errors.As(chainerr.Normalize("", err), &ce) {
		return err.Error()
	}
	return ce.Message()
}

// Status renders the latest write of lc, or "" once it has been dismissed
func Status(lc *lifecycle.Lifecycle, spinnerView string) string {
	state := lc.State()
	switch state {
	case lifecycle.Idle:
		return ""
	case lifecycle.Submitting:
		return spinnerView + styles.MutedStyle.Render(" waiting for wallet approval…")
	}
	p, ok := lc.Current()
	if !ok {
		return ""
	}

	title := styles.LabelStyle.Render(p.Method) + styles.MutedStyle.Render(fmt.Sprintf(" #%d", p.ID))
	var status string
	switch {
	case p.Status == lifecycle.Submitted:
		status = spinnerView + " awaiting confirmation"
	case p.Status == lifecycle.Confirmed:
		status = styles.OKStyle.Render("✓ confirmed")
	case chainerr.KindOf(p.Err) == chainerr.ConfirmationTimeout:
		status = styles.WarnStyle.Render("? " + Message(p.Err))
	default:
		status = styles.WarnStyle.Render("✗ " + Message(p.Err))
	}

	lines := []string{title + "  " + status}
	if p.Hash != (common.Hash{}) {
		lines = append(lines, styles.MutedStyle.Render("tx "+p.Hash.Hex()))
	}
	if state == lifecycle.Settled {
		lines = append(lines, styles.Hint("Press ", "Enter", " to dismiss"))
	}
	return strings.Join(lines, "\n")
}

// Disabled explains why write actions are unavailable, or returns ""
func Disabled(connected bool, state lifecycle.State) string {
	switch {
	case !connected:
		return styles.Hint("Connect a wallet (", "c", ") to send transactions.")
	case state == lifecycle.Submitting || state == lifecycle.AwaitingConfirmation:
		return styles.MutedStyle.Render("A transaction is in progress.")
	case state == lifecycle.Settled:
		return styles.MutedStyle.Render("Dismiss the last result to send another transaction.")
	}
	return ""
}
