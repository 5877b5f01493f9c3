package config

// Page identifies a top-level screen
type Page int

const (
	PageHome Page = iota
	PageRegistry
	PageEscrow
	PageCounter
	PageSettings
)

// Pages in navigation order
var Pages = []Page{PageHome, PageRegistry, PageEscrow, PageCounter, PageSettings}

func (p Page) String() string {
	switch p {
	case PageHome:
		return "Home"
	case PageRegistry:
		return "Registry"
	case PageEscrow:
		return "Escrow"
	case PageCounter:
		return "Counter"
	case PageSettings:
		return "Settings"
	}
	return "?"
}

// Key is the shortcut that opens the page
func (p Page) Key() string {
	switch p {
	case PageHome:
		return "h"
	case PageRegistry:
		return "1"
	case PageEscrow:
		return "2"
	case PageCounter:
		return "3"
	case PageSettings:
		return "o"
	}
	return ""
}
