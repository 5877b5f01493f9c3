package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// -------------------- MAIN --------------------

func main() {
	m := newModel()
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if fm, ok := final.(*model); ok {
		// stop account polling and close the wallet connection
		fm.detachWallet()
	}
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}
