package main

import (
	"fmt"
	"strings"

	"dapp-console/config"
	"dapp-console/helpers"
	"dapp-console/styles"
	"dapp-console/views/counter"
	"dapp-console/views/details"
	"dapp-console/views/escrow"
	"dapp-console/views/home"
	logview "dapp-console/views/log"
	"dapp-console/views/registry"
	"dapp-console/views/settings"

	"github.com/charmbracelet/lipgloss"
)

// -------------------- VIEW --------------------

func (m model) renderDeleteDialog() string {
	var (
		dialogBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#874BFD")).
				Padding(1, 0).
				BorderTop(true).
				BorderLeft(true).
				BorderRight(true).
				BorderBottom(true)

		buttonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(lipgloss.Color("#888B7E")).
				Padding(0, 3).
				MarginTop(1)

		activeButtonStyle = buttonStyle.
					Foreground(lipgloss.Color("#FFF7DB")).
					Background(lipgloss.Color("#F25D94")).
					MarginRight(2).
					Underline(true)
	)

	var question string
	switch m.deleteDialogKind {
	case "rpc":
		name := ""
		if m.deleteRPCDialogIdx >= 0 && m.deleteRPCDialogIdx < len(m.rpcURLs) {
			name = strings.TrimSpace(m.rpcURLs[m.deleteRPCDialogIdx].Name)
			if name == "" {
				name = m.rpcURLs[m.deleteRPCDialogIdx].URL
			}
		}
		question = "Are you sure you want to delete the wallet endpoint " + name + "?"
	default:
		question = "Delete the registry name of " + helpers.ShortenAddr(m.account.Hex()) + "? This sends a transaction."
	}
	msg := helpers.FadeString(question, "#F25D94", "#EDFF82")
	questionView := lipgloss.NewStyle().Width(50).Align(lipgloss.Center).Render(msg)

	// Apply active style to the selected button
	var okButton, cancelButton string
	if m.deleteDialogYesSelected {
		okButton = activeButtonStyle.Render("Yes")
		cancelButton = buttonStyle.Render("No")
	} else {
		okButton = buttonStyle.MarginRight(2).Render("Yes")
		cancelButton = activeButtonStyle.MarginRight(0).Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, questionView, buttons)

	dialog := dialogBoxStyle.Render(ui)

	// Center the dialog on screen
	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

func (m model) globalHeader() string {
	availableWidth := max(0, m.w-8) // Account for panel padding

	var addrDisplay string
	switch {
	case m.connected:
		addrDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Account: " + helpers.FadeString(helpers.ShortenAddr(m.account.Hex()), "#F25D94", "#EDFF82"))
	case m.connecting:
		addrDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Account: " + m.spin.View() + " approve in wallet")
	default:
		addrDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Account: Not connected")
	}

	// Endpoint status with green dot
	var statusIcon string
	var statusColor lipgloss.Color
	var statusText string

	if m.rpcURL == "" {
		statusIcon = "○"
		statusColor = styles.CDown
		statusText = "No wallet"
	} else if m.rpcConnecting {
		statusIcon = "○"
		statusColor = styles.CDown
		statusText = "Connecting..."
	} else if !m.rpcConnected {
		statusIcon = "○"
		statusColor = styles.CDown
		statusText = "Connection Failed"
	} else {
		statusIcon = "●"
		statusColor = cAccent
		// Find active endpoint name
		for _, r := range m.rpcURLs {
			if r.Active && r.URL == m.rpcURL {
				statusText = r.Name
				break
			}
		}
		if statusText == "" {
			statusText = "Connected"
		}
		if m.chainID != 0 {
			statusText += fmt.Sprintf(" (chain %d)", m.chainID)
		}
	}

	rpcDisplay := lipgloss.NewStyle().
		Foreground(statusColor).
		Bold(true).
		Render(statusIcon + " " + statusText)

	// Center title
	titleText := lipgloss.NewStyle().
		Foreground(cAccent).
		Bold(true).
		Render(helpers.FadeString("dapp console", "#7EE787", "#82CFFD"))

	addrWidth := lipgloss.Width(addrDisplay)
	rpcWidth := lipgloss.Width(rpcDisplay)
	titleWidth := lipgloss.Width(titleText)
	totalOtherWidth := addrWidth + rpcWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		// Not enough space, stack vertically
		headerLine = addrDisplay + "\n" + titleText + "\n" + rpcDisplay
	} else {
		// Three-column layout: Account | Title (centered) | Endpoint
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding

		leftSpacer := strings.Repeat(" ", max(1, leftPadding))
		rightSpacer := strings.Repeat(" ", max(1, rightPadding))

		headerLine = addrDisplay + leftSpacer + titleText + rightSpacer + rpcDisplay
	}

	separator := lipgloss.NewStyle().
		Foreground(cBorder).
		Render(strings.Repeat("─", availableWidth))

	return headerLine + "\n" + separator
}

// unavailable explains why a contract page has nothing to show
func (m model) unavailable(title string, page config.Page) string {
	muted := lipgloss.NewStyle().Foreground(cMuted)
	var msg string
	switch {
	case m.appErrs[page] != "":
		msg = styles.Warning(m.appErrs[page])
	case m.rpcConnecting:
		msg = m.spin.View() + muted.Render(" connecting to the wallet endpoint…")
	default:
		msg = styles.Hint("No wallet endpoint connected. Press ", "o", " to pick one.")
	}
	return titleStyle.Render(title) + "\n\n" + msg
}

func (m model) withNotice(content string) string {
	if m.notice == "" {
		return content
	}
	return content + "\n\n" + styles.Warning(m.notice)
}

func (m model) formView() string {
	if m.form == nil {
		return ""
	}
	return m.form.View()
}

func (m *model) View() string {
	globalHdr := m.globalHeader()
	headerPanel := panelStyle.Width(max(0, m.w-2)).Render(globalHdr)

	var pageContent string
	var nav string
	formActive := m.form != nil

	switch m.activePage {
	case config.PageHome:
		var account string
		if m.session != nil || m.connected {
			account = details.Render(m.balance, m.connected, m.connecting, m.loading || (m.connected && !m.balanceLoaded), m.copiedMsg, m.spin.View())
		}
		content := m.withNotice(home.Render(m.homeForm, account))
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(content)
		nav = home.Nav(m.w - 2)

	case config.PageRegistry:
		content := m.unavailable("Name Registry", config.PageRegistry)
		if m.registry != nil {
			content = registry.Render(m.registry, m.connected, m.formView(), m.spin.View())
		}
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(m.withNotice(content))
		nav = registry.Nav(m.w-2, formActive)

	case config.PageEscrow:
		content := m.unavailable("Escrow", config.PageEscrow)
		if m.escrow != nil {
			content = escrow.Render(m.escrow, m.connected, m.formView(), m.paymentQR(), m.spin.View())
			if m.copiedMsg != "" {
				content += "\n\n" + lipgloss.NewStyle().Foreground(cAccent).Render(m.copiedMsg)
			}
		}
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(m.withNotice(content))
		nav = escrow.Nav(m.w-2, formActive)

	case config.PageCounter:
		content := m.unavailable("Counter", config.PageCounter)
		if m.counter != nil {
			content = counter.Render(m.counter, m.connected, m.formView(), m.spin.View())
		}
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(m.withNotice(content))
		nav = counter.Nav(m.w-2, formActive)

	case config.PageSettings:
		settingsContent := settings.Render(m.rpcURLs, m.selectedRPCIdx, m.cfg.Contracts)

		// Show form if in add/edit mode
		if (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
			settingsContent = styles.TitleStyle.Render("Wallet Endpoints") + "\n\n" + m.form.View()
		}

		pageContent = panelStyle.Width(max(0, m.w-2)).Render(settingsContent)
		nav = settings.Nav(m.w-2, m.settingsMode)
	}

	if m.showDeleteDialog {
		return m.renderDeleteDialog()
	}

	// Render log panel only if enabled
	if m.logEnabled {
		// Ensure viewport height stays in sync with the rendered panel
		reservedHeight := 10
		availableHeight := max(5, m.h-reservedHeight)
		maxLogHeight := min(m.h/3, 15)
		m.logViewport.Height = min(availableHeight, maxLogHeight)

		logPanel := logview.Render(m.w, m.h, m.logReady, m.logSpinner.View(), m.logViewport)
		content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav, logPanel)
		return appStyle.Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav)
	return appStyle.Render(content)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
