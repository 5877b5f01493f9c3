package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"dapp-console/config"
	"dapp-console/helpers"
	"dapp-console/lifecycle"
	"dapp-console/rpc"
	"dapp-console/views/field"
	"dapp-console/views/home"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// -------------------- TEMP FORM STORAGE --------------------
// Temporary form field storage (package-level to avoid pointer-to-copy issues)
var (
	tempRPCFormName string
	tempRPCFormURL  string
	tempName        string
	tempLookupAddr  string
	tempAmount      string
	tempRecipient   string
	tempStoreValue  string
)

func validAddress(s string) error {
	if !helpers.IsValidEthAddress(strings.TrimSpace(s)) {
		return fmt.Errorf("invalid ethereum address")
	}
	return nil
}

func validEther(s string) error {
	wei, err := helpers.ParseEther(s)
	if err != nil {
		return err
	}
	if wei.Sign() == 0 {
		return fmt.Errorf("amount must be greater than 0")
	}
	return nil
}

func (m *model) createSetNameForm() {
	tempName = ""
	if f, ok := m.registry.MyName(); ok {
		tempName, _ = f.Value.(string)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("The name the registry records for your account").
				Value(&tempName).
				Placeholder("alice").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.formKind = "setName"
	m.form.Init()
}

func (m *model) createLookupForm() {
	tempLookupAddr = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Lookup").
				Description("Enter a valid Ethereum address (Ctrl+v to paste)").
				Value(&tempLookupAddr).
				Placeholder("0x...").
				Validate(validAddress),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.formKind = "lookup"
	m.form.Init()
}

func (m *model) createDepositForm() {
	tempAmount = ""

	desc := "Amount to move into the escrow"
	if m.balanceLoaded && m.balance.ErrMessage == "" {
		desc = fmt.Sprintf("Available: %s", helpers.FormatETH(m.balance.Wei))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Deposit (ETH)").
				Description(desc).
				Value(&tempAmount).
				Placeholder("0.0").
				Validate(func(s string) error {
					if err := validEther(s); err != nil {
						return err
					}
					wei, _ := helpers.ParseEther(s)
					if m.balanceLoaded && m.balance.Wei != nil && wei.Cmp(m.balance.Wei) > 0 {
						return fmt.Errorf("amount exceeds balance")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.formKind = "deposit"
	m.form.Init()
}

func (m *model) createWithdrawForm() {
	tempRecipient = m.account.Hex()
	tempAmount = ""

	desc := "Amount to release"
	if wei, ok := m.escrow.BalanceWei(); ok {
		desc = fmt.Sprintf("Held: %s", helpers.FormatETH(wei))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Withdraw To").
				Description("Recipient address (Ctrl+v to paste)").
				Value(&tempRecipient).
				Placeholder("0x...").
				Validate(validAddress),

			huh.NewInput().
				Title("Amount (ETH)").
				Description(desc).
				Value(&tempAmount).
				Placeholder("0.0").
				Validate(validEther),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.formKind = "withdraw"
	m.form.Init()
}

func (m *model) createStoreForm() {
	tempStoreValue = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Store").
				Description("Overwrite the counter with a whole number").
				Value(&tempStoreValue).
				Placeholder("0").
				Validate(func(s string) error {
					n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
					if !ok || n.Sign() < 0 {
						return fmt.Errorf("enter a non-negative whole number")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.formKind = "store"
	m.form.Init()
}

func (m *model) createAddRPCForm() {
	tempRPCFormName = ""
	tempRPCFormURL = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Endpoint Name").
				Description("A friendly name for this wallet endpoint").
				Value(&tempRPCFormName).
				Placeholder("Local wallet"),

			huh.NewInput().
				Title("Endpoint URL").
				Description("JSON-RPC URL of a wallet that holds your keys").
				Value(&tempRPCFormURL).
				Placeholder("http://127.0.0.1:8545"),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.formKind = "addRPC"
	m.form.Init()
}

func (m *model) createEditRPCForm(idx int) {
	if idx < 0 || idx >= len(m.rpcURLs) {
		return
	}

	rpc := m.rpcURLs[idx]
	tempRPCFormName = rpc.Name
	tempRPCFormURL = rpc.URL

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Endpoint Name").
				Value(&tempRPCFormName).
				Placeholder("Local wallet"),

			huh.NewInput().
				Title("Endpoint URL").
				Value(&tempRPCFormURL).
				Placeholder("http://..."),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.formKind = "editRPC"
	m.form.Init()
}

// closeForm drops the active form and returns settings to list mode
func (m *model) closeForm() {
	m.form = nil
	m.formKind = ""
	m.settingsMode = "list"
}

// completeForm acts on a submitted form
func (m *model) completeForm() tea.Cmd {
	kind := m.formKind
	m.closeForm()

	switch kind {
	case "setName":
		name := strings.TrimSpace(tempName)
		m.addLog("info", "Setting registry name", "name", name)
		return m.startWrite(config.PageRegistry, func(ctx context.Context) (lifecycle.Pending, error) {
			return m.registry.SetName(ctx, name)
		})

	case "lookup":
		addr := strings.TrimSpace(tempLookupAddr)
		m.addLog("info", "Looking up registry name", "address", helpers.ShortenAddr(addr))
		return lookupName(m.registry, addr)

	case "deposit":
		amount := strings.TrimSpace(tempAmount)
		m.addLog("info", fmt.Sprintf("Depositing %s ETH", amount))
		return m.startWrite(config.PageEscrow, func(ctx context.Context) (lifecycle.Pending, error) {
			return m.escrow.Deposit(ctx, amount)
		})

	case "withdraw":
		to, amount := strings.TrimSpace(tempRecipient), strings.TrimSpace(tempAmount)
		m.addLog("info", fmt.Sprintf("Withdrawing %s ETH to %s", amount, helpers.ShortenAddr(to)))
		return m.startWrite(config.PageEscrow, func(ctx context.Context) (lifecycle.Pending, error) {
			return m.escrow.Withdraw(ctx, to, amount)
		})

	case "store":
		value := strings.TrimSpace(tempStoreValue)
		m.addLog("info", "Storing counter value", "value", value)
		return m.startWrite(config.PageCounter, func(ctx context.Context) (lifecycle.Pending, error) {
			return m.counter.Store(ctx, value)
		})

	case "addRPC":
		if tempRPCFormName != "" && tempRPCFormURL != "" {
			m.rpcURLs = append(m.rpcURLs, config.RPCUrl{Name: tempRPCFormName, URL: tempRPCFormURL})
			m.saveConfig()
			m.addLog("success", fmt.Sprintf("Added wallet endpoint: `%s` (%s)", tempRPCFormName, tempRPCFormURL))
		}

	case "editRPC":
		if m.selectedRPCIdx >= 0 && m.selectedRPCIdx < len(m.rpcURLs) {
			m.rpcURLs[m.selectedRPCIdx].Name = tempRPCFormName
			m.rpcURLs[m.selectedRPCIdx].URL = tempRPCFormURL
			m.saveConfig()
			m.addLog("success", fmt.Sprintf("Updated wallet endpoint: `%s`", tempRPCFormName))
		}
	}
	return nil
}

// startWrite hands a write to the wallet if the page can accept one
func (m *model) startWrite(page config.Page, submit func(context.Context) (lifecycle.Pending, error)) tea.Cmd {
	app := m.appFor(page)
	if app == nil {
		return nil
	}
	if !app.CanWrite() {
		m.notice = blockedReason(m.connected, app.Lifecycle().State())
		return nil
	}
	m.notice = ""
	return submitWrite(page, app, submit)
}

func blockedReason(connected bool, state lifecycle.State) string {
	switch {
	case !connected:
		return "Connect a wallet first."
	case state == lifecycle.Settled:
		return "Dismiss the last result first."
	}
	return "A transaction is already in progress."
}

// -------------------- UPDATE --------------------

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle form updates first (before message switching)
	if m.form != nil {
		// Intercept ESC key to cancel form
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
			m.closeForm()
			return m, nil
		}

		// Spinner and async results still need handling while a form is open
		switch msg.(type) {
		case tea.KeyMsg:
			form, cmd := m.form.Update(msg)
			if f, ok := form.(*huh.Form); ok {
				m.form = f
				switch m.form.State {
				case huh.StateCompleted:
					return m, m.completeForm()
				case huh.StateAborted:
					m.closeForm()
					return m, nil
				}
			}
			return m, cmd
		}
	}

	switch msg := msg.(type) {

	case logInitMsg:
		if !m.logEnabled {
			return m, nil
		}
		m.logReady = true
		if m.w > 0 {
			m.logViewport.Width = max(0, m.w-6)
		}
		m.addLog("info", "Logger enabled")
		return m, nil

	case rpcConnectedMsg:
		m.rpcConnecting = false
		if msg.err != nil {
			m.rpcConnected = false
			m.addLog("error", fmt.Sprintf("Wallet endpoint connection failed: `%s`", msg.err.Error()))
			return m, nil
		}
		m.rpcConnected = true
		m.chainID = msg.chainID
		m.addLog("success", fmt.Sprintf("Connected to `%s`", msg.client.URL), "chain", msg.chainID)
		return m, m.attachWallet(msg.client)

	case walletConnectedMsg:
		m.connecting = false
		if msg.err != nil {
			m.notice = field.Message(msg.err)
			m.addLog("error", "Wallet connection failed", "err", msg.err)
			return m, nil
		}
		m.notice = ""
		m.addLog("success", fmt.Sprintf("Wallet granted `%s`", helpers.ShortenAddr(msg.account.Hex())))
		return m, nil

	case reconciledMsg:
		if msg.err != nil {
			m.addLog("warning", "Could not read wallet accounts", "err", msg.err)
		}
		return m, nil

	case followStoppedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.addLog("warning", "Stopped following wallet accounts", "err", msg.err)
		}
		return m, nil

	case accountChangedMsg:
		// Stale subscriptions from a previous endpoint are dropped
		if m.session == nil {
			return m, nil
		}
		m.account = msg.change.Account
		m.connected = msg.change.Connected
		m.balanceLoaded = false
		m.copiedMsg = ""
		if m.connected {
			m.addLog("info", fmt.Sprintf("Active account `%s`", helpers.ShortenAddr(m.account.Hex())))
		} else {
			m.addLog("warning", "Wallet disconnected")
		}
		return m, tea.Batch(waitForAccount(m.accountCh), m.refreshAll())

	case balanceLoadedMsg:
		if !m.connected || msg.d.Address != m.account.Hex() {
			return m, nil
		}
		m.loading = false
		m.balance = msg.d
		m.balanceLoaded = true
		if m.balance.ErrMessage != "" {
			m.addLog("error", fmt.Sprintf("Account `%s`: %s", helpers.ShortenAddr(m.balance.Address), m.balance.ErrMessage))
		}
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			m.addLog("warning", fmt.Sprintf("Refreshing %s failed", msg.page), "err", field.Message(msg.err))
		}
		return m, nil

	case lookupMsg:
		if msg.err != nil {
			m.notice = field.Message(msg.err)
			m.addLog("error", "Lookup failed", "address", helpers.ShortenAddr(msg.address), "err", msg.err)
			return m, nil
		}
		m.notice = ""
		m.addLog("success", fmt.Sprintf("`%s` is registered as %q", helpers.ShortenAddr(msg.address), msg.name))
		return m, nil

	case submittedMsg:
		app := m.appFor(msg.page)
		if app == nil || app != msg.app {
			// the endpoint was replaced while the wallet had the request
			m.addLog("debug", "Dropping write result from a previous connection", "page", msg.page)
			return m, nil
		}
		if msg.err != nil {
			m.addLog("error", "Transaction not sent", "err", msg.err)
			// Failures before a record exists leave the lifecycle idle
			if app.Lifecycle().State() != lifecycle.Settled {
				m.notice = field.Message(msg.err)
			}
			return m, nil
		}
		m.addLog("info", fmt.Sprintf("Broadcast %s", msg.pending.Method), "tx", msg.pending.Hash.Hex())
		return m, awaitWrite(msg.page, app)

	case settledMsg:
		if app := m.appFor(msg.page); app == nil || app != msg.app {
			m.addLog("debug", "Dropping settlement from a previous connection", "page", msg.page)
			return m, nil
		}
		switch {
		case msg.err == nil:
			m.addLog("success", fmt.Sprintf("%s confirmed", msg.pending.Method), "tx", msg.pending.Hash.Hex())
		default:
			m.addLog("error", fmt.Sprintf("%s failed", msg.pending.Method), "err", field.Message(msg.err))
		}
		// The native balance moves with every mined write
		if m.connected && m.client != nil {
			m.loading = true
			return m, loadBalance(m.client, m.account)
		}
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{scheduleTick()}
		for _, page := range []config.Page{config.PageRegistry, config.PageEscrow, config.PageCounter} {
			if app := m.appFor(page); app != nil {
				cmds = append(cmds, refreshDue(page, app))
			}
		}
		return m, tea.Batch(cmds...)

	case clipboardCopiedMsg:
		m.copiedMsg = "Copied " + msg.what
		m.addLog("info", "Copied "+msg.what+" to clipboard")
		return m, clearClipboardAfter()

	case clearClipboardMsg:
		m.copiedMsg = ""
		return m, nil

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height

		// Only initialize viewport if log is enabled
		if m.logEnabled {
			// Width accounts for border and padding
			m.logViewport.Width = max(0, msg.Width-6)
			if m.logReady {
				m.updateLogViewport()
			}
		}

		if m.activePage == config.PageHome && m.homeForm != nil {
			form, cmd := m.homeForm.Update(msg)
			if f, ok := form.(*huh.Form); ok {
				m.homeForm = f
			}
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		var cmds []tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		// Update log spinner too if log is enabled but not ready
		if m.logEnabled && !m.logReady {
			m.logSpinner, cmd = m.logSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.updateLogViewport()
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.showDeleteDialog {
			return m, m.handleDeleteDialog(msg)
		}

		// global keys
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "l", "L":
			// Toggle logger
			m.logEnabled = !m.logEnabled
			m.saveConfig()
			if m.logEnabled {
				if m.w > 0 {
					m.logViewport.Width = m.w - 6
				}
				m.logReady = false
				return m, tea.Batch(initLogViewport(), m.logSpinner.Tick)
			}
			// Clear logs when hiding the panel
			m.logBuffer.Reset()
			m.logReady = false
			return m, nil

		case "pageup", "pagedown":
			// Allow scrolling in log viewport when enabled
			if m.logEnabled && m.logReady {
				var cmd tea.Cmd
				m.logViewport, cmd = m.logViewport.Update(msg)
				return m, cmd
			}
			return m, nil

		case "c", "C":
			return m, m.connect()

		case "r", "R":
			if m.activePage == config.PageSettings {
				break
			}
			m.notice = ""
			m.addLog("info", "Refreshing")
			return m, m.refreshAll()

		case "h", "H":
			m.goTo(config.PageHome)
			return m, nil

		case "1":
			m.goTo(config.PageRegistry)
			return m, nil
		case "2":
			m.goTo(config.PageEscrow)
			return m, nil
		case "3":
			m.goTo(config.PageCounter)
			return m, nil
		case "o", "O":
			m.goTo(config.PageSettings)
			return m, nil

		case "enter":
			// Dismiss a settled write on the current page
			if app := m.appFor(m.activePage); app != nil && app.Lifecycle().State() == lifecycle.Settled {
				if err := app.Acknowledge(); err != nil {
					m.addLog("error", "Could not dismiss result", "err", err)
				}
				return m, nil
			}
		}

		// page-specific behavior
		switch m.activePage {

		case config.PageHome:
			switch msg.String() {
			case "esc":
				return m, tea.Quit
			case "y", "Y":
				if m.connected {
					return m, copyToClipboard(m.account.Hex(), "account")
				}
				return m, nil
			}
			form, cmd := m.homeForm.Update(msg)
			if f, ok := form.(*huh.Form); ok {
				m.homeForm = f
				if m.homeForm.State == huh.StateCompleted {
					selection := home.TempSelection
					m.homeForm = home.CreateForm()
					switch selection {
					case "registry":
						m.goTo(config.PageRegistry)
					case "escrow":
						m.goTo(config.PageEscrow)
					case "counter":
						m.goTo(config.PageCounter)
					case "settings":
						m.goTo(config.PageSettings)
					}
					return m, nil
				}
			}
			return m, cmd

		case config.PageRegistry:
			if m.registry == nil {
				break
			}
			switch msg.String() {
			case "s", "S":
				if m.checkWritable(config.PageRegistry) {
					m.createSetNameForm()
				}
			case "d", "D":
				if m.checkWritable(config.PageRegistry) {
					m.showDeleteDialog = true
					m.deleteDialogKind = "name"
					m.deleteDialogYesSelected = false
				}
			case "f", "F":
				m.createLookupForm()
			}

		case config.PageEscrow:
			if m.escrow == nil {
				break
			}
			switch msg.String() {
			case "p", "P":
				if m.checkWritable(config.PageEscrow) {
					m.createDepositForm()
				}
			case "w", "W":
				if m.checkWritable(config.PageEscrow) {
					m.createWithdrawForm()
				}
			case "g", "G":
				m.showQR = !m.showQR
			case "y", "Y":
				return m, copyToClipboard(m.escrow.Address().Hex(), "escrow address")
			}

		case config.PageCounter:
			if m.counter == nil {
				break
			}
			switch msg.String() {
			case "+", "=":
				if m.checkWritable(config.PageCounter) {
					m.addLog("info", "Incrementing counter")
					return m, submitWrite(config.PageCounter, m.counter.App, m.counter.Increment)
				}
			case "s", "S":
				if m.checkWritable(config.PageCounter) {
					m.createStoreForm()
				}
			}

		case config.PageSettings:
			return m, m.handleSettingsKey(msg)
		}

		if msg.String() == "esc" {
			m.goTo(config.PageHome)
		}
		return m, nil
	}

	// Pass remaining messages to the home menu so its own commands run
	if m.activePage == config.PageHome && m.homeForm != nil {
		form, cmd := m.homeForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.homeForm = f
		}
		return m, cmd
	}
	if m.form != nil {
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}
		return m, cmd
	}
	return m, nil
}

// goTo switches pages, dropping page-local state
func (m *model) goTo(page config.Page) {
	if m.activePage == page {
		return
	}
	m.activePage = page
	m.notice = ""
	m.showQR = false
	m.settingsMode = "list"
}

// connect requests accounts from the wallet
func (m *model) connect() tea.Cmd {
	if m.session == nil {
		m.notice = "No wallet endpoint connected. Pick one under settings (o)."
		return nil
	}
	if m.connecting {
		return nil
	}
	m.connecting = true
	m.notice = ""
	m.addLog("info", "Requesting wallet accounts")
	return connectWallet(m.session)
}

// checkWritable reports whether page can accept a write, setting the notice
// when it cannot
func (m *model) checkWritable(page config.Page) bool {
	app := m.appFor(page)
	if app == nil {
		return false
	}
	if app.CanWrite() {
		m.notice = ""
		return true
	}
	m.notice = blockedReason(m.connected, app.Lifecycle().State())
	return false
}

func (m *model) handleDeleteDialog(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "right", "tab":
		// Toggle between Yes and No buttons
		m.deleteDialogYesSelected = !m.deleteDialogYesSelected
		return nil
	case "esc":
		m.showDeleteDialog = false
		return nil
	case "enter":
	default:
		return nil
	}

	m.showDeleteDialog = false
	if !m.deleteDialogYesSelected {
		return nil
	}

	switch m.deleteDialogKind {
	case "name":
		m.addLog("warning", "Deleting registry name")
		return m.startWrite(config.PageRegistry, m.registry.DeleteName)

	case "rpc":
		idx := m.deleteRPCDialogIdx
		if idx < 0 || idx >= len(m.rpcURLs) {
			return nil
		}
		deleted := m.rpcURLs[idx].Name
		m.rpcURLs = append(m.rpcURLs[:idx], m.rpcURLs[idx+1:]...)
		if m.selectedRPCIdx >= len(m.rpcURLs) && m.selectedRPCIdx > 0 {
			m.selectedRPCIdx--
		}
		m.saveConfig()
		m.addLog("warning", fmt.Sprintf("Deleted wallet endpoint `%s`", deleted))
	}
	return nil
}

func (m *model) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.goTo(config.PageHome)

	case "a", "A":
		m.settingsMode = "add"
		m.createAddRPCForm()

	case "e", "E":
		if len(m.rpcURLs) > 0 {
			m.settingsMode = "edit"
			m.createEditRPCForm(m.selectedRPCIdx)
		}

	case "d", "D", "delete", "backspace":
		if len(m.rpcURLs) > 0 && m.selectedRPCIdx < len(m.rpcURLs) {
			m.showDeleteDialog = true
			m.deleteDialogKind = "rpc"
			m.deleteDialogYesSelected = true
			m.deleteRPCDialogIdx = m.selectedRPCIdx
		}

	case "up", "k":
		if m.selectedRPCIdx > 0 {
			m.selectedRPCIdx--
		}

	case "down", "j":
		if m.selectedRPCIdx < len(m.rpcURLs)-1 {
			m.selectedRPCIdx++
		}

	case "enter", " ":
		// Set as active and reconnect
		if len(m.rpcURLs) > 0 && m.selectedRPCIdx < len(m.rpcURLs) {
			for i := range m.rpcURLs {
				m.rpcURLs[i].Active = (i == m.selectedRPCIdx)
			}
			m.rpcURL = m.rpcURLs[m.selectedRPCIdx].URL
			m.saveConfig()
			m.detachWallet()
			m.rpcConnecting = true
			m.rpcConnected = false
			m.addLog("info", fmt.Sprintf("Switching to `%s`", m.rpcURLs[m.selectedRPCIdx].Name))
			return connectRPC(m.rpcURL)
		}
	}
	return nil
}

// paymentQR renders the funding QR of the escrow on the current chain
func (m *model) paymentQR() string {
	if !m.showQR || m.escrow == nil {
		return ""
	}
	return rpc.GenerateQRCode(rpc.PaymentURI(m.escrow.Address(), m.chainID))
}
