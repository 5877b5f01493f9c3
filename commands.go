package main

import (
	"context"
	"time"

	"dapp-console/apps"
	"dapp-console/config"
	"dapp-console/contract"
	"dapp-console/lifecycle"
	"dapp-console/rpc"
	"dapp-console/session"
	"dapp-console/wallet"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
)

const (
	readTimeout    = 15 * time.Second
	connectTimeout = 5 * time.Minute // a human is looking at the wallet prompt
	refreshEvery   = 30 * time.Second
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

// connectRPC establishes a connection to the wallet endpoint
func connectRPC(url string) tea.Cmd {
	return func() tea.Msg {
		result := rpc.Connect(url)
		if result.Error != nil {
			return rpcConnectedMsg{err: result.Error}
		}
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		var chainID uint64
		if id, err := result.Client.ChainID(ctx); err == nil {
			chainID = id.Uint64()
		}
		return rpcConnectedMsg{client: result.Client, chainID: chainID}
	}
}

// initLogViewport initializes the log viewport
func initLogViewport() tea.Cmd {
	return func() tea.Msg {
		return logInitMsg{}
	}
}

// connectWallet asks the wallet to grant accounts
func connectWallet(s *session.State) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		account, err := s.Connect(ctx)
		return walletConnectedMsg{account: account, err: err}
	}
}

// reconcileAccounts picks up accounts granted in an earlier session without prompting
func reconcileAccounts(s *session.State) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		return reconciledMsg{err: s.Reconcile(ctx)}
	}
}

// followAccounts polls the wallet for account switches until ctx is cancelled
func followAccounts(ctx context.Context, s *session.State, interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		return followStoppedMsg{err: s.Follow(ctx, interval)}
	}
}

// waitForAccount delivers the next account transition
func waitForAccount(ch <-chan session.Change) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return accountChangedMsg{change: change}
	}
}

// loadBalance fetches the native balance of the active account
func loadBalance(client *rpc.Client, addr common.Address) tea.Cmd {
	return func() tea.Msg {
		return balanceLoadedMsg{d: rpc.LoadAccountDetails(client, addr)}
	}
}

// refreshPage rereads every field of a page
func refreshPage(page config.Page, refresh func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		return refreshedMsg{page: page, err: refresh(ctx)}
	}
}

// refreshDue rereads the fields a page has marked stale
func refreshDue(page config.Page, app *apps.App) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		return refreshedMsg{page: page, err: app.RefreshDue(ctx)}
	}
}

// lookupName reads the registry name of an arbitrary address
func lookupName(r *apps.Registry, address string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		name, err := r.Lookup(ctx, address)
		return lookupMsg{address: address, name: name, err: err}
	}
}

// submitWrite hands a write to the wallet. The wallet may prompt the user, so
// there is no deadline here.
func submitWrite(page config.Page, app *apps.App, submit func(context.Context) (lifecycle.Pending, error)) tea.Cmd {
	return func() tea.Msg {
		p, err := submit(context.Background())
		return submittedMsg{page: page, app: app, pending: p, err: err}
	}
}

// awaitWrite waits for the broadcast write of app to settle
func awaitWrite(page config.Page, app *apps.App) tea.Cmd {
	return func() tea.Msg {
		p, err := app.Await(context.Background())
		return settledMsg{page: page, app: app, pending: p, err: err}
	}
}

// copyToClipboard copies text to clipboard
func copyToClipboard(text, what string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return nil
		}
		return clipboardCopiedMsg{what: what}
	}
}

// clearClipboardAfter waits 2 seconds then clears clipboard feedback
func clearClipboardAfter() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearClipboardMsg{}
	})
}

// scheduleTick schedules the next periodic refresh
func scheduleTick() tea.Cmd {
	return tea.Tick(refreshEvery, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// -------------------- MODEL HELPER METHODS --------------------
// These methods help with state management and command generation

// addLog adds a log entry with timestamp and type
func (m *model) addLog(logType, message string, keyvals ...interface{}) {
	if m.logger == nil {
		return
	}

	switch logType {
	case "info":
		m.logger.Info(message, keyvals...)
	case "success":
		m.logger.Info("✓ "+message, keyvals...)
	case "error":
		m.logger.Error(message, keyvals...)
	case "warning":
		m.logger.Warn(message, keyvals...)
	case "debug":
		m.logger.Debug(message, keyvals...)
	default:
		m.logger.Print(message, keyvals...)
	}

	m.updateLogViewport()
}

// updateLogViewport refreshes the viewport content with log output
func (m *model) updateLogViewport() {
	if !m.logEnabled || !m.logReady || m.logBuffer == nil {
		return
	}
	m.logViewport.SetContent(m.logBuffer.String())
	m.logViewport.GotoBottom()
}

// textInputActive returns true if any text input is currently active
func (m model) textInputActive() bool {
	return m.form != nil
}

// attachWallet wires the provider, connection state and contract apps to a
// freshly connected endpoint and starts following the wallet's accounts.
func (m *model) attachWallet(client *rpc.Client) tea.Cmd {
	m.detachWallet()

	m.client = client
	m.provider = wallet.NewProvider(wallet.NewRPCBackend(client), wallet.WithLogger(m.logger.WithPrefix("wallet")))
	m.session = session.New(m.provider, m.logger.WithPrefix("session"))
	m.accountCh = make(chan session.Change, 8)
	sub := m.session.Subscribe(m.accountCh)
	m.accountSub = sub.Unsubscribe
	m.buildApps()

	ctx, cancel := context.WithCancel(context.Background())
	m.stopFollow = cancel

	return tea.Batch(
		reconcileAccounts(m.session),
		followAccounts(ctx, m.session, m.cfg.AccountPoll()),
		waitForAccount(m.accountCh),
		m.refreshAll(),
	)
}

// detachWallet stops following the previous endpoint, if any
func (m *model) detachWallet() {
	if m.stopFollow != nil {
		m.stopFollow()
		m.stopFollow = nil
	}
	if m.accountSub != nil {
		m.accountSub()
		m.accountSub = nil
		// Nothing sends after Unsubscribe returns
		close(m.accountCh)
		m.accountCh = nil
	}
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.provider, m.session = nil, nil
	m.registry, m.escrow, m.counter = nil, nil, nil
	m.account, m.connected, m.connecting = common.Address{}, false, false
	m.balanceLoaded = false
}

// buildApps binds every configured contract. A misconfigured contract only
// disables its own page.
func (m *model) buildApps() {
	deps := apps.Deps{
		Provider:       m.provider,
		Session:        m.session,
		Logger:         m.logger,
		ConfirmTimeout: m.cfg.ConfirmTimeout(),
		PollInterval:   m.cfg.PollInterval(),
	}
	m.appErrs = make(map[config.Page]string)

	bind := func(page config.Page, kind string, build func(config.ContractEntry, contract.Descriptor) error) {
		entry, ok := m.cfg.Contract(kind)
		if !ok {
			m.appErrs[page] = "No " + kind + " contract configured."
			return
		}
		desc, err := contract.LoadDescriptor(entry.Name, kind, entry.Address, entry.ABIPath)
		if err == nil {
			err = build(entry, desc)
		}
		if err != nil {
			m.appErrs[page] = err.Error()
			m.addLog("error", "Contract unavailable", "contract", entry.Name, "err", err)
		}
	}

	bind(config.PageRegistry, "registry", func(e config.ContractEntry, d contract.Descriptor) error {
		def := apps.DefaultRegistryMethods
		r, err := apps.NewRegistry(d, deps, apps.RegistryMethods{
			Name:       e.Method("name", def.Name),
			SetName:    e.Method("setName", def.SetName),
			DeleteName: e.Method("deleteName", def.DeleteName),
		})
		m.registry = r
		return err
	})
	bind(config.PageEscrow, "escrow", func(e config.ContractEntry, d contract.Descriptor) error {
		def := apps.DefaultEscrowMethods
		x, err := apps.NewEscrow(d, deps, apps.EscrowMethods{
			Balance:  e.Method("balance", def.Balance),
			Deposit:  e.Method("deposit", def.Deposit),
			Withdraw: e.Method("withdraw", def.Withdraw),
		})
		m.escrow = x
		return err
	})
	bind(config.PageCounter, "counter", func(e config.ContractEntry, d contract.Descriptor) error {
		def := apps.DefaultCounterMethods
		c, err := apps.NewCounter(d, deps, apps.CounterMethods{
			Retrieve: e.Method("retrieve", def.Retrieve),
			Store:    e.Method("store", def.Store),
		})
		m.counter = c
		return err
	})
}

// appFor returns the contract app behind a page
func (m *model) appFor(page config.Page) *apps.App {
	switch page {
	case config.PageRegistry:
		if m.registry != nil {
			return m.registry.App
		}
	case config.PageEscrow:
		if m.escrow != nil {
			return m.escrow.App
		}
	case config.PageCounter:
		if m.counter != nil {
			return m.counter.App
		}
	}
	return nil
}

// refreshAll rereads the fields of every page
func (m *model) refreshAll() tea.Cmd {
	var cmds []tea.Cmd
	if m.registry != nil {
		cmds = append(cmds, refreshPage(config.PageRegistry, m.registry.Refresh))
	}
	if m.escrow != nil {
		cmds = append(cmds, refreshPage(config.PageEscrow, m.escrow.Refresh))
	}
	if m.counter != nil {
		cmds = append(cmds, refreshPage(config.PageCounter, m.counter.Refresh))
	}
	if m.connected && m.client != nil {
		m.loading = true
		cmds = append(cmds, loadBalance(m.client, m.account))
	}
	return tea.Batch(cmds...)
}

// saveConfig persists the current settings
func (m *model) saveConfig() {
	m.cfg.RPCURLs = m.rpcURLs
	m.cfg.Logger = m.logEnabled
	if err := config.Save(m.configPath, m.cfg); err != nil {
		m.addLog("error", "Failed to save config", "err", err)
	}
}
