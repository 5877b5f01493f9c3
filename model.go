package main

import (
	"context"
	"strings"
	"sync"

	"dapp-console/apps"
	"dapp-console/config"
	"dapp-console/rpc"
	"dapp-console/session"
	"dapp-console/styles"
	"dapp-console/views/home"
	"dapp-console/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- MODEL --------------------

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	activePage config.Page
	cfg        config.Config
	configPath string

	spin spinner.Model

	// wallet endpoint
	rpcURL        string
	client        *rpc.Client
	chainID       uint64
	rpcConnected  bool
	rpcConnecting bool

	// connection state
	provider      *wallet.Provider
	session       *session.State
	accountCh     chan session.Change
	accountSub    func()
	stopFollow    context.CancelFunc
	account       common.Address
	connected     bool
	connecting    bool
	balance       rpc.AccountDetails
	balanceLoaded bool
	loading       bool

	// contract apps, nil until the endpoint is up or when misconfigured
	registry *apps.Registry
	escrow   *apps.Escrow
	counter  *apps.Counter
	appErrs  map[config.Page]string

	// page forms
	homeForm *huh.Form
	form     *huh.Form
	formKind string // "setName", "lookup", "deposit", "withdraw", "store", "addRPC", "editRPC"

	// settings state
	settingsMode   string // "list", "add", "edit"
	rpcURLs        []config.RPCUrl
	selectedRPCIdx int

	// delete confirmation dialog, for the registry name or an endpoint
	showDeleteDialog        bool
	deleteDialogYesSelected bool
	deleteDialogKind        string // "name", "rpc"
	deleteRPCDialogIdx      int

	// escrow funding QR
	showQR bool

	// clipboard feedback
	copiedMsg string

	// last failure that did not reach a lifecycle record
	notice string

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *logBuffer
	logViewport viewport.Model
	logReady    bool
	logSpinner  spinner.Model
}

// logBuffer is the logger sink. Core packages log from command goroutines,
// so writes are serialized.
type logBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

func (b *logBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sb.Reset()
}

// -------------------- INIT --------------------

// newModel creates and initializes a new model with configuration from disk
func newModel() model {
	configPath := config.Path()
	cfg := config.LoadOrCreate(configPath)

	// spinner
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	// Initialize log viewport
	vp := viewport.New(0, 20) // Will be resized in Update on first WindowSizeMsg
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	// Initialize log spinner
	logSpin := spinner.New()
	logSpin.Spinner = spinner.Dot
	logSpin.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	buf := &logBuffer{}

	return model{
		rpcConnecting: cfg.ActiveRPC() != "",
		activePage:    config.PageHome,
		cfg:           cfg,
		configPath:    configPath,
		spin:          sp,
		rpcURL:        cfg.ActiveRPC(),
		rpcURLs:       cfg.RPCURLs,
		settingsMode:  "list",
		homeForm:      home.CreateForm(),
		appErrs:       make(map[config.Page]string),
		logEnabled:    cfg.Logger,
		logger:        newLogger(buf),
		logBuffer:     buf,
		logViewport:   vp,
		logSpinner:    logSpin,
	}
}

// newLogger builds the logger shared by the UI and the core packages
func newLogger(buf *logBuffer) *log.Logger {
	logger := log.NewWithOptions(buf, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           log.DebugLevel,
	})
	logger.SetStyles(&log.Styles{
		Timestamp: lipgloss.NewStyle().Foreground(styles.CMuted),
		Caller:    lipgloss.NewStyle().Faint(true),
		Prefix:    lipgloss.NewStyle().Bold(true).Foreground(styles.CAccent2),
		Message:   lipgloss.NewStyle().Foreground(styles.CText),
		Key:       lipgloss.NewStyle().Foreground(styles.CAccent),
		Value:     lipgloss.NewStyle().Foreground(styles.CText),
		Separator: lipgloss.NewStyle().Faint(true),
		Levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: lipgloss.NewStyle().Foreground(styles.CMuted).SetString("DEBUG"),
			log.InfoLevel:  lipgloss.NewStyle().Foreground(styles.CAccent2).SetString("INFO"),
			log.WarnLevel:  lipgloss.NewStyle().Foreground(styles.CWarn).SetString("WARN"),
			log.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).SetString("ERROR"),
		},
	})
	return logger
}

// Init implements tea.Model interface and returns initial commands
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, scheduleTick()}
	if m.logEnabled {
		cmds = append(cmds, initLogViewport(), m.logSpinner.Tick)
	}
	// connect if rpc is set
	if m.rpcURL != "" {
		cmds = append(cmds, connectRPC(m.rpcURL))
	}
	return tea.Batch(cmds...)
}
