// Package apps binds the generic read cache and transaction lifecycle to the
// three contract shapes the console drives: a name registry, a payable escrow
// and a counter. Each app owns exactly one cache and one lifecycle.
package apps

import (
	"context"
	"fmt"
	"io"
	"time"

	"dapp-console/cache"
	"dapp-console/chainerr"
	"dapp-console/contract"
	"dapp-console/lifecycle"
	"dapp-console/session"
	"dapp-console/wallet"

	"github.com/charmbracelet/log"
)

// Deps are the collaborators shared by every app
type Deps struct {
	Provider       *wallet.Provider
	Session        *session.State
	Logger         *log.Logger
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// App is the state common to every contract UI
type App struct {
	desc    contract.Descriptor
	read    *contract.ReadBinding
	cache   *cache.Cache
	lc      *lifecycle.Lifecycle
	session *session.State
	logger  *log.Logger
}

func newApp(desc contract.Descriptor, deps Deps, methods ...string) (*App, error) {
	for _, m := range methods {
		if _, ok := desc.Method(m); !ok {
			return nil, fmt.Errorf("%s: abi has no method %q", desc.Name, m)
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix(desc.Name)

	rb, err := contract.BindRead(desc, deps.Provider)
	if err != nil {
		return nil, err
	}
	a := &App{
		desc:    desc,
		read:    rb,
		cache:   cache.New(rb, cache.WithLogger(logger)),
		session: deps.Session,
		logger:  logger,
	}

	writeOpts := []contract.WriteOption{contract.WithLogger(logger)}
	if deps.PollInterval > 0 {
		writeOpts = append(writeOpts, contract.WithPollInterval(deps.PollInterval))
	}
	signer := func(ctx context.Context) (lifecycle.Writer, error) {
		account, ok := deps.Session.Account()
		if !ok {
			return nil, chainerr.New(chainerr.NoSignerAvailable, "write", "not connected")
		}
		return contract.BindWrite(ctx, desc, deps.Provider, account, writeOpts...)
	}

	lcOpts := []lifecycle.Option{lifecycle.WithLogger(logger)}
	if deps.ConfirmTimeout > 0 {
		lcOpts = append(lcOpts, lifecycle.WithConfirmTimeout(deps.ConfirmTimeout))
	}
	a.lc = lifecycle.New(signer, a.cache, lcOpts...)
	return a, nil
}

// Descriptor returns the bound contract
func (a *App) Descriptor() contract.Descriptor { return a.desc }

// Cache exposes the app's read cache
func (a *App) Cache() *cache.Cache { return a.cache }

// Lifecycle exposes the app's write lifecycle
func (a *App) Lifecycle() *lifecycle.Lifecycle { return a.lc }

// CanWrite reports whether a write could be started now
func (a *App) CanWrite() bool {
	_, connected := a.session.Account()
	return connected && a.lc.State() == lifecycle.Idle
}

// RefreshDue rereads stale fields unless a write is in flight. Fields affected
// by a pending write stay stale until it settles.
func (a *App) RefreshDue(ctx context.Context) error {
	if a.lc.Busy() {
		return nil
	}
	return a.cache.RefreshDue(ctx)
}

// Await blocks until the pending write settles
func (a *App) Await(ctx context.Context) (lifecycle.Pending, error) {
	return a.lc.Await(ctx)
}

// Acknowledge re-arms the lifecycle after a settled write
func (a *App) Acknowledge() error {
	return a.lc.Acknowledge()
}

func (a *App) refresh(ctx context.Context, queries ...cache.Query) error {
	var first error
	for _, q := range queries {
		if err := a.cache.Refresh(ctx, q); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func invalidShape(reason string) error {
	return chainerr.New(chainerr.InvalidCallShape, "write", reason)
}
