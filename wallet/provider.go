package wallet

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"dapp-console/chainerr"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// DefaultPollInterval is how often Watch asks the backend for its account set
const DefaultPollInterval = 2 * time.Second

// Provider is the handle on the host wallet transport. It knows nothing about contracts.
type Provider struct {
	backend Backend
	logger  *log.Logger

	feed event.Feed

	mu   sync.Mutex
	last []common.Address
}

// Option configures a Provider
type Option func(*Provider)

// WithLogger routes provider diagnostics to l
func WithLogger(l *log.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider wraps backend. A nil backend yields a provider that is not available.
func NewProvider(backend Backend, opts ...Option) *Provider {
	p := &Provider{
		backend: backend,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsAvailable reports whether a transport is present
func (p *Provider) IsAvailable() bool {
	return p != nil && p.backend != nil
}

// Backend exposes the transport for contract bindings
func (p *Provider) Backend() Backend {
	if p == nil {
		return nil
	}
	return p.backend
}

// RequestAccounts asks the wallet to authorize accounts. This may block on a human
// approval prompt; cancel ctx to abandon it.
func (p *Provider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if !p.IsAvailable() {
		return nil, chainerr.New(chainerr.WalletUnavailable, "connect", "")
	}
	accounts, err := p.backend.RequestAccounts(ctx)
	if err != nil {
		return nil, chainerr.Normalize("connect", err)
	}
	if len(accounts) == 0 {
		// An empty grant is how some wallets express a declined prompt
		return nil, chainerr.New(chainerr.UserRejected, "connect", "no accounts granted")
	}
	p.remember(accounts)
	return accounts, nil
}

// CurrentAccounts returns the already authorized accounts without prompting.
// Empty when never authorized.
func (p *Provider) CurrentAccounts(ctx context.Context) ([]common.Address, error) {
	if !p.IsAvailable() {
		return nil, chainerr.New(chainerr.WalletUnavailable, "accounts", "")
	}
	accounts, err := p.backend.Accounts(ctx)
	if err != nil {
		return nil, chainerr.Normalize("accounts", err)
	}
	return accounts, nil
}

// SubscribeAccounts registers ch for account set changes. Unsubscribe revokes it.
func (p *Provider) SubscribeAccounts(ch chan<- []common.Address) event.Subscription {
	return p.feed.Subscribe(ch)
}

// Watch polls the backend until ctx is done and publishes every change of the
// account set to subscribers.
func (p *Provider) Watch(ctx context.Context, interval time.Duration) error {
	if !p.IsAvailable() {
		return chainerr.New(chainerr.WalletUnavailable, "watch", "")
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll performs one account check and reports whether the set changed
func (p *Provider) Poll(ctx context.Context) bool {
	accounts, err := p.CurrentAccounts(ctx)
	if err != nil {
		p.logger.Debug("account poll failed", "err", err)
		return false
	}
	if !p.remember(accounts) {
		return false
	}
	p.logger.Info("wallet accounts changed", "count", len(accounts))
	p.feed.Send(slices.Clone(accounts))
	return true
}

// remember stores accounts as the last seen set and reports whether it differs
func (p *Provider) remember(accounts []common.Address) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if slices.Equal(p.last, accounts) {
		return false
	}
	p.last = slices.Clone(accounts)
	return true
}
