package session

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"dapp-console/wallet"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// Change describes a transition of the active account
type Change struct {
	Account   common.Address
	Connected bool
}

// State is the record of the currently authorized account. It is rebuilt from
// the provider on connect and whenever the wallet reports a new account set;
// clearing it never touches cached contract values.
type State struct {
	provider *wallet.Provider
	logger   *log.Logger

	feed event.Feed

	mu        sync.Mutex
	account   common.Address
	connected bool
}

// New returns a disconnected state bound to provider
func New(provider *wallet.Provider, logger *log.Logger) *State {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &State{provider: provider, logger: logger}
}

// Account returns the active account and whether one is connected
func (s *State) Account() (common.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account, s.connected
}

// Subscribe registers ch for account transitions
func (s *State) Subscribe(ch chan<- Change) event.Subscription {
	return s.feed.Subscribe(ch)
}

// Connect asks the wallet for accounts and adopts the first one
func (s *State) Connect(ctx context.Context) (common.Address, error) {
	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		s.logger.Warn("connect failed", "err", err)
		return common.Address{}, err
	}
	s.Apply(accounts)
	return accounts[0], nil
}

// Reconcile resyncs from the wallet without prompting
func (s *State) Reconcile(ctx context.Context) error {
	accounts, err := s.provider.CurrentAccounts(ctx)
	if err != nil {
		return err
	}
	s.Apply(accounts)
	return nil
}

// Apply rebuilds the state from an account set: the first entry becomes active,
// an empty set disconnects.
func (s *State) Apply(accounts []common.Address) {
	next := Change{}
	if len(accounts) > 0 {
		next = Change{Account: accounts[0], Connected: true}
	}

	s.mu.Lock()
	changed := next.Connected != s.connected || next.Account != s.account
	s.account, s.connected = next.Account, next.Connected
	s.mu.Unlock()

	if !changed {
		return
	}
	if next.Connected {
		s.logger.Info("account active", "account", next.Account.Hex())
	} else {
		s.logger.Info("disconnected")
	}
	s.feed.Send(next)
}

// Follow applies every account set the provider publishes until ctx is done.
// Polling runs alongside at interval.
func (s *State) Follow(ctx context.Context, interval time.Duration) error {
	ch := make(chan []common.Address, 1)
	sub := s.provider.SubscribeAccounts(ch)
	defer sub.Unsubscribe()

	errc := make(chan error, 1)
	go func() { errc <- s.provider.Watch(ctx, interval) }()

	for {
		select {
		case accounts := <-ch:
			s.Apply(slices.Clone(accounts))
		case err := <-sub.Err():
			return err
		case err := <-errc:
			return err
		}
	}
}
