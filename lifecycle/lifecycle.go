// Package lifecycle drives one write call at a time from submission to settlement.
//
//	Idle -> Submitting -> AwaitingConfirmation -> Settled(Confirmed|Failed) -> Idle
//
// A second Submit while a call is in progress is rejected with AlreadyPending.
// Settled is left only through Acknowledge, so a retry is always deliberate.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"slices"
	"sync"
	"time"

	"dapp-console/cache"
	"dapp-console/chainerr"
	"dapp-console/contract"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// DefaultConfirmTimeout bounds the local wait for finality
	DefaultConfirmTimeout = 2 * time.Minute
	// DefaultRefreshTimeout bounds each post-confirmation reread
	DefaultRefreshTimeout = 15 * time.Second
)

// State of the lifecycle
type State int

const (
	Idle State = iota
	Submitting
	AwaitingConfirmation
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case AwaitingConfirmation:
		return "awaiting confirmation"
	case Settled:
		return "settled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Status of a pending transaction record
type Status int

const (
	Submitted Status = iota
	Confirmed
	Failed
)

func (s Status) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Call is one parameterized write: the method, its arguments, the attached
// native value for payable methods, and the fields it is declared to affect.
type Call struct {
	Method  string
	Args    []interface{}
	Value   *big.Int
	Affects []cache.Query
}

// Pending records one submission. Terminal once Confirmed or Failed; never reused.
type Pending struct {
	ID          uint64
	Method      string
	Args        []interface{}
	Value       *big.Int
	SubmittedAt time.Time
	SettledAt   time.Time
	Hash        common.Hash
	Status      Status
	Err         error
}

func (p Pending) clone() Pending {
	p.Args = slices.Clone(p.Args)
	if p.Value != nil {
		p.Value = new(big.Int).Set(p.Value)
	}
	return p
}

// Writer broadcasts a state-changing call
type Writer interface {
	Call(ctx context.Context, method string, value *big.Int, args ...interface{}) (*contract.Transaction, error)
}

// Signer resolves the writer for the currently connected account
type Signer func(ctx context.Context) (Writer, error)

// Lifecycle serializes writes against one contract binding
type Lifecycle struct {
	signer  Signer
	cache   *cache.Cache
	timeout time.Duration
	reread  time.Duration
	logger  *log.Logger
	now     func() time.Time

	mu       sync.Mutex
	state    State
	nextID   uint64
	current  *Pending
	tx       *contract.Transaction
	affects  []cache.Query
	awaiting bool
}

// Option configures a Lifecycle
type Option func(*Lifecycle)

// WithConfirmTimeout bounds Await; zero disables the bound
func WithConfirmTimeout(d time.Duration) Option {
	return func(l *Lifecycle) { l.timeout = d }
}

// WithRefreshTimeout bounds each post-confirmation field refresh
func WithRefreshTimeout(d time.Duration) Option {
	return func(l *Lifecycle) { l.reread = d }
}

// WithLogger routes transitions to logger
func WithLogger(logger *log.Logger) Option {
	return func(l *Lifecycle) { l.logger = logger }
}

// New returns an idle lifecycle writing through signer and refreshing c
func New(signer Signer, c *cache.Cache, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		signer:  signer,
		cache:   c,
		timeout: DefaultConfirmTimeout,
		reread:  DefaultRefreshTimeout,
		logger:  log.New(io.Discard),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current state
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Current returns the most recent transaction record, if any
func (l *Lifecycle) Current() (Pending, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return Pending{}, false
	}
	return l.current.clone(), true
}

// Busy reports whether a call is being submitted or awaited
func (l *Lifecycle) Busy() bool {
	s := l.State()
	return s == Submitting || s == AwaitingConfirmation
}

// Submit broadcasts call. It returns once the ledger accepted the broadcast, at
// which point every affected field is already marked stale. Cancelling ctx only
// has an effect before the broadcast is accepted.
//
// Failures detected before anything reaches the wallet (no signer, malformed
// call) leave the lifecycle Idle. Failures of the broadcast itself settle it as
// Failed.
func (l *Lifecycle) Submit(ctx context.Context, call Call) (Pending, error) {
	l.mu.Lock()
	if l.state != Idle {
		state := l.state
		l.mu.Unlock()
		l.logger.Warn("submit rejected", "method", call.Method, "state", state)
		return Pending{}, chainerr.New(chainerr.AlreadyPending, "write", state.String())
	}
	l.state = Submitting
	l.mu.Unlock()

	l.logger.Debug("submitting", "method", call.Method)

	w, err := l.signer(ctx)
	if err != nil {
		l.rearm()
		return Pending{}, chainerr.Normalize("write", err)
	}

	tx, err := w.Call(ctx, call.Method, call.Value, call.Args...)
	if err != nil {
		err = chainerr.Normalize("write", err)
		if chainerr.KindOf(err) == chainerr.InvalidCallShape {
			l.rearm()
			return Pending{}, err
		}
		return l.settleRejected(call, err), err
	}

	l.mu.Lock()
	l.nextID++
	p := (&Pending{
		ID:          l.nextID,
		Method:      call.Method,
		Args:        call.Args,
		Value:       call.Value,
		SubmittedAt: l.now(),
		Hash:        tx.Hash,
		Status:      Submitted,
	}).clone()
	l.current = &p
	l.tx = tx
	l.affects = slices.Clone(call.Affects)
	l.state = AwaitingConfirmation
	for _, q := range call.Affects {
		l.cache.Invalidate(q)
	}
	out := p.clone()
	l.mu.Unlock()

	l.logger.Info("broadcast accepted", "method", call.Method, "tx", tx.Hash.Hex(), "id", out.ID)
	return out, nil
}

func (l *Lifecycle) rearm() {
	l.mu.Lock()
	l.state = Idle
	l.mu.Unlock()
}

func (l *Lifecycle) settleRejected(call Call, err error) Pending {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	now := l.now()
	p := (&Pending{
		ID:          l.nextID,
		Method:      call.Method,
		Args:        call.Args,
		Value:       call.Value,
		SubmittedAt: now,
		SettledAt:   now,
		Status:      Failed,
		Err:         err,
	}).clone()
	l.current = &p
	l.tx = nil
	l.affects = nil
	l.state = Settled
	l.logger.Error("broadcast rejected", "method", call.Method, "err", err)
	return l.current.clone()
}

// Await blocks until the broadcast transaction settles. On confirmation every
// affected field is refreshed, strictly after the Settled transition. A timed
// out wait settles as Failed with ConfirmationTimeout even though the write may
// still land.
func (l *Lifecycle) Await(ctx context.Context) (Pending, error) {
	l.mu.Lock()
	switch {
	case l.state == Settled && l.current != nil:
		out := l.current.clone()
		l.mu.Unlock()
		return out, out.Err
	case l.state != AwaitingConfirmation:
		state := l.state
		l.mu.Unlock()
		return Pending{}, chainerr.New(chainerr.InvalidCallShape, "wait", "nothing to await in state "+state.String())
	case l.awaiting:
		l.mu.Unlock()
		return Pending{}, chainerr.New(chainerr.AlreadyPending, "wait", "already awaiting")
	}
	l.awaiting = true
	tx := l.tx
	affects := l.affects
	l.mu.Unlock()

	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	_, err := tx.Wait(waitCtx)
	err = chainerr.Normalize("wait", err)

	l.mu.Lock()
	l.awaiting = false
	l.current.SettledAt = l.now()
	if err != nil {
		l.current.Status = Failed
		l.current.Err = err
	} else {
		l.current.Status = Confirmed
	}
	l.state = Settled
	l.tx = nil
	out := l.current.clone()
	l.mu.Unlock()

	if err != nil {
		l.logger.Error("transaction failed", "method", out.Method, "tx", out.Hash.Hex(), "err", err)
		return out, err
	}
	l.logger.Info("transaction confirmed", "method", out.Method, "tx", out.Hash.Hex())

	for _, q := range affects {
		// forces a fresh read even if a pre-confirmation refresh is still in flight
		l.cache.Invalidate(q)
		if rerr := l.refresh(ctx, q); rerr != nil {
			l.logger.Warn("post-confirmation refresh failed", "field", q.Key(), "err", rerr)
		}
	}
	return out, nil
}

// refresh rereads q, giving up after the refresh timeout so a stalled read
// cannot hold a settled write
func (l *Lifecycle) refresh(ctx context.Context, q cache.Query) error {
	if l.reread > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.reread)
		defer cancel()
	}
	return l.cache.Refresh(ctx, q)
}

// Run submits call and awaits its settlement
func (l *Lifecycle) Run(ctx context.Context, call Call) (Pending, error) {
	if p, err := l.Submit(ctx, call); err != nil {
		return p, err
	}
	return l.Await(ctx)
}

// Acknowledge re-arms a settled lifecycle for the next call. Acknowledging an idle
// lifecycle is a no-op; a call still in progress cannot be acknowledged.
func (l *Lifecycle) Acknowledge() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case Idle:
		return nil
	case Settled:
		l.state = Idle
		l.affects = nil
		return nil
	default:
		return chainerr.New(chainerr.AlreadyPending, "acknowledge", l.state.String())
	}
}
