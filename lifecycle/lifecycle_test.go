package lifecycle

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"dapp-console/cache"
	"dapp-console/chainerr"
	"dapp-console/contract"
	"dapp-console/contract/abis"
	"dapp-console/internal/ledgertest"
	"dapp-console/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice      = common.HexToAddress("0xABCD00000000000000000000000000000000D234")
	bob        = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	registryAt = common.HexToAddress("0xB3db8F37Dd2e10274eA24275c0686139bF0F9F82")
	escrowAt   = common.HexToAddress("0x2dFb0fC8839CC1A62c8bc26EfccfF32c8F9bB609")
)

type harness struct {
	ledger *ledgertest.Ledger
	desc   contract.Descriptor
	read   *contract.ReadBinding
	cache  *cache.Cache
	lc     *Lifecycle
}

func newHarness(t *testing.T, addr common.Address, abiJSON string, opts ...Option) *harness {
	t.Helper()
	l := ledgertest.New(alice)
	l.Authorize()
	p := wallet.NewProvider(l)
	d, err := contract.NewDescriptor("test", addr.Hex(), abiJSON)
	require.NoError(t, err)
	rb, err := contract.BindRead(d, p)
	require.NoError(t, err)
	c := cache.New(rb)
	signer := func(ctx context.Context) (Writer, error) {
		return contract.BindWrite(ctx, d, p, alice, contract.WithPollInterval(time.Millisecond))
	}
	return &harness{ledger: l, desc: d, read: rb, cache: c, lc: New(signer, c, opts...)}
}

func TestSetNameConfirmsAndRefreshes(t *testing.T) {
	h := newHarness(t, registryAt, abis.Registry)
	h.ledger.DeployRegistry(registryAt).Names[alice] = "alice"
	ctx := context.Background()
	field := cache.Q("name", alice)
	require.NoError(t, h.cache.Refresh(ctx, field))

	p, err := h.lc.Submit(ctx, Call{Method: "setName", Args: []interface{}{"bob"}, Affects: []cache.Query{field}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.ID)
	assert.Equal(t, Submitted, p.Status)
	assert.Equal(t, AwaitingConfirmation, h.lc.State())

	// stale immediately, value untouched until confirmation
	f, _ := h.cache.Get(field)
	assert.True(t, f.Stale)
	assert.Equal(t, "alice", f.Value)

	h.ledger.Mine(p.Hash)
	p, err = h.lc.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, Confirmed, p.Status)
	assert.Equal(t, Settled, h.lc.State())

	f, _ = h.cache.Get(field)
	assert.False(t, f.Stale)
	assert.Equal(t, "bob", f.Value)

	require.NoError(t, h.lc.Acknowledge())
	assert.Equal(t, Idle, h.lc.State())
}

func TestWithdrawRevertedInSimulation(t *testing.T) {
	h := newHarness(t, escrowAt, abis.Escrow)
	h.ledger.DeployEscrow(escrowAt).Balance.SetInt64(100)
	ctx := context.Background()
	balance := cache.Q("balance")
	require.NoError(t, h.cache.Refresh(ctx, balance))

	p, err := h.lc.Submit(ctx, Call{
		Method:  "withdraw",
		Args:    []interface{}{bob, big.NewInt(500)},
		Affects: []cache.Query{balance},
	})
	var ce *chainerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, chainerr.Reverted, ce.Kind)
	assert.Equal(t, "insufficient balance", ce.Reason)
	assert.Equal(t, Failed, p.Status)
	assert.Equal(t, Settled, h.lc.State())

	f, _ := h.cache.Get(balance)
	assert.False(t, f.Stale, "nothing was broadcast")
	assert.Empty(t, h.ledger.Sent())

	// a settled failure reports itself again on Await
	_, err = h.lc.Await(ctx)
	assert.ErrorIs(t, err, chainerr.ErrReverted)
}

func TestSubmitRejectedWhileAwaiting(t *testing.T) {
	h := newHarness(t, escrowAt, abis.Escrow)
	h.ledger.DeployEscrow(escrowAt)
	ctx := context.Background()

	first, err := h.lc.Submit(ctx, Call{Method: "deposit", Value: big.NewInt(10)})
	require.NoError(t, err)

	_, err = h.lc.Submit(ctx, Call{Method: "deposit", Value: big.NewInt(20)})
	assert.ErrorIs(t, err, chainerr.ErrAlreadyPending)

	cur, ok := h.lc.Current()
	require.True(t, ok)
	assert.Equal(t, first.ID, cur.ID)
	assert.Equal(t, first.Hash, cur.Hash)
	assert.Equal(t, Submitted, cur.Status)
	assert.Len(t, h.ledger.Sent(), 1)

	assert.ErrorIs(t, h.lc.Acknowledge(), chainerr.ErrAlreadyPending)
}

func TestSubmitRejectedWhileSubmitting(t *testing.T) {
	l := ledgertest.New(alice)
	l.Authorize()
	l.DeployEscrow(escrowAt)
	p := wallet.NewProvider(l)
	d, err := contract.NewDescriptor("escrow", escrowAt.Hex(), abis.Escrow)
	require.NoError(t, err)
	rb, err := contract.BindRead(d, p)
	require.NoError(t, err)

	entered := make(chan struct{})
	approve := make(chan struct{})
	signer := func(ctx context.Context) (Writer, error) {
		close(entered)
		<-approve // human looking at the wallet prompt
		return contract.BindWrite(ctx, d, p, alice)
	}
	lc := New(signer, cache.New(rb))

	done := make(chan error, 1)
	go func() {
		_, err := lc.Submit(context.Background(), Call{Method: "deposit", Value: big.NewInt(1)})
		done <- err
	}()
	<-entered
	assert.Equal(t, Submitting, lc.State())
	assert.True(t, lc.Busy())

	_, err = lc.Submit(context.Background(), Call{Method: "deposit", Value: big.NewInt(2)})
	assert.ErrorIs(t, err, chainerr.ErrAlreadyPending)

	close(approve)
	require.NoError(t, <-done)
	assert.Equal(t, AwaitingConfirmation, lc.State())
	assert.Len(t, l.Sent(), 1)
}

func TestPreflightFailuresStayIdle(t *testing.T) {
	h := newHarness(t, escrowAt, abis.Escrow)
	h.ledger.DeployEscrow(escrowAt)
	ctx := context.Background()

	_, err := h.lc.Submit(ctx, Call{Method: "deposit"}) // payable without value
	assert.ErrorIs(t, err, chainerr.ErrInvalidCallShape)
	assert.Equal(t, Idle, h.lc.State())

	noSigner := New(func(context.Context) (Writer, error) {
		return nil, chainerr.New(chainerr.NoSignerAvailable, "", "not connected")
	}, h.cache)
	_, err = noSigner.Submit(ctx, Call{Method: "deposit", Value: big.NewInt(1)})
	assert.ErrorIs(t, err, chainerr.ErrNoSigner)
	assert.Equal(t, Idle, noSigner.State())
	_, ok := noSigner.Current()
	assert.False(t, ok)
}

func TestUserRejectionSettlesFailedAndRearms(t *testing.T) {
	h := newHarness(t, escrowAt, abis.Escrow)
	h.ledger.DeployEscrow(escrowAt)
	h.ledger.RejectRequests(true)
	ctx := context.Background()

	p, err := h.lc.Submit(ctx, Call{Method: "deposit", Value: big.NewInt(1)})
	assert.ErrorIs(t, err, chainerr.ErrUserRejected)
	assert.Equal(t, Failed, p.Status)
	assert.True(t, err.(*chainerr.Error).Retryable())

	require.NoError(t, h.lc.Acknowledge())
	h.ledger.RejectRequests(false)
	h.ledger.AutoMine = true
	p, err = h.lc.Run(ctx, Call{Method: "deposit", Value: big.NewInt(1)})
	require.NoError(t, err)
	assert.Equal(t, Confirmed, p.Status)
	assert.Equal(t, uint64(2), p.ID, "ids are monotonic and never reused")
}

func TestConfirmationTimeoutIsAmbiguous(t *testing.T) {
	h := newHarness(t, escrowAt, abis.Escrow, WithConfirmTimeout(20*time.Millisecond))
	esc := h.ledger.DeployEscrow(escrowAt)
	ctx := context.Background()
	balance := cache.Q("balance")

	p, err := h.lc.Run(ctx, Call{Method: "deposit", Value: big.NewInt(9), Affects: []cache.Query{balance}})
	var ce *chainerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, chainerr.ConfirmationTimeout, ce.Kind)
	assert.True(t, ce.Ambiguous())
	assert.Equal(t, Failed, p.Status)
	assert.Equal(t, Settled, h.lc.State())

	// the write still lands later; the local outcome does not change
	h.ledger.MineAll()
	assert.Equal(t, int64(9), esc.Balance.Int64())
	cur, _ := h.lc.Current()
	assert.Equal(t, Failed, cur.Status)

	f, _ := h.cache.Get(balance)
	assert.True(t, f.Stale)
}

type orderedReader struct {
	mu     sync.Mutex
	inner  cache.Reader
	lc     *Lifecycle
	states []State
}

func (r *orderedReader) Call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	if r.lc != nil {
		r.mu.Lock()
		r.states = append(r.states, r.lc.State())
		r.mu.Unlock()
	}
	return r.inner.Call(ctx, method, args...)
}

func TestRefreshRunsAfterSettlement(t *testing.T) {
	l := ledgertest.New(alice)
	l.Authorize()
	l.AutoMine = true
	l.DeployEscrow(escrowAt)
	p := wallet.NewProvider(l)
	d, err := contract.NewDescriptor("escrow", escrowAt.Hex(), abis.Escrow)
	require.NoError(t, err)
	rb, err := contract.BindRead(d, p)
	require.NoError(t, err)

	reader := &orderedReader{inner: rb}
	c := cache.New(reader)
	lc := New(func(ctx context.Context) (Writer, error) {
		return contract.BindWrite(ctx, d, p, alice, contract.WithPollInterval(time.Millisecond))
	}, c)
	reader.lc = lc

	_, err = lc.Run(context.Background(), Call{Method: "deposit", Value: big.NewInt(3), Affects: []cache.Query{cache.Q("balance")}})
	require.NoError(t, err)
	assert.Equal(t, []State{Settled}, reader.states)

	f, _ := c.Get(cache.Q("balance"))
	assert.Equal(t, 0, big.NewInt(3).Cmp(f.Value.(*big.Int)))
}

// stalledReader hangs every read made after the write settles until its context ends
type stalledReader struct {
	inner cache.Reader
	lc    *Lifecycle
}

func (r *stalledReader) Call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	if r.lc != nil && r.lc.State() == Settled {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.inner.Call(ctx, method, args...)
}

func TestStalledRefreshDoesNotHoldSettledWrite(t *testing.T) {
	l := ledgertest.New(alice)
	l.Authorize()
	l.AutoMine = true
	l.DeployEscrow(escrowAt)
	p := wallet.NewProvider(l)
	d, err := contract.NewDescriptor("escrow", escrowAt.Hex(), abis.Escrow)
	require.NoError(t, err)
	rb, err := contract.BindRead(d, p)
	require.NoError(t, err)

	reader := &stalledReader{inner: rb}
	c := cache.New(reader)
	lc := New(func(ctx context.Context) (Writer, error) {
		return contract.BindWrite(ctx, d, p, alice, contract.WithPollInterval(time.Millisecond))
	}, c, WithRefreshTimeout(20*time.Millisecond))
	reader.lc = lc
	balance := cache.Q("balance")
	require.NoError(t, c.Refresh(context.Background(), balance))

	done := make(chan error, 1)
	go func() {
		_, err := lc.Run(context.Background(), Call{Method: "deposit", Value: big.NewInt(3), Affects: []cache.Query{balance}})
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("settled write held by a stalled refresh")
	}

	assert.Equal(t, Settled, lc.State())
	f, _ := c.Get(balance)
	assert.True(t, f.Stale)
	assert.ErrorIs(t, f.Err, context.DeadlineExceeded)
}

func TestAwaitWithoutSubmission(t *testing.T) {
	h := newHarness(t, escrowAt, abis.Escrow)
	_, err := h.lc.Await(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, chainerr.ErrAlreadyPending))
	assert.Equal(t, chainerr.InvalidCallShape, chainerr.KindOf(err))
	assert.NoError(t, h.lc.Acknowledge(), "idle acknowledge is a no-op")
}
