package apps

import (
	"context"
	"math/big"
	"testing"
	"time"

	"dapp-console/chainerr"
	"dapp-console/contract"
	"dapp-console/contract/abis"
	"dapp-console/internal/ledgertest"
	"dapp-console/lifecycle"
	"dapp-console/session"
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
	counterAt  = common.HexToAddress("0xB7A30D30E70a4cE21769B2D44efff8C367C237D1")
)

type env struct {
	ledger  *ledgertest.Ledger
	session *session.State
	deps    Deps
}

func newEnv(t *testing.T) *env {
	t.Helper()
	l := ledgertest.New(alice, bob)
	p := wallet.NewProvider(l)
	s := session.New(p, nil)
	return &env{
		ledger:  l,
		session: s,
		deps:    Deps{Provider: p, Session: s, PollInterval: time.Millisecond, ConfirmTimeout: time.Second},
	}
}

func (e *env) connect(t *testing.T) {
	t.Helper()
	_, err := e.session.Connect(context.Background())
	require.NoError(t, err)
}

func desc(t *testing.T, name string, addr common.Address, abiJSON string) contract.Descriptor {
	t.Helper()
	d, err := contract.NewDescriptor(name, addr.Hex(), abiJSON)
	require.NoError(t, err)
	return d
}

func TestRegistryConnectAndRead(t *testing.T) {
	e := newEnv(t)
	e.ledger.DeployRegistry(registryAt).Names[alice] = "alice"
	r, err := NewRegistry(desc(t, "registry", registryAt, abis.Registry), e.deps, DefaultRegistryMethods)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok := r.MyName()
	assert.False(t, ok, "no account, no field")
	require.NoError(t, r.Refresh(ctx))
	assert.Equal(t, 0, r.Cache().Len())

	e.connect(t)
	require.NoError(t, r.Refresh(ctx))
	f, ok := r.MyName()
	require.True(t, ok)
	assert.Equal(t, "alice", f.Value)
	assert.Equal(t, "alice", DisplayName(f))
	assert.True(t, r.CanWrite())
}

func TestRegistryLookup(t *testing.T) {
	e := newEnv(t)
	reg := e.ledger.DeployRegistry(registryAt)
	reg.Names[bob] = "bob"
	r, err := NewRegistry(desc(t, "registry", registryAt, abis.Registry), e.deps, DefaultRegistryMethods)
	require.NoError(t, err)
	ctx := context.Background()

	name, err := r.Lookup(ctx, bob.Hex())
	require.NoError(t, err)
	assert.Equal(t, "bob", name)

	name, err = r.Lookup(ctx, alice.Hex())
	require.NoError(t, err)
	assert.Equal(t, "", name)
	target, f, ok := r.LookupField()
	require.True(t, ok)
	assert.Equal(t, alice, target)
	assert.Equal(t, "(none)", DisplayName(f))

	_, err = r.Lookup(ctx, "0x123")
	assert.ErrorIs(t, err, chainerr.ErrInvalidCallShape)
	assert.Equal(t, 2, e.ledger.Reads("name"))
}

func TestRegistrySetAndDeleteName(t *testing.T) {
	e := newEnv(t)
	reg := e.ledger.DeployRegistry(registryAt)
	r, err := NewRegistry(desc(t, "registry", registryAt, abis.Registry), e.deps, DefaultRegistryMethods)
	require.NoError(t, err)
	ctx := context.Background()
	e.connect(t)
	require.NoError(t, r.Refresh(ctx))

	_, err = r.SetName(ctx, "   ")
	assert.ErrorIs(t, err, chainerr.ErrInvalidCallShape)
	assert.Equal(t, lifecycle.Idle, r.Lifecycle().State())

	p, err := r.SetName(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, r.CanWrite())
	e.ledger.Mine(p.Hash)
	p, err = r.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Confirmed, p.Status)
	f, _ := r.MyName()
	assert.Equal(t, "carol", f.Value)
	require.NoError(t, r.Acknowledge())

	e.ledger.AutoMine = true
	_, err = r.DeleteName(ctx)
	require.NoError(t, err)
	_, err = r.Await(ctx)
	require.NoError(t, err)
	f, _ = r.MyName()
	assert.Equal(t, "(none)", DisplayName(f))
	assert.Empty(t, reg.Names)
	require.NoError(t, r.Acknowledge())

	_, err = r.DeleteName(ctx)
	assert.ErrorIs(t, err, chainerr.ErrReverted)
	assert.Equal(t, "no name registered", chainerr.RevertReason(err))
}

func TestWriteWithoutAccount(t *testing.T) {
	e := newEnv(t)
	e.ledger.DeployRegistry(registryAt)
	r, err := NewRegistry(desc(t, "registry", registryAt, abis.Registry), e.deps, DefaultRegistryMethods)
	require.NoError(t, err)

	assert.False(t, r.CanWrite())
	_, err = r.SetName(context.Background(), "dave")
	assert.ErrorIs(t, err, chainerr.ErrNoSigner)
	assert.Equal(t, lifecycle.Idle, r.Lifecycle().State())
	assert.Empty(t, e.ledger.Sent())
}

func TestConfiguredMethodNames(t *testing.T) {
	e := newEnv(t)
	_, err := NewRegistry(desc(t, "registry", registryAt, abis.Registry), e.deps,
		RegistryMethods{Name: "names", SetName: "setName", DeleteName: "DeleteName"})
	assert.ErrorContains(t, err, `"names"`)
}

func TestEscrowDepositAndWithdraw(t *testing.T) {
	e := newEnv(t)
	esc := e.ledger.DeployEscrow(escrowAt)
	e.ledger.AutoMine = true
	x, err := NewEscrow(desc(t, "escrow", escrowAt, abis.Escrow), e.deps, DefaultEscrowMethods)
	require.NoError(t, err)
	ctx := context.Background()
	assert.Equal(t, escrowAt, x.Address())

	require.NoError(t, x.Refresh(ctx))
	wei, ok := x.BalanceWei()
	require.True(t, ok)
	assert.Zero(t, wei.Sign())

	e.connect(t)
	_, err = x.Deposit(ctx, "1.5")
	require.NoError(t, err)
	_, err = x.Await(ctx)
	require.NoError(t, err)
	require.NoError(t, x.Acknowledge())
	assert.Equal(t, "1500000000000000000", esc.Balance.String())
	wei, _ = x.BalanceWei()
	assert.Equal(t, "1500000000000000000", wei.String())

	_, err = x.Withdraw(ctx, bob.Hex(), "0.5")
	require.NoError(t, err)
	_, err = x.Await(ctx)
	require.NoError(t, err)
	require.NoError(t, x.Acknowledge())
	assert.Equal(t, "500000000000000000", esc.Paid[bob].String())

	_, err = x.Withdraw(ctx, bob.Hex(), "2")
	assert.ErrorIs(t, err, chainerr.ErrReverted)
	require.NoError(t, x.Acknowledge())
}

func TestEscrowRejectsBadAmounts(t *testing.T) {
	e := newEnv(t)
	e.ledger.DeployEscrow(escrowAt)
	x, err := NewEscrow(desc(t, "escrow", escrowAt, abis.Escrow), e.deps, DefaultEscrowMethods)
	require.NoError(t, err)
	e.connect(t)
	ctx := context.Background()

	for _, amount := range []string{"", "0", "-1", "abc", "0.0000000000000000001"} {
		_, err := x.Deposit(ctx, amount)
		assert.ErrorIs(t, err, chainerr.ErrInvalidCallShape, "amount %q", amount)
	}
	_, err = x.Withdraw(ctx, "not-an-address", "1")
	assert.ErrorIs(t, err, chainerr.ErrInvalidCallShape)
	assert.Empty(t, e.ledger.Sent())
	assert.Equal(t, lifecycle.Idle, x.Lifecycle().State())
}

func TestCounterIncrement(t *testing.T) {
	e := newEnv(t)
	ctr := e.ledger.DeployCounter(counterAt)
	ctr.Value.SetInt64(41)
	e.ledger.AutoMine = true
	c, err := NewCounter(desc(t, "counter", counterAt, abis.Counter), e.deps, DefaultCounterMethods)
	require.NoError(t, err)
	ctx := context.Background()
	e.connect(t)

	_, err = c.Increment(ctx)
	assert.ErrorIs(t, err, chainerr.ErrInvalidCallShape, "nothing read yet")

	require.NoError(t, c.Refresh(ctx))
	_, err = c.Increment(ctx)
	require.NoError(t, err)

	// the field is stale until confirmation, so a second increment cannot double count
	f, _ := c.Value()
	assert.True(t, f.Stale)

	p, err := c.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Confirmed, p.Status)
	f, _ = c.Value()
	assert.Equal(t, int64(42), f.Value.(*big.Int).Int64())
	require.NoError(t, c.Acknowledge())

	_, err = c.Store(ctx, "7")
	require.NoError(t, err)
	_, err = c.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), ctr.Value.Int64())
	require.NoError(t, c.Acknowledge())

	_, err = c.Store(ctx, "-3")
	assert.ErrorIs(t, err, chainerr.ErrInvalidCallShape)
}

func TestRefreshDueWaitsForPendingWrite(t *testing.T) {
	e := newEnv(t)
	e.ledger.DeployCounter(counterAt).Value.SetInt64(41)
	c, err := NewCounter(desc(t, "counter", counterAt, abis.Counter), e.deps, DefaultCounterMethods)
	require.NoError(t, err)
	ctx := context.Background()
	e.connect(t)
	require.NoError(t, c.Refresh(ctx))

	p, err := c.Increment(ctx)
	require.NoError(t, err)
	reads := e.ledger.Reads("retrieve")

	// a periodic refresh while the write is unconfirmed must not clear the stale mark
	require.NoError(t, c.RefreshDue(ctx))
	f, _ := c.Value()
	assert.True(t, f.Stale)
	assert.Equal(t, reads, e.ledger.Reads("retrieve"))

	e.ledger.Mine(p.Hash)
	_, err = c.Await(ctx)
	require.NoError(t, err)
	f, _ = c.Value()
	assert.False(t, f.Stale)
	assert.Equal(t, int64(42), f.Value.(*big.Int).Int64())

	require.NoError(t, c.Acknowledge())
	c.Cache().Invalidate(c.ValueQuery())
	require.NoError(t, c.RefreshDue(ctx))
	f, _ = c.Value()
	assert.False(t, f.Stale, "idle apps refresh due fields")
}

func TestAccountSwitchKeepsCache(t *testing.T) {
	e := newEnv(t)
	reg := e.ledger.DeployRegistry(registryAt)
	reg.Names[alice] = "alice"
	reg.Names[bob] = "bob"
	r, err := NewRegistry(desc(t, "registry", registryAt, abis.Registry), e.deps, DefaultRegistryMethods)
	require.NoError(t, err)
	ctx := context.Background()
	e.connect(t)
	require.NoError(t, r.Refresh(ctx))

	e.session.Apply([]common.Address{bob})
	require.NoError(t, r.Refresh(ctx))
	f, _ := r.MyName()
	assert.Equal(t, "bob", f.Value)

	e.session.Apply(nil)
	assert.Equal(t, 2, r.Cache().Len())
	prev, ok := r.Cache().Get(r.NameOf(alice))
	require.True(t, ok)
	assert.Equal(t, "alice", prev.Value)
	_, ok = r.MyName()
	assert.False(t, ok)
}
