package contract

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"dapp-console/chainerr"
	"dapp-console/contract/abis"
	"dapp-console/internal/ledgertest"
	"dapp-console/rpc"
	"dapp-console/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice       = common.HexToAddress("0xABCD00000000000000000000000000000000D234")
	bob         = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	registryAt  = common.HexToAddress("0xB3db8F37Dd2e10274eA24275c0686139bF0F9F82")
	escrowAt    = common.HexToAddress("0x2dFb0fC8839CC1A62c8bc26EfccfF32c8F9bB609")
	counterAt   = common.HexToAddress("0xB7A30D30E70a4cE21769B2D44efff8C367C237D1")
	nowhereAt   = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	testTimeout = 5 * time.Second
)

func descriptor(t *testing.T, name string, addr common.Address, abiJSON string) Descriptor {
	t.Helper()
	d, err := NewDescriptor(name, addr.Hex(), abiJSON)
	require.NoError(t, err)
	return d
}

// backends runs fn against the ledger directly and through the JSON-RPC wallet backend
func backends(t *testing.T, fn func(t *testing.T, l *ledgertest.Ledger, p *wallet.Provider)) {
	t.Run("direct", func(t *testing.T) {
		l := ledgertest.New(alice)
		fn(t, l, wallet.NewProvider(l))
	})
	t.Run("json-rpc", func(t *testing.T) {
		l := ledgertest.New(alice)
		client := rpc.NewClient(ledgertest.Dial(l), "inproc")
		t.Cleanup(client.Close)
		fn(t, l, wallet.NewProvider(wallet.NewRPCBackend(client)))
	})
}

func TestReadBinding(t *testing.T) {
	backends(t, func(t *testing.T, l *ledgertest.Ledger, p *wallet.Provider) {
		reg := l.DeployRegistry(registryAt)
		reg.Names[alice] = "alice"
		esc := l.DeployEscrow(escrowAt)
		esc.Balance.SetInt64(1500)

		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		rb, err := BindRead(descriptor(t, "registry", registryAt, abis.Registry), p)
		require.NoError(t, err)
		name, err := rb.Call(ctx, "name", alice)
		require.NoError(t, err)
		assert.Equal(t, "alice", name)

		eb, err := BindRead(descriptor(t, "escrow", escrowAt, abis.Escrow), p)
		require.NoError(t, err)
		bal, err := eb.Call(ctx, "balance")
		require.NoError(t, err)
		assert.Equal(t, 0, big.NewInt(1500).Cmp(bal.(*big.Int)))
	})
}

func TestReadBindingFailures(t *testing.T) {
	backends(t, func(t *testing.T, l *ledgertest.Ledger, p *wallet.Provider) {
		l.DeployRegistry(registryAt)
		ctx := context.Background()

		rb, err := BindRead(descriptor(t, "registry", registryAt, abis.Registry), p)
		require.NoError(t, err)

		_, err = rb.Call(ctx, "setName", "x")
		assert.ErrorIs(t, err, chainerr.ErrInvalidCallShape)

		_, err = rb.Call(ctx, "nope")
		assert.ErrorIs(t, err, chainerr.ErrInvalidCallShape)

		_, err = rb.Call(ctx, "name", "not-an-address")
		assert.ErrorIs(t, err, chainerr.ErrInvalidCallShape)

		// no code at the address: empty return data cannot be decoded
		empty, err := BindRead(descriptor(t, "registry", nowhereAt, abis.Registry), p)
		require.NoError(t, err)
		_, err = empty.Call(ctx, "name", alice)
		assert.ErrorIs(t, err, chainerr.ErrDecode)
	})
}

func TestBindReadWithoutWallet(t *testing.T) {
	_, err := BindRead(descriptor(t, "registry", registryAt, abis.Registry), wallet.NewProvider(nil))
	assert.ErrorIs(t, err, chainerr.ErrWalletUnavailable)
}

func TestBindWriteRequiresAuthorizedAccount(t *testing.T) {
	l := ledgertest.New(alice)
	p := wallet.NewProvider(l)
	d := descriptor(t, "registry", registryAt, abis.Registry)
	ctx := context.Background()

	_, err := BindWrite(ctx, d, p, common.Address{})
	assert.ErrorIs(t, err, chainerr.ErrNoSigner)

	// not yet granted by the wallet
	_, err = BindWrite(ctx, d, p, alice)
	assert.ErrorIs(t, err, chainerr.ErrNoSigner)

	l.Authorize()
	_, err = BindWrite(ctx, d, p, bob)
	assert.ErrorIs(t, err, chainerr.ErrNoSigner)

	wb, err := BindWrite(ctx, d, p, alice)
	require.NoError(t, err)
	assert.Equal(t, alice, wb.Account())
}

func TestWriteCallShape(t *testing.T) {
	l := ledgertest.New(alice)
	l.Authorize()
	l.DeployEscrow(escrowAt)
	p := wallet.NewProvider(l)
	ctx := context.Background()

	wb, err := BindWrite(ctx, descriptor(t, "escrow", escrowAt, abis.Escrow), p, alice)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		value  *big.Int
		args   []interface{}
	}{
		{"payable without value", "deposit", nil, nil},
		{"value on non-payable", "withdraw", big.NewInt(1), []interface{}{bob, big.NewInt(1)}},
		{"negative value", "deposit", big.NewInt(-1), nil},
		{"value above uint256", "deposit", new(big.Int).Lsh(big.NewInt(1), 256), nil},
		{"view through write", "balance", nil, nil},
		{"unknown method", "drain", nil, nil},
		{"wrong arguments", "withdraw", nil, []interface{}{"bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wb.Call(ctx, tt.method, tt.value, tt.args...)
			assert.ErrorIs(t, err, chainerr.ErrInvalidCallShape)
		})
	}
	assert.Empty(t, l.Sent(), "shape failures must not reach the network")
	assert.Zero(t, l.Reads("balance"))
}

func TestWriteCallLifecycle(t *testing.T) {
	backends(t, func(t *testing.T, l *ledgertest.Ledger, p *wallet.Provider) {
		l.Authorize()
		esc := l.DeployEscrow(escrowAt)
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		wb, err := BindWrite(ctx, descriptor(t, "escrow", escrowAt, abis.Escrow), p, alice, WithPollInterval(5*time.Millisecond))
		require.NoError(t, err)

		tx, err := wb.Call(ctx, "deposit", big.NewInt(1000))
		require.NoError(t, err)
		assert.Equal(t, "deposit", tx.Method)
		assert.Equal(t, []common.Hash{tx.Hash}, l.Sent())

		go func() {
			time.Sleep(20 * time.Millisecond)
			l.Mine(tx.Hash)
		}()
		receipt, err := tx.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, tx.Hash, receipt.TxHash)
		assert.Equal(t, int64(1000), esc.Balance.Int64())

		// simulation rejects before anything is broadcast
		_, err = wb.Call(ctx, "withdraw", nil, bob, big.NewInt(5000))
		var ce *chainerr.Error
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, chainerr.Reverted, ce.Kind)
		assert.Equal(t, "insufficient balance", ce.Reason)
		assert.Len(t, l.Sent(), 1)
	})
}

func TestWriteCallRejectedByUser(t *testing.T) {
	backends(t, func(t *testing.T, l *ledgertest.Ledger, p *wallet.Provider) {
		l.Authorize()
		l.DeployCounter(counterAt)
		ctx := context.Background()

		wb, err := BindWrite(ctx, descriptor(t, "counter", counterAt, abis.Counter), p, alice)
		require.NoError(t, err)

		l.RejectRequests(true)
		_, err = wb.Call(ctx, "store", nil, big.NewInt(1))
		assert.ErrorIs(t, err, chainerr.ErrUserRejected)
		assert.Empty(t, l.Sent())
	})
}

func TestTransactionWaitTimeout(t *testing.T) {
	l := ledgertest.New(alice)
	l.Authorize()
	l.DeployCounter(counterAt)
	p := wallet.NewProvider(l)

	wb, err := BindWrite(context.Background(), descriptor(t, "counter", counterAt, abis.Counter), p, alice, WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	tx, err := wb.Call(context.Background(), "store", nil, big.NewInt(7))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = tx.Wait(ctx)
	assert.ErrorIs(t, err, chainerr.ErrConfirmationTimeout)
	assert.True(t, err.(*chainerr.Error).Ambiguous())
}

// flakyReceipts fails the first receipt lookups the way a dropped connection does
type flakyReceipts struct {
	*ledgertest.Ledger

	mu    sync.Mutex
	fails int
	calls int
}

func (f *flakyReceipts) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	f.calls++
	if f.fails != 0 {
		if f.fails > 0 {
			f.fails--
		}
		f.mu.Unlock()
		return nil, errors.New("connection reset by peer")
	}
	f.mu.Unlock()
	return f.Ledger.TransactionReceipt(ctx, txHash)
}

func TestTransactionWaitSurvivesReceiptLookupFailure(t *testing.T) {
	l := ledgertest.New(alice)
	l.Authorize()
	l.DeployCounter(counterAt)
	backend := &flakyReceipts{Ledger: l, fails: 1}
	p := wallet.NewProvider(backend)

	wb, err := BindWrite(context.Background(), descriptor(t, "counter", counterAt, abis.Counter), p, alice, WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	tx, err := wb.Call(context.Background(), "store", nil, big.NewInt(7))
	require.NoError(t, err)
	l.Mine(tx.Hash)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	receipt, err := tx.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.GreaterOrEqual(t, backend.calls, 2)
}

func TestTransactionWaitReceiptLookupNeverRecovers(t *testing.T) {
	l := ledgertest.New(alice)
	l.Authorize()
	l.DeployCounter(counterAt)
	p := wallet.NewProvider(&flakyReceipts{Ledger: l, fails: -1})

	wb, err := BindWrite(context.Background(), descriptor(t, "counter", counterAt, abis.Counter), p, alice, WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	tx, err := wb.Call(context.Background(), "store", nil, big.NewInt(7))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = tx.Wait(ctx)
	assert.ErrorIs(t, err, chainerr.ErrConfirmationTimeout)
	assert.True(t, err.(*chainerr.Error).Ambiguous())
	assert.False(t, err.(*chainerr.Error).Retryable())
	assert.ErrorContains(t, err, "connection reset by peer")
}

func TestTransactionWaitFailedReceipt(t *testing.T) {
	l := ledgertest.New(alice)
	l.Authorize()
	reg := l.DeployRegistry(registryAt)
	reg.Names[alice] = "alice"
	p := wallet.NewProvider(l)
	ctx := context.Background()

	wb, err := BindWrite(ctx, descriptor(t, "registry", registryAt, abis.Registry), p, alice, WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	tx, err := wb.Call(ctx, "deleteName", nil)
	require.NoError(t, err)

	// state changes between broadcast and inclusion so execution fails on chain
	l.Mine(func() common.Hash {
		other, err := wb.Call(ctx, "deleteName", nil)
		require.NoError(t, err)
		return other.Hash
	}())
	l.Mine(tx.Hash)

	_, err = tx.Wait(ctx)
	assert.ErrorIs(t, err, chainerr.ErrReverted)
}

func TestLoadDescriptor(t *testing.T) {
	d, err := LoadDescriptor("counter", "counter", counterAt.Hex(), "")
	require.NoError(t, err)
	assert.Equal(t, counterAt, d.Address)
	_, ok := d.Method("store")
	assert.True(t, ok)

	esc, err := LoadDescriptor("escrow", "escrow", escrowAt.Hex(), "")
	require.NoError(t, err)
	assert.True(t, esc.IsPayable("deposit"))
	assert.False(t, esc.IsPayable("withdraw"))

	_, err = LoadDescriptor("x", "unknown", counterAt.Hex(), "")
	assert.Error(t, err)

	_, err = NewDescriptor("x", "0x1234", abis.Counter)
	assert.Error(t, err)
}
