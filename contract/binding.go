package contract

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"slices"
	"time"

	"dapp-console/chainerr"
	"dapp-console/wallet"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ReadBinding issues view calls through the provider's read-only transport
type ReadBinding struct {
	desc    Descriptor
	backend wallet.Backend
}

// BindRead binds desc to the provider for reads
func BindRead(desc Descriptor, p *wallet.Provider) (*ReadBinding, error) {
	if !p.IsAvailable() {
		return nil, chainerr.New(chainerr.WalletUnavailable, "read", "")
	}
	return &ReadBinding{desc: desc, backend: p.Backend()}, nil
}

// Descriptor returns the bound contract
func (b *ReadBinding) Descriptor() Descriptor { return b.desc }

// Call invokes a view method and decodes its return value. Methods with a single
// output return it directly; several outputs come back as a slice.
func (b *ReadBinding) Call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	m, ok := b.desc.Method(method)
	if !ok {
		return nil, chainerr.New(chainerr.InvalidCallShape, "read", "unknown method "+method)
	}
	if !m.IsConstant() {
		return nil, chainerr.New(chainerr.InvalidCallShape, "read", method+" changes state")
	}
	data, err := b.desc.ABI.Pack(method, args...)
	if err != nil {
		return nil, chainerr.Wrap(chainerr.InvalidCallShape, "read", err)
	}

	to := b.desc.Address
	out, err := b.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, chainerr.Normalize("read", err)
	}

	values, err := m.Outputs.Unpack(out)
	if err != nil {
		return nil, chainerr.Wrap(chainerr.DecodeError, "read", fmt.Errorf("%s: %w", method, err))
	}
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		return values[0], nil
	default:
		return values, nil
	}
}

// WriteOption configures a WriteBinding
type WriteOption func(*WriteBinding)

// WithPollInterval sets how often transactions poll for their receipt
func WithPollInterval(d time.Duration) WriteOption {
	return func(b *WriteBinding) { b.poll = d }
}

// WithLogger routes receipt polling diagnostics to l
func WithLogger(l *log.Logger) WriteOption {
	return func(b *WriteBinding) {
		if l != nil {
			b.logger = l
		}
	}
}

// WriteBinding sends state-changing calls signed by one authorized account
type WriteBinding struct {
	desc    Descriptor
	backend wallet.Backend
	account common.Address
	poll    time.Duration
	logger  *log.Logger
}

// BindWrite binds desc to account. The account must currently be authorized by the wallet.
func BindWrite(ctx context.Context, desc Descriptor, p *wallet.Provider, account common.Address, opts ...WriteOption) (*WriteBinding, error) {
	if !p.IsAvailable() {
		return nil, chainerr.New(chainerr.WalletUnavailable, "write", "")
	}
	if account == (common.Address{}) {
		return nil, chainerr.New(chainerr.NoSignerAvailable, "write", "not connected")
	}
	authorized, err := p.CurrentAccounts(ctx)
	if err != nil {
		return nil, chainerr.Normalize("write", err)
	}
	if !slices.Contains(authorized, account) {
		return nil, chainerr.New(chainerr.NoSignerAvailable, "write", account.Hex()+" is not authorized")
	}
	b := &WriteBinding{
		desc:    desc,
		backend: p.Backend(),
		account: account,
		poll:    DefaultPollInterval,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Account is the signer of every call made through b
func (b *WriteBinding) Account() common.Address { return b.account }

// CheckShape validates method, value and arguments without touching the network
func (b *WriteBinding) CheckShape(method string, value *big.Int, args ...interface{}) ([]byte, error) {
	return checkWrite(b.desc, method, value, args...)
}

func checkWrite(desc Descriptor, method string, value *big.Int, args ...interface{}) ([]byte, error) {
	m, ok := desc.Method(method)
	if !ok {
		return nil, chainerr.New(chainerr.InvalidCallShape, "write", "unknown method "+method)
	}
	if m.IsConstant() {
		return nil, chainerr.New(chainerr.InvalidCallShape, "write", method+" is read-only")
	}
	switch {
	case m.IsPayable() && value == nil:
		return nil, chainerr.New(chainerr.InvalidCallShape, "write", method+" requires an attached value")
	case !m.IsPayable() && value != nil:
		return nil, chainerr.New(chainerr.InvalidCallShape, "write", method+" is not payable")
	case value != nil && value.Sign() < 0:
		return nil, chainerr.New(chainerr.InvalidCallShape, "write", "negative value")
	}
	if value != nil {
		if _, overflow := uint256.FromBig(value); overflow {
			return nil, chainerr.New(chainerr.InvalidCallShape, "write", "value exceeds uint256")
		}
	}
	data, err := desc.ABI.Pack(method, args...)
	if err != nil {
		return nil, chainerr.Wrap(chainerr.InvalidCallShape, "write", err)
	}
	return data, nil
}

// Call simulates the call from the bound account, then broadcasts it. A call the
// ledger would reject fails with Reverted and is never broadcast.
func (b *WriteBinding) Call(ctx context.Context, method string, value *big.Int, args ...interface{}) (*Transaction, error) {
	data, err := b.CheckShape(method, value, args...)
	if err != nil {
		return nil, err
	}

	to := b.desc.Address
	msg := ethereum.CallMsg{From: b.account, To: &to, Value: value, Data: data}
	if _, err := b.backend.CallContract(ctx, msg, nil); err != nil {
		return nil, chainerr.Normalize("write", err)
	}

	hash, err := b.backend.SendTransaction(ctx, msg)
	if err != nil {
		return nil, chainerr.Normalize("write", err)
	}
	return &Transaction{
		Hash:     hash,
		Method:   method,
		From:     b.account,
		receipts: b.backend,
		poll:     b.poll,
		logger:   b.logger,
	}, nil
}
