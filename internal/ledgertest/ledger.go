// Package ledgertest provides an in-memory ledger and wallet endpoint for tests.
package ledgertest

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Error mimics a JSON-RPC error carrying a code and optional data
type Error struct {
	Code int
	Msg  string
	Data interface{}
}

func (e *Error) Error() string          { return e.Msg }
func (e *Error) ErrorCode() int         { return e.Code }
func (e *Error) ErrorData() interface{} { return e.Data }

var revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

// RevertData encodes reason the way Solidity's require does
func RevertData(reason string) []byte {
	stringTy, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringTy}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	return append(slices.Clone(revertSelector), packed...)
}

// Revert returns the error a node reports for a failed execution
func Revert(reason string) error {
	return &Error{Code: 3, Msg: "execution reverted: " + reason, Data: hexutil.Encode(RevertData(reason))}
}

// Rejected returns the EIP-1193 "user rejected" error
func Rejected() error {
	return &Error{Code: 4001, Msg: "User rejected the request."}
}

// ViewFunc answers a read-only method
type ViewFunc func(args []interface{}) ([]interface{}, error)

// WriteFunc validates and, when commit is true, applies a state-changing method
type WriteFunc func(from common.Address, value *big.Int, args []interface{}, commit bool) error

// Contract is a scripted contract living at one address
type Contract struct {
	ABI    abi.ABI
	views  map[string]ViewFunc
	writes map[string]WriteFunc
}

// View installs fn for a read-only method
func (c *Contract) View(method string, fn ViewFunc) *Contract {
	c.views[method] = fn
	return c
}

// Write installs fn for a state-changing method
func (c *Contract) Write(method string, fn WriteFunc) *Contract {
	c.writes[method] = fn
	return c
}

type tx struct {
	msg     ethereum.CallMsg
	receipt *types.Receipt
}

// Ledger is a single-node chain with a wallet attached
type Ledger struct {
	mu sync.Mutex

	accounts   []common.Address
	authorized bool
	reject     bool
	contracts  map[common.Address]*Contract
	txs        map[common.Hash]*tx
	order      []common.Hash
	nonce      uint64
	block      int64

	// AutoMine settles every accepted transaction immediately
	AutoMine bool

	reads   map[string]int
	gate    chan struct{}
	readErr error
	sendErr error
}

// New returns a ledger whose wallet holds accounts
func New(accounts ...common.Address) *Ledger {
	return &Ledger{
		accounts:  accounts,
		contracts: make(map[common.Address]*Contract),
		txs:       make(map[common.Hash]*tx),
		reads:     make(map[string]int),
	}
}

// Deploy places a scripted contract at addr
func (l *Ledger) Deploy(addr common.Address, abiJSON string) *Contract {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(err)
	}
	c := &Contract{ABI: parsed, views: map[string]ViewFunc{}, writes: map[string]WriteFunc{}}
	l.mu.Lock()
	l.contracts[addr] = c
	l.mu.Unlock()
	return c
}

// Authorize marks the wallet's accounts as already granted
func (l *Ledger) Authorize() {
	l.mu.Lock()
	l.authorized = true
	l.mu.Unlock()
}

// SetAccounts simulates the user switching or removing accounts in the wallet
func (l *Ledger) SetAccounts(accounts ...common.Address) {
	l.mu.Lock()
	l.accounts = accounts
	l.mu.Unlock()
}

// RejectRequests makes the human decline every prompt
func (l *Ledger) RejectRequests(reject bool) {
	l.mu.Lock()
	l.reject = reject
	l.mu.Unlock()
}

// FailReads makes every view call fail with err (nil restores)
func (l *Ledger) FailReads(err error) {
	l.mu.Lock()
	l.readErr = err
	l.mu.Unlock()
}

// FailSends makes every broadcast fail with err (nil restores)
func (l *Ledger) FailSends(err error) {
	l.mu.Lock()
	l.sendErr = err
	l.mu.Unlock()
}

// Hold blocks view calls until the returned release func is called
func (l *Ledger) Hold() (release func()) {
	gate := make(chan struct{})
	l.mu.Lock()
	l.gate = gate
	l.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.gate = nil
			l.mu.Unlock()
			close(gate)
		})
	}
}

// Reads counts view calls served for method
func (l *Ledger) Reads(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads[method]
}

// Sent returns the hashes of every accepted transaction in order
func (l *Ledger) Sent() []common.Hash {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.order)
}

func (l *Ledger) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reject {
		return nil, Rejected()
	}
	l.authorized = true
	return slices.Clone(l.accounts), nil
}

func (l *Ledger) Accounts(ctx context.Context) ([]common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.authorized {
		return []common.Address{}, nil
	}
	return slices.Clone(l.accounts), nil
}

func (l *Ledger) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	l.mu.Lock()
	c, method, args, err := l.decode(msg)
	if err != nil || c == nil {
		l.mu.Unlock()
		return nil, err
	}
	if fn, ok := c.views[method.Name]; ok {
		l.reads[method.Name]++
		gate, readErr := l.gate, l.readErr
		l.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if readErr != nil {
			return nil, readErr
		}
		l.mu.Lock()
		out, err := fn(args)
		l.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(out...)
	}
	defer l.mu.Unlock()
	return nil, l.execute(c, method, msg, args, false)
}

func (l *Ledger) SendTransaction(ctx context.Context, msg ethereum.CallMsg) (common.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reject {
		return common.Hash{}, Rejected()
	}
	if l.sendErr != nil {
		return common.Hash{}, l.sendErr
	}
	if !l.authorized || !slices.Contains(l.accounts, msg.From) {
		return common.Hash{}, &Error{Code: 4100, Msg: "the requested account has not been authorized"}
	}
	c, method, args, err := l.decode(msg)
	if err != nil {
		return common.Hash{}, err
	}
	if c == nil {
		return common.Hash{}, errors.New("no contract code at target")
	}
	// nodes estimate gas before accepting, which surfaces reverts here too
	if err := l.execute(c, method, msg, args, false); err != nil {
		return common.Hash{}, err
	}

	l.nonce++
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], l.nonce)
	hash := crypto.Keccak256Hash(msg.From.Bytes(), seed[:])
	l.txs[hash] = &tx{msg: msg}
	l.order = append(l.order, hash)
	if l.AutoMine {
		l.mine(hash)
	}
	return hash, nil
}

func (l *Ledger) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.txs[txHash]
	if !ok || t.receipt == nil {
		return nil, ethereum.NotFound
	}
	r := *t.receipt
	return &r, nil
}

// Mine includes the pending transaction in a block and applies its effects
func (l *Ledger) Mine(hash common.Hash) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mine(hash)
}

// MineAll includes every pending transaction
func (l *Ledger) MineAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, h := range l.order {
		l.mine(h)
	}
}

func (l *Ledger) mine(hash common.Hash) {
	t, ok := l.txs[hash]
	if !ok || t.receipt != nil {
		return
	}
	status := types.ReceiptStatusSuccessful
	c, method, args, err := l.decode(t.msg)
	if err == nil {
		err = l.execute(c, method, t.msg, args, true)
	}
	if err != nil {
		status = types.ReceiptStatusFailed
	}
	l.block++
	t.receipt = &types.Receipt{
		Status:      status,
		TxHash:      hash,
		Logs:        []*types.Log{},
		BlockNumber: big.NewInt(l.block),
		GasUsed:     21000,
	}
}

func (l *Ledger) decode(msg ethereum.CallMsg) (*Contract, *abi.Method, []interface{}, error) {
	if msg.To == nil {
		return nil, nil, nil, errors.New("contract creation not supported")
	}
	c, ok := l.contracts[*msg.To]
	if !ok {
		// no code: empty return data, like a real node
		return nil, nil, nil, nil
	}
	if len(msg.Data) < 4 {
		return nil, nil, nil, Revert("")
	}
	method, err := c.ABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, nil, nil, Revert("")
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unpack %s: %w", method.Name, err)
	}
	return c, method, args, nil
}

func (l *Ledger) execute(c *Contract, method *abi.Method, msg ethereum.CallMsg, args []interface{}, commit bool) error {
	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 && !method.IsPayable() {
		return Revert("")
	}
	fn, ok := c.writes[method.Name]
	if !ok {
		return Revert("")
	}
	return fn(msg.From, value, args, commit)
}
