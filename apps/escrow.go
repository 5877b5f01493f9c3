package apps

import (
	"context"
	"math/big"
	"strings"

	"dapp-console/cache"
	"dapp-console/contract"
	"dapp-console/helpers"
	"dapp-console/lifecycle"

	"github.com/ethereum/go-ethereum/common"
)

// EscrowMethods names the escrow's contract methods
type EscrowMethods struct {
	Balance  string
	Deposit  string
	Withdraw string
}

// DefaultEscrowMethods match the bundled escrow ABI
var DefaultEscrowMethods = EscrowMethods{Balance: "balance", Deposit: "deposit", Withdraw: "withdraw"}

// Escrow holds native currency that its owner can pay out
type Escrow struct {
	*App
	methods EscrowMethods
}

// NewEscrow binds an escrow contract
func NewEscrow(desc contract.Descriptor, deps Deps, methods EscrowMethods) (*Escrow, error) {
	app, err := newApp(desc, deps, methods.Balance, methods.Deposit, methods.Withdraw)
	if err != nil {
		return nil, err
	}
	return &Escrow{App: app, methods: methods}, nil
}

// Address is where deposits are sent
func (e *Escrow) Address() common.Address { return e.desc.Address }

// BalanceQuery is the contract balance field
func (e *Escrow) BalanceQuery() cache.Query { return cache.Q(e.methods.Balance) }

// Balance returns the cached contract balance
func (e *Escrow) Balance() (cache.Field, bool) { return e.cache.Get(e.BalanceQuery()) }

// BalanceWei returns the cached balance as an integer, if one was read
func (e *Escrow) BalanceWei() (*big.Int, bool) {
	f, ok := e.Balance()
	if !ok || !f.HasValue() {
		return nil, false
	}
	v, ok := f.Value.(*big.Int)
	return v, ok
}

// Refresh rereads the balance
func (e *Escrow) Refresh(ctx context.Context) error {
	return e.refresh(ctx, e.BalanceQuery())
}

// Deposit sends amount ether into the escrow
func (e *Escrow) Deposit(ctx context.Context, amount string) (lifecycle.Pending, error) {
	wei, err := positiveEther(amount)
	if err != nil {
		return lifecycle.Pending{}, err
	}
	return e.lc.Submit(ctx, lifecycle.Call{
		Method:  e.methods.Deposit,
		Value:   wei,
		Affects: []cache.Query{e.BalanceQuery()},
	})
}

// Withdraw pays amount ether out to the given address
func (e *Escrow) Withdraw(ctx context.Context, to, amount string) (lifecycle.Pending, error) {
	to = strings.TrimSpace(to)
	if !helpers.IsValidEthAddress(to) {
		return lifecycle.Pending{}, invalidShape("invalid recipient " + to)
	}
	wei, err := positiveEther(amount)
	if err != nil {
		return lifecycle.Pending{}, err
	}
	return e.lc.Submit(ctx, lifecycle.Call{
		Method:  e.methods.Withdraw,
		Args:    []interface{}{common.HexToAddress(to), wei},
		Affects: []cache.Query{e.BalanceQuery()},
	})
}

func positiveEther(amount string) (*big.Int, error) {
	wei, err := helpers.ParseEther(amount)
	if err != nil {
		return nil, invalidShape(err.Error())
	}
	if wei.Sign() == 0 {
		return nil, invalidShape("amount must be greater than zero")
	}
	return wei, nil
}
