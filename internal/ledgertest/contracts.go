package ledgertest

import (
	"math/big"
	"strings"

	"dapp-console/contract/abis"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is the scripted name registry. Fields are guarded by the ledger lock.
type Registry struct {
	Names map[common.Address]string
}

// DeployRegistry installs a name registry at addr
func (l *Ledger) DeployRegistry(addr common.Address) *Registry {
	r := &Registry{Names: map[common.Address]string{}}
	l.Deploy(addr, abis.Registry).
		View("name", func(args []interface{}) ([]interface{}, error) {
			return []interface{}{r.Names[args[0].(common.Address)]}, nil
		}).
		Write("setName", func(from common.Address, _ *big.Int, args []interface{}, commit bool) error {
			name := args[0].(string)
			if strings.TrimSpace(name) == "" {
				return Revert("empty name")
			}
			if commit {
				r.Names[from] = name
			}
			return nil
		}).
		Write("deleteName", func(from common.Address, _ *big.Int, _ []interface{}, commit bool) error {
			if _, ok := r.Names[from]; !ok {
				return Revert("no name registered")
			}
			if commit {
				delete(r.Names, from)
			}
			return nil
		})
	return r
}

// Escrow is the scripted payable escrow
type Escrow struct {
	Balance *big.Int
	Paid    map[common.Address]*big.Int
}

// DeployEscrow installs a payable escrow at addr
func (l *Ledger) DeployEscrow(addr common.Address) *Escrow {
	e := &Escrow{Balance: new(big.Int), Paid: map[common.Address]*big.Int{}}
	l.Deploy(addr, abis.Escrow).
		View("balance", func([]interface{}) ([]interface{}, error) {
			return []interface{}{new(big.Int).Set(e.Balance)}, nil
		}).
		Write("deposit", func(_ common.Address, value *big.Int, _ []interface{}, commit bool) error {
			if commit {
				e.Balance.Add(e.Balance, value)
			}
			return nil
		}).
		Write("withdraw", func(_ common.Address, _ *big.Int, args []interface{}, commit bool) error {
			to := args[0].(common.Address)
			amount := args[1].(*big.Int)
			if amount.Cmp(e.Balance) > 0 {
				return Revert("insufficient balance")
			}
			if commit {
				e.Balance.Sub(e.Balance, amount)
				paid, ok := e.Paid[to]
				if !ok {
					paid = new(big.Int)
					e.Paid[to] = paid
				}
				paid.Add(paid, amount)
			}
			return nil
		})
	return e
}

// Counter is the scripted counter
type Counter struct {
	Value *big.Int
}

// DeployCounter installs a counter at addr
func (l *Ledger) DeployCounter(addr common.Address) *Counter {
	c := &Counter{Value: new(big.Int)}
	l.Deploy(addr, abis.Counter).
		View("retrieve", func([]interface{}) ([]interface{}, error) {
			return []interface{}{new(big.Int).Set(c.Value)}, nil
		}).
		Write("store", func(_ common.Address, _ *big.Int, args []interface{}, commit bool) error {
			if commit {
				c.Value = new(big.Int).Set(args[0].(*big.Int))
			}
			return nil
		})
	return c
}
