package apps

import (
	"context"
	"math/big"
	"strings"

	"dapp-console/cache"
	"dapp-console/contract"
	"dapp-console/lifecycle"
)

// CounterMethods names the counter's contract methods
type CounterMethods struct {
	Retrieve string
	Store    string
}

// DefaultCounterMethods match the bundled counter ABI
var DefaultCounterMethods = CounterMethods{Retrieve: "retrieve", Store: "store"}

// Counter is a single stored integer anyone can overwrite
type Counter struct {
	*App
	methods CounterMethods
}

// NewCounter binds a counter contract
func NewCounter(desc contract.Descriptor, deps Deps, methods CounterMethods) (*Counter, error) {
	app, err := newApp(desc, deps, methods.Retrieve, methods.Store)
	if err != nil {
		return nil, err
	}
	return &Counter{App: app, methods: methods}, nil
}

// ValueQuery is the stored value field
func (c *Counter) ValueQuery() cache.Query { return cache.Q(c.methods.Retrieve) }

// Value returns the cached stored value
func (c *Counter) Value() (cache.Field, bool) { return c.cache.Get(c.ValueQuery()) }

// Refresh rereads the stored value
func (c *Counter) Refresh(ctx context.Context) error {
	return c.refresh(ctx, c.ValueQuery())
}

// Increment stores the cached value plus one. It refuses to build on a value
// that was never read or is known to be stale.
func (c *Counter) Increment(ctx context.Context) (lifecycle.Pending, error) {
	f, _ := c.Value()
	cur, ok := f.Value.(*big.Int)
	switch {
	case !f.HasValue() || !ok:
		return lifecycle.Pending{}, invalidShape("current value not loaded")
	case f.Stale:
		return lifecycle.Pending{}, invalidShape("current value is being refreshed")
	}
	return c.store(ctx, new(big.Int).Add(cur, big.NewInt(1)))
}

// Store writes an explicit decimal integer
func (c *Counter) Store(ctx context.Context, value string) (lifecycle.Pending, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || n.Sign() < 0 {
		return lifecycle.Pending{}, invalidShape("not a non-negative integer: " + value)
	}
	return c.store(ctx, n)
}

func (c *Counter) store(ctx context.Context, n *big.Int) (lifecycle.Pending, error) {
	return c.lc.Submit(ctx, lifecycle.Call{
		Method:  c.methods.Store,
		Args:    []interface{}{n},
		Affects: []cache.Query{c.ValueQuery()},
	})
}
