package apps

import (
	"context"
	"strings"
	"sync"

	"dapp-console/cache"
	"dapp-console/chainerr"
	"dapp-console/contract"
	"dapp-console/helpers"
	"dapp-console/lifecycle"

	"github.com/ethereum/go-ethereum/common"
)

// RegistryMethods names the registry's contract methods
type RegistryMethods struct {
	Name       string
	SetName    string
	DeleteName string
}

// DefaultRegistryMethods match the bundled registry ABI
var DefaultRegistryMethods = RegistryMethods{Name: "name", SetName: "setName", DeleteName: "deleteName"}

// Registry maps each account to a display name
type Registry struct {
	*App
	methods RegistryMethods

	mu     sync.Mutex
	lookup *common.Address
}

// NewRegistry binds a registry contract
func NewRegistry(desc contract.Descriptor, deps Deps, methods RegistryMethods) (*Registry, error) {
	app, err := newApp(desc, deps, methods.Name, methods.SetName, methods.DeleteName)
	if err != nil {
		return nil, err
	}
	return &Registry{App: app, methods: methods}, nil
}

// NameOf is the field holding the name registered by account
func (r *Registry) NameOf(account common.Address) cache.Query {
	return cache.Q(r.methods.Name, account)
}

// MyName returns the connected account's name field
func (r *Registry) MyName() (cache.Field, bool) {
	account, ok := r.session.Account()
	if !ok {
		return cache.Field{}, false
	}
	return r.cache.Get(r.NameOf(account))
}

// Lookup reads the name registered by an arbitrary address. The address is
// validated before anything is sent.
func (r *Registry) Lookup(ctx context.Context, address string) (string, error) {
	address = strings.TrimSpace(address)
	if !helpers.IsValidEthAddress(address) {
		return "", chainerr.New(chainerr.InvalidCallShape, "read", "invalid address "+address)
	}
	addr := common.HexToAddress(address)
	r.mu.Lock()
	r.lookup = &addr
	r.mu.Unlock()

	q := r.NameOf(addr)
	if err := r.cache.Refresh(ctx, q); err != nil {
		return "", err
	}
	f, _ := r.cache.Get(q)
	name, _ := f.Value.(string)
	return name, nil
}

// LookupField returns the most recent lookup target and its field
func (r *Registry) LookupField() (common.Address, cache.Field, bool) {
	r.mu.Lock()
	target := r.lookup
	r.mu.Unlock()
	if target == nil {
		return common.Address{}, cache.Field{}, false
	}
	f, _ := r.cache.Get(r.NameOf(*target))
	return *target, f, true
}

// Refresh rereads the connected account's name and the last lookup
func (r *Registry) Refresh(ctx context.Context) error {
	return r.refresh(ctx, r.fields()...)
}

func (r *Registry) fields() []cache.Query {
	var qs []cache.Query
	if account, ok := r.session.Account(); ok {
		qs = append(qs, r.NameOf(account))
	}
	r.mu.Lock()
	if r.lookup != nil {
		qs = append(qs, r.NameOf(*r.lookup))
	}
	r.mu.Unlock()
	return qs
}

// SetName registers name for the connected account
func (r *Registry) SetName(ctx context.Context, name string) (lifecycle.Pending, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return lifecycle.Pending{}, invalidShape("name is empty")
	}
	return r.lc.Submit(ctx, lifecycle.Call{
		Method:  r.methods.SetName,
		Args:    []interface{}{name},
		Affects: r.fields(),
	})
}

// DeleteName removes the connected account's registration
func (r *Registry) DeleteName(ctx context.Context) (lifecycle.Pending, error) {
	return r.lc.Submit(ctx, lifecycle.Call{
		Method:  r.methods.DeleteName,
		Affects: r.fields(),
	})
}

// DisplayName renders a registry value, showing unset names as "(none)"
func DisplayName(f cache.Field) string {
	if !f.HasValue() {
		return "…"
	}
	name, _ := f.Value.(string)
	if name == "" {
		return "(none)"
	}
	return name
}
