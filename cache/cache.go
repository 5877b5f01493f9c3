// Package cache keeps the last known value of contract view fields.
//
// A field is refreshed through a Reader (normally a contract.ReadBinding).
// Refreshes of the same field coalesce: while one is in flight further requests
// are no-ops. Invalidate marks a field stale without blocking and detaches any
// refresh already in flight, so a value read before a local write can never be
// reported as fresh afterwards.
package cache

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"dapp-console/chainerr"

	"github.com/charmbracelet/log"
)

// Reader performs one view call
type Reader interface {
	Call(ctx context.Context, method string, args ...interface{}) (interface{}, error)
}

// Query identifies a tracked view: a method plus the key arguments it is read with
type Query struct {
	Method string
	Args   []interface{}
}

// Q is shorthand for building a Query
func Q(method string, args ...interface{}) Query {
	return Query{Method: method, Args: args}
}

// Key is the canonical name of the field, e.g. name(0xAbC…)
func (q Query) Key() string {
	parts := make([]string, len(q.Args))
	for i, a := range q.Args {
		parts[i] = fmt.Sprint(a)
	}
	return q.Method + "(" + strings.Join(parts, ",") + ")"
}

// Field is a snapshot of one tracked view
type Field struct {
	Name        string
	Value       interface{}
	RefreshedAt time.Time
	InFlight    bool
	Stale       bool
	Err         error // last refresh failure, cleared by the next success
}

// HasValue reports whether the field was ever read successfully
func (f Field) HasValue() bool { return !f.RefreshedAt.IsZero() }

type entry struct {
	query Query
	field Field
	gen   uint64
}

// Cache holds fields for one contract
type Cache struct {
	reader Reader
	logger *log.Logger
	now    func() time.Time

	mu     sync.Mutex
	fields map[string]*entry
}

// Option configures a Cache
type Option func(*Cache)

// WithLogger routes refresh diagnostics to l
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New returns an empty cache reading through r
func New(r Reader, opts ...Option) *Cache {
	c := &Cache{
		reader: r,
		logger: log.New(io.Discard),
		now:    time.Now,
		fields: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) entry(q Query) *entry {
	key := q.Key()
	e, ok := c.fields[key]
	if !ok {
		e = &entry{query: q, field: Field{Name: key}}
		c.fields[key] = e
	}
	return e
}

// Refresh reads the field through the Reader. When a refresh of the same field is
// already in flight this returns immediately without a network round-trip. On
// failure the previous value is kept and the error is recorded on the field.
func (c *Cache) Refresh(ctx context.Context, q Query) error {
	c.mu.Lock()
	e := c.entry(q)
	if e.field.InFlight {
		c.mu.Unlock()
		return nil
	}
	e.field.InFlight = true
	gen := e.gen
	c.mu.Unlock()

	value, err := c.reader.Call(ctx, q.Method, q.Args...)
	err = chainerr.Normalize("read", err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e.gen != gen {
		// invalidated meanwhile; this result predates the write
		c.logger.Debug("discarding superseded read", "field", e.field.Name)
		return err
	}
	e.field.InFlight = false
	if err != nil {
		e.field.Err = err
		c.logger.Warn("refresh failed", "field", e.field.Name, "err", err)
		return err
	}
	e.field.Value = value
	e.field.RefreshedAt = c.now()
	e.field.Stale = false
	e.field.Err = nil
	return nil
}

// Invalidate marks the field stale and detaches any in-flight refresh. It never blocks on I/O.
func (c *Cache) Invalidate(q Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(q)
	e.gen++
	e.field.InFlight = false
	e.field.Stale = true
}

// Get returns a snapshot of the field
func (c *Cache) Get(q Query) (Field, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.fields[q.Key()]
	if !ok {
		return Field{}, false
	}
	return e.field, true
}

// Due reports whether the field should be refreshed before its value is trusted
func (c *Cache) Due(q Query) bool {
	f, ok := c.Get(q)
	return !ok || f.Stale || !f.HasValue()
}

// RefreshDue refreshes every stale or never-read field. Errors are recorded per field;
// the first one is returned.
func (c *Cache) RefreshDue(ctx context.Context) error {
	c.mu.Lock()
	var due []Query
	for _, e := range c.fields {
		if e.field.Stale || !e.field.HasValue() {
			due = append(due, e.query)
		}
	}
	c.mu.Unlock()

	var first error
	for _, q := range due {
		if err := c.Refresh(ctx, q); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Forget drops a field entirely, e.g. a lookup that is no longer displayed
func (c *Cache) Forget(q Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.fields, q.Key())
}

// Len is the number of tracked fields
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fields)
}
