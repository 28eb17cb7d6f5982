package olap

import (
	"fmt"
	"sort"
	"sync"
)

type registry[T any] struct {
	kind  string
	mu    sync.RWMutex
	items map[string]T
}

func newRegistry[T any](kind string) *registry[T] {
	return &registry[T]{kind: kind, items: make(map[string]T)}
}

func (r *registry[T]) register(name string, item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = item
}

func (r *registry[T]) get(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown %s: %s", r.kind, name)
	}
	return item, nil
}

func (r *registry[T]) list() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	queries = newRegistry[Query]("query")
	ttests  = newRegistry[TTest]("t-test")
)

// Register adds a query to the catalogue.
func Register(q Query) {
	queries.register(q.Name, q)
}

// Get retrieves a query by name.
func Get(name string) (Query, error) {
	return queries.get(name)
}

// List returns all registered query names, sorted.
func List() []string {
	return queries.list()
}

// RegisterTTest adds a t-test to the catalogue.
func RegisterTTest(t TTest) {
	ttests.register(t.Name, t)
}

// GetTTest retrieves a t-test by name.
func GetTTest(name string) (TTest, error) {
	return ttests.get(name)
}

// ListTTests returns all registered t-test names, sorted.
func ListTTests() []string {
	return ttests.list()
}
