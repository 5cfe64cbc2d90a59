package inject

import (
	"reflect"
)

// Key identifies a dependency by an optional qualifier and a type.
// Keys are comparable and can be used directly as map keys.
type Key struct {
	Qualifier string
	Type      reflect.Type
}

// NewKey creates a key for t with the given qualifier ("" for none).
func NewKey(qualifier string, t reflect.Type) Key {
	return Key{Qualifier: qualifier, Type: t}
}

// KeyOf creates a key for the static type T.
//
//	inject.KeyOf[*sql.DB]("primary")
func KeyOf[T any](qualifier string) Key {
	return Key{Qualifier: qualifier, Type: reflect.TypeFor[T]()}
}

// String renders the key as "@qualifier type" or "type".
func (k Key) String() string {
	typ := "<nil>"
	if k.Type != nil {
		typ = k.Type.String()
	}
	if k.Qualifier == "" {
		return typ
	}
	return "@" + k.Qualifier + " " + typ
}

// Provider yields a dependency's current value on demand.
// Providers are owned by the graph; plans only hold references to them.
type Provider interface {
	Get() any
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() any

// Get calls f.
func (f ProviderFunc) Get() any { return f() }

// Instance returns a Provider that always yields v.
func Instance(v any) Provider {
	return ProviderFunc(func() any { return v })
}

// Graph resolves keys to providers. Implementations report a missing binding
// with *UnresolvedDependencyError.
type Graph interface {
	Binding(key Key) (Provider, error)
}

// MapGraph is a fixed Graph backed by a map. It is mostly useful in tests.
type MapGraph map[Key]Provider

// Binding implements Graph.
func (g MapGraph) Binding(key Key) (Provider, error) {
	if p, ok := g[key]; ok {
		return p, nil
	}
	return nil, &UnresolvedDependencyError{Key: key}
}
