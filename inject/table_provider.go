package inject

import (
	"reflect"
	"sync"
)

// TableProvider serves injection metadata from an explicit table instead of
// struct tags. It is what a code generator emits, and it can describe facts
// reflection cannot observe, such as static or abstract members.
//
//	table := inject.NewTableProvider()
//	inject.TableExtends(table, func(s *Service) *Base { return &s.Base })
//	inject.TableField(table, "Store", "primary", func(s *Service, v Store) { s.Store = v })
//	inject.TableMethod(table, "Start", nil, func(s *Service, _ []any) { s.Start() })
//
// Types with no table entry have no members and no base.
type TableProvider struct {
	mu    sync.RWMutex
	types map[reflect.Type]*TypeInfo
}

// NewTableProvider creates an empty table.
func NewTableProvider() *TableProvider {
	return &TableProvider{types: make(map[reflect.Type]*TypeInfo)}
}

// Describe implements MetadataProvider. The returned TypeInfo is a copy.
func (tp *TableProvider) Describe(t reflect.Type) (*TypeInfo, error) {
	tp.mu.RLock()
	defer tp.mu.RUnlock()

	info, ok := tp.types[t]
	if !ok {
		return &TypeInfo{Type: t}, nil
	}
	out := *info
	out.Fields = append([]Member(nil), info.Fields...)
	out.Methods = append([]Member(nil), info.Methods...)
	return &out, nil
}

func (tp *TableProvider) entry(t reflect.Type) *TypeInfo {
	info, ok := tp.types[t]
	if !ok {
		info = &TypeInfo{Type: t}
		tp.types[t] = info
	}
	return info
}

func (tp *TableProvider) addField(t reflect.Type, m Member) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	info := tp.entry(t)
	info.Fields = append(info.Fields, m)
}

func (tp *TableProvider) addMethod(t reflect.Type, m Member) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	info := tp.entry(t)
	info.Methods = append(info.Methods, m)
}

// TableExtends records S as the base level of T.
func TableExtends[T, S any](tp *TableProvider, up func(*T) *S) {
	t := reflect.TypeFor[T]()
	tp.mu.Lock()
	defer tp.mu.Unlock()
	info := tp.entry(t)
	info.Super = reflect.TypeFor[S]()
	info.Upcast = func(v reflect.Value) reflect.Value {
		return reflect.ValueOf(up(v.Interface().(*T)))
	}
}

// TableField records an injectable field of T holding a V.
func TableField[T, V any](tp *TableProvider, name, qualifier string, set func(*T, V), opts ...MemberOption) {
	t := reflect.TypeFor[T]()
	var setter func(level, value reflect.Value)
	if set != nil {
		setter = func(level, value reflect.Value) {
			set(level.Interface().(*T), valueAs[V](value))
		}
	}
	tp.addField(t, NewField(t, name, KeyOf[V](qualifier), setter, opts...))
}

// TableMethod records an injectable method of T taking one argument per key.
// call receives the resolved arguments in key order.
func TableMethod[T any](tp *TableProvider, name string, keys []Key, call func(*T, []any), opts ...MemberOption) {
	t := reflect.TypeFor[T]()
	var apply ApplyFunc
	if call != nil {
		apply = func(level reflect.Value, args []reflect.Value) {
			vals := make([]any, len(args))
			for i, a := range args {
				vals[i] = a.Interface()
			}
			call(level.Interface().(*T), vals)
		}
	}
	tp.addMethod(t, NewMethod(t, name, append([]Key(nil), keys...), apply, opts...))
}

// valueAs unwraps v as a V, mapping a nil interface to V's zero value.
func valueAs[V any](v reflect.Value) V {
	var out V
	if raw := v.Interface(); raw != nil {
		out = raw.(V)
	}
	return out
}
