package inject

import (
	"reflect"
)

// MemberKind tells fields and methods apart.
type MemberKind int

const (
	FieldMember MemberKind = iota
	MethodMember
)

func (k MemberKind) String() string {
	if k == MethodMember {
		return "method"
	}
	return "field"
}

// ApplyFunc performs the member access for one level value. level is a
// pointer to the declaring struct; args holds one value per key, already
// converted to the key's type.
type ApplyFunc func(level reflect.Value, args []reflect.Value)

// Member describes a field or method of one struct level that is marked for
// injection. The access itself lives in the apply closure, so the injector
// needs no knowledge of the concrete type.
type Member struct {
	Kind      MemberKind
	Declaring reflect.Type
	Name      string
	Keys      []Key

	Private  bool
	Static   bool
	Abstract bool

	apply ApplyFunc
}

// MemberOption sets a modifier flag on a member.
type MemberOption func(*Member)

// Private marks the member as not accessible to the injector.
func Private() MemberOption { return func(m *Member) { m.Private = true } }

// Static marks the member as not bound to an instance.
func Static() MemberOption { return func(m *Member) { m.Static = true } }

// Abstract marks a method as having no implementation at its level.
func Abstract() MemberOption { return func(m *Member) { m.Abstract = true } }

// NewField describes an injectable field. set receives the level pointer and
// the resolved value.
func NewField(declaring reflect.Type, name string, key Key, set func(level, value reflect.Value), opts ...MemberOption) Member {
	m := Member{
		Kind:      FieldMember,
		Declaring: declaring,
		Name:      name,
		Keys:      []Key{key},
	}
	if set != nil {
		m.apply = func(level reflect.Value, args []reflect.Value) { set(level, args[0]) }
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// NewMethod describes an injectable method taking one argument per key.
func NewMethod(declaring reflect.Type, name string, keys []Key, call ApplyFunc, opts ...MemberOption) Member {
	m := Member{
		Kind:      MethodMember,
		Declaring: declaring,
		Name:      name,
		Keys:      keys,
		apply:     call,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Member) invalidKind() (InvalidKind, bool) {
	if m.Kind == FieldMember {
		switch {
		case m.Private:
			return PrivateField, true
		case m.Static:
			return StaticField, true
		}
		return 0, false
	}
	switch {
	case m.Private:
		return PrivateMethod, true
	case m.Static:
		return StaticMethod, true
	case m.Abstract:
		return AbstractMethod, true
	}
	return 0, false
}
