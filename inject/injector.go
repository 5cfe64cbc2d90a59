package inject

import (
	"context"
	"fmt"
	"reflect"
)

// Injector applies a built plan to instances of its target type.
type Injector interface {
	InjectMembers(instance any)
}

var _ Injector = (*Plan)(nil)

// MembersInjector is the typed form of Injector handed to the rest of an
// application: it populates an existing *T.
type MembersInjector[T any] interface {
	InjectMembers(instance *T)
}

// For builds a plan for T against graph and wraps it as a MembersInjector.
func For[T any](graph Graph, opts ...Option) (MembersInjector[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, &InvalidTargetError{Type: t, Reason: "type parameter must be a struct type"}
	}
	plan, err := BuildPlan(t, graph, opts...)
	if err != nil {
		return nil, err
	}
	return typed[T]{plan: plan}, nil
}

// Typed wraps an existing plan for T.
func Typed[T any](plan *Plan) (MembersInjector[T], error) {
	t := reflect.TypeFor[T]()
	if plan == nil {
		return nil, &InvalidTargetError{Type: t, Reason: "nil plan"}
	}
	if plan.target != t {
		return nil, &InvalidTargetError{Type: t, Reason: "plan was built for " + typeName(plan.target)}
	}
	return typed[T]{plan: plan}, nil
}

type typed[T any] struct {
	plan *Plan
}

func (i typed[T]) InjectMembers(instance *T) {
	i.plan.InjectMembers(instance)
}

// InjectMembers writes every bound field and calls every bound method of
// instance, base level first and fields before methods within a level.
//
// instance must be a non-nil pointer to the plan's target type. Violations,
// including provider values not assignable to the member's type, panic with
// *ContractViolationError.
func (p *Plan) InjectMembers(instance any) {
	root := reflect.ValueOf(instance)
	if !root.IsValid() || root.Kind() != reflect.Pointer || root.IsNil() {
		panic(&ContractViolationError{Target: p.target, Reason: fmt.Sprintf("instance must be a non-nil *%s, got %T", p.target, instance)})
	}
	if root.Type().Elem() != p.target {
		panic(&ContractViolationError{Target: p.target, Reason: fmt.Sprintf("plan cannot inject %T", instance)})
	}

	for i := range p.levels {
		p.levels[i].inject(p.target, root)
	}

	if p.metrics != nil {
		p.metrics.RecordInjection(context.Background(), p.target.String())
	}
}

func (l *LevelBindings) inject(target reflect.Type, root reflect.Value) {
	level := l.reach(root)

	for _, fb := range l.Fields {
		arg := convert(target, fb.Member, fb.Member.Keys[0], fb.Provider.Get())
		fb.Member.apply(level, []reflect.Value{arg})
	}

	for _, mb := range l.Methods {
		args := make([]reflect.Value, len(mb.Providers))
		for i, p := range mb.Providers {
			args[i] = convert(target, mb.Member, mb.Member.Keys[i], p.Get())
		}
		mb.Member.apply(level, args)
	}
}

// convert turns a provided value into a reflect.Value of the key's type.
func convert(target reflect.Type, m Member, key Key, v any) reflect.Value {
	if v == nil {
		return reflect.Zero(key.Type)
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == key.Type {
		return rv
	}
	if !rv.Type().AssignableTo(key.Type) {
		panic(&ContractViolationError{
			Target: target,
			Member: m.Name,
			Reason: fmt.Sprintf("provider for %s returned %s", key, rv.Type()),
		})
	}
	out := reflect.New(key.Type).Elem()
	out.Set(rv)
	return out
}
