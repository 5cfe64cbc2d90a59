package inject

import (
	stderrors "errors"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/observability"
)

// FieldBinding pairs an injectable field with its provider.
type FieldBinding struct {
	Member   Member
	Provider Provider
}

// MethodBinding pairs an injectable method with one provider per parameter.
type MethodBinding struct {
	Member    Member
	Providers []Provider
}

// LevelBindings holds the bindings declared directly on one struct level.
type LevelBindings struct {
	Type    reflect.Type
	Fields  []FieldBinding
	Methods []MethodBinding

	reach func(reflect.Value) reflect.Value
}

func (l LevelBindings) empty() bool {
	return len(l.Fields) == 0 && len(l.Methods) == 0
}

func (l LevelBindings) clone() LevelBindings {
	out := l
	out.Fields = append([]FieldBinding(nil), l.Fields...)
	out.Methods = make([]MethodBinding, len(l.Methods))
	for i, mb := range l.Methods {
		mb.Providers = append([]Provider(nil), mb.Providers...)
		out.Methods[i] = mb
	}
	return out
}

// Plan is the resolved, ordered description of how to inject one struct type.
// It is immutable once built and safe for concurrent use.
type Plan struct {
	id      string
	target  reflect.Type
	levels  []LevelBindings
	log     *logger.Logger
	metrics *observability.Metrics
}

// ID returns the unique identifier assigned when the plan was built.
func (p *Plan) ID() string { return p.id }

// Target returns the struct type the plan injects.
func (p *Plan) Target() reflect.Type { return p.target }

// Len returns the number of levels with at least one binding.
func (p *Plan) Len() int { return len(p.levels) }

// Levels returns a copy of the plan's levels, base first.
func (p *Plan) Levels() []LevelBindings {
	out := make([]LevelBindings, len(p.levels))
	for i, l := range p.levels {
		out[i] = l.clone()
	}
	return out
}

// BuildPlan walks target's embedding chain, validates every member marked
// for injection and resolves its keys against graph. target may be a struct
// type or a pointer to one.
//
// Invalid members fail with *InvalidMemberError. Errors from graph are
// returned unchanged. No plan is returned on failure.
func BuildPlan(target reflect.Type, graph Graph, opts ...Option) (*Plan, error) {
	o := newOptions(opts)

	name := typeName(target)
	ctx, span := observability.StartSpan(o.ctx, observability.SpanBuildPlan,
		trace.WithAttributes(attribute.String(observability.AttrTarget, name)))
	start := time.Now()

	plan, err := buildPlan(target, graph, o)
	elapsed := time.Since(start)

	if err != nil {
		fields := logger.Fields(logger.FieldTarget, name)
		var ime *InvalidMemberError
		if stderrors.As(err, &ime) {
			fields[logger.FieldMember] = typeName(ime.Type) + "." + ime.Member
		}
		o.log.Warn("injection plan build failed", logger.MergeWithError(fields, err))
		if o.metrics != nil {
			o.metrics.RecordPlanBuild(ctx, name, observability.StatusError, 0, elapsed)
			o.metrics.RecordError(ctx, errorType(err), "inject")
		}
		observability.EndSpan(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String(observability.AttrPlanID, plan.id),
		attribute.Int(observability.AttrLevels, len(plan.levels)),
	)
	o.log.Debug("injection plan built", logger.MergeWithDuration(logger.Fields(
		logger.FieldTarget, name,
		logger.FieldPlanID, plan.id,
		logger.FieldLevels, len(plan.levels),
	), elapsed))
	if o.metrics != nil {
		o.metrics.RecordPlanBuild(ctx, name, observability.StatusOK, len(plan.levels), elapsed)
	}
	observability.EndSpan(span, nil)
	return plan, nil
}

func buildPlan(target reflect.Type, graph Graph, o *options) (*Plan, error) {
	if target == nil {
		return nil, &InvalidTargetError{Reason: "nil type"}
	}
	structType := target
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil, &InvalidTargetError{Type: target, Reason: "not a struct or pointer to struct"}
	}

	var levels []LevelBindings
	visited := make(map[reflect.Type]bool)
	reach := func(v reflect.Value) reflect.Value { return v }

	for current := structType; current != nil; {
		if visited[current] {
			return nil, &InvalidTargetError{Type: target, Reason: "cyclic hierarchy at " + current.String()}
		}
		visited[current] = true

		info, err := o.provider.Describe(current)
		if err != nil {
			return nil, err
		}

		level, err := resolveLevel(current, info, graph, o)
		if err != nil {
			return nil, err
		}
		if !level.empty() {
			level.reach = reach
			levels = append([]LevelBindings{level}, levels...)
		}

		if info.Super == nil || info.Upcast == nil {
			break
		}
		reach = chain(reach, info.Upcast)
		current = info.Super
	}

	return &Plan{
		id:      uuid.NewString(),
		target:  structType,
		levels:  levels,
		log:     o.log,
		metrics: o.metrics,
	}, nil
}

func resolveLevel(current reflect.Type, info *TypeInfo, graph Graph, o *options) (LevelBindings, error) {
	level := LevelBindings{Type: current}

	for _, f := range info.Fields {
		if kind, bad := f.invalidKind(); bad {
			return level, &InvalidMemberError{Kind: kind, Type: current, Member: f.Name}
		}
		if len(f.Keys) != 1 || f.apply == nil {
			return level, &InvalidMemberError{Kind: MalformedTag, Type: current, Member: f.Name, Cause: errNoAccessor}
		}
		p, err := resolve(graph, f, f.Keys[0], o)
		if err != nil {
			return level, err
		}
		level.Fields = append(level.Fields, FieldBinding{Member: f, Provider: p})
	}

	for _, m := range info.Methods {
		if kind, bad := m.invalidKind(); bad {
			return level, &InvalidMemberError{Kind: kind, Type: current, Member: m.Name}
		}
		if m.apply == nil {
			return level, &InvalidMemberError{Kind: MalformedTag, Type: current, Member: m.Name, Cause: errNoAccessor}
		}
		providers := make([]Provider, len(m.Keys))
		for i, key := range m.Keys {
			p, err := resolve(graph, m, key, o)
			if err != nil {
				return level, err
			}
			providers[i] = p
		}
		level.Methods = append(level.Methods, MethodBinding{Member: m, Providers: providers})
	}

	return level, nil
}

func resolve(graph Graph, m Member, key Key, o *options) (Provider, error) {
	p, err := graph.Binding(key)
	if err != nil {
		o.log.Debug("dependency resolution failed", logger.Fields(
			logger.FieldTarget, typeName(m.Declaring),
			logger.FieldMember, m.Name,
			logger.FieldKey, key.String(),
		))
		return nil, err
	}
	return p, nil
}

var errNoAccessor = stderrors.New("member has no accessor")

func chain(inner, outer func(reflect.Value) reflect.Value) func(reflect.Value) reflect.Value {
	return func(v reflect.Value) reflect.Value { return outer(inner(v)) }
}

func errorType(err error) string {
	switch {
	case stderrors.Is(err, ErrInvalidMember):
		return "invalid_member"
	case stderrors.Is(err, ErrUnresolvedDependency):
		return "unresolved_dependency"
	case stderrors.Is(err, ErrInvalidTarget):
		return "invalid_target"
	default:
		return "graph"
	}
}
