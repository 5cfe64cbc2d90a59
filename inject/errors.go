package inject

import (
	"errors"
	"fmt"
	"reflect"

	apperrors "github.com/kbukum/injectkit/errors"
)

var (
	// ErrInvalidMember matches every *InvalidMemberError via errors.Is.
	ErrInvalidMember = errors.New("inject: invalid member")
	// ErrUnresolvedDependency matches every *UnresolvedDependencyError via errors.Is.
	ErrUnresolvedDependency = errors.New("inject: unresolved dependency")
	// ErrInvalidTarget matches every *InvalidTargetError via errors.Is.
	ErrInvalidTarget = errors.New("inject: invalid target")
)

// InvalidKind classifies why a member cannot be injected.
type InvalidKind int

const (
	PrivateField InvalidKind = iota + 1
	StaticField
	PrivateMethod
	StaticMethod
	AbstractMethod
	UnknownMethod
	MethodResults
	MalformedTag
	InheritedMethod
)

func (k InvalidKind) String() string {
	switch k {
	case PrivateField:
		return "PrivateField"
	case StaticField:
		return "StaticField"
	case PrivateMethod:
		return "PrivateMethod"
	case StaticMethod:
		return "StaticMethod"
	case AbstractMethod:
		return "AbstractMethod"
	case UnknownMethod:
		return "UnknownMethod"
	case MethodResults:
		return "MethodResults"
	case MalformedTag:
		return "MalformedTag"
	case InheritedMethod:
		return "InheritedMethod"
	default:
		return fmt.Sprintf("InvalidKind(%d)", int(k))
	}
}

// InvalidMemberError reports a member marked for injection that violates a
// structural rule. It is only produced while building a plan.
type InvalidMemberError struct {
	Kind   InvalidKind
	Type   reflect.Type
	Member string
	Cause  error
}

func (e *InvalidMemberError) Error() string {
	var reason string
	switch e.Kind {
	case PrivateField:
		reason = "cannot inject into unexported field"
	case StaticField:
		reason = "cannot inject into static field"
	case PrivateMethod:
		reason = "cannot inject into unexported method"
	case StaticMethod:
		reason = "cannot inject into static method"
	case AbstractMethod:
		reason = "injected methods may not be abstract"
	case UnknownMethod:
		reason = "injected method does not exist"
	case MethodResults:
		reason = "injected methods may not return values"
	case MalformedTag:
		reason = "malformed injection tag"
	case InheritedMethod:
		reason = "injected method is already listed by a base level"
	default:
		reason = "invalid injection member"
	}
	msg := fmt.Sprintf("inject: %s: %s", reason, e.qualifiedName())
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *InvalidMemberError) qualifiedName() string {
	name := typeName(e.Type) + "." + e.Member
	switch e.Kind {
	case PrivateMethod, StaticMethod, AbstractMethod, UnknownMethod, MethodResults, InheritedMethod:
		name += "()"
	}
	return name
}

// Unwrap returns the underlying cause, if any.
func (e *InvalidMemberError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrInvalidMember.
func (e *InvalidMemberError) Is(target error) bool { return target == ErrInvalidMember }

// AppError converts the error for uniform reporting.
func (e *InvalidMemberError) AppError() *apperrors.AppError {
	return apperrors.InvalidMember(typeName(e.Type), e.Member, e.Error()).
		WithDetail("kind", e.Kind.String()).
		WithCause(e.Cause)
}

// UnresolvedDependencyError reports a key with no provider in the graph.
type UnresolvedDependencyError struct {
	Key Key
}

func (e *UnresolvedDependencyError) Error() string {
	return "inject: no binding for " + e.Key.String()
}

// Is reports whether target is ErrUnresolvedDependency.
func (e *UnresolvedDependencyError) Is(target error) bool { return target == ErrUnresolvedDependency }

// AppError converts the error for uniform reporting.
func (e *UnresolvedDependencyError) AppError() *apperrors.AppError {
	return apperrors.UnresolvedDependency(e.Key.String())
}

// InvalidTargetError reports a target type that cannot carry an injection plan.
type InvalidTargetError struct {
	Type   reflect.Type
	Reason string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("inject: invalid target %s: %s", typeName(e.Type), e.Reason)
}

// Is reports whether target is ErrInvalidTarget.
func (e *InvalidTargetError) Is(target error) bool { return target == ErrInvalidTarget }

// AppError converts the error for uniform reporting.
func (e *InvalidTargetError) AppError() *apperrors.AppError {
	return apperrors.InvalidTarget(typeName(e.Type), e.Reason)
}

// ContractViolationError is the panic value raised when a plan is applied to
// something it was not built for. It signals a programming error.
type ContractViolationError struct {
	Target reflect.Type
	Member string
	Reason string
}

func (e *ContractViolationError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("inject: %s.%s: %s", typeName(e.Target), e.Member, e.Reason)
	}
	return fmt.Sprintf("inject: %s: %s", typeName(e.Target), e.Reason)
}

// AppError converts the error for uniform reporting.
func (e *ContractViolationError) AppError() *apperrors.AppError {
	return apperrors.ContractViolation(typeName(e.Target), e.Error())
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
