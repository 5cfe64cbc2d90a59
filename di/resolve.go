package di

import (
	"fmt"

	"github.com/kbukum/injectkit/inject"
)

// Provide registers a lazy constructor for T under no qualifier.
//
// Example:
//
//	di.Provide[Store](c, func() (Store, error) { return NewStore(), nil })
func Provide[T any](c Container, constructor any, options ...LazyOption) error {
	return c.RegisterLazy(inject.KeyOf[T](""), constructor, options...)
}

// ProvideNamed registers a lazy constructor for T under qualifier.
func ProvideNamed[T any](c Container, qualifier string, constructor any, options ...LazyOption) error {
	return c.RegisterLazy(inject.KeyOf[T](qualifier), constructor, options...)
}

// ProvideValue binds an existing value of T under qualifier.
func ProvideValue[T any](c Container, qualifier string, value T) error {
	return c.RegisterSingleton(inject.KeyOf[T](qualifier), value)
}

// MustResolve resolves a component with type safety, panics on error.
// Use this in handlers when you need a dependency.
//
// Example:
//
//	repo := di.MustResolve[contracts.BotRepository](h.container, "primary")
func MustResolve[T any](c Container, qualifier string) T {
	result, err := Resolve[T](c, qualifier)
	if err != nil {
		panic(err.Error())
	}
	return result
}

// Resolve resolves a component with type safety, returns error on failure.
// Use this when you want to handle resolution errors gracefully.
//
// Example:
//
//	repo, err := di.Resolve[contracts.BotRepository](c, "")
//	if err != nil {
//	    return fmt.Errorf("failed to get bot repository: %w", err)
//	}
func Resolve[T any](c Container, qualifier string) (T, error) {
	var zero T
	key := inject.KeyOf[T](qualifier)
	instance, err := c.Resolve(key)
	if err != nil {
		return zero, fmt.Errorf("di: failed to resolve %s: %w", key, err)
	}
	if instance == nil {
		return zero, nil
	}
	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("di: component %s is %T, expected %s", key, instance, key.Type)
	}
	return result, nil
}

// TryResolve resolves a component, returns zero value and false if not found.
// Use this when a dependency is optional.
//
// Example:
//
//	if metrics, ok := di.TryResolve[MetricsClient](c, ""); ok {
//	    metrics.RecordEvent(...)
//	}
func TryResolve[T any](c Container, qualifier string) (T, bool) {
	result, err := Resolve[T](c, qualifier)
	if err != nil {
		var zero T
		return zero, false
	}
	return result, true
}
