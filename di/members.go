package di

import (
	"fmt"
	"reflect"

	apperrors "github.com/kbukum/injectkit/errors"
	"github.com/kbukum/injectkit/inject"
	"github.com/kbukum/injectkit/logger"
)

// MembersInjector returns the plan for t (a struct or pointer to struct),
// building it against the container on first use. Concurrent first builds
// may race; the first stored plan wins. Failed builds are not cached.
func (c *UnifiedContainer) MembersInjector(t reflect.Type) (*inject.Plan, error) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if c.cachePlans && t != nil {
		if plan, ok := c.plans.Load(t); ok {
			return plan.(*inject.Plan), nil
		}
	}

	plan, err := inject.BuildPlan(t, c, c.buildOptions()...)
	if err != nil {
		return nil, err
	}
	if !c.cachePlans {
		return plan, nil
	}

	actual, loaded := c.plans.LoadOrStore(t, plan)
	if !loaded {
		c.log.Debug("injection plan cached", logger.Fields(
			logger.FieldTarget, t.String(),
			logger.FieldPlanID, plan.ID(),
		))
	}
	return actual.(*inject.Plan), nil
}

func (c *UnifiedContainer) buildOptions() []inject.Option {
	opts := make([]inject.Option, 0, len(c.planOpts)+1)
	if c.metrics != nil {
		opts = append(opts, inject.WithMetrics(c.metrics))
	}
	return append(opts, c.planOpts...)
}

// InjectMembers populates instance from the container. Components that fail
// to construct during injection are returned as errors; the instance may then
// be partially injected. Misuse of a plan still panics.
func (c *UnifiedContainer) InjectMembers(instance any) (err error) {
	t := reflect.TypeOf(instance)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return &inject.InvalidTargetError{Type: t, Reason: "instance must be a pointer to a struct"}
	}
	if reflect.ValueOf(instance).IsNil() {
		return &inject.InvalidTargetError{Type: t, Reason: "nil instance"}
	}

	plan, err := c.MembersInjector(t)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			appErr, ok := r.(*apperrors.AppError)
			if !ok {
				panic(r)
			}
			err = appErr
		}
	}()
	plan.InjectMembers(instance)
	return nil
}

// InjectMembers populates instance from c.
func InjectMembers(c Container, instance any) error {
	return c.InjectMembers(instance)
}

// ProvideStruct binds *T under qualifier to a lazy constructor that
// allocates a T and injects its members from c.
//
//	di.ProvideStruct[Service](c, "")
//	svc := di.MustResolve[*Service](c, "")
func ProvideStruct[T any](c Container, qualifier string) error {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return &inject.InvalidTargetError{Type: t, Reason: "type parameter must be a struct type"}
	}
	if _, err := c.MembersInjector(t); err != nil {
		return fmt.Errorf("di: providing %s: %w", t, err)
	}

	key := inject.KeyOf[*T](qualifier)
	return c.RegisterLazy(key, func(c Container) (*T, error) {
		instance := new(T)
		if err := c.InjectMembers(instance); err != nil {
			return nil, err
		}
		return instance, nil
	}, WithRetryPolicy(&RetryPolicy{MaxAttempts: 1}))
}
