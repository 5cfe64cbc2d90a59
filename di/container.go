package di

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"reflect"
	"sort"
	"sync"
	"time"

	apperrors "github.com/kbukum/injectkit/errors"
	"github.com/kbukum/injectkit/inject"
	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/observability"
)

// RegistrationMode determines how a component should be resolved
type RegistrationMode int

const (
	Eager     RegistrationMode = iota // Initialize immediately on registration
	Lazy                              // Initialize on first resolve
	Singleton                         // Pre-created instance
)

func (m RegistrationMode) String() string {
	switch m {
	case Eager:
		return "eager"
	case Lazy:
		return "lazy"
	case Singleton:
		return "singleton"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Container is a binding graph that also owns instance lifecycles and caches
// injection plans per type.
type Container interface {
	inject.Graph

	Register(key inject.Key, constructor any, options ...LazyOption) error
	RegisterLazy(key inject.Key, constructor any, options ...LazyOption) error
	RegisterEager(key inject.Key, constructor any) error
	RegisterSingleton(key inject.Key, instance any) error
	Resolve(key inject.Key) (any, error)

	// MembersInjector returns the cached plan for t, building it on first use.
	MembersInjector(t reflect.Type) (*inject.Plan, error)
	// InjectMembers populates instance, a non-nil pointer to a struct.
	InjectMembers(instance any) error

	Registrations() []RegistrationInfo
	InvalidateCache(key inject.Key) error
	Refresh(key inject.Key) (any, error)
	Close() error
}

// RegistrationInfo describes a registered component for introspection.
type RegistrationInfo struct {
	Key         inject.Key
	Mode        RegistrationMode // Eager, Lazy, or Singleton
	Initialized bool
}

// UnifiedContainer is the default Container.
type UnifiedContainer struct {
	components map[inject.Key]*ComponentRegistration
	singletons map[inject.Key]any
	mutex      sync.RWMutex

	plans      sync.Map // reflect.Type -> *inject.Plan
	cachePlans bool
	planOpts   []inject.Option
	log        *logger.Logger
	metrics    *observability.Metrics
	shutdowns  []func(context.Context) error
}

type ComponentRegistration struct {
	key         inject.Key
	constructor reflect.Value
	mode        RegistrationMode
	instance    any
	mutex       sync.RWMutex
	initialized bool
	lastError   error
	retryPolicy *RetryPolicy
}

// RetryPolicy controls how often a failing lazy constructor is retried.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoffMs  int
	MaxBackoffMs      int
	BackoffMultiplier float64
}

type LazyOption func(*ComponentRegistration)

// Option configures a container.
type Option func(*UnifiedContainer)

// WithLogger sets the container logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *UnifiedContainer) { c.log = l }
}

// WithMetrics records plan builds, injections and failures on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *UnifiedContainer) { c.metrics = m }
}

// WithPlanCache enables or disables plan caching (enabled by default).
func WithPlanCache(enabled bool) Option {
	return func(c *UnifiedContainer) { c.cachePlans = enabled }
}

// WithShutdown registers fn to run when the container is closed, after
// every component has been closed.
func WithShutdown(fn func(context.Context) error) Option {
	return func(c *UnifiedContainer) { c.shutdowns = append(c.shutdowns, fn) }
}

// WithPlanOptions passes options to every plan build.
func WithPlanOptions(opts ...inject.Option) Option {
	return func(c *UnifiedContainer) { c.planOpts = append(c.planOpts, opts...) }
}

func NewContainer(opts ...Option) Container {
	c := &UnifiedContainer{
		components: make(map[inject.Key]*ComponentRegistration),
		singletons: make(map[inject.Key]any),
		cachePlans: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get("di")
	}
	return c
}

// Register component with lazy loading by default (most common case)
func (c *UnifiedContainer) Register(key inject.Key, constructor any, options ...LazyOption) error {
	return c.RegisterLazy(key, constructor, options...)
}

// RegisterLazy registers a component for lazy initialization
func (c *UnifiedContainer) RegisterLazy(key inject.Key, constructor any, options ...LazyOption) error {
	fn, err := c.checkConstructor(key, constructor)
	if err != nil {
		return err
	}

	registration := &ComponentRegistration{
		key:         key,
		constructor: fn,
		mode:        Lazy,
		retryPolicy: defaultRetryPolicy(),
	}
	for _, opt := range options {
		opt(registration)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.registeredLocked(key) {
		return apperrors.AlreadyRegistered(key.String())
	}
	c.components[key] = registration
	return nil
}

// RegisterEager registers a component for immediate initialization
func (c *UnifiedContainer) RegisterEager(key inject.Key, constructor any) error {
	fn, err := c.checkConstructor(key, constructor)
	if err != nil {
		return err
	}

	c.mutex.RLock()
	exists := c.registeredLocked(key)
	c.mutex.RUnlock()
	if exists {
		return apperrors.AlreadyRegistered(key.String())
	}

	// Constructors may resolve other components, so run unlocked.
	instance, err := c.callConstructor(fn)
	if err != nil {
		c.recordError("constructor_failed")
		return apperrors.ConstructorFailed(key.String(), err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.registeredLocked(key) {
		return apperrors.AlreadyRegistered(key.String())
	}
	c.components[key] = &ComponentRegistration{
		key:         key,
		constructor: fn,
		mode:        Eager,
		instance:    instance,
		initialized: true,
	}
	return nil
}

// RegisterSingleton registers a pre-created instance
func (c *UnifiedContainer) RegisterSingleton(key inject.Key, instance any) error {
	if instance != nil && key.Type != nil && !reflect.TypeOf(instance).AssignableTo(key.Type) {
		return fmt.Errorf("di: instance of %T cannot be bound to %s", instance, key)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.registeredLocked(key) {
		return apperrors.AlreadyRegistered(key.String())
	}
	c.singletons[key] = instance
	return nil
}

func (c *UnifiedContainer) registeredLocked(key inject.Key) bool {
	if _, ok := c.singletons[key]; ok {
		return true
	}
	_, ok := c.components[key]
	return ok
}

// Resolve gets a component instance
func (c *UnifiedContainer) Resolve(key inject.Key) (any, error) {
	// Check singletons first
	c.mutex.RLock()
	if singleton, exists := c.singletons[key]; exists {
		c.mutex.RUnlock()
		return singleton, nil
	}

	registration, exists := c.components[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, &inject.UnresolvedDependencyError{Key: key}
	}

	return c.resolveComponent(registration)
}

// Binding implements inject.Graph. The returned provider resolves the key on
// every Get, so lazy components are constructed at first injection. A
// provider whose component fails to construct panics with the *AppError.
func (c *UnifiedContainer) Binding(key inject.Key) (inject.Provider, error) {
	c.mutex.RLock()
	exists := c.registeredLocked(key)
	c.mutex.RUnlock()
	if !exists {
		return nil, &inject.UnresolvedDependencyError{Key: key}
	}

	return inject.ProviderFunc(func() any {
		instance, err := c.Resolve(key)
		if err != nil {
			panic(apperrors.Wrap(err))
		}
		return instance
	}), nil
}

func (c *UnifiedContainer) resolveComponent(registration *ComponentRegistration) (any, error) {
	switch registration.mode {
	case Eager:
		return c.resolveEager(registration)
	case Lazy:
		return c.resolveLazy(registration)
	default:
		return nil, apperrors.Internal(fmt.Errorf("unknown registration mode for component: %s", registration.key))
	}
}

func (c *UnifiedContainer) resolveEager(registration *ComponentRegistration) (any, error) {
	registration.mutex.RLock()
	defer registration.mutex.RUnlock()
	if registration.initialized {
		return registration.instance, nil
	}
	return nil, apperrors.Internal(fmt.Errorf("eager component not properly initialized: %s", registration.key))
}

func (c *UnifiedContainer) resolveLazy(registration *ComponentRegistration) (any, error) {
	// Try to get cached instance
	registration.mutex.RLock()
	if registration.initialized && registration.lastError == nil {
		instance := registration.instance
		registration.mutex.RUnlock()
		return instance, nil
	}
	registration.mutex.RUnlock()

	// Initialize with retry logic
	return c.initializeWithRetry(registration)
}

func (c *UnifiedContainer) initializeWithRetry(registration *ComponentRegistration) (any, error) {
	registration.mutex.Lock()
	defer registration.mutex.Unlock()

	// Double-check pattern
	if registration.initialized && registration.lastError == nil {
		return registration.instance, nil
	}

	policy := registration.retryPolicy
	if policy == nil {
		policy = defaultRetryPolicy()
	}
	attempts := max(policy.MaxAttempts, 1)
	backoffMs := policy.InitialBackoffMs

	var lastError error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(backoffMs) * time.Millisecond)
			backoffMs = int(float64(backoffMs) * policy.BackoffMultiplier)
			if backoffMs > policy.MaxBackoffMs {
				backoffMs = policy.MaxBackoffMs
			}
		}

		instance, err := c.callConstructor(registration.constructor)
		if err != nil {
			lastError = err
			c.log.Debug("lazy component initialization failed", logger.MergeWithError(logger.Fields(
				logger.FieldKey, registration.key.String(),
				logger.FieldAttempt, attempt+1,
			), err))
			continue
		}

		registration.instance = instance
		registration.initialized = true
		registration.lastError = nil

		c.log.Debug("lazy component initialized", logger.Fields(
			logger.FieldKey, registration.key.String(),
			logger.FieldAttempt, attempt+1,
		))
		return instance, nil
	}

	registration.lastError = lastError
	c.recordError("constructor_failed")
	return nil, apperrors.ConstructorFailed(registration.key.String(), lastError).
		WithDetail("attempts", attempts)
}

var (
	contextType   = reflect.TypeFor[context.Context]()
	errorType     = reflect.TypeFor[error]()
	containerType = reflect.TypeFor[Container]()
)

// checkConstructor validates a constructor's signature against key.
// Accepted forms: func() T, func() (T, error), and the same taking a
// context.Context or a Container.
func (c *UnifiedContainer) checkConstructor(key inject.Key, constructor any) (reflect.Value, error) {
	fn := reflect.ValueOf(constructor)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return fn, fmt.Errorf("di: constructor for %s must be a function, got %T", key, constructor)
	}

	ft := fn.Type()
	switch ft.NumIn() {
	case 0:
	case 1:
		if in := ft.In(0); in != contextType && in != containerType {
			return fn, fmt.Errorf("di: constructor for %s takes unsupported parameter %s", key, in)
		}
	default:
		return fn, fmt.Errorf("di: constructor for %s takes too many parameters", key)
	}

	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return fn, fmt.Errorf("di: constructor for %s must return (instance) or (instance, error)", key)
		}
	default:
		return fn, fmt.Errorf("di: constructor for %s must return (instance) or (instance, error)", key)
	}

	if key.Type != nil && !ft.Out(0).AssignableTo(key.Type) {
		return fn, fmt.Errorf("di: constructor for %s returns %s", key, ft.Out(0))
	}
	return fn, nil
}

func (c *UnifiedContainer) callConstructor(fn reflect.Value) (any, error) {
	var args []reflect.Value
	if fn.Type().NumIn() == 1 {
		if fn.Type().In(0) == contextType {
			args = []reflect.Value{reflect.ValueOf(context.Background())}
		} else {
			args = []reflect.Value{reflect.ValueOf(Container(c))}
		}
	}
	return c.handleConstructorResults(fn.Call(args))
}

func (c *UnifiedContainer) handleConstructorResults(results []reflect.Value) (any, error) {
	if len(results) == 2 {
		if err, _ := results[1].Interface().(error); err != nil {
			return nil, err
		}
	}
	return results[0].Interface(), nil
}

// Registrations returns info about all registered components, ordered by key.
func (c *UnifiedContainer) Registrations() []RegistrationInfo {
	components, singletons := c.snapshot()

	result := make([]RegistrationInfo, 0, len(components)+len(singletons))
	for key, reg := range components {
		reg.mutex.RLock()
		result = append(result, RegistrationInfo{
			Key:         key,
			Mode:        reg.mode,
			Initialized: reg.initialized,
		})
		reg.mutex.RUnlock()
	}

	for key := range singletons {
		result = append(result, RegistrationInfo{
			Key:         key,
			Mode:        Singleton,
			Initialized: true,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key.String() < result[j].Key.String()
	})
	return result
}

// snapshot copies the registration maps under c.mutex. Registration locks
// must not be taken while c.mutex is held: a lazy constructor resolves
// through the container while holding its own registration lock.
func (c *UnifiedContainer) snapshot() (map[inject.Key]*ComponentRegistration, map[inject.Key]any) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return maps.Clone(c.components), maps.Clone(c.singletons)
}

const shutdownTimeout = 5 * time.Second

// Close closes every initialized instance implementing io.Closer, then runs
// the shutdown hooks, and returns the joined errors.
func (c *UnifiedContainer) Close() error {
	components, singletons := c.snapshot()

	var errs []error
	closeOne := func(key inject.Key, instance any) {
		closer, ok := instance.(interface{ Close() error })
		if !ok {
			return
		}
		if err := closer.Close(); err != nil {
			c.log.Warn("component close failed", logger.MergeWithError(logger.Fields(
				logger.FieldKey, key.String(),
			), err))
			errs = append(errs, fmt.Errorf("closing %s: %w", key, err))
		}
	}

	for key, registration := range components {
		registration.mutex.RLock()
		instance, initialized := registration.instance, registration.initialized
		registration.mutex.RUnlock()
		if initialized && instance != nil {
			closeOne(key, instance)
		}
	}
	for key, singleton := range singletons {
		closeOne(key, singleton)
	}

	if len(c.shutdowns) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, shutdown := range c.shutdowns {
			if err := shutdown(ctx); err != nil {
				c.log.Warn("shutdown hook failed", logger.MergeWithError(nil, err))
				errs = append(errs, err)
			}
		}
	}

	return stderrors.Join(errs...)
}

// InvalidateCache drops a component's instance so the next resolve builds it
// again. Singletons are removed.
func (c *UnifiedContainer) InvalidateCache(key inject.Key) error {
	c.mutex.Lock()
	registration, exists := c.components[key]
	if !exists {
		defer c.mutex.Unlock()
		if _, ok := c.singletons[key]; ok {
			delete(c.singletons, key)
			c.plans.Clear()
			return nil
		}
		return &inject.UnresolvedDependencyError{Key: key}
	}
	c.mutex.Unlock()

	if registration.mode == Eager {
		return fmt.Errorf("di: eager component %s cannot be invalidated", key)
	}
	registration.mutex.Lock()
	registration.initialized = false
	registration.instance = nil
	registration.lastError = nil
	registration.mutex.Unlock()
	return nil
}

func (c *UnifiedContainer) Refresh(key inject.Key) (any, error) {
	if err := c.InvalidateCache(key); err != nil {
		return nil, err
	}
	return c.Resolve(key)
}

func (c *UnifiedContainer) recordError(errType string) {
	if c.metrics != nil {
		c.metrics.RecordError(context.Background(), errType, "di")
	}
}

// WithRetryPolicy overrides the retry policy of a lazy registration.
func WithRetryPolicy(policy *RetryPolicy) LazyOption {
	return func(reg *ComponentRegistration) {
		if policy == nil {
			policy = defaultRetryPolicy()
		}
		reg.retryPolicy = policy
	}
}

func defaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		InitialBackoffMs:  1000,
		MaxBackoffMs:      30000,
		BackoffMultiplier: 2.0,
	}
}
