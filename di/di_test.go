package di

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/kbukum/injectkit/config"
	apperrors "github.com/kbukum/injectkit/errors"
	"github.com/kbukum/injectkit/inject"
	"github.com/kbukum/injectkit/logger"
)

func newTestContainer(opts ...Option) Container {
	return NewContainer(append([]Option{WithLogger(logger.Nop())}, opts...)...)
}

func fastRetry(attempts int) LazyOption {
	return WithRetryPolicy(&RetryPolicy{MaxAttempts: attempts, InitialBackoffMs: 1, MaxBackoffMs: 2, BackoffMultiplier: 2})
}

var greetingKey = inject.KeyOf[string]("greeting")

func TestRegisterAndResolve(t *testing.T) {
	c := newTestContainer()

	if err := c.Register(greetingKey, func() string { return "hello" }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	val, err := c.Resolve(greetingKey)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if val != "hello" {
		t.Errorf("expected 'hello', got %v", val)
	}
}

func TestResolveNotRegistered(t *testing.T) {
	c := newTestContainer()
	_, err := c.Resolve(inject.KeyOf[int]("missing"))

	var ude *inject.UnresolvedDependencyError
	if !errors.As(err, &ude) {
		t.Fatalf("expected *inject.UnresolvedDependencyError, got %v", err)
	}
	if ude.Key != inject.KeyOf[int]("missing") {
		t.Errorf("unexpected key %v", ude.Key)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	c := newTestContainer()
	if err := c.RegisterSingleton(greetingKey, "a"); err != nil {
		t.Fatalf("RegisterSingleton failed: %v", err)
	}

	tests := map[string]func() error{
		"singleton": func() error { return c.RegisterSingleton(greetingKey, "b") },
		"lazy":      func() error { return c.Register(greetingKey, func() string { return "b" }) },
		"eager":     func() error { return c.RegisterEager(greetingKey, func() string { return "b" }) },
	}
	for name, register := range tests {
		t.Run(name, func(t *testing.T) {
			if err := register(); !apperrors.HasCode(err, apperrors.ErrCodeAlreadyRegistered) {
				t.Errorf("expected ALREADY_REGISTERED, got %v", err)
			}
		})
	}
}

func TestRegisterInvalidConstructor(t *testing.T) {
	c := newTestContainer()
	tests := []struct {
		name        string
		constructor any
		want        string
	}{
		{"not a function", "value", "must be a function"},
		{"nil function", (func() string)(nil), "must be a function"},
		{"wrong parameter", func(int) string { return "" }, "unsupported parameter"},
		{"too many parameters", func(int, int) string { return "" }, "too many parameters"},
		{"no results", func() {}, "must return"},
		{"second result not error", func() (string, int) { return "", 0 }, "must return"},
		{"wrong type", func() int { return 1 }, "returns int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Register(greetingKey, tt.constructor)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterSingleton(t *testing.T) {
	c := newTestContainer()
	if err := c.RegisterSingleton(greetingKey, "singleton-value"); err != nil {
		t.Fatalf("RegisterSingleton failed: %v", err)
	}

	val, err := c.Resolve(greetingKey)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if val != "singleton-value" {
		t.Errorf("expected singleton-value, got %v", val)
	}

	if err := c.RegisterSingleton(inject.KeyOf[int](""), "not an int"); err == nil {
		t.Error("expected error for unassignable singleton")
	}
}

func TestRegisterEager(t *testing.T) {
	c := newTestContainer()
	called := false
	err := c.RegisterEager(greetingKey, func() string {
		called = true
		return "eager-value"
	})
	if err != nil {
		t.Fatalf("RegisterEager failed: %v", err)
	}
	if !called {
		t.Error("expected constructor to be called immediately for eager registration")
	}

	val, err := c.Resolve(greetingKey)
	if err != nil || val != "eager-value" {
		t.Errorf("expected eager-value, got %v, %v", val, err)
	}
}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }

func TestRegisterEagerWithError(t *testing.T) {
	c := newTestContainer()
	cause := &testErr{"boom"}
	err := c.RegisterEager(greetingKey, func() (string, error) { return "", cause })
	if !apperrors.HasCode(err, apperrors.ErrCodeConstructorFailed) {
		t.Fatalf("expected CONSTRUCTOR_FAILED, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if _, err := c.Resolve(greetingKey); err == nil {
		t.Error("expected failed eager component to stay unregistered")
	}
}

func TestRegisterLazy(t *testing.T) {
	c := newTestContainer()
	calls := 0
	err := c.RegisterLazy(greetingKey, func() string {
		calls++
		return "lazy"
	})
	if err != nil {
		t.Fatalf("RegisterLazy failed: %v", err)
	}
	if calls != 0 {
		t.Fatal("expected lazy constructor not called at registration")
	}

	for i := 0; i < 3; i++ {
		if val, err := c.Resolve(greetingKey); err != nil || val != "lazy" {
			t.Fatalf("expected lazy, got %v, %v", val, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected constructor called once, got %d", calls)
	}
}

func TestLazyRetry(t *testing.T) {
	c := newTestContainer()
	attempts := 0
	err := c.RegisterLazy(greetingKey, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", &testErr{"not yet"}
		}
		return "ready", nil
	}, fastRetry(3))
	if err != nil {
		t.Fatalf("RegisterLazy failed: %v", err)
	}

	val, err := c.Resolve(greetingKey)
	if err != nil || val != "ready" {
		t.Fatalf("expected ready after retries, got %v, %v", val, err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestLazyRetryExhausted(t *testing.T) {
	c := newTestContainer()
	attempts := 0
	_ = c.RegisterLazy(greetingKey, func() (string, error) {
		attempts++
		return "", &testErr{"down"}
	}, fastRetry(2))

	_, err := c.Resolve(greetingKey)
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeConstructorFailed {
		t.Fatalf("expected CONSTRUCTOR_FAILED, got %v", err)
	}
	if !appErr.Retryable {
		t.Error("expected constructor failures to be retryable")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}

	// A later resolve tries again.
	_, _ = c.Resolve(greetingKey)
	if attempts != 4 {
		t.Errorf("expected retry on next resolve, got %d attempts", attempts)
	}
}

func TestConstructorReceivesContainerAndContext(t *testing.T) {
	c := newTestContainer()
	_ = c.RegisterSingleton(inject.KeyOf[string]("name"), "world")
	_ = c.Register(greetingKey, func(c Container) (string, error) {
		name, err := Resolve[string](c, "name")
		return "hello " + name, err
	})
	_ = c.Register(inject.KeyOf[bool]("ctx"), func(ctx context.Context) bool { return ctx != nil })

	if got := MustResolve[string](c, "greeting"); got != "hello world" {
		t.Errorf("expected 'hello world', got %q", got)
	}
	if !MustResolve[bool](c, "ctx") {
		t.Error("expected context passed to constructor")
	}
}

func TestGenericHelpers(t *testing.T) {
	c := newTestContainer()
	if err := Provide[int](c, func() int { return 42 }); err != nil {
		t.Fatalf("Provide failed: %v", err)
	}
	if err := ProvideNamed[string](c, "env", func() string { return "prod" }); err != nil {
		t.Fatalf("ProvideNamed failed: %v", err)
	}
	if err := ProvideValue(c, "", 1.5); err != nil {
		t.Fatalf("ProvideValue failed: %v", err)
	}

	if v, err := Resolve[int](c, ""); err != nil || v != 42 {
		t.Errorf("expected 42, got %v, %v", v, err)
	}
	if v := MustResolve[string](c, "env"); v != "prod" {
		t.Errorf("expected prod, got %q", v)
	}
	if v, ok := TryResolve[float64](c, ""); !ok || v != 1.5 {
		t.Errorf("expected 1.5, got %v, %v", v, ok)
	}
	if _, ok := TryResolve[string](c, "missing"); ok {
		t.Error("expected TryResolve to report missing key")
	}
}

func TestMustResolvePanicsOnMissing(t *testing.T) {
	c := newTestContainer()
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	MustResolve[string](c, "missing")
}

func TestResolveNilInstance(t *testing.T) {
	c := newTestContainer()
	_ = c.RegisterSingleton(inject.KeyOf[error](""), nil)
	v, err := Resolve[error](c, "")
	if err != nil || v != nil {
		t.Errorf("expected nil error value, got %v, %v", v, err)
	}
}

type mockCloser struct {
	closed bool
	err    error
}

func (m *mockCloser) Close() error {
	m.closed = true
	return m.err
}

func TestClose(t *testing.T) {
	c := newTestContainer()
	single := &mockCloser{}
	eager := &mockCloser{err: &testErr{"close failed"}}
	lazy := &mockCloser{}

	_ = c.RegisterSingleton(inject.KeyOf[*mockCloser]("single"), single)
	_ = c.RegisterEager(inject.KeyOf[*mockCloser]("eager"), func() *mockCloser { return eager })
	_ = c.Register(inject.KeyOf[*mockCloser]("lazy"), func() *mockCloser { return lazy })

	err := c.Close()
	if !single.closed || !eager.closed {
		t.Error("expected initialized components closed")
	}
	if lazy.closed {
		t.Error("expected unresolved lazy component left alone")
	}
	if err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Errorf("expected joined close error, got %v", err)
	}
}

func TestCloseDuringContainerConstructor(t *testing.T) {
	c := newTestContainer()
	_ = c.RegisterSingleton(greetingKey, "hi")

	entered := make(chan struct{})
	proceed := make(chan struct{})
	_ = c.Register(inject.KeyOf[*mockCloser]("dependent"), func(inner Container) (*mockCloser, error) {
		close(entered)
		<-proceed
		if _, err := inner.Resolve(greetingKey); err != nil {
			return nil, err
		}
		return &mockCloser{}, nil
	})

	resolved := make(chan error, 1)
	go func() {
		_, err := c.Resolve(inject.KeyOf[*mockCloser]("dependent"))
		resolved <- err
	}()
	<-entered

	closed := make(chan error, 1)
	go func() { closed <- c.Close() }()
	time.Sleep(20 * time.Millisecond)
	close(proceed)

	for _, ch := range []chan error{resolved, closed} {
		select {
		case err := <-ch:
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Close and a resolving constructor deadlocked")
		}
	}
}

func TestCloseRunsShutdownHooks(t *testing.T) {
	var order []string
	c := newTestContainer(
		WithShutdown(func(context.Context) error {
			order = append(order, "first")
			return nil
		}),
		WithShutdown(func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected shutdown deadline")
			}
			order = append(order, "second")
			return &testErr{"flush failed"}
		}),
	)
	closer := &mockCloser{}
	_ = c.RegisterSingleton(inject.KeyOf[*mockCloser](""), closer)

	err := c.Close()
	if !closer.closed {
		t.Error("expected component closed")
	}
	if strings.Join(order, ",") != "first,second" {
		t.Errorf("unexpected hook order %v", order)
	}
	if err == nil || !strings.Contains(err.Error(), "flush failed") {
		t.Errorf("expected hook error, got %v", err)
	}
}

func TestNilRetryPolicyUsesDefault(t *testing.T) {
	c := newTestContainer()
	if err := c.Register(greetingKey, func() string { return "hi" }, WithRetryPolicy(nil)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if v, err := c.Resolve(greetingKey); err != nil || v != "hi" {
		t.Errorf("expected hi, got %v, %v", v, err)
	}
}

func TestInvalidateCacheAndRefresh(t *testing.T) {
	c := newTestContainer()
	calls := 0
	if err := c.Register(inject.KeyOf[int](""), func() int {
		calls++
		return calls
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	first := MustResolve[int](c, "")
	v, err := c.Refresh(inject.KeyOf[int](""))
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if v == first {
		t.Errorf("expected fresh instance after refresh, got %v", v)
	}

	if err := c.InvalidateCache(inject.KeyOf[int]("nope")); !errors.Is(err, inject.ErrUnresolvedDependency) {
		t.Errorf("expected unresolved error, got %v", err)
	}

	_ = c.RegisterSingleton(inject.KeyOf[string]("s"), "x")
	if err := c.InvalidateCache(inject.KeyOf[string]("s")); err != nil {
		t.Fatalf("InvalidateCache failed: %v", err)
	}
	if _, err := c.Resolve(inject.KeyOf[string]("s")); err == nil {
		t.Error("expected invalidated singleton removed")
	}
}

func TestRegistrations(t *testing.T) {
	c := newTestContainer()
	_ = c.RegisterSingleton(inject.KeyOf[string]("a"), "a")
	_ = c.RegisterEager(inject.KeyOf[string]("b"), func() string { return "b" })
	_ = c.Register(inject.KeyOf[string]("c"), func() string { return "c" })

	regs := c.Registrations()
	if len(regs) != 3 {
		t.Fatalf("expected 3 registrations, got %d", len(regs))
	}
	want := []struct {
		mode        RegistrationMode
		initialized bool
	}{{Singleton, true}, {Eager, true}, {Lazy, false}}
	for i, w := range want {
		if regs[i].Mode != w.mode || regs[i].Initialized != w.initialized {
			t.Errorf("registration %d (%v): expected %v/%v, got %v/%v",
				i, regs[i].Key, w.mode, w.initialized, regs[i].Mode, regs[i].Initialized)
		}
	}
}

func TestRegistrationModeString(t *testing.T) {
	if Eager.String() != "eager" || Lazy.String() != "lazy" || Singleton.String() != "singleton" {
		t.Error("unexpected mode names")
	}
}

func TestBinding(t *testing.T) {
	c := newTestContainer()
	_ = c.Register(greetingKey, func() string { return "hi" })

	p, err := c.Binding(greetingKey)
	if err != nil {
		t.Fatalf("Binding failed: %v", err)
	}
	if p.Get() != "hi" {
		t.Errorf("expected hi, got %v", p.Get())
	}

	if _, err := c.Binding(inject.KeyOf[int]("")); !errors.Is(err, inject.ErrUnresolvedDependency) {
		t.Errorf("expected unresolved dependency, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	disabled := false
	cfg := &config.InjectorConfig{Name: "orders", TagName: "wire", CachePlans: &disabled}
	cfg.Logging.Level = "disabled"

	c, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if cfg.Environment != "" {
		t.Error("expected caller config left untouched")
	}

	type wired struct {
		Name string `wire:""`
	}
	_ = ProvideValue(c, "", "n")

	first, err := c.MembersInjector(reflect.TypeFor[wired]())
	if err != nil {
		t.Fatalf("MembersInjector failed: %v", err)
	}
	second, _ := c.MembersInjector(reflect.TypeFor[wired]())
	if first == second {
		t.Error("expected no plan caching when disabled")
	}

	w := &wired{}
	if err := c.InjectMembers(w); err != nil || w.Name != "n" {
		t.Errorf("expected tag name from config, got %+v, %v", w, err)
	}

	if _, err := NewFromConfig(&config.InjectorConfig{Environment: "qa"}); err == nil {
		t.Error("expected invalid config rejected")
	}
}

func TestNewFromConfigExportsTelemetry(t *testing.T) {
	var mu sync.Mutex
	paths := make(map[string]int)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		paths[r.URL.Path]++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	tracers, meters := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tracers)
		otel.SetMeterProvider(meters)
	})

	cfg := &config.InjectorConfig{
		Name:           "orders",
		MetricsEnabled: true,
		Observability: config.Observability{
			Enabled:  true,
			Endpoint: strings.TrimPrefix(collector.URL, "http://"),
			Insecure: true,
		},
	}
	cfg.Logging.Level = "disabled"

	c, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}

	type exported struct {
		Name string `inject:""`
	}
	_ = ProvideValue(c, "", "n")
	w := &exported{}
	if err := c.InjectMembers(w); err != nil || w.Name != "n" {
		t.Fatalf("unexpected injection result %+v, %v", w, err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, path := range []string{"/v1/traces", "/v1/metrics"} {
		if paths[path] == 0 {
			t.Errorf("expected export to %s, got %v", path, paths)
		}
	}
}

func TestConcurrentResolve(t *testing.T) {
	c := newTestContainer()
	calls := 0
	_ = c.Register(greetingKey, func() string {
		calls++
		return "once"
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := c.Resolve(greetingKey); err != nil || v != "once" {
				t.Errorf("unexpected %v, %v", v, err)
			}
		}()
	}
	wg.Wait()
	if calls != 1 {
		t.Errorf("expected single construction, got %d", calls)
	}
}
