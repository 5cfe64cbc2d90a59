package inject

import (
	"context"

	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/observability"
)

// Option configures plan building.
type Option func(*options)

type options struct {
	ctx      context.Context
	provider MetadataProvider
	tagName  string
	log      *logger.Logger
	metrics  *observability.Metrics
}

func newOptions(opts []Option) *options {
	o := &options{ctx: context.Background()}
	for _, opt := range opts {
		opt(o)
	}
	if o.provider == nil {
		o.provider = NewReflectProvider(o.tagName)
	}
	if o.log == nil {
		o.log = logger.Get("inject")
	}
	return o
}

// WithProvider replaces the reflective metadata provider.
func WithProvider(p MetadataProvider) Option {
	return func(o *options) { o.provider = p }
}

// WithTagName sets the struct tag key read by the default provider.
func WithTagName(name string) Option {
	return func(o *options) { o.tagName = name }
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records plan builds and injections on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithContext parents the plan build span under ctx.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}
