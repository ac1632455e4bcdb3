// Package rte brings the runtime up and down: it opens the buffer-operations
// and security frameworks, selects their modules and starts the progress
// thread the rest of the process posts work to. Finalize undoes those steps
// in reverse order.
package rte

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoCodeAlone/mca"
	"github.com/GoCodeAlone/mca/bfrops"
	"github.com/GoCodeAlone/mca/bfrops/v20"
	"github.com/GoCodeAlone/mca/bfrops/v21"
	"github.com/GoCodeAlone/mca/dl"
	"github.com/GoCodeAlone/mca/introspect"
	"github.com/GoCodeAlone/mca/metrics"
	"github.com/GoCodeAlone/mca/progress"
	"github.com/GoCodeAlone/mca/psec"
	"github.com/GoCodeAlone/mca/psec/native"
	"github.com/GoCodeAlone/mca/psec/none"
)

// Subsystem names used in diagnostics.
const (
	SubsystemConfig   = "config"
	SubsystemMetrics  = "metrics"
	SubsystemBfrops   = bfrops.FrameworkName
	SubsystemPsec     = psec.FrameworkName
	SubsystemProgress = "progress"
)

type observerBinding struct {
	observer   mca.Observer
	eventTypes []string
}

type options struct {
	logger           mca.Logger
	registry         *prometheus.Registry
	loader           dl.Loader
	hostname         string
	bfropsComponents []mca.Component
	psecComponents   []mca.Component
	observers        []observerBinding
}

// Option configures Init.
type Option func(*options)

// WithLogger sets the logger shared by every subsystem.
func WithLogger(l mca.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegistry sets the Prometheus registry the runtime's collectors are
// registered with and served from.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithLoader replaces the dynamic loader.
func WithLoader(l dl.Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithHostname overrides the hostname used in diagnostics.
func WithHostname(h string) Option {
	return func(o *options) {
		o.hostname = h
	}
}

// WithBfropsComponents replaces the statically linked bfrops components.
func WithBfropsComponents(components ...mca.Component) Option {
	return func(o *options) {
		o.bfropsComponents = components
	}
}

// WithPsecComponents replaces the statically linked psec components.
func WithPsecComponents(components ...mca.Component) Option {
	return func(o *options) {
		o.psecComponents = components
	}
}

// WithObserver registers an observer before any framework opens.
func WithObserver(observer mca.Observer, eventTypes ...string) Option {
	return func(o *options) {
		o.observers = append(o.observers, observerBinding{observer: observer, eventTypes: eventTypes})
	}
}

// Runtime is an initialized runtime.
type Runtime struct {
	cfg      Config
	logger   mca.Logger
	base     *mca.Base
	registry *prometheus.Registry

	bfrops   *bfrops.Framework
	psec     *psec.Framework
	progress *progress.Engine
	evbase   *progress.EventBase

	mu        sync.Mutex
	finalized bool
	teardown  []func(context.Context) error
}

// Init initializes the runtime. A nil cfg uses DefaultConfig. On failure
// everything already started is torn down again and the error is an
// *InitError naming the subsystem.
func Init(ctx context.Context, cfg *Config, opts ...Option) (*Runtime, error) {
	o := &options{logger: mca.NopLogger{}}
	for _, opt := range opts {
		opt(o)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fail(o.logger, initError(SubsystemConfig, err))
	}

	r := &Runtime{cfg: *cfg, logger: o.logger, registry: o.registry}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}

	if err := r.init(ctx, o); err != nil {
		_ = r.Finalize(context.WithoutCancel(ctx))
		return nil, fail(o.logger, err)
	}

	r.logger.Info("Runtime initialized",
		"bfrops", r.base.AvailableModules(r.bfrops.Framework()),
		"psec", r.base.AvailableModules(r.psec.Framework()),
		"progressThread", r.evbase.Name(),
		"progressID", r.evbase.ID(),
	)
	return r, nil
}

func (r *Runtime) init(ctx context.Context, o *options) *InitError {
	met, err := metrics.New(r.registry)
	if err != nil {
		return initError(SubsystemMetrics, err)
	}

	baseOpts := []mca.Option{
		mca.WithLogger(r.logger),
		mca.WithMetrics(met),
		mca.WithShowLoadErrors(r.cfg.ShowLoadErrors),
	}
	if r.cfg.ComponentPath != "" {
		baseOpts = append(baseOpts, mca.WithComponentPath(r.cfg.ComponentPath))
	}
	if o.loader != nil {
		baseOpts = append(baseOpts, mca.WithLoader(o.loader))
	}
	if o.hostname != "" {
		baseOpts = append(baseOpts, mca.WithHostname(o.hostname))
	}
	r.base = mca.NewBase(baseOpts...)
	for _, ob := range o.observers {
		if err := r.base.RegisterObserver(ob.observer, ob.eventTypes...); err != nil {
			return initError(SubsystemConfig, err)
		}
	}

	var openOpts []mca.OpenOption
	if !r.cfg.AllowDynamic {
		openOpts = append(openOpts, mca.WithStaticOnly())
	}

	if err := ctx.Err(); err != nil {
		return initError(SubsystemBfrops, err)
	}
	bfropsComponents := o.bfropsComponents
	if bfropsComponents == nil {
		bfropsComponents = []mca.Component{v20.New(), v21.New()}
	}
	r.bfrops, err = bfrops.Open(r.base, r.cfg.bfropsConfig(), bfropsComponents, openOpts...)
	if err != nil {
		return initError(SubsystemBfrops, err)
	}
	r.onFinalize(func(context.Context) error { return r.bfrops.Close() })

	if err := ctx.Err(); err != nil {
		return initError(SubsystemPsec, err)
	}
	psecComponents := o.psecComponents
	if psecComponents == nil {
		var nativeOpts []native.Option
		if codec := r.bfrops.Default(); codec != nil {
			nativeOpts = append(nativeOpts, native.WithCodec(codec))
		}
		psecComponents = []mca.Component{native.New(nativeOpts...), none.New()}
	}
	r.psec, err = psec.Open(r.base, psec.Config{
		Selection: r.cfg.Psec.Selection,
		Verbose:   r.cfg.Psec.Verbose,
	}, psecComponents, openOpts...)
	if err != nil {
		return initError(SubsystemPsec, err)
	}
	r.onFinalize(func(context.Context) error { return r.psec.Close() })

	r.progress = progress.NewEngine(
		progress.WithLogger(r.logger),
		progress.WithKeepalive(r.cfg.Progress.Keepalive),
	)
	name := r.cfg.progressThread()
	r.evbase, err = r.progress.Init(name)
	if err != nil {
		return initError(SubsystemProgress, err)
	}
	r.onFinalize(func(ctx context.Context) error {
		if r.cfg.Progress.StopGrace > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.cfg.Progress.StopGrace)
			defer cancel()
		}
		return r.progress.Close(ctx)
	})
	if err := r.progress.Start(name); err != nil {
		return initError(SubsystemProgress, err)
	}
	return nil
}

func (r *Runtime) onFinalize(fn func(context.Context) error) {
	r.teardown = append(r.teardown, fn)
}

// fail logs the startup diagnostic for err.
func fail(logger mca.Logger, err *InitError) error {
	logger.Error("Runtime initialization failed",
		"subsystem", err.Subsystem,
		"status", err.Status.String(),
		"code", int32(err.Status),
		"error", err.Err,
	)
	return err
}

// Finalize stops the progress thread and closes the frameworks, in the
// reverse of the order Init started them. Every step runs even if an
// earlier one fails; the errors are joined.
func (r *Runtime) Finalize(ctx context.Context) error {
	r.mu.Lock()
	if r.finalized {
		r.mu.Unlock()
		return ErrAlreadyFinalized
	}
	r.finalized = true
	steps := r.teardown
	r.teardown = nil
	r.mu.Unlock()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		r.logger.Warn("Runtime finalized with errors", "error", err)
		return err
	}
	r.logger.Info("Runtime finalized")
	return nil
}

// Config returns the parameters the runtime was started with.
func (r *Runtime) Config() Config { return r.cfg }

// Base returns the MCA base.
func (r *Runtime) Base() *mca.Base { return r.base }

// Bfrops returns the buffer-operations framework.
func (r *Runtime) Bfrops() *bfrops.Framework { return r.bfrops }

// Psec returns the security framework.
func (r *Runtime) Psec() *psec.Framework { return r.psec }

// Progress returns the progress engine.
func (r *Runtime) Progress() *progress.Engine { return r.progress }

// EventBase returns the runtime's progress thread.
func (r *Runtime) EventBase() *progress.EventBase { return r.evbase }

// Registry returns the Prometheus registry of the runtime's collectors.
func (r *Runtime) Registry() *prometheus.Registry { return r.registry }

// Handler serves the introspection routes for this runtime.
func (r *Runtime) Handler() http.Handler {
	return introspect.NewRouter(r.base, r.registry)
}
