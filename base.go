// Package mca implements the Modular Component Architecture base: component
// discovery, filtering, priority-ordered selection and wire-version module
// assignment for any number of named frameworks.
//
// A Base is the process context that owns the shared state (the plugin
// repository, the loader, observers, metrics). Frameworks are opened,
// selected and closed through it:
//
//	base := mca.NewBase(mca.WithLogger(logger), mca.WithComponentPath(dir))
//	fw := mca.NewFramework("bfrops", mca.WithStaticComponents(v20.Component, v21.Component))
//	if err := base.OpenFramework(fw); err != nil {
//		return err
//	}
//	if err := base.Select(fw); err != nil {
//		return err
//	}
//	mod := base.AssignModule(fw, peerVersion)
//
// Opening, selecting and closing are expected to happen during
// single-threaded startup and shutdown. Observers are notified of every
// decision through CloudEvents.
package mca

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/GoCodeAlone/mca/dl"
	"github.com/GoCodeAlone/mca/metrics"
)

// Verbosity levels used for framework output.
const (
	VerboseComponent = 10
	VerboseDebug     = 20
)

// Base is the MCA process context.
type Base struct {
	mu sync.Mutex

	logger         Logger
	loader         dl.Loader
	repo           *Repository
	metrics        *metrics.Metrics
	hostname       string
	componentPath  []string
	showLoadErrors bool
	frameworks     []*Framework

	observers     map[string]*observerRegistration
	observerMutex sync.RWMutex
}

// Option configures a Base.
type Option func(*Base)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(b *Base) {
		b.logger = logger
	}
}

// WithLoader replaces the dynamic loader.
func WithLoader(loader dl.Loader) Option {
	return func(b *Base) {
		b.loader = loader
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Base) {
		b.metrics = m
	}
}

// WithHostname overrides the hostname used in diagnostics.
func WithHostname(hostname string) Option {
	return func(b *Base) {
		b.hostname = hostname
	}
}

// WithComponentPath sets the directories searched for plugin files. Each
// entry may itself be a list separated by the OS path-list separator.
func WithComponentPath(paths ...string) Option {
	return func(b *Base) {
		for _, p := range paths {
			for _, dir := range filepath.SplitList(p) {
				if dir = strings.TrimSpace(dir); dir != "" {
					b.componentPath = append(b.componentPath, dir)
				}
			}
		}
	}
}

// WithShowLoadErrors reports plugin load failures at warning level instead
// of verbose output.
func WithShowLoadErrors(show bool) Option {
	return func(b *Base) {
		b.showLoadErrors = show
	}
}

// NewBase creates an MCA context.
func NewBase(opts ...Option) *Base {
	b := &Base{
		logger:         NopLogger{},
		showLoadErrors: true,
		observers:      make(map[string]*observerRegistration),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.loader == nil {
		b.loader = dl.NewPluginLoader()
	}
	if b.hostname == "" {
		if h, err := os.Hostname(); err == nil {
			b.hostname = h
		} else {
			b.hostname = "unknown"
		}
	}
	b.repo = NewRepository(b.loader, b.logger)
	return b
}

// Logger returns the base logger.
func (b *Base) Logger() Logger {
	return b.logger
}

// Metrics returns the metrics sink, which may be nil.
func (b *Base) Metrics() *metrics.Metrics {
	return b.metrics
}

// Repository returns the plugin repository.
func (b *Base) Repository() *Repository {
	return b.repo
}

// Hostname returns the hostname used in diagnostics.
func (b *Base) Hostname() string {
	return b.hostname
}

// ComponentPath returns the configured search directories.
func (b *Base) ComponentPath() []string {
	return append([]string(nil), b.componentPath...)
}

// RegisterFramework records fw with the base. Registering twice is a no-op.
// A closed framework of the same name is replaced.
func (b *Base) RegisterFramework(fw *Framework) error {
	if fw == nil {
		return ErrFrameworkNil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.frameworks {
		if existing == fw {
			return nil
		}
		if existing.name == fw.name && !existing.IsOpen() {
			b.frameworks[i] = fw
			return nil
		}
	}
	b.frameworks = append(b.frameworks, fw)
	return nil
}

// Frameworks returns the registered frameworks in registration order.
func (b *Base) Frameworks() []*Framework {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Framework(nil), b.frameworks...)
}

// Framework looks up a registered framework by name.
func (b *Base) Framework(name string) (*Framework, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, fw := range b.frameworks {
		if fw.name == name {
			return fw, true
		}
	}
	return nil, false
}

// Retain takes an extra reference on a dynamically loaded component.
func (b *Base) Retain(typ, name string) error {
	return b.repo.Retain(typ, name)
}

// Release drops a reference on a component. Components that were not
// loaded dynamically are ignored.
func (b *Base) Release(c Component) {
	b.repo.Release(c)
}

func (b *Base) verbose(fw *Framework, level int, msg string, args ...any) {
	if fw.Verbose() < level {
		return
	}
	b.logger.Debug(msg, append([]any{"framework", fw.name}, args...)...)
}
