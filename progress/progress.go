// Package progress runs named progress threads. Each thread owns an event
// base: a single goroutine that executes posted events one at a time, in
// posting order. Subsystems that need work done off the caller's goroutine
// share a thread by name; asking for a name that already exists returns the
// same event base and bumps its reference count.
//
// A recurring keepalive event, scheduled with cron, keeps every running base
// busy so that a thread with nothing posted still shows it is alive.
package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/GoCodeAlone/mca"
)

// SharedName is the thread used when no name is given.
const SharedName = "shared"

// DefaultKeepalive is the keepalive schedule of new threads.
const DefaultKeepalive = "@every 1s"

// Engine tracks the progress threads of one runtime.
type Engine struct {
	mu        sync.Mutex
	threads   map[string]*thread
	logger    mca.Logger
	keepalive string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l mca.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithKeepalive sets the cron schedule of the keepalive event, e.g.
// "@every 5s". An empty schedule disables it.
func WithKeepalive(schedule string) Option {
	return func(e *Engine) {
		e.keepalive = schedule
	}
}

// NewEngine creates an engine with no threads.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		threads:   make(map[string]*thread),
		logger:    mca.NopLogger{},
		keepalive: DefaultKeepalive,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type thread struct {
	base    *EventBase
	refs    int
	cron    *cron.Cron
	stop    chan struct{}
	stopped chan struct{}
	// exited is closed by the previous loop of a restarted thread.
	exited chan struct{}
}

func (t *thread) running() bool {
	return t.stop != nil
}

func normalize(name string) string {
	if name == "" {
		return SharedName
	}
	return name
}

// Init returns the event base for name, creating it on first use. The
// thread does not run until Start.
func (e *Engine) Init(name string) (*EventBase, error) {
	name = normalize(name)
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.threads[name]; ok {
		t.refs++
		return t.base, nil
	}

	if e.keepalive != "" {
		if _, err := cron.ParseStandard(e.keepalive); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidKeepalive, e.keepalive, err)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	base := newEventBase(name, id, e.logger)
	e.threads[name] = &thread{base: base, refs: 1}
	e.logger.Debug("Progress thread initialized", "thread", name, "id", id)
	return base, nil
}

// Start runs the thread for name. Starting a running thread is a no-op.
func (e *Engine) Start(name string) error {
	name = normalize(name)
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.threads[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, name)
	}
	if t.running() {
		return nil
	}

	var c *cron.Cron
	if e.keepalive != "" {
		c = cron.New()
		if _, err := c.AddFunc(e.keepalive, t.base.keepalive); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidKeepalive, e.keepalive, err)
		}
	}

	t.stop = make(chan struct{})
	t.stopped = make(chan struct{})
	go func(base *EventBase, prev <-chan struct{}, stop <-chan struct{}, stopped chan<- struct{}) {
		defer close(stopped)
		if prev != nil {
			select {
			case <-prev:
			case <-stop:
				return
			}
		}
		base.loop(stop)
	}(t.base, t.exited, t.stop, t.stopped)

	if c != nil {
		t.cron = c
		c.Start()
	}

	e.logger.Debug("Progress thread started", "thread", name)
	return nil
}

// Stop breaks the loop of name and waits for it to exit. While other users
// still hold the thread it keeps running. An event must not stop or finalize
// its own thread.
func (e *Engine) Stop(name string) error {
	name = normalize(name)
	e.mu.Lock()
	t, ok := e.threads[name]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrThreadNotFound, name)
	}
	if t.refs > 1 {
		e.mu.Unlock()
		return nil
	}
	wait := e.halt(t)
	e.mu.Unlock()

	wait()
	return nil
}

// Finalize drops one reference to name. The last reference stops the
// thread, rejects further posts and forgets the name.
func (e *Engine) Finalize(name string) error {
	name = normalize(name)
	e.mu.Lock()
	t, ok := e.threads[name]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrThreadNotFound, name)
	}
	t.refs--
	if t.refs > 0 {
		e.mu.Unlock()
		return nil
	}
	wait := e.halt(t)
	delete(e.threads, name)
	e.mu.Unlock()

	wait()
	t.base.shutdown()
	e.logger.Debug("Progress thread finalized", "thread", name)
	return nil
}

// halt detaches the keepalive and the loop of t. It must be called with e.mu
// held; the returned func joins the loop and must be called without it, so
// that a draining event can still reach the engine.
func (e *Engine) halt(t *thread) (wait func()) {
	if !t.running() {
		return func() {}
	}
	c, stop, stopped := t.cron, t.stop, t.stopped
	t.cron, t.stop, t.stopped = nil, nil, nil
	t.exited = stopped
	return func() {
		if c != nil {
			<-c.Stop().Done()
		}
		close(stop)
		<-stopped
		e.logger.Debug("Progress thread stopped", "thread", t.base.name)
	}
}

// Threads returns the names of the tracked threads.
func (e *Engine) Threads() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.threads))
	for name := range e.threads {
		names = append(names, name)
	}
	return names
}

// Running reports whether the thread for name is running.
func (e *Engine) Running(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.threads[normalize(name)]
	return ok && t.running()
}

// Close stops every thread regardless of its reference count and waits for
// all of them, or for ctx.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	threads := e.threads
	e.threads = make(map[string]*thread)
	e.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range threads {
		g.Go(func() error {
			done := make(chan struct{})
			go func() {
				e.mu.Lock()
				wait := e.halt(t)
				e.mu.Unlock()
				wait()
				t.base.shutdown()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return fmt.Errorf("progress thread %s: %w", t.base.name, gctx.Err())
			}
		})
	}
	return g.Wait()
}

// EventBase executes posted events on its thread's goroutine.
type EventBase struct {
	name   string
	id     uuid.UUID
	logger mca.Logger

	mu      sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	ticks   uint64
	lastRun time.Time
}

func newEventBase(name string, id uuid.UUID, logger mca.Logger) *EventBase {
	return &EventBase{
		name:   name,
		id:     id,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Name returns the thread name.
func (b *EventBase) Name() string { return b.name }

// ID identifies this instance of the thread.
func (b *EventBase) ID() uuid.UUID { return b.id }

// Post queues fn. Events posted before the thread starts run once it does.
func (b *EventBase) Post(fn func()) error {
	if fn == nil {
		return ErrNilEvent
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrThreadFinalized, b.name)
	}
	b.queue = append(b.queue, fn)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run executes fn on the thread and waits for it to finish. If ctx ends
// first Run returns its error; fn may still run later. If the thread is
// finalized before fn runs, fn is dropped and Run returns
// ErrThreadFinalized.
func (b *EventBase) Run(ctx context.Context, fn func()) error {
	if fn == nil {
		return ErrNilEvent
	}
	done := make(chan struct{})
	if err := b.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-b.done:
		select {
		case <-done:
			return nil
		default:
			return fmt.Errorf("%w: %s", ErrThreadFinalized, b.name)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Keepalives returns how many keepalive events the thread has run and when
// the last one ran.
func (b *EventBase) Keepalives() (uint64, time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ticks, b.lastRun
}

func (b *EventBase) keepalive() {
	_ = b.Post(func() {
		b.mu.Lock()
		b.ticks++
		b.lastRun = time.Now()
		b.mu.Unlock()
	})
}

func (b *EventBase) loop(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-b.wake:
			for _, fn := range b.drain() {
				b.dispatch(fn)
			}
		}
	}
}

func (b *EventBase) drain() []func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := b.queue
	b.queue = nil
	return q
}

func (b *EventBase) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Progress event panicked", "thread", b.name, "panic", r)
		}
	}()
	fn()
}

func (b *EventBase) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.queue = nil
	close(b.done)
}
