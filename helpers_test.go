package mca

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/mca/dl"
)

// testComponent implements every optional component interface.
type testComponent struct {
	info     ComponentInfo
	priority int
	module   Module
	queryErr error
	openErr  error
	closeErr error
	meta     Metadata
	accepts  []string

	mu     sync.Mutex
	opens  int
	closes int
}

func newTestComponent(typ, name string, priority int) *testComponent {
	return &testComponent{
		info: ComponentInfo{
			MCAVersion: BaseVersion,
			Type:       typ,
			Name:       name,
			Version:    Version{Major: 1},
		},
		priority: priority,
		module:   &testModule{name: name},
		accepts:  []string{name},
	}
}

func (c *testComponent) Info() ComponentInfo { return c.info }

func (c *testComponent) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opens++
	return c.openErr
}

func (c *testComponent) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return c.closeErr
}

func (c *testComponent) Query() (Module, int, error) {
	if c.queryErr != nil {
		return nil, 0, c.queryErr
	}
	return c.module, c.priority, nil
}

func (c *testComponent) AssignModule(version string) Module {
	for _, v := range c.accepts {
		if v == version {
			return c.module
		}
	}
	return nil
}

func (c *testComponent) Metadata() Metadata { return c.meta }

func (c *testComponent) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// bareComponent has no optional capabilities.
type bareComponent struct {
	info ComponentInfo
}

func (c *bareComponent) Info() ComponentInfo { return c.info }

type testModule struct {
	name      string
	initErr   error
	finalized bool
}

func (m *testModule) Init() error { return m.initErr }

func (m *testModule) Finalize() { m.finalized = true }

// fakeLoader resolves plugin files by base name.
type fakeLoader struct {
	mu      sync.Mutex
	symbols map[string]any
	opened  map[string]int
	closed  map[string]int
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		symbols: make(map[string]any),
		opened:  make(map[string]int),
		closed:  make(map[string]int),
	}
}

func (l *fakeLoader) Open(path string) (dl.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	base := filepath.Base(path)
	sym, ok := l.symbols[base]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dl.ErrOpenFailed, path)
	}
	l.opened[base]++
	return &fakeHandle{loader: l, path: path, symbol: sym}, nil
}

func (l *fakeLoader) openCount(file string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened[file]
}

func (l *fakeLoader) closeCount(file string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed[file]
}

type fakeHandle struct {
	loader *fakeLoader
	path   string
	symbol any
}

func (h *fakeHandle) Lookup(symbol string) (any, error) {
	if symbol != ComponentSymbol || h.symbol == nil {
		return nil, fmt.Errorf("%w: %s", dl.ErrSymbolNotFound, symbol)
	}
	return h.symbol, nil
}

func (h *fakeHandle) Path() string { return h.path }

func (h *fakeHandle) Close() error {
	h.loader.mu.Lock()
	defer h.loader.mu.Unlock()
	h.loader.closed[filepath.Base(h.path)]++
	return nil
}

// pluginDir creates empty plugin files in a temp directory.
func pluginDir(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0o600))
	}
	return dir
}

func newTestBase(loader dl.Loader, opts ...Option) *Base {
	opts = append([]Option{WithLoader(loader), WithHostname("testhost")}, opts...)
	return NewBase(opts...)
}

func componentNames(fw *Framework) []string {
	var names []string
	for _, cli := range fw.Components() {
		names = append(names, cli.Name())
	}
	return names
}

// recordingLogger captures log entries for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	Level   string
	Message string
	Args    []any
}

func (l *recordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{Level: level, Message: msg, Args: args})
}

func (l *recordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args) }

func (l *recordingLogger) levels(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
