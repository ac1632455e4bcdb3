// Package dl is the dynamic loader used by the MCA repository to open
// component plugin files. The Loader and Handle interfaces keep the
// repository independent of the mechanism; the default implementation uses
// Go's plugin package.
package dl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"plugin"
	"sync"
)

// Static errors for the loader. Callers distinguish a missing file from a
// missing symbol to produce useful diagnostics.
var (
	ErrFileNotFound   = errors.New("dl: file not found")
	ErrSymbolNotFound = errors.New("dl: symbol not found")
	ErrOpenFailed     = errors.New("dl: open failed")
	ErrHandleClosed   = errors.New("dl: handle closed")
)

// Loader opens plugin files.
type Loader interface {
	Open(path string) (Handle, error)
}

// Handle is an opened plugin file.
type Handle interface {
	// Lookup resolves an exported symbol.
	Lookup(symbol string) (any, error)
	// Path returns the file the handle was opened from.
	Path() string
	// Close releases the handle. Lookups after Close fail.
	Close() error
}

// PluginLoader loads Go plugins (shared objects built with
// -buildmode=plugin).
type PluginLoader struct{}

// NewPluginLoader returns the default loader.
func NewPluginLoader() *PluginLoader {
	return &PluginLoader{}
}

// Open stats the file first so that a missing file is reported as
// ErrFileNotFound rather than as a generic open failure.
func (l *PluginLoader) Open(path string) (Handle, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}
	return &pluginHandle{path: path, plugin: p}, nil
}

type pluginHandle struct {
	mu     sync.Mutex
	path   string
	plugin *plugin.Plugin
}

func (h *pluginHandle) Lookup(symbol string) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.plugin == nil {
		return nil, fmt.Errorf("%w: %s", ErrHandleClosed, h.path)
	}
	sym, err := h.plugin.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, symbol, h.path)
	}
	return sym, nil
}

func (h *pluginHandle) Path() string {
	return h.path
}

// Close drops the reference to the plugin. The Go runtime cannot unmap a
// loaded plugin, so the code stays resident; the handle simply becomes
// unusable.
func (h *pluginHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.plugin = nil
	return nil
}
