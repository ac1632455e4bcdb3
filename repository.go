package mca

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/GoCodeAlone/mca/dl"
	"github.com/GoCodeAlone/mca/status"
)

// ComponentSymbol is the symbol every component plugin exports. It may be a
// variable of type Component or a func() Component.
const ComponentSymbol = "MCAComponent"

// pluginFilePattern matches mca_<type>_<name>.<ext>.
var pluginFilePattern = regexp.MustCompile(`^mca_([a-z0-9]+)_([A-Za-z0-9_]+)\.(so|dylib)$`)

// RepositoryItem records one plugin file found on disk. The file is not
// opened until a framework asks for it.
type RepositoryItem struct {
	Type string
	Name string
	Path string

	handle    dl.Handle
	component Component
	refcount  int
}

// Loaded reports whether the item currently holds an open handle.
func (ri *RepositoryItem) Loaded() bool {
	return ri.handle != nil
}

// Refcount returns the number of outstanding references.
func (ri *RepositoryItem) Refcount() int {
	return ri.refcount
}

// Repository tracks plugin files by (type, name).
type Repository struct {
	mu     sync.Mutex
	loader dl.Loader
	logger Logger
	items  map[string][]*RepositoryItem
}

// NewRepository creates an empty repository.
func NewRepository(loader dl.Loader, logger Logger) *Repository {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Repository{
		loader: loader,
		logger: logger,
		items:  make(map[string][]*RepositoryItem),
	}
}

// ParsePluginFileName splits a plugin file name into type and component
// name. ok is false for files that do not follow the naming convention.
func ParsePluginFileName(file string) (typ, name string, ok bool) {
	m := pluginFilePattern.FindStringSubmatch(file)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Add scans dir (or a path list) for plugin files. Items already known by
// (type, name) are skipped, so scanning the same directory twice is safe.
// A missing directory is not an error.
func (r *Repository) Add(dir string) error {
	for _, d := range filepath.SplitList(dir) {
		if d == "" {
			continue
		}
		entries, err := os.ReadDir(d)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				r.logger.Debug("Component directory does not exist", "dir", d)
				continue
			}
			return fmt.Errorf("scanning component directory %s: %w", d, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			r.addFile(d, entry.Name())
		}
	}
	return nil
}

// addFile records one file, returning the new item or nil if the file was
// skipped or already known.
func (r *Repository) addFile(dir, file string) *RepositoryItem {
	typ, name, ok := ParsePluginFileName(file)
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items[typ] {
		if existing.Name == name {
			return nil
		}
	}
	item := &RepositoryItem{Type: typ, Name: name, Path: filepath.Join(dir, file)}
	r.items[typ] = append(r.items[typ], item)
	r.logger.Debug("Found component file", "type", typ, "component", name, "path", item.Path)
	return item
}

// Items returns the items of one type in discovery order.
func (r *Repository) Items(typ string) []*RepositoryItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*RepositoryItem(nil), r.items[typ]...)
}

// Lookup finds an item by type and name.
func (r *Repository) Lookup(typ, name string) (*RepositoryItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ri := range r.items[typ] {
		if ri.Name == name {
			return ri, true
		}
	}
	return nil, false
}

// Open loads the item's plugin file and validates the exported component.
// On success the item holds one reference.
func (r *Repository) Open(ri *RepositoryItem) (Component, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ri.handle != nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrComponentAlreadyLoaded, ri.Type, ri.Name)
	}

	handle, err := r.loader.Open(ri.Path)
	if err != nil {
		return nil, err
	}

	component, err := resolveComponent(handle)
	if err == nil {
		err = validateComponent(ri, component)
	}
	if err != nil {
		_ = handle.Close()
		return nil, err
	}

	ri.handle = handle
	ri.component = component
	ri.refcount = 1
	return component, nil
}

func resolveComponent(handle dl.Handle) (Component, error) {
	sym, err := handle.Lookup(ComponentSymbol)
	if err != nil {
		return nil, err
	}
	switch v := sym.(type) {
	case *Component:
		if v != nil && *v != nil {
			return *v, nil
		}
	case func() Component:
		if c := v(); c != nil {
			return c, nil
		}
	case Component:
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s in %s is %T", ErrComponentSymbolInvalid, ComponentSymbol, handle.Path(), sym)
}

func validateComponent(ri *RepositoryItem, c Component) error {
	info := c.Info()
	if !info.MCAVersion.CompatibleWith(BaseVersion) {
		return fmt.Errorf("%w: %s is built for %s, base is %s",
			ErrMCAVersionMismatch, ri.Path, info.MCAVersion, BaseVersion)
	}
	if info.Type != ri.Type || info.Name != ri.Name {
		return fmt.Errorf("%w: %s declares %s/%s",
			ErrComponentMismatch, ri.Path, info.Type, info.Name)
	}
	return nil
}

// Retain adds a reference to a loaded component.
func (r *Repository) Retain(typ, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ri := range r.items[typ] {
		if ri.Name != name {
			continue
		}
		if ri.handle == nil {
			return fmt.Errorf("%w: %w: %s/%s", status.ErrNotFound, ErrComponentNotLoaded, typ, name)
		}
		ri.refcount++
		return nil
	}
	return fmt.Errorf("%w: %w: %s/%s", status.ErrNotFound, ErrComponentNotLoaded, typ, name)
}

// Release drops a reference. When the last reference goes, the handle is
// closed and the component pointer is cleared. Components that did not come
// from this repository are ignored.
func (r *Repository) Release(c Component) {
	if c == nil {
		return
	}
	info := c.Info()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ri := range r.items[info.Type] {
		if ri.Name != info.Name || !sameComponent(ri.component, c) {
			continue
		}
		ri.refcount--
		if ri.refcount > 0 {
			return
		}
		if err := ri.handle.Close(); err != nil {
			r.logger.Warn("Closing component handle failed", "path", ri.Path, "error", err)
		}
		ri.handle = nil
		ri.component = nil
		ri.refcount = 0
		return
	}
}

// sameComponent reports whether a and b are the same component. Values of a
// type that cannot be compared with == match on their dynamic type and Info.
func sameComponent(a, b Component) bool {
	if a == nil || b == nil {
		return false
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if !ta.Comparable() {
		return a.Info() == b.Info()
	}
	return a == b
}

// Watch watches dir for new plugin files and records them as they appear.
// Newly recorded items are sent on the returned channel, which is closed
// when ctx is done. The directory must exist.
func (r *Repository) Watch(ctx context.Context, dir string) (<-chan *RepositoryItem, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating component watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching component directory %s: %w", dir, err)
	}

	found := make(chan *RepositoryItem, 16)
	go func() {
		defer close(found)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
					continue
				}
				item := r.addFile(dir, filepath.Base(event.Name))
				if item == nil {
					continue
				}
				select {
				case found <- item:
				case <-ctx.Done():
					return
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("Component watcher error", "dir", dir, "error", werr)
			}
		}
	}()
	return found, nil
}
