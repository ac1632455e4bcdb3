package mca

import (
	"sync"
	"sync/atomic"
)

// Framework is a named subsystem with a set of pluggable components.
//
// The available list holds every component that survived discovery and
// filtering, in discovery order. The active list holds the modules produced
// by Select, ordered by descending priority; its head is the default module.
//
// Frameworks are opened, selected and closed during single-threaded startup
// and shutdown. The mutex only protects readers such as introspection
// against those phases.
type Framework struct {
	mu       sync.RWMutex
	selectMu sync.Mutex

	name      string
	project   string
	selection string
	verbose   atomic.Int32
	static    []Component

	available []*ComponentListItem
	actives   []*ActiveModule

	refcount int
	opened   bool
	selected bool
}

// FrameworkOption configures a Framework.
type FrameworkOption func(*Framework)

// WithStaticComponents lists the components compiled into the binary.
func WithStaticComponents(components ...Component) FrameworkOption {
	return func(fw *Framework) {
		fw.static = append(fw.static, components...)
	}
}

// WithSelection sets the requested-component filter, e.g. "v20,v21" or "^v20".
func WithSelection(selection string) FrameworkOption {
	return func(fw *Framework) {
		fw.selection = selection
	}
}

// WithVerbose sets the framework verbosity level.
func WithVerbose(level int) FrameworkOption {
	return func(fw *Framework) {
		fw.verbose.Store(int32(level))
	}
}

// WithProject sets the project the framework belongs to.
func WithProject(project string) FrameworkOption {
	return func(fw *Framework) {
		fw.project = project
	}
}

// NewFramework creates a framework. It is inert until opened through a Base.
func NewFramework(name string, opts ...FrameworkOption) *Framework {
	fw := &Framework{
		name:    name,
		project: "pmix",
	}
	for _, opt := range opts {
		opt(fw)
	}
	return fw
}

// Name returns the framework name.
func (fw *Framework) Name() string {
	return fw.name
}

// Project returns the owning project name.
func (fw *Framework) Project() string {
	return fw.project
}

// Selection returns the requested-component filter.
func (fw *Framework) Selection() string {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.selection
}

// SetSelection replaces the requested-component filter. It takes effect on
// the next find or filter.
func (fw *Framework) SetSelection(selection string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.selection = selection
}

// Verbose returns the verbosity level.
func (fw *Framework) Verbose() int {
	return int(fw.verbose.Load())
}

// SetVerbose changes the verbosity level.
func (fw *Framework) SetVerbose(level int) {
	fw.verbose.Store(int32(level))
}

// StaticComponents returns the compiled-in components.
func (fw *Framework) StaticComponents() []Component {
	return append([]Component(nil), fw.static...)
}

// Components returns a copy of the available list.
func (fw *Framework) Components() []*ComponentListItem {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return append([]*ComponentListItem(nil), fw.available...)
}

// Component returns the available component with the given name.
func (fw *Framework) Component(name string) (Component, bool) {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	for _, cli := range fw.available {
		if cli.Name() == name {
			return cli.Component, true
		}
	}
	return nil, false
}

// Actives returns a copy of the active list in priority order.
func (fw *Framework) Actives() []*ActiveModule {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return append([]*ActiveModule(nil), fw.actives...)
}

// Default returns the highest-priority active module, or nil.
func (fw *Framework) Default() Module {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	if len(fw.actives) == 0 {
		return nil
	}
	return fw.actives[0].Module
}

// IsOpen reports whether the framework has been opened.
func (fw *Framework) IsOpen() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.opened
}

// IsSelected reports whether Select has run since the last open.
func (fw *Framework) IsSelected() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.selected
}

// FrameworkSnapshot is a point-in-time view of a framework.
type FrameworkSnapshot struct {
	Name       string              `json:"name"`
	Project    string              `json:"project"`
	Selection  string              `json:"selection,omitempty"`
	Open       bool                `json:"open"`
	Selected   bool                `json:"selected"`
	Components []ComponentSnapshot `json:"components"`
	Actives    []ActiveSnapshot    `json:"actives"`
}

// ComponentSnapshot describes one available component.
type ComponentSnapshot struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	MCAVersion string `json:"mcaVersion"`
	Metadata   uint32 `json:"metadata"`
}

// ActiveSnapshot describes one active module.
type ActiveSnapshot struct {
	Component string `json:"component"`
	Priority  int    `json:"priority"`
}

// Snapshot captures the framework state.
func (fw *Framework) Snapshot() FrameworkSnapshot {
	fw.mu.RLock()
	defer fw.mu.RUnlock()

	snap := FrameworkSnapshot{
		Name:       fw.name,
		Project:    fw.project,
		Selection:  fw.selection,
		Open:       fw.opened,
		Selected:   fw.selected,
		Components: make([]ComponentSnapshot, 0, len(fw.available)),
		Actives:    make([]ActiveSnapshot, 0, len(fw.actives)),
	}
	for _, cli := range fw.available {
		info := cli.Component.Info()
		snap.Components = append(snap.Components, ComponentSnapshot{
			Name:       info.Name,
			Version:    info.Version.String(),
			MCAVersion: info.MCAVersion.String(),
			Metadata:   uint32(metadataOf(cli.Component)),
		})
	}
	for _, am := range fw.actives {
		snap.Actives = append(snap.Actives, ActiveSnapshot{
			Component: am.Component.Info().Name,
			Priority:  am.Priority,
		})
	}
	return snap
}

func (fw *Framework) hasComponent(name string) bool {
	for _, cli := range fw.available {
		if cli.Name() == name {
			return true
		}
	}
	return false
}
