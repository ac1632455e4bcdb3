package mca

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// BaseVersion is the MCA ABI version this base implements. Dynamically
// loaded components must have been built against a compatible version.
var BaseVersion = Version{Major: 2, Minor: 1, Release: 0}

// Version is a major/minor/release triple.
type Version struct {
	Major   uint64
	Minor   uint64
	Release uint64
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Release)
}

// Semver returns v as a semantic version.
func (v Version) Semver() *semver.Version {
	return semver.New(v.Major, v.Minor, v.Release, "", "")
}

// CompatibleWith reports whether v may be loaded by a base at version base.
// Major and minor must match; the release may differ.
func (v Version) CompatibleWith(base Version) bool {
	c, err := semver.NewConstraint(fmt.Sprintf("~%d.%d", base.Major, base.Minor))
	if err != nil {
		return false
	}
	return c.Check(v.Semver())
}

// Metadata is a bit set of component capabilities.
type Metadata uint32

const (
	// MetadataCheckpoint marks a component as checkpoint-ready.
	MetadataCheckpoint Metadata = 1 << iota
	// MetadataNoDlopen marks a component that must not be loaded dynamically.
	MetadataNoDlopen
)

// Has reports whether every bit in flags is set.
func (m Metadata) Has(flags Metadata) bool {
	return m&flags == flags
}

// ComponentInfo identifies a component. It is immutable once the component
// is discovered.
type ComponentInfo struct {
	// MCAVersion is the base ABI the component was built against.
	MCAVersion Version
	// Type is the framework name, e.g. "bfrops".
	Type string
	// TypeVersion is the framework interface version.
	TypeVersion Version
	// Name is the component name, e.g. "v21".
	Name string
	// Version is the component's own version.
	Version Version
}

// Component is one pluggable implementation of a framework's contract.
// Everything beyond identification is optional and discovered through the
// interfaces below, the same way a component that has no query function is
// simply skipped during selection.
type Component interface {
	Info() ComponentInfo
}

// Opener is implemented by components with an open step. Returning
// status.ErrNotAvailable removes the component quietly.
type Opener interface {
	Open() error
}

// Closer is implemented by components with a close step.
type Closer interface {
	Close() error
}

// Querier is implemented by components that can produce a module.
// A nil module or a non-nil error means the component does not want to run.
type Querier interface {
	Query() (Module, int, error)
}

// Assigner is implemented by components that can hand out a module
// compatible with a peer's wire-format version. It returns nil when the
// version is not one the component speaks.
type Assigner interface {
	AssignModule(version string) Module
}

// MetadataProvider is implemented by components that advertise metadata
// flags.
type MetadataProvider interface {
	Metadata() Metadata
}

// Module is the runtime instance a component's query produces. Each
// framework defines the concrete interface its modules satisfy.
type Module = any

// Initializer is implemented by modules that need setup before they join
// the active list. A failed Init skips the module.
type Initializer interface {
	Init() error
}

// Finalizer is implemented by modules that need teardown when their
// framework closes.
type Finalizer interface {
	Finalize()
}

// ComponentListItem wraps a component on a framework's available list.
type ComponentListItem struct {
	Component Component
	Priority  int
}

// Name is a shortcut for the component name.
func (c *ComponentListItem) Name() string {
	return c.Component.Info().Name
}

// ActiveModule is the result of a successful query.
type ActiveModule struct {
	Priority  int
	Module    Module
	Component Component
}

func metadataOf(c Component) Metadata {
	if mp, ok := c.(MetadataProvider); ok {
		return mp.Metadata()
	}
	return 0
}
