// Package v20 is the bfrops component speaking the v2.0 wire format: the
// standard type set with INFO entries carrying a required flag.
package v20

import (
	"strings"

	"github.com/GoCodeAlone/mca"
	"github.com/GoCodeAlone/mca/bfrops"
)

// Component identity.
const (
	Name            = "v20"
	DefaultPriority = 10
)

var (
	_ mca.Querier  = (*Component)(nil)
	_ mca.Assigner = (*Component)(nil)
)

// Component hands out the v2.0 module.
type Component struct {
	priority   int
	moduleOpts []bfrops.ModuleOption
	module     *bfrops.Module
}

// Option configures the component.
type Option func(*Component)

// WithPriority overrides the selection priority.
func WithPriority(p int) Option {
	return func(c *Component) {
		c.priority = p
	}
}

// WithModuleOptions passes options to the component's module.
func WithModuleOptions(opts ...bfrops.ModuleOption) Option {
	return func(c *Component) {
		c.moduleOpts = append(c.moduleOpts, opts...)
	}
}

// New creates the component.
func New(opts ...Option) *Component {
	c := &Component{priority: DefaultPriority}
	for _, opt := range opts {
		opt(c)
	}
	c.module = bfrops.NewModule(Name, Setup, c.moduleOpts...)
	return c
}

// Setup registers the v2.0 codecs.
func Setup(r *bfrops.Registry) error {
	return bfrops.RegisterTypes(r, bfrops.StandardTypes()...)
}

// Accepts reports whether version names the v2.0 wire format.
func Accepts(version string) bool {
	switch strings.TrimSpace(version) {
	case "v20", "2.0":
		return true
	}
	return false
}

func (c *Component) Info() mca.ComponentInfo {
	return mca.ComponentInfo{
		MCAVersion:  mca.BaseVersion,
		Type:        bfrops.FrameworkName,
		TypeVersion: mca.Version{Major: 2},
		Name:        Name,
		Version:     mca.Version{Major: 2, Minor: 0},
	}
}

func (c *Component) Query() (mca.Module, int, error) {
	return c.module, c.priority, nil
}

func (c *Component) AssignModule(version string) mca.Module {
	if !Accepts(version) {
		return nil
	}
	return c.module
}

// Module returns the component's module.
func (c *Component) Module() *bfrops.Module {
	return c.module
}
