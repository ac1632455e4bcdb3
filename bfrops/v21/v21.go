// Package v21 is the bfrops component speaking the v2.1 wire format. It
// extends v2.0 with ENVAR and IOF_CHANNEL and replaces the INFO codec so
// that entries carry their full directive bits instead of a required flag.
package v21

import (
	"reflect"
	"strings"

	"github.com/GoCodeAlone/mca"
	"github.com/GoCodeAlone/mca/bfrops"
	"github.com/GoCodeAlone/mca/bfrops/v20"
	"github.com/GoCodeAlone/mca/status"
)

// Component identity.
const (
	Name            = "v21"
	DefaultPriority = 20
)

var (
	_ mca.Querier  = (*Component)(nil)
	_ mca.Assigner = (*Component)(nil)
)

// Component hands out the v2.1 module.
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

// Setup registers the v2.0 codecs, the v2.1 additions, and the INFO
// override. The override relies on later registrations replacing earlier
// ones.
func Setup(r *bfrops.Registry) error {
	if err := v20.Setup(r); err != nil {
		return err
	}
	return bfrops.RegisterTypes(r, bfrops.EnvarType(), bfrops.IOFChannelType(), InfoType())
}

// InfoType is the v2.1 INFO codec.
func InfoType() bfrops.TypeEntry {
	return bfrops.TypeEntry{
		Type:   bfrops.TypeInfo,
		Name:   "PMIX_INFO",
		GoType: reflect.TypeFor[bfrops.Info](),
		Pack:   packInfo,
		Unpack: unpackInfo,
		Copy:   bfrops.CopyInfo,
		Print:  bfrops.PrintInfo,
	}
}

// Accepts reports whether version names the v2.1 wire format.
func Accepts(version string) bool {
	switch strings.TrimSpace(version) {
	case "v21", "2.1":
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
		Version:     mca.Version{Major: 2, Minor: 1},
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

// packInfo writes key, directives and value for each entry.
func packInfo(r *bfrops.Registry, buf *bfrops.Buffer, src any, _ bfrops.DataType) error {
	s, ok := src.([]bfrops.Info)
	if !ok {
		return status.ErrTypeMismatch
	}
	for _, info := range s {
		if err := r.PackBuffer(buf, []string{info.Key}, bfrops.TypeString); err != nil {
			return err
		}
		if err := r.PackBuffer(buf, []bfrops.InfoDirectives{info.Directives}, bfrops.TypeInfoDirectives); err != nil {
			return err
		}
		if err := r.PackBuffer(buf, []bfrops.Value{info.Value}, bfrops.TypeValue); err != nil {
			return err
		}
	}
	return nil
}

func unpackInfo(r *bfrops.Registry, buf *bfrops.Buffer, dst any, _ bfrops.DataType) (int, error) {
	d, ok := dst.([]bfrops.Info)
	if !ok {
		return 0, status.ErrTypeMismatch
	}
	key := make([]string, 1)
	directives := make([]bfrops.InfoDirectives, 1)
	val := make([]bfrops.Value, 1)
	for i := range d {
		if _, err := r.UnpackBuffer(buf, key, bfrops.TypeString); err != nil {
			return 0, err
		}
		if _, err := r.UnpackBuffer(buf, directives, bfrops.TypeInfoDirectives); err != nil {
			return 0, err
		}
		if _, err := r.UnpackBuffer(buf, val, bfrops.TypeValue); err != nil {
			return 0, err
		}
		d[i] = bfrops.Info{Key: key[0], Directives: directives[0], Value: val[0]}
	}
	return len(d), nil
}
