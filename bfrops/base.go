// Package bfrops is the buffer-operations framework: a self-describing,
// endian-neutral binary codec over a registry of type tags, packaged as MCA
// components so that peers speaking different wire versions can be matched
// to a compatible module.
package bfrops

import (
	"fmt"

	"github.com/GoCodeAlone/mca"
)

// FrameworkName is the MCA framework name of buffer operations.
const FrameworkName = "bfrops"

// Config holds the bfrops framework parameters.
type Config struct {
	// Selection is the requested-component filter, e.g. "v21" or "^v20".
	Selection string
	// Verbose is the framework verbosity level.
	Verbose int
	// InitialSize is the first allocation of a new buffer.
	InitialSize int
	// ThresholdSize is where buffer growth switches from doubling to
	// fixed increments.
	ThresholdSize int
	// DefaultType is the wire mode of buffers made by NewBuffer.
	DefaultType BufferType
}

// Framework is an opened and selected bfrops framework.
type Framework struct {
	base *mca.Base
	fw   *mca.Framework
	cfg  Config
}

// Open opens the bfrops framework with the given compiled-in components,
// selects modules and wires instrumentation into them.
func Open(base *mca.Base, cfg Config, components []mca.Component, opts ...mca.OpenOption) (*Framework, error) {
	if base == nil {
		return nil, fmt.Errorf("bfrops: nil MCA base")
	}
	if cfg.DefaultType == 0 {
		cfg.DefaultType = BufferNonDesc
	}
	if cfg.InitialSize <= 0 {
		cfg.InitialSize = DefaultInitialSize
	}
	if cfg.ThresholdSize <= 0 {
		cfg.ThresholdSize = DefaultThresholdSize
	}

	fw := mca.NewFramework(FrameworkName,
		mca.WithStaticComponents(components...),
		mca.WithSelection(cfg.Selection),
		mca.WithVerbose(cfg.Verbose),
	)
	if err := base.OpenFramework(fw, opts...); err != nil {
		return nil, err
	}
	if err := base.Select(fw); err != nil {
		_ = base.CloseFramework(fw)
		return nil, err
	}

	for _, am := range fw.Actives() {
		if m, ok := am.Module.(*Module); ok {
			m.attach(base.Metrics(), base.Logger())
		}
	}
	base.Logger().Debug("bfrops framework ready", "modules", base.AvailableModules(fw), "bufferType", cfg.DefaultType)
	return &Framework{base: base, fw: fw, cfg: cfg}, nil
}

// Close closes the framework.
func (f *Framework) Close() error {
	return f.base.CloseFramework(f.fw)
}

// Framework returns the underlying MCA framework.
func (f *Framework) Framework() *mca.Framework {
	return f.fw
}

// Config returns the effective configuration.
func (f *Framework) Config() Config {
	return f.cfg
}

// Default returns the highest-priority module, or nil.
func (f *Framework) Default() *Module {
	m, _ := f.fw.Default().(*Module)
	return m
}

// AssignModule returns the module for a peer's wire version, or nil when
// no active component speaks it.
func (f *Framework) AssignModule(version string) *Module {
	m, _ := f.base.AssignModule(f.fw, version).(*Module)
	return m
}

// AvailableModules lists the active module names in priority order.
func (f *Framework) AvailableModules() string {
	return f.base.AvailableModules(f.fw)
}

// NewBuffer creates a buffer of the configured default type.
func (f *Framework) NewBuffer() *Buffer {
	return f.NewBufferOfType(f.cfg.DefaultType)
}

// NewBufferOfType creates a buffer of the given type with the configured
// growth policy.
func (f *Framework) NewBufferOfType(t BufferType) *Buffer {
	met := f.base.Metrics()
	return NewBuffer(t,
		WithGrowth(f.cfg.InitialSize, f.cfg.ThresholdSize),
		withGrowthHook(met.BufferGrown),
	)
}
