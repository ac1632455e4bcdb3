package bfrops

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GoCodeAlone/mca"
	"github.com/GoCodeAlone/mca/metrics"
	"github.com/GoCodeAlone/mca/status"
)

// ErrModuleNotInitialized is returned by calls on a module whose Init has
// not run.
var ErrModuleNotInitialized = errors.New("bfrops module not initialized")

// SetupFunc registers a module's codecs.
type SetupFunc func(r *Registry) error

// Module is the buffer-operations module a bfrops component hands out. It
// owns a Type Registry; every call dispatches through it. Calling any
// method on a nil *Module returns status.ErrBadParam.
type Module struct {
	name    string
	setup   SetupFunc
	regOpts []RegistryOption

	mu       sync.RWMutex
	registry *Registry
	metrics  *metrics.Metrics
	logger   mca.Logger
}

// ModuleOption configures a Module.
type ModuleOption func(*Module)

// WithRegistryOptions passes options to the module's registry.
func WithRegistryOptions(opts ...RegistryOption) ModuleOption {
	return func(m *Module) {
		m.regOpts = append(m.regOpts, opts...)
	}
}

// NewModule creates a module named after its wire version. setup runs
// during Init.
func NewModule(name string, setup SetupFunc, opts ...ModuleOption) *Module {
	m := &Module{name: name, setup: setup, logger: mca.NopLogger{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the wire version the module speaks, e.g. "v21".
func (m *Module) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Init builds the registry. It is idempotent.
func (m *Module) Init() error {
	if m == nil {
		return status.ErrBadParam
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registry != nil {
		return nil
	}
	r, err := NewRegistry(m.regOpts...)
	if err != nil {
		return err
	}
	if m.setup != nil {
		if err := m.setup(r); err != nil {
			return fmt.Errorf("bfrops %s: registering types: %w", m.name, err)
		}
	}
	m.registry = r
	return nil
}

// Finalize drops the registry.
func (m *Module) Finalize() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.registry = nil
	m.mu.Unlock()
}

// attach wires instrumentation after selection.
func (m *Module) attach(met *metrics.Metrics, logger mca.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = met
	if logger != nil {
		m.logger = logger
	}
}

// Registry returns the module's Type Registry, or nil before Init.
func (m *Module) Registry() *Registry {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry
}

func (m *Module) ready() (*Registry, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: no bfrops module", status.ErrBadParam)
	}
	r := m.Registry()
	if r == nil {
		return nil, fmt.Errorf("%w: %w: %s", status.ErrBadParam, ErrModuleNotInitialized, m.name)
	}
	return r, nil
}

// record counts codec failures by status.
func (m *Module) record(op string, t DataType, err error) error {
	if err == nil {
		return nil
	}
	st := status.From(err)
	m.metrics.CodecError(m.name, st.String())
	m.logger.Debug("bfrops operation failed", "module", m.name, "op", op, "type", DataTypeString(t), "status", st, "error", err)
	return err
}

// Pack packs src, a slice of the Go type registered for t.
func (m *Module) Pack(buf *Buffer, src any, t DataType) error {
	r, err := m.ready()
	if err != nil {
		return err
	}
	if buf == nil {
		return m.record("pack", t, fmt.Errorf("%w: nil buffer", status.ErrBadParam))
	}
	before := buf.Len()
	if err := r.Pack(buf, src, t); err != nil {
		return m.record("pack", t, err)
	}
	m.metrics.Packed(m.name, buf.Len()-before)
	return nil
}

// Unpack fills dst and returns the number of values stored.
func (m *Module) Unpack(buf *Buffer, dst any, t DataType) (int, error) {
	r, err := m.ready()
	if err != nil {
		return 0, err
	}
	if buf == nil {
		return 0, m.record("unpack", t, fmt.Errorf("%w: nil buffer", status.ErrBadParam))
	}
	before := buf.UnpackOffset()
	n, err := r.Unpack(buf, dst, t)
	m.metrics.Unpacked(m.name, buf.UnpackOffset()-before)
	return n, m.record("unpack", t, err)
}

// Copy deep copies a single value.
func (m *Module) Copy(src any, t DataType) (any, error) {
	r, err := m.ready()
	if err != nil {
		return nil, err
	}
	out, err := r.Copy(src, t)
	return out, m.record("copy", t, err)
}

// Print renders a single value.
func (m *Module) Print(prefix string, src any, t DataType) (string, error) {
	r, err := m.ready()
	if err != nil {
		return "", err
	}
	out, err := r.Print(prefix, src, t)
	return out, m.record("print", t, err)
}

// CopyPayload appends the unread payload of src to dst.
func (m *Module) CopyPayload(dst, src *Buffer) error {
	if _, err := m.ready(); err != nil {
		return err
	}
	return m.record("copy_payload", TypeBuffer, CopyPayload(dst, src))
}

// ValueXfer deep copies src into dst.
func (m *Module) ValueXfer(dst *Value, src Value) error {
	r, err := m.ready()
	if err != nil {
		return err
	}
	return m.record("value_xfer", src.Type, r.ValueXfer(dst, src))
}

// ValueLoad stores a copy of data in v as type t.
func (m *Module) ValueLoad(v *Value, data any, t DataType) error {
	r, err := m.ready()
	if err != nil {
		return err
	}
	return m.record("value_load", t, r.ValueLoad(v, data, t))
}

// ValueUnload returns a copy of the data held by v.
func (m *Module) ValueUnload(v Value) (any, error) {
	r, err := m.ready()
	if err != nil {
		return nil, err
	}
	out, err := r.ValueUnload(v)
	return out, m.record("value_unload", v.Type, err)
}

// ValueCmp compares two values.
func (m *Module) ValueCmp(a, b Value) (CmpResult, error) {
	if _, err := m.ready(); err != nil {
		return ComparisonNotAvailable, err
	}
	return ValueCmp(a, b), nil
}

// DataTypeString returns the wire name of t.
func (m *Module) DataTypeString(t DataType) string {
	return DataTypeString(t)
}

// RegisterType adds or replaces a codec.
func (m *Module) RegisterType(info TypeEntry) error {
	r, err := m.ready()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return r.Register(info)
}
