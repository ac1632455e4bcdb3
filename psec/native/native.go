// Package native is the psec component that authenticates peers by the
// effective user and group IDs of the process that created a credential.
//
// A credential is a fully described bfrops buffer holding the mechanism
// name, the user ID and the group ID. It proves nothing on its own; it is
// meant to be carried over a channel whose peer identity the receiver can
// check, such as a Unix domain socket.
package native

import (
	"context"
	"fmt"
	"os"

	"github.com/GoCodeAlone/mca"
	"github.com/GoCodeAlone/mca/bfrops"
	"github.com/GoCodeAlone/mca/bfrops/v20"
	"github.com/GoCodeAlone/mca/psec"
	"github.com/GoCodeAlone/mca/status"
)

// Component identity.
const (
	Name            = "native"
	DefaultPriority = 100
)

var (
	_ mca.Opener   = (*Component)(nil)
	_ mca.Querier  = (*Component)(nil)
	_ mca.Assigner = (*Component)(nil)
	_ psec.Module  = (*Module)(nil)
)

// Identity is a user/group pair.
type Identity struct {
	UID uint32
	GID uint32
}

// Component hands out the native module.
type Component struct {
	codec    *bfrops.Module
	identity func() (Identity, error)
	module   *Module
}

// Option configures the component.
type Option func(*Component)

// WithCodec sets the bfrops module used to encode credentials. By default
// the component uses a private v2.0 module.
func WithCodec(m *bfrops.Module) Option {
	return func(c *Component) {
		c.codec = m
	}
}

// WithIdentity replaces the lookup of the process identity.
func WithIdentity(fn func() (Identity, error)) Option {
	return func(c *Component) {
		c.identity = fn
	}
}

// New creates the component.
func New(opts ...Option) *Component {
	c := &Component{identity: processIdentity}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// processIdentity returns the effective IDs of this process. Platforms
// without them report -1.
func processIdentity() (Identity, error) {
	uid, gid := os.Geteuid(), os.Getegid()
	if uid < 0 || gid < 0 {
		return Identity{}, fmt.Errorf("%w: no process user identity on this platform", status.ErrNotAvailable)
	}
	return Identity{UID: uint32(uid), GID: uint32(gid)}, nil
}

func (c *Component) Info() mca.ComponentInfo {
	return mca.ComponentInfo{
		MCAVersion:  mca.BaseVersion,
		Type:        psec.FrameworkName,
		TypeVersion: mca.Version{Major: 1},
		Name:        Name,
		Version:     mca.Version{Major: 1},
	}
}

// Open resolves the process identity. The component is not available where
// the platform has none.
func (c *Component) Open() error {
	id, err := c.identity()
	if err != nil {
		return err
	}
	codec := c.codec
	if codec == nil {
		codec = v20.New().Module()
		if err := codec.Init(); err != nil {
			return err
		}
	}
	c.module = &Module{codec: codec, self: id}
	return nil
}

func (c *Component) Query() (mca.Module, int, error) {
	if c.module == nil {
		return nil, 0, fmt.Errorf("%w: component not opened", status.ErrNotAvailable)
	}
	return c.module, DefaultPriority, nil
}

func (c *Component) AssignModule(mechanism string) mca.Module {
	if mechanism != Name || c.module == nil {
		return nil
	}
	return c.module
}

// Module creates and checks credentials for one process identity.
type Module struct {
	codec *bfrops.Module
	self  Identity
}

func (*Module) Name() string { return Name }

// Identity returns the identity credentials are created for.
func (m *Module) Identity() Identity {
	return m.self
}

func (m *Module) CreateCredential(ctx context.Context) (psec.Credential, error) {
	if err := ctx.Err(); err != nil {
		return psec.Credential{}, err
	}
	buf := bfrops.NewBuffer(bfrops.BufferFullyDesc)
	if err := m.codec.Pack(buf, []string{Name}, bfrops.TypeString); err != nil {
		return psec.Credential{}, err
	}
	if err := m.codec.Pack(buf, []uint32{m.self.UID, m.self.GID}, bfrops.TypeUint32); err != nil {
		return psec.Credential{}, err
	}
	return psec.Credential{Mechanism: Name, Data: buf.Unload()}, nil
}

// ValidateCredential accepts a credential created by a process running as
// the same user.
func (m *Module) ValidateCredential(ctx context.Context, cred psec.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cred.Mechanism != Name {
		return fmt.Errorf("%w: mechanism %q", status.ErrInvalidCred, cred.Mechanism)
	}
	peer, err := m.decode(cred.Data)
	if err != nil {
		return fmt.Errorf("%w: %w", status.ErrInvalidCred, err)
	}
	if peer.UID != m.self.UID {
		return fmt.Errorf("%w: uid %d does not match %d", status.ErrInvalidCred, peer.UID, m.self.UID)
	}
	return nil
}

func (m *Module) decode(data []byte) (Identity, error) {
	buf := bfrops.NewBuffer(bfrops.BufferFullyDesc)
	buf.Load(append([]byte(nil), data...))

	mech := make([]string, 1)
	if _, err := m.codec.Unpack(buf, mech, bfrops.TypeString); err != nil {
		return Identity{}, err
	}
	if mech[0] != Name {
		return Identity{}, fmt.Errorf("credential names mechanism %q", mech[0])
	}
	ids := make([]uint32, 2)
	if _, err := m.codec.Unpack(buf, ids, bfrops.TypeUint32); err != nil {
		return Identity{}, err
	}
	if buf.Unread() != 0 {
		return Identity{}, fmt.Errorf("%d trailing bytes", buf.Unread())
	}
	return Identity{UID: ids[0], GID: ids[1]}, nil
}
