// Package psec is the security framework. It selects the module used to
// create and validate process credentials; connection handshakes belong to
// higher layers.
package psec

import (
	"context"
	"fmt"
	"strings"

	"github.com/GoCodeAlone/mca"
)

// FrameworkName is the MCA framework name of the security framework.
const FrameworkName = "psec"

// Credential is an opaque token naming the mechanism that produced it.
type Credential struct {
	Mechanism string
	Data      []byte
}

func (c Credential) String() string {
	return fmt.Sprintf("%s(%d bytes)", c.Mechanism, len(c.Data))
}

// Module is what psec components hand out.
type Module interface {
	Name() string
	CreateCredential(ctx context.Context) (Credential, error)
	// ValidateCredential returns status.ErrInvalidCred for a credential
	// the module does not accept.
	ValidateCredential(ctx context.Context, cred Credential) error
}

// Config holds the psec framework parameters.
type Config struct {
	Selection string
	Verbose   int
}

// Framework is an opened and selected psec framework.
type Framework struct {
	base *mca.Base
	fw   *mca.Framework
}

// Open opens the security framework with the given components and selects
// its modules.
func Open(base *mca.Base, cfg Config, components []mca.Component, opts ...mca.OpenOption) (*Framework, error) {
	if base == nil {
		return nil, fmt.Errorf("psec: nil MCA base")
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
	return &Framework{base: base, fw: fw}, nil
}

// Close closes the framework.
func (f *Framework) Close() error {
	return f.base.CloseFramework(f.fw)
}

// Framework returns the underlying MCA framework.
func (f *Framework) Framework() *mca.Framework {
	return f.fw
}

// Default returns the highest-priority module, or nil.
func (f *Framework) Default() Module {
	m, _ := f.fw.Default().(Module)
	return m
}

// AssignModule returns the module for a peer's security mechanism, or nil.
func (f *Framework) AssignModule(mechanism string) Module {
	m, _ := f.base.AssignModule(f.fw, mechanism).(Module)
	return m
}

// AvailableModules lists the active mechanisms in priority order.
func (f *Framework) AvailableModules() string {
	return f.base.AvailableModules(f.fw)
}

// Validate checks cred with the module matching its mechanism.
func (f *Framework) Validate(ctx context.Context, cred Credential) error {
	m := f.AssignModule(cred.Mechanism)
	if m == nil {
		return fmt.Errorf("%w: no module for mechanism %q", ErrUnknownMechanism, strings.TrimSpace(cred.Mechanism))
	}
	return m.ValidateCredential(ctx, cred)
}
