// Package none is the psec component that performs no authentication.
package none

import (
	"context"

	"github.com/GoCodeAlone/mca"
	"github.com/GoCodeAlone/mca/psec"
)

// Component identity.
const (
	Name            = "none"
	DefaultPriority = 0
)

var (
	_ mca.Querier  = (*Component)(nil)
	_ mca.Assigner = (*Component)(nil)
	_ psec.Module  = (*Module)(nil)
)

// Component hands out the none module.
type Component struct {
	module *Module
}

// New creates the component.
func New() *Component {
	return &Component{module: &Module{}}
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

func (c *Component) Query() (mca.Module, int, error) {
	return c.module, DefaultPriority, nil
}

func (c *Component) AssignModule(mechanism string) mca.Module {
	if mechanism != Name {
		return nil
	}
	return c.module
}

// Module accepts every credential.
type Module struct{}

func (*Module) Name() string { return Name }

func (*Module) CreateCredential(context.Context) (psec.Credential, error) {
	return psec.Credential{Mechanism: Name}, nil
}

func (*Module) ValidateCredential(context.Context, psec.Credential) error {
	return nil
}
