package mca

import (
	"errors"
	"fmt"

	"github.com/GoCodeAlone/mca/status"
)

// OpenOption configures OpenFramework.
type OpenOption func(*openConfig)

type openConfig struct {
	dir          string
	allowDynamic bool
	required     Metadata
}

// WithDirectory overrides the directory (or path list) searched for
// plugin files.
func WithDirectory(dir string) OpenOption {
	return func(c *openConfig) {
		c.dir = dir
	}
}

// WithStaticOnly disables dynamic component loading.
func WithStaticOnly() OpenOption {
	return func(c *openConfig) {
		c.allowDynamic = false
	}
}

// WithRequiredMetadata drops components lacking any of the given flags.
func WithRequiredMetadata(flags Metadata) OpenOption {
	return func(c *openConfig) {
		c.required = flags
	}
}

// OpenFramework registers fw, finds and filters its components and runs
// each component's Open. Components whose Open fails are removed and
// released. Opening an already open framework only takes another
// reference. If discovery or filtering fails, every component found so far
// is released and the framework stays closed.
func (b *Base) OpenFramework(fw *Framework, opts ...OpenOption) error {
	if fw == nil {
		return ErrFrameworkNil
	}
	cfg := openConfig{allowDynamic: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := b.RegisterFramework(fw); err != nil {
		return err
	}

	fw.mu.Lock()
	if fw.opened {
		fw.refcount++
		fw.mu.Unlock()
		return nil
	}
	fw.mu.Unlock()

	b.verbose(fw, VerboseComponent, "Opening framework", "selection", fw.Selection())

	if err := b.FindAvailable(fw, cfg.dir, false, cfg.allowDynamic); err != nil {
		b.releaseAvailable(fw)
		return err
	}
	if err := b.Filter(fw, cfg.required); err != nil {
		b.releaseAvailable(fw)
		return err
	}

	b.openComponents(fw)

	fw.mu.Lock()
	fw.opened = true
	fw.refcount = 1
	count := len(fw.available)
	fw.mu.Unlock()

	b.logger.Debug("Framework opened", "framework", fw.name, "components", count)
	b.emitEvent(EventTypeFrameworkOpened, fw, map[string]any{"components": count})
	return nil
}

// openComponents calls Open on each available component and drops those
// that refuse.
func (b *Base) openComponents(fw *Framework) {
	fw.mu.RLock()
	candidates := append([]*ComponentListItem(nil), fw.available...)
	fw.mu.RUnlock()

	kept := candidates[:0]
	for _, cli := range candidates {
		name := cli.Name()
		if opener, ok := cli.Component.(Opener); ok {
			if err := opener.Open(); err != nil {
				if errors.Is(err, status.ErrNotAvailable) {
					b.verbose(fw, VerboseComponent, "Component not available", "component", name)
				} else {
					b.logger.Warn("Component open failed", "framework", fw.name, "component", name, "error", err)
				}
				b.Release(cli.Component)
				continue
			}
		}
		b.verbose(fw, VerboseComponent, "Component opened", "component", name)
		b.metrics.ComponentOpened(fw.name)
		b.emitEvent(EventTypeComponentOpened, fw, map[string]any{"component": name})
		kept = append(kept, cli)
	}

	fw.mu.Lock()
	fw.available = kept
	fw.mu.Unlock()
}

func (b *Base) releaseAvailable(fw *Framework) {
	fw.mu.Lock()
	available := fw.available
	fw.available = nil
	fw.mu.Unlock()
	for _, cli := range available {
		b.Release(cli.Component)
	}
}

// CloseFramework drops one reference to fw. The last reference finalizes
// the active modules, closes every component, releases dynamically loaded
// ones and resets the select guard so the framework can be opened again.
func (b *Base) CloseFramework(fw *Framework) error {
	if fw == nil {
		return ErrFrameworkNil
	}

	fw.mu.Lock()
	if !fw.opened {
		fw.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrFrameworkNotOpen, fw.name)
	}
	fw.refcount--
	if fw.refcount > 0 {
		fw.mu.Unlock()
		return nil
	}
	actives := fw.actives
	available := fw.available
	fw.actives = nil
	fw.available = nil
	fw.opened = false
	fw.selected = false
	fw.refcount = 0
	fw.mu.Unlock()

	for _, am := range actives {
		if f, ok := am.Module.(Finalizer); ok {
			f.Finalize()
		}
	}

	var errs []error
	for _, cli := range available {
		name := cli.Name()
		if closer, ok := cli.Component.(Closer); ok {
			if err := closer.Close(); err != nil {
				b.logger.Warn("Component close failed", "framework", fw.name, "component", name, "error", err)
				errs = append(errs, fmt.Errorf("closing %s/%s: %w", fw.name, name, err))
			}
		}
		b.Release(cli.Component)
		b.verbose(fw, VerboseComponent, "Component closed", "component", name)
		b.emitEvent(EventTypeComponentClosed, fw, map[string]any{"component": name})
	}

	b.metrics.SetActiveModules(fw.name, 0)
	b.logger.Debug("Framework closed", "framework", fw.name)
	b.emitEvent(EventTypeFrameworkClosed, fw, nil)
	return errors.Join(errs...)
}
