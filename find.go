package mca

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/GoCodeAlone/mca/dl"
)

// FindAvailable populates the framework's available list.
//
// Static components that pass the requested-name filter are added first.
// When allowDynamic is set, dir (a single directory or a path list; empty
// means the base component path) is scanned and every plugin file for this
// framework that passes the filter is opened. A dynamic component whose name
// matches a static one is skipped, and so is any component already on the
// list, so calling FindAvailable twice does not duplicate entries.
//
// Plugin files that fail to load are logged and skipped. In inclusion mode,
// unless ignoreRequested is set, every requested component must end up on
// the list.
func (b *Base) FindAvailable(fw *Framework, dir string, ignoreRequested, allowDynamic bool) error {
	if fw == nil {
		return ErrFrameworkNil
	}

	var requested []string
	include := true
	if !ignoreRequested {
		var err error
		if requested, include, err = b.parseSelection(fw); err != nil {
			return err
		}
	}

	fw.mu.RLock()
	found := append([]*ComponentListItem(nil), fw.available...)
	fw.mu.RUnlock()

	known := func(name string) bool {
		for _, cli := range found {
			if cli.Name() == name {
				return true
			}
		}
		return false
	}

	var discovered []string
	for _, c := range fw.static {
		name := c.Info().Name
		if !useComponent(include, requested, name) || known(name) {
			continue
		}
		b.verbose(fw, VerboseComponent, "Found loaded component", "component", name)
		found = append(found, &ComponentListItem{Component: c})
		discovered = append(discovered, name)
	}

	if allowDynamic {
		if dir == "" {
			dir = strings.Join(b.componentPath, string(filepath.ListSeparator))
		}
		if dir != "" {
			if err := b.repo.Add(dir); err != nil {
				return err
			}
			for _, ri := range b.repo.Items(fw.name) {
				if !useComponent(include, requested, ri.Name) || known(ri.Name) || b.isStatic(fw, ri.Name) {
					continue
				}
				c, err := b.openDynamic(fw, ri)
				if err != nil {
					continue
				}
				found = append(found, &ComponentListItem{Component: c})
				discovered = append(discovered, ri.Name)
			}
		}
	}

	fw.mu.Lock()
	fw.available = found
	fw.mu.Unlock()

	for _, name := range discovered {
		b.emitEvent(EventTypeComponentDiscovered, fw, map[string]any{"component": name})
	}

	if include && !ignoreRequested {
		return b.checkRequested(fw, requested)
	}
	return nil
}

func (b *Base) isStatic(fw *Framework, name string) bool {
	for _, c := range fw.static {
		if c.Info().Name == name {
			return true
		}
	}
	return false
}

// openDynamic loads one repository item. Failures are reported at warning
// level when load errors are shown, otherwise as verbose output.
func (b *Base) openDynamic(fw *Framework, ri *RepositoryItem) (Component, error) {
	b.verbose(fw, VerboseComponent, "Loading component", "component", ri.Name, "path", ri.Path)

	c, err := b.repo.Open(ri)
	if err == nil && metadataOf(c).Has(MetadataNoDlopen) {
		b.repo.Release(c)
		c, err = nil, ErrComponentNoDlopen
	}
	if err != nil {
		b.metrics.LoadFailed(fw.name)
		b.emitEvent(EventTypeComponentLoadFailed, fw, map[string]any{
			"component": ri.Name,
			"path":      ri.Path,
			"error":     err.Error(),
		})
		args := []any{"component", ri.Name, "path", ri.Path, "error", err}
		switch {
		case errors.Is(err, dl.ErrFileNotFound):
			b.verbose(fw, VerboseComponent, "Component file disappeared", args...)
		case b.showLoadErrors:
			b.logger.Warn("Unable to open component", append([]any{"framework", fw.name}, args...)...)
		default:
			b.verbose(fw, VerboseComponent, "Unable to open component", args...)
		}
		return nil, err
	}
	return c, nil
}
