package mca

import (
	"fmt"
	"strings"
)

// Select queries every available component and builds the active list.
//
// Components without a Query, whose Query fails or returns no module, or
// whose module fails Init, are skipped. The active list is kept in strictly
// descending priority order; equal priorities keep discovery order. Select
// runs once per open; later calls return immediately. An empty active list
// is not an error.
func (b *Base) Select(fw *Framework) error {
	if fw == nil {
		return ErrFrameworkNil
	}
	fw.selectMu.Lock()
	defer fw.selectMu.Unlock()

	fw.mu.RLock()
	opened, selected := fw.opened, fw.selected
	candidates := append([]*ComponentListItem(nil), fw.available...)
	fw.mu.RUnlock()

	if !opened {
		return fmt.Errorf("%w: %s", ErrFrameworkNotOpen, fw.name)
	}
	if selected {
		return nil
	}

	var actives []*ActiveModule
	for _, cli := range candidates {
		name := cli.Name()
		querier, ok := cli.Component.(Querier)
		if !ok {
			b.verbose(fw, VerboseComponent, "Component has no query function", "component", name)
			continue
		}
		module, priority, err := querier.Query()
		if err != nil || module == nil {
			b.verbose(fw, VerboseComponent, "Component declined selection", "component", name, "error", err)
			continue
		}
		if initializer, ok := module.(Initializer); ok {
			if err := initializer.Init(); err != nil {
				b.logger.Warn("Module init failed", "framework", fw.name, "component", name, "error", err)
				continue
			}
		}
		b.verbose(fw, VerboseComponent, "Component selected", "component", name, "priority", priority)
		actives = insertActive(actives, &ActiveModule{
			Priority:  priority,
			Module:    module,
			Component: cli.Component,
		})
	}

	fw.mu.Lock()
	fw.actives = actives
	fw.selected = true
	fw.mu.Unlock()

	b.metrics.SetActiveModules(fw.name, len(actives))
	names := activeNames(actives)
	b.logger.Debug("Modules selected", "framework", fw.name, "modules", names)
	b.emitEvent(EventTypeModulesSelected, fw, map[string]any{"modules": names})
	return nil
}

// insertActive places am before the first entry with a strictly lower
// priority, or at the end.
func insertActive(actives []*ActiveModule, am *ActiveModule) []*ActiveModule {
	for i, existing := range actives {
		if am.Priority > existing.Priority {
			actives = append(actives, nil)
			copy(actives[i+1:], actives[i:])
			actives[i] = am
			return actives
		}
	}
	return append(actives, am)
}

func activeNames(actives []*ActiveModule) []string {
	names := make([]string, 0, len(actives))
	for _, am := range actives {
		names = append(names, am.Component.Info().Name)
	}
	return names
}

// AssignModule returns the module of the highest-priority active component
// that accepts one of the comma-separated versions. An empty version returns
// the default module. It returns nil when no component accepts.
func (b *Base) AssignModule(fw *Framework, version string) Module {
	if fw == nil {
		return nil
	}
	if strings.TrimSpace(version) == "" {
		return fw.Default()
	}

	var versions []string
	for _, v := range strings.Split(version, ",") {
		if v = strings.TrimSpace(v); v != "" {
			versions = append(versions, v)
		}
	}

	for _, am := range fw.Actives() {
		assigner, ok := am.Component.(Assigner)
		if !ok {
			continue
		}
		for _, v := range versions {
			if module := assigner.AssignModule(v); module != nil {
				name := am.Component.Info().Name
				b.verbose(fw, VerboseComponent, "Module assigned", "component", name, "version", v)
				b.emitEvent(EventTypeModuleAssigned, fw, map[string]any{"component": name, "version": v})
				return module
			}
		}
	}
	b.verbose(fw, VerboseComponent, "No module accepts version", "version", version)
	return nil
}

// AvailableModules returns the active component names in priority order,
// joined by commas.
func (b *Base) AvailableModules(fw *Framework) string {
	if fw == nil {
		return ""
	}
	return strings.Join(activeNames(fw.Actives()), ",")
}
