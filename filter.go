package mca

import (
	"fmt"
	"slices"
	"strings"

	"github.com/GoCodeAlone/mca/status"
)

// negate switches a selection from inclusion to exclusion mode.
const negate = "^"

// ParseRequested parses a component selection string.
//
// The string is a comma-separated list of component names. A single leading
// "^" switches the list to exclusion mode. An empty string means "use every
// component" and is returned as include mode with no names.
func ParseRequested(selection string) (names []string, include bool, err error) {
	include = true
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return nil, true, nil
	}

	if strings.HasPrefix(selection, negate) {
		include = false
		selection = selection[len(negate):]
		if strings.HasPrefix(selection, negate) {
			return nil, false, fmt.Errorf("%w: %w", status.ErrBadParam, ErrSelectionMultipleNegation)
		}
	}
	if strings.Contains(selection, negate) {
		return nil, false, fmt.Errorf("%w: %w", status.ErrBadParam, ErrSelectionMisplacedNegation)
	}

	for _, name := range strings.Split(selection, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names, include, nil
}

// useComponent applies the requested-name filter to one component name.
func useComponent(include bool, requested []string, name string) bool {
	if len(requested) == 0 {
		return true
	}
	found := slices.Contains(requested, name)
	return include == found
}

// parseSelection wraps ParseRequested with the framework name for context.
func (b *Base) parseSelection(fw *Framework) ([]string, bool, error) {
	names, include, err := ParseRequested(fw.Selection())
	if err != nil {
		b.logger.Error("Invalid component selection",
			"framework", fw.name, "selection", fw.Selection(), "error", err)
		return nil, false, fmt.Errorf("framework %s: %w", fw.name, err)
	}
	return names, include, nil
}

// Filter removes every available component that fails the framework's
// requested-name filter or lacks any of the required metadata flags.
// Removed components are released immediately. In inclusion mode, a
// requested component missing from the surviving list is an error.
func (b *Base) Filter(fw *Framework, required Metadata) error {
	if fw == nil {
		return ErrFrameworkNil
	}
	requested, include, err := b.parseSelection(fw)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	kept := fw.available[:0]
	var removed []Component
	for _, cli := range fw.available {
		name := cli.Name()
		canUse := useComponent(include, requested, name)
		if canUse && required != 0 && !metadataOf(cli.Component).Has(required) {
			b.verbose(fw, VerboseComponent, "Component does not have required flags",
				"component", name, "required", required)
			canUse = false
		}
		if canUse {
			kept = append(kept, cli)
			continue
		}
		removed = append(removed, cli.Component)
	}
	clear(fw.available[len(kept):])
	fw.available = kept
	fw.mu.Unlock()

	for _, c := range removed {
		name := c.Info().Name
		b.verbose(fw, VerboseComponent, "Removing component", "component", name)
		b.Release(c)
		b.metrics.ComponentFiltered(fw.name)
		b.emitEvent(EventTypeComponentFiltered, fw, map[string]any{"component": name})
	}

	if include {
		return b.checkRequested(fw, requested)
	}
	return nil
}

// checkRequested verifies that every explicitly requested component is on
// the available list.
func (b *Base) checkRequested(fw *Framework, requested []string) error {
	fw.mu.RLock()
	defer fw.mu.RUnlock()

	for _, name := range requested {
		if fw.hasComponent(name) {
			continue
		}
		b.logger.Error("A requested component was not found, or was unable to be opened. "+
			"This means that this component is either not installed or is unable to be used on your system.",
			"host", b.hostname, "framework", fw.name, "component", name)
		return fmt.Errorf("%w: %w: framework %s component %s on host %s",
			status.ErrNotFound, ErrRequestedComponentNotFound, fw.name, name, b.hostname)
	}
	return nil
}
