package feeders

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/golobby/config/v3/pkg/feeder"
)

// TomlFeeder is a feeder that reads TOML files
type TomlFeeder struct {
	feeder.Toml
}

func NewTomlFeeder(filePath string) TomlFeeder {
	return TomlFeeder{feeder.Toml{Path: filePath}}
}

// FeedKey reads a TOML file and extracts a specific key
func (t TomlFeeder) FeedKey(key string, target any) error {
	var allData map[string]any
	if err := t.Feed(&allData); err != nil {
		return fmt.Errorf("failed to read toml: %w", err)
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	table, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: key %q holds %T", ErrTomlExpectedTable, key, value)
	}

	valueBytes, err := toml.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err = toml.Unmarshal(valueBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal value to target: %w", err)
	}
	return nil
}
