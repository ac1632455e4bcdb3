package feeders

import (
	"errors"
)

// YAML feeder errors
var (
	ErrYamlMarshal   = errors.New("yaml: cannot marshal value")
	ErrYamlUnmarshal = errors.New("yaml: cannot unmarshal value into target")
)

// TOML feeder errors
var (
	ErrTomlExpectedTable = errors.New("toml: expected a table")
)

// Env feeder errors
var (
	// ErrEnvInvalidStructure indicates that the provided structure is not a pointer to a struct
	ErrEnvInvalidStructure = errors.New("env: invalid structure")
	// ErrEnvEmptyPrefixAndSuffix indicates that both prefix and suffix are empty
	ErrEnvEmptyPrefixAndSuffix = errors.New("env: prefix or suffix cannot be empty")
	ErrEnvFieldCannotBeSet     = errors.New("env: field cannot be set")
	ErrEnvConversion           = errors.New("env: cannot convert value")
)
