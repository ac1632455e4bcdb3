package feeders

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
)

// MCAPrefix is the prefix of MCA parameters in the environment.
const MCAPrefix = "PMIX_MCA"

// AffixedEnvFeeder is a feeder that reads environment variables with a prefix and/or suffix.
// Fields opt in with an env tag; nested structs share the affixes.
type AffixedEnvFeeder struct {
	Prefix string
	Suffix string

	// Tracker, when set, is told about every field the feeder populates.
	Tracker FieldTracker
}

// NewAffixedEnvFeeder creates a new AffixedEnvFeeder with the specified prefix and suffix
func NewAffixedEnvFeeder(prefix, suffix string) AffixedEnvFeeder {
	return AffixedEnvFeeder{Prefix: prefix, Suffix: suffix}
}

// NewMCAEnvFeeder reads PMIX_MCA_<TAG> variables.
func NewMCAEnvFeeder() AffixedEnvFeeder {
	return NewAffixedEnvFeeder(MCAPrefix, "")
}

// Feed reads environment variables and populates the provided structure
func (f AffixedEnvFeeder) Feed(structure any) error {
	rv := reflect.ValueOf(structure)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: got %T", ErrEnvInvalidStructure, structure)
	}
	if f.Prefix == "" && f.Suffix == "" {
		return ErrEnvEmptyPrefixAndSuffix
	}
	return f.processStructFields(rv.Elem(), "", strings.ToUpper(f.Prefix), strings.ToUpper(f.Suffix))
}

func (f AffixedEnvFeeder) processStructFields(rv reflect.Value, path, prefix, suffix string) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)
		if !fieldType.IsExported() {
			continue
		}
		fieldPath := fieldType.Name
		if path != "" {
			fieldPath = path + "." + fieldType.Name
		}

		if err := f.processField(field, &fieldType, fieldPath, prefix, suffix); err != nil {
			return fmt.Errorf("error in field '%s': %w", fieldPath, err)
		}
	}
	return nil
}

func (f AffixedEnvFeeder) processField(field reflect.Value, fieldType *reflect.StructField, path, prefix, suffix string) error {
	if envTag, exists := fieldType.Tag.Lookup("env"); exists {
		return f.setFieldFromEnv(field, fieldType, envTag, path, prefix, suffix)
	}

	switch field.Kind() {
	case reflect.Struct:
		return f.processStructFields(field, path, prefix, suffix)
	case reflect.Pointer:
		if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
			return f.processStructFields(field.Elem(), path, prefix, suffix)
		}
	}
	return nil
}

// envName builds PREFIX_TAG_SUFFIX
func envName(tag, prefix, suffix string) string {
	name := strings.ToUpper(tag)
	if prefix != "" {
		name = prefix + "_" + name
	}
	if suffix != "" {
		name = name + "_" + suffix
	}
	return name
}

func (f AffixedEnvFeeder) setFieldFromEnv(field reflect.Value, fieldType *reflect.StructField, envTag, path, prefix, suffix string) error {
	name := envName(envTag, prefix, suffix)
	envValue, ok := os.LookupEnv(name)
	if !ok || envValue == "" {
		return nil
	}
	if !field.CanSet() {
		return ErrEnvFieldCannotBeSet
	}

	converted, err := convert(envValue, field.Type())
	if err != nil {
		return fmt.Errorf("%w: %s=%q to %v: %w", ErrEnvConversion, name, envValue, field.Type(), err)
	}
	field.Set(reflect.ValueOf(converted).Convert(field.Type()))

	if f.Tracker != nil {
		f.Tracker.RecordFieldPopulation(FieldPopulation{
			FieldPath:  path,
			FieldName:  fieldType.Name,
			FieldType:  field.Type().String(),
			FeederType: "AffixedEnvFeeder",
			SourceType: "env",
			SourceKey:  name,
			Value:      field.Interface(),
		})
	}
	return nil
}

// convert handles time.Duration, which cast would read as a plain integer.
func convert(value string, t reflect.Type) (any, error) {
	if t == reflect.TypeFor[time.Duration]() {
		return time.ParseDuration(value)
	}
	return cast.FromType(value, t)
}
