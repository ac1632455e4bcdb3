package bfrops_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/GoCodeAlone/mca"
	"github.com/GoCodeAlone/mca/bfrops"
	"github.com/GoCodeAlone/mca/status"
)

var errUnexpectedSuccess = errors.New("expected unpacking to fail")

// codecKind maps a feature-file type name to its wire type and Go slice.
type codecKind struct {
	typ   bfrops.DataType
	parse func(string) (any, error)
	make  func(n int) any
}

func parseList[T any](conv func(string) (T, error)) func(string) (any, error) {
	return func(s string) (any, error) {
		var out []T
		for _, field := range strings.Split(s, ",") {
			v, err := conv(strings.TrimSpace(field))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
}

func makeList[T any](n int) any {
	return make([]T, n)
}

var codecKinds = map[string]codecKind{
	"int32": {bfrops.TypeInt32, parseList(func(s string) (int32, error) {
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	}), makeList[int32]},
	"int16": {bfrops.TypeInt16, parseList(func(s string) (int16, error) {
		v, err := strconv.ParseInt(s, 10, 16)
		return int16(v), err
	}), makeList[int16]},
	"int": {bfrops.TypeInt, parseList(strconv.Atoi), makeList[int]},
	"string": {bfrops.TypeString, parseList(func(s string) (string, error) {
		return s, nil
	}), makeList[string]},
	"double": {bfrops.TypeDouble, parseList(func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}), makeList[float64]},
	"bool": {bfrops.TypeBool, parseList(strconv.ParseBool), makeList[bool]},
	"info": {bfrops.TypeInfo, nil, makeList[bfrops.Info]},
}

// CodecBDDTestContext holds the state of one scenario.
type CodecBDDTestContext struct {
	base      *mca.Base
	framework *bfrops.Framework
	buf       *bfrops.Buffer
	unpacked  any
	got       int
	unpackErr error
}

func (c *CodecBDDTestContext) reset() {
	if c.framework != nil {
		_ = c.framework.Close()
	}
	*c = CodecBDDTestContext{}
}

func (c *CodecBDDTestContext) theBfropsFrameworkIsOpen() error {
	c.base = mca.NewBase(mca.WithHostname("testhost"))
	f, err := bfrops.Open(c.base, bfrops.Config{}, components(), mca.WithStaticOnly())
	if err != nil {
		return err
	}
	c.framework = f
	return nil
}

func (c *CodecBDDTestContext) aBuffer(mode string) error {
	typ, err := bfrops.ParseBufferType(mode)
	if err != nil {
		return err
	}
	c.buf = c.framework.NewBufferOfType(typ)
	return nil
}

func (c *CodecBDDTestContext) module(name string) (*bfrops.Module, error) {
	mod := c.framework.AssignModule(name)
	if mod == nil {
		return nil, fmt.Errorf("no module for %q", name)
	}
	return mod, nil
}

func (c *CodecBDDTestContext) modulePacksValues(name, kind, values string) error {
	mod, err := c.module(name)
	if err != nil {
		return err
	}
	k, ok := codecKinds[kind]
	if !ok || k.parse == nil {
		return fmt.Errorf("unsupported kind %q", kind)
	}
	src, err := k.parse(values)
	if err != nil {
		return err
	}
	return mod.Pack(c.buf, src, k.typ)
}

func (c *CodecBDDTestContext) modulePacksAnInfo(name, key string, directives int) error {
	mod, err := c.module(name)
	if err != nil {
		return err
	}
	info := bfrops.Info{
		Key:        key,
		Directives: bfrops.InfoDirectives(directives),
		Value:      bfrops.Value{Type: bfrops.TypeUint32, Data: uint32(30)},
	}
	return mod.Pack(c.buf, []bfrops.Info{info}, bfrops.TypeInfo)
}

func (c *CodecBDDTestContext) moduleUnpacksValues(name string, count int, kind string) error {
	mod, err := c.module(name)
	if err != nil {
		return err
	}
	k, ok := codecKinds[kind]
	if !ok {
		return fmt.Errorf("unsupported kind %q", kind)
	}
	c.unpacked = k.make(count)
	c.got, c.unpackErr = mod.Unpack(c.buf, c.unpacked, k.typ)
	return nil
}

func (c *CodecBDDTestContext) unpackingShouldSucceed() error {
	return c.unpackErr
}

func (c *CodecBDDTestContext) unpackingShouldFailWith(name string) error {
	if c.unpackErr == nil {
		return errUnexpectedSuccess
	}
	if got := status.From(c.unpackErr).String(); got != name {
		return fmt.Errorf("unpack failed with %s, want %s: %w", got, name, c.unpackErr)
	}
	return nil
}

func (c *CodecBDDTestContext) theUnpackedValuesShouldBe(want string) error {
	v := reflect.ValueOf(c.unpacked)
	parts := make([]string, 0, c.got)
	for i := range c.got {
		parts = append(parts, fmt.Sprint(v.Index(i).Interface()))
	}
	if got := strings.Join(parts, ","); got != want {
		return fmt.Errorf("unpacked %q, want %q", got, want)
	}
	return nil
}

func (c *CodecBDDTestContext) theBufferShouldBeFullyConsumed() error {
	if n := c.buf.Unread(); n != 0 {
		return fmt.Errorf("%d bytes left unread", n)
	}
	return nil
}

func (c *CodecBDDTestContext) theBufferShouldNotHaveBeenConsumed() error {
	if off := c.buf.UnpackOffset(); off != 0 {
		return fmt.Errorf("unpack cursor at %d, want 0", off)
	}
	return nil
}

func (c *CodecBDDTestContext) versionShouldBeAssignedModule(version, want string) error {
	mod := c.framework.AssignModule(version)
	if mod == nil || mod.Name() != want {
		return fmt.Errorf("version %q assigned %q, want %q", version, mod.Name(), want)
	}
	return nil
}

func (c *CodecBDDTestContext) versionShouldBeAssignedNoModule(version string) error {
	if mod := c.framework.AssignModule(version); mod != nil {
		return fmt.Errorf("version %q assigned %q, want none", version, mod.Name())
	}
	return nil
}

// InitializeCodecScenario wires the step definitions.
func InitializeCodecScenario(ctx *godog.ScenarioContext) {
	testCtx := &CodecBDDTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		testCtx.reset()
		return ctx, nil
	})

	ctx.Step(`^the bfrops framework is open$`, testCtx.theBfropsFrameworkIsOpen)
	ctx.Step(`^a "([^"]*)" buffer$`, testCtx.aBuffer)
	ctx.Step(`^module "([^"]*)" packs the (\w+) values "([^"]*)"$`, testCtx.modulePacksValues)
	ctx.Step(`^module "([^"]*)" packs an info "([^"]*)" with directives (\d+)$`, testCtx.modulePacksAnInfo)
	ctx.Step(`^module "([^"]*)" unpacks (\d+) (\w+) values$`, testCtx.moduleUnpacksValues)
	ctx.Step(`^unpacking should succeed$`, testCtx.unpackingShouldSucceed)
	ctx.Step(`^unpacking should fail with "([^"]*)"$`, testCtx.unpackingShouldFailWith)
	ctx.Step(`^the unpacked values should be "([^"]*)"$`, testCtx.theUnpackedValuesShouldBe)
	ctx.Step(`^the buffer should be fully consumed$`, testCtx.theBufferShouldBeFullyConsumed)
	ctx.Step(`^the buffer should not have been consumed$`, testCtx.theBufferShouldNotHaveBeenConsumed)
	ctx.Step(`^version "([^"]*)" should be assigned module "([^"]*)"$`, testCtx.versionShouldBeAssignedModule)
	ctx.Step(`^version "([^"]*)" should be assigned no module$`, testCtx.versionShouldBeAssignedNoModule)
}

func TestCodecFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeCodecScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/codec.feature"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
