package mca

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStatic(t *testing.T, base *Base, components ...Component) *Framework {
	t.Helper()
	fw := NewFramework("bfrops", WithStaticComponents(components...))
	require.NoError(t, base.OpenFramework(fw, WithStaticOnly()))
	return fw
}

func activePriorities(fw *Framework) []int {
	var out []int
	for _, am := range fw.Actives() {
		out = append(out, am.Priority)
	}
	return out
}

func TestSelect_PriorityOrder(t *testing.T) {
	base := newTestBase(newFakeLoader())
	fw := openStatic(t, base,
		newTestComponent("bfrops", "low", 5),
		newTestComponent("bfrops", "high", 20),
		newTestComponent("bfrops", "mid", 10),
	)
	require.NoError(t, base.Select(fw))

	assert.Equal(t, []int{20, 10, 5}, activePriorities(fw))
	assert.Equal(t, "high,mid,low", base.AvailableModules(fw))
	assert.Equal(t, "high", fw.Default().(*testModule).name)
}

func TestSelect_TiesKeepDiscoveryOrder(t *testing.T) {
	base := newTestBase(newFakeLoader())
	fw := openStatic(t, base,
		newTestComponent("bfrops", "first", 10),
		newTestComponent("bfrops", "top", 30),
		newTestComponent("bfrops", "second", 10),
		newTestComponent("bfrops", "third", 10),
	)
	require.NoError(t, base.Select(fw))
	assert.Equal(t, "top,first,second,third", base.AvailableModules(fw))
}

func TestSelect_SkipsUnusable(t *testing.T) {
	declines := newTestComponent("bfrops", "declines", 50)
	declines.queryErr = errors.New("not on this host")
	noModule := newTestComponent("bfrops", "nomodule", 40)
	noModule.module = nil
	badInit := newTestComponent("bfrops", "badinit", 30)
	badInit.module = &testModule{name: "badinit", initErr: errors.New("init failed")}
	bare := &bareComponent{info: ComponentInfo{MCAVersion: BaseVersion, Type: "bfrops", Name: "bare"}}
	good := newTestComponent("bfrops", "good", 1)

	base := newTestBase(newFakeLoader())
	fw := openStatic(t, base, declines, noModule, badInit, bare, good)
	require.NoError(t, base.Select(fw))
	assert.Equal(t, "good", base.AvailableModules(fw))
}

func TestSelect_EmptyIsNotAnError(t *testing.T) {
	base := newTestBase(newFakeLoader())
	fw := openStatic(t, base)
	require.NoError(t, base.Select(fw))
	assert.Nil(t, fw.Default())
	assert.Empty(t, base.AvailableModules(fw))
	assert.Nil(t, base.AssignModule(fw, ""))
}

func TestSelect_RunsOnce(t *testing.T) {
	c := newTestComponent("bfrops", "only", 1)
	base := newTestBase(newFakeLoader())
	fw := openStatic(t, base, c)
	require.NoError(t, base.Select(fw))
	first := fw.Actives()

	c.priority = 100
	require.NoError(t, base.Select(fw))
	assert.Equal(t, first, fw.Actives())
	assert.True(t, fw.IsSelected())
}

func TestSelect_RequiresOpenFramework(t *testing.T) {
	base := newTestBase(newFakeLoader())
	fw := NewFramework("bfrops")
	assert.ErrorIs(t, base.Select(fw), ErrFrameworkNotOpen)
	assert.ErrorIs(t, base.Select(nil), ErrFrameworkNil)
}

func TestInsertActive(t *testing.T) {
	var list []*ActiveModule
	for i, p := range []int{5, 20, 10, 20, 5, 30} {
		list = insertActive(list, &ActiveModule{Priority: p, Module: i})
	}
	var prios, order []int
	for _, am := range list {
		prios = append(prios, am.Priority)
		order = append(order, am.Module.(int))
	}
	assert.Equal(t, []int{30, 20, 20, 10, 5, 5}, prios)
	assert.Equal(t, []int{5, 1, 3, 2, 0, 4}, order)
}

func TestAssignModule(t *testing.T) {
	v20 := newTestComponent("bfrops", "v20", 10)
	v21 := newTestComponent("bfrops", "v21", 20)
	v21.accepts = []string{"v21", "v3"}
	bare := &bareComponent{info: ComponentInfo{MCAVersion: BaseVersion, Type: "bfrops", Name: "bare"}}

	base := newTestBase(newFakeLoader())
	fw := openStatic(t, base, v20, v21, bare)
	require.NoError(t, base.Select(fw))

	tests := []struct {
		version string
		want    Module
	}{
		{version: "", want: v21.module},
		{version: "v20", want: v20.module},
		{version: "v21", want: v21.module},
		{version: "v3", want: v21.module},
		{version: "v20,v21", want: v21.module},
		{version: "v12", want: nil},
		{version: "v12, v20", want: v20.module},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, base.AssignModule(fw, tt.version))
		})
	}
	assert.Nil(t, base.AssignModule(nil, "v20"))
}
