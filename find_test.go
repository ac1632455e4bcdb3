package mca

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/mca/status"
)

func TestFindAvailable_StaticOnly(t *testing.T) {
	v20 := newTestComponent("bfrops", "v20", 10)
	v21 := newTestComponent("bfrops", "v21", 20)

	tests := []struct {
		name      string
		selection string
		want      []string
	}{
		{name: "all", selection: "", want: []string{"v20", "v21"}},
		{name: "include", selection: "v21", want: []string{"v21"}},
		{name: "exclude", selection: "^v21", want: []string{"v20"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := newTestBase(newFakeLoader())
			fw := NewFramework("bfrops", WithStaticComponents(v20, v21), WithSelection(tt.selection))
			require.NoError(t, base.FindAvailable(fw, "", false, false))
			assert.Equal(t, tt.want, componentNames(fw))
		})
	}
}

func TestFindAvailable_IgnoreRequested(t *testing.T) {
	v20 := newTestComponent("bfrops", "v20", 10)
	base := newTestBase(newFakeLoader())
	fw := NewFramework("bfrops", WithStaticComponents(v20), WithSelection("missing"))
	require.NoError(t, base.FindAvailable(fw, "", true, false))
	assert.Equal(t, []string{"v20"}, componentNames(fw))
}

func TestFindAvailable_MissingRequested(t *testing.T) {
	v20 := newTestComponent("bfrops", "v20", 10)
	base := newTestBase(newFakeLoader())
	fw := NewFramework("bfrops", WithStaticComponents(v20), WithSelection("v20,v99"))
	err := base.FindAvailable(fw, "", false, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotFound)
	assert.Contains(t, err.Error(), "v99")
	assert.Contains(t, err.Error(), "testhost")
}

func TestFindAvailable_Dynamic(t *testing.T) {
	loader := newFakeLoader()
	dyn := newTestComponent("bfrops", "v30", 30)
	shadow := newTestComponent("bfrops", "v20", 99)
	loader.symbols["mca_bfrops_v30.so"] = Component(dyn)
	loader.symbols["mca_bfrops_v20.so"] = Component(shadow)
	dir := pluginDir(t, "mca_bfrops_v30.so", "mca_bfrops_v20.so", "mca_psec_none.so")

	static := newTestComponent("bfrops", "v20", 10)
	base := newTestBase(loader)
	fw := NewFramework("bfrops", WithStaticComponents(static))

	require.NoError(t, base.FindAvailable(fw, dir, false, true))
	assert.Equal(t, []string{"v20", "v30"}, componentNames(fw))

	got, ok := fw.Component("v20")
	require.True(t, ok)
	assert.Same(t, static, got, "static component wins over a dynamic one of the same name")
	assert.Equal(t, 0, loader.openCount("mca_bfrops_v20.so"))
	assert.Equal(t, 0, loader.openCount("mca_psec_none.so"), "files of other frameworks stay unopened")
}

func TestFindAvailable_Twice(t *testing.T) {
	loader := newFakeLoader()
	loader.symbols["mca_bfrops_v30.so"] = Component(newTestComponent("bfrops", "v30", 30))
	dir := pluginDir(t, "mca_bfrops_v30.so")

	base := newTestBase(loader)
	fw := NewFramework("bfrops")
	require.NoError(t, base.FindAvailable(fw, dir, false, true))
	require.NoError(t, base.FindAvailable(fw, dir, false, true))

	assert.Equal(t, []string{"v30"}, componentNames(fw))
	assert.Len(t, base.Repository().Items("bfrops"), 1)
	assert.Equal(t, 1, loader.openCount("mca_bfrops_v30.so"))
}

func TestFindAvailable_FilterSkipsUnrequestedFiles(t *testing.T) {
	loader := newFakeLoader()
	loader.symbols["mca_bfrops_v30.so"] = Component(newTestComponent("bfrops", "v30", 30))
	loader.symbols["mca_bfrops_v31.so"] = Component(newTestComponent("bfrops", "v31", 31))
	dir := pluginDir(t, "mca_bfrops_v30.so", "mca_bfrops_v31.so")

	base := newTestBase(loader)
	fw := NewFramework("bfrops", WithSelection("v31"))
	require.NoError(t, base.FindAvailable(fw, dir, false, true))
	assert.Equal(t, []string{"v31"}, componentNames(fw))
	assert.Equal(t, 0, loader.openCount("mca_bfrops_v30.so"))
}

func TestFindAvailable_BadPluginSkipped(t *testing.T) {
	loader := newFakeLoader()
	loader.symbols["mca_bfrops_good.so"] = Component(newTestComponent("bfrops", "good", 1))
	loader.symbols["mca_bfrops_bad.so"] = Component(&bareComponent{info: ComponentInfo{
		MCAVersion: Version{Major: 9},
		Type:       "bfrops",
		Name:       "bad",
	}})
	dir := pluginDir(t, "mca_bfrops_good.so", "mca_bfrops_bad.so", "mca_bfrops_nosym.so")

	tests := []struct {
		name      string
		show      bool
		wantWarns int
	}{
		{name: "show load errors", show: true, wantWarns: 2},
		{name: "quiet", show: false, wantWarns: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			base := newTestBase(loader, WithLogger(logger), WithShowLoadErrors(tt.show))
			fw := NewFramework("bfrops")
			require.NoError(t, base.FindAvailable(fw, dir, false, true))
			assert.Equal(t, []string{"good"}, componentNames(fw))
			assert.Len(t, logger.levels("WARN"), tt.wantWarns)
			base.releaseAvailable(fw)
		})
	}
}

func TestFindAvailable_NoDlopenComponent(t *testing.T) {
	loader := newFakeLoader()
	c := newTestComponent("bfrops", "pinned", 1)
	c.meta = MetadataNoDlopen
	loader.symbols["mca_bfrops_pinned.so"] = Component(c)
	dir := pluginDir(t, "mca_bfrops_pinned.so")

	base := newTestBase(loader, WithShowLoadErrors(false))
	fw := NewFramework("bfrops")
	require.NoError(t, base.FindAvailable(fw, dir, false, true))
	assert.Empty(t, fw.Components())
	assert.Equal(t, 1, loader.closeCount("mca_bfrops_pinned.so"))
}

func TestFindAvailable_ComponentPathDefault(t *testing.T) {
	loader := newFakeLoader()
	loader.symbols["mca_bfrops_v30.so"] = Component(newTestComponent("bfrops", "v30", 30))
	dir := pluginDir(t, "mca_bfrops_v30.so")

	base := newTestBase(loader, WithComponentPath(dir))
	fw := NewFramework("bfrops")
	require.NoError(t, base.FindAvailable(fw, "", false, true))
	assert.Equal(t, []string{"v30"}, componentNames(fw))
}
