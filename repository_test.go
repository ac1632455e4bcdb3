package mca

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/mca/status"
)

func TestParsePluginFileName(t *testing.T) {
	tests := []struct {
		file string
		typ  string
		name string
		ok   bool
	}{
		{file: "mca_bfrops_v21.so", typ: "bfrops", name: "v21", ok: true},
		{file: "mca_psec_native.dylib", typ: "psec", name: "native", ok: true},
		{file: "mca_psec_munge_v2.so", typ: "psec", name: "munge_v2", ok: true},
		{file: "libmca_bfrops_v21.so", ok: false},
		{file: "mca_bfrops_v21.la", ok: false},
		{file: "mca_bfrops.so", ok: false},
		{file: "README", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			typ, name, ok := ParsePluginFileName(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.typ, typ)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestRepository_AddIsIdempotent(t *testing.T) {
	dir := pluginDir(t, "mca_bfrops_v20.so", "mca_bfrops_v21.so", "mca_psec_none.so", "notes.txt")
	repo := NewRepository(newFakeLoader(), nil)

	require.NoError(t, repo.Add(dir))
	require.NoError(t, repo.Add(dir))

	items := repo.Items("bfrops")
	require.Len(t, items, 2)
	assert.Equal(t, "v20", items[0].Name)
	assert.Equal(t, "v21", items[1].Name)
	assert.Len(t, repo.Items("psec"), 1)
	for _, ri := range items {
		assert.False(t, ri.Loaded(), "scan must not open files")
	}
}

func TestRepository_AddMissingDirectory(t *testing.T) {
	repo := NewRepository(newFakeLoader(), nil)
	assert.NoError(t, repo.Add(filepath.Join(t.TempDir(), "absent")))
}

func TestRepository_OpenRetainRelease(t *testing.T) {
	loader := newFakeLoader()
	c := newTestComponent("bfrops", "v21", 20)
	loader.symbols["mca_bfrops_v21.so"] = func() Component { return c }
	dir := pluginDir(t, "mca_bfrops_v21.so")

	repo := NewRepository(loader, nil)
	require.NoError(t, repo.Add(dir))
	ri, ok := repo.Lookup("bfrops", "v21")
	require.True(t, ok)

	got, err := repo.Open(ri)
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Equal(t, 1, ri.Refcount())

	_, err = repo.Open(ri)
	assert.ErrorIs(t, err, ErrComponentAlreadyLoaded)

	require.NoError(t, repo.Retain("bfrops", "v21"))
	assert.Equal(t, 2, ri.Refcount())

	repo.Release(c)
	assert.True(t, ri.Loaded())
	assert.Equal(t, 0, loader.closeCount("mca_bfrops_v21.so"))

	repo.Release(c)
	assert.False(t, ri.Loaded())
	assert.Equal(t, 1, loader.closeCount("mca_bfrops_v21.so"))

	err = repo.Retain("bfrops", "v21")
	assert.ErrorIs(t, err, ErrComponentNotLoaded)
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestRepository_ReleaseUnknownIsNoop(t *testing.T) {
	repo := NewRepository(newFakeLoader(), nil)
	assert.NotPanics(t, func() {
		repo.Release(newTestComponent("bfrops", "static", 1))
		repo.Release(nil)
	})
}

// valueComponent is a non-comparable component value.
type valueComponent struct {
	info ComponentInfo
	tags []string
}

func (c valueComponent) Info() ComponentInfo { return c.info }

func TestRepository_ReleaseValueComponent(t *testing.T) {
	loader := newFakeLoader()
	info := ComponentInfo{MCAVersion: BaseVersion, Type: "psec", Name: "munge", Version: Version{Major: 1}}
	loader.symbols["mca_psec_munge.so"] = func() Component {
		return valueComponent{info: info, tags: []string{"auth"}}
	}
	repo := NewRepository(loader, nil)
	require.NoError(t, repo.Add(pluginDir(t, "mca_psec_munge.so")))
	ri, ok := repo.Lookup("psec", "munge")
	require.True(t, ok)

	c, err := repo.Open(ri)
	require.NoError(t, err)

	other := newTestComponent("psec", "munge", 1)
	assert.NotPanics(t, func() { repo.Release(other) })
	assert.True(t, ri.Loaded())

	assert.NotPanics(t, func() { repo.Release(c) })
	assert.False(t, ri.Loaded())
	assert.Equal(t, 1, loader.closeCount("mca_psec_munge.so"))
}

func TestRepository_OpenValidation(t *testing.T) {
	tests := []struct {
		name    string
		symbol  any
		wantErr error
	}{
		{
			name:    "wrong MCA version",
			symbol:  Component(&bareComponent{info: ComponentInfo{MCAVersion: Version{Major: 1}, Type: "bfrops", Name: "bad"}}),
			wantErr: ErrMCAVersionMismatch,
		},
		{
			name:    "name mismatch",
			symbol:  Component(&bareComponent{info: ComponentInfo{MCAVersion: BaseVersion, Type: "bfrops", Name: "other"}}),
			wantErr: ErrComponentMismatch,
		},
		{
			name:    "type mismatch",
			symbol:  Component(&bareComponent{info: ComponentInfo{MCAVersion: BaseVersion, Type: "psec", Name: "bad"}}),
			wantErr: ErrComponentMismatch,
		},
		{
			name:    "unexpected symbol type",
			symbol:  42,
			wantErr: ErrComponentSymbolInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newFakeLoader()
			loader.symbols["mca_bfrops_bad.so"] = tt.symbol
			repo := NewRepository(loader, nil)
			require.NoError(t, repo.Add(pluginDir(t, "mca_bfrops_bad.so")))
			ri, ok := repo.Lookup("bfrops", "bad")
			require.True(t, ok)

			_, err := repo.Open(ri)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, ri.Loaded())
			assert.Equal(t, 1, loader.closeCount("mca_bfrops_bad.so"))
		})
	}
}

func TestRepository_OpenPatchRelease(t *testing.T) {
	loader := newFakeLoader()
	c := newTestComponent("bfrops", "v21", 20)
	c.info.MCAVersion = Version{Major: 2, Minor: 1, Release: 7}
	var sym Component = c
	loader.symbols["mca_bfrops_v21.so"] = &sym

	repo := NewRepository(loader, nil)
	require.NoError(t, repo.Add(pluginDir(t, "mca_bfrops_v21.so")))
	ri, _ := repo.Lookup("bfrops", "v21")
	_, err := repo.Open(ri)
	assert.NoError(t, err)
}

func TestRepository_Watch(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository(newFakeLoader(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	found, err := repo.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mca_bfrops_late.so"), nil, 0o600))

	select {
	case ri := <-found:
		require.NotNil(t, ri)
		assert.Equal(t, "bfrops", ri.Type)
		assert.Equal(t, "late", ri.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watched plugin file")
	}

	_, ok := repo.Lookup("bfrops", "late")
	assert.True(t, ok)

	cancel()
	for range found {
	}
}

func TestRepository_WatchMissingDirectory(t *testing.T) {
	repo := NewRepository(newFakeLoader(), nil)
	_, err := repo.Watch(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
