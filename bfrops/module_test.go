package bfrops

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/mca"
	"github.com/GoCodeAlone/mca/metrics"
	"github.com/GoCodeAlone/mca/status"
)

func standardSetup(r *Registry) error {
	return RegisterTypes(r, StandardTypes()...)
}

func TestNilModule(t *testing.T) {
	var m *Module
	buf := NewBuffer(BufferNonDesc)

	assert.ErrorIs(t, m.Init(), status.ErrBadParam)
	assert.ErrorIs(t, m.Pack(buf, []int32{1}, TypeInt32), status.ErrBadParam)
	_, err := m.Unpack(buf, make([]int32, 1), TypeInt32)
	assert.ErrorIs(t, err, status.ErrBadParam)
	_, err = m.Copy(int32(1), TypeInt32)
	assert.ErrorIs(t, err, status.ErrBadParam)
	_, err = m.Print("", int32(1), TypeInt32)
	assert.ErrorIs(t, err, status.ErrBadParam)
	assert.ErrorIs(t, m.CopyPayload(buf, NewBuffer(BufferNonDesc)), status.ErrBadParam)
	assert.ErrorIs(t, m.ValueXfer(&Value{}, Value{Type: TypeBool, Data: true}), status.ErrBadParam)
	assert.ErrorIs(t, m.ValueLoad(&Value{}, true, TypeBool), status.ErrBadParam)
	_, err = m.ValueUnload(Value{Type: TypeBool, Data: true})
	assert.ErrorIs(t, err, status.ErrBadParam)
	res, err := m.ValueCmp(Value{}, Value{})
	assert.ErrorIs(t, err, status.ErrBadParam)
	assert.Equal(t, ComparisonNotAvailable, res)
	assert.ErrorIs(t, m.RegisterType(EnvarType()), status.ErrBadParam)
	assert.Nil(t, m.Registry())
	assert.Empty(t, m.Name())
	assert.NotPanics(t, m.Finalize)
	assert.Equal(t, "PMIX_BOOL", m.DataTypeString(TypeBool))
	assert.True(t, buf.IsEmpty())
}

func TestModuleLifecycle(t *testing.T) {
	m := NewModule("v20", standardSetup)
	assert.Equal(t, "v20", m.Name())

	err := m.Pack(NewBuffer(BufferNonDesc), []int32{1}, TypeInt32)
	assert.ErrorIs(t, err, status.ErrBadParam)
	assert.ErrorIs(t, err, ErrModuleNotInitialized)

	require.NoError(t, m.Init())
	r := m.Registry()
	require.NotNil(t, r)
	require.NoError(t, m.Init())
	assert.Same(t, r, m.Registry(), "init is idempotent")

	m.Finalize()
	assert.Nil(t, m.Registry())
	require.NoError(t, m.Init())
	assert.NotNil(t, m.Registry())
}

func TestModuleInitFailures(t *testing.T) {
	boom := errors.New("boom")
	m := NewModule("bad", func(*Registry) error { return boom })
	err := m.Init()
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, m.Registry())

	m = NewModule("odd", standardSetup, WithRegistryOptions(WithWidths(Widths{})))
	assert.ErrorIs(t, m.Init(), status.ErrBadParam)
}

func TestModuleOperations(t *testing.T) {
	m := NewModule("v20", standardSetup)
	require.NoError(t, m.Init())

	buf := NewBuffer(BufferFullyDesc)
	require.NoError(t, m.Pack(buf, []string{"a", "b"}, TypeString))
	dst := make([]string, 2)
	n, err := m.Unpack(buf, dst, TypeString)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b"}, dst)

	c, err := m.Copy(Proc{Nspace: "n", Rank: 1}, TypeProc)
	require.NoError(t, err)
	assert.Equal(t, Proc{Nspace: "n", Rank: 1}, c)

	out, err := m.Print("", uint16(3), TypeUint16)
	require.NoError(t, err)
	assert.Equal(t, "Data type: PMIX_UINT16\tValue: 3", out)

	var v Value
	require.NoError(t, m.ValueLoad(&v, "x", TypeString))
	got, err := m.ValueUnload(v)
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	var w Value
	require.NoError(t, m.ValueXfer(&w, v))
	res, err := m.ValueCmp(v, w)
	require.NoError(t, err)
	assert.Equal(t, Equal, res)

	dstBuf := NewBuffer(BufferNonDesc)
	src := NewBuffer(BufferNonDesc)
	require.NoError(t, m.Pack(src, []bool{true}, TypeBool))
	require.NoError(t, m.CopyPayload(dstBuf, src))
	assert.Equal(t, src.Bytes(), dstBuf.Bytes())

	_, err = m.Copy(Envar{}, TypeEnvar)
	assert.ErrorIs(t, err, status.ErrUnknownDataType)
	require.NoError(t, m.RegisterType(EnvarType()))
	_, err = m.Copy(Envar{}, TypeEnvar)
	assert.NoError(t, err)
}

func TestModuleMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	met, err := metrics.New(reg)
	require.NoError(t, err)

	m := NewModule("v20", standardSetup)
	require.NoError(t, m.Init())
	m.attach(met, mca.NopLogger{})

	buf := NewBuffer(BufferFullyDesc)
	require.NoError(t, m.Pack(buf, []int32{1}, TypeInt32))
	_, err = m.Unpack(buf, make([]int32, 1), TypeInt32)
	require.NoError(t, err)

	require.NoError(t, m.Pack(buf, []int32{1}, TypeInt32))
	_, err = m.Unpack(buf, make([]int16, 1), TypeInt16)
	require.ErrorIs(t, err, status.ErrPackMismatch)

	n, err := testutil.GatherAndCount(reg, "mca_bfrops_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = testutil.GatherAndCount(reg, "mca_bfrops_bytes_packed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
