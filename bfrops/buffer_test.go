package bfrops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/mca/status"
)

func TestBufferGrowthPolicy(t *testing.T) {
	tests := []struct {
		name      string
		opts      []BufferOption
		prefill   int
		extend    int
		wantAlloc int
	}{
		{"first allocation uses the initial size", nil, 0, 1, DefaultInitialSize},
		{"doubles below the threshold", nil, 0, 200, 256},
		{"doubles from the current allocation", nil, 100, 100, 256},
		{"rounds up to the threshold at the threshold", nil, 0, DefaultThresholdSize, DefaultThresholdSize},
		{"rounds up to a threshold multiple above it", nil, 0, 5000, 2 * DefaultThresholdSize},
		{"crossing the threshold from a small buffer", nil, 100, 4000, 2 * DefaultThresholdSize},
		{"custom growth", []BufferOption{WithGrowth(16, 64)}, 0, 20, 32},
		{"custom threshold", []BufferOption{WithGrowth(16, 64)}, 0, 70, 128},
		{"non-positive values keep defaults", []BufferOption{WithGrowth(0, -1)}, 0, 1, DefaultInitialSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(BufferNonDesc, tt.opts...)
			if tt.prefill > 0 {
				b.write(tt.prefill)
			}
			b.Extend(tt.extend)
			assert.Equal(t, tt.wantAlloc, b.Cap())
			assert.Equal(t, tt.prefill, b.Len(), "extend packs nothing")
		})
	}
}

func TestBufferExtendIsNoopWithRoom(t *testing.T) {
	grows := 0
	b := NewBuffer(BufferNonDesc, withGrowthHook(func() { grows++ }))
	b.Extend(10)
	require.Equal(t, 1, grows)
	b.Extend(DefaultInitialSize)
	assert.Equal(t, 1, grows)
	assert.Equal(t, DefaultInitialSize, b.Cap())
}

func TestBufferGrowthPreservesContent(t *testing.T) {
	r := newTestRegistry(t)
	grows := 0
	b := NewBuffer(BufferFullyDesc, WithGrowth(8, 256), withGrowthHook(func() { grows++ }))

	var sum uint64
	lastCap := 0
	for i := range uint32(5000) {
		require.NoError(t, r.Pack(b, []uint32{i}, TypeUint32))
		sum += uint64(i)
		assert.GreaterOrEqual(t, b.Cap(), lastCap)
		assert.LessOrEqual(t, b.Len(), b.Cap())
		lastCap = b.Cap()
	}
	assert.Greater(t, grows, 1)
	assert.Zero(t, b.Cap()%256, "allocation above the threshold is a threshold multiple")

	var got uint64
	v := make([]uint32, 1)
	for range 5000 {
		_, err := r.Unpack(b, v, TypeUint32)
		require.NoError(t, err)
		got += uint64(v[0])
	}
	assert.Equal(t, sum, got)
}

func TestBufferNewSpaceIsZeroed(t *testing.T) {
	b := NewBuffer(BufferNonDesc)
	p := b.write(4)
	copy(p, []byte{1, 2, 3, 4})
	b.Extend(DefaultInitialSize * 3)
	assert.Equal(t, []byte{1, 2, 3, 4}, b.Bytes())
	for i, c := range b.data[b.packPtr:] {
		if c != 0 {
			t.Fatalf("byte %d of new capacity is %d", i, c)
		}
	}
}

func TestBufferLoadUnload(t *testing.T) {
	b := NewBuffer(BufferNonDesc)
	assert.True(t, b.IsEmpty())

	b.Load([]byte{1, 2, 3})
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 3, b.Unread())

	out := b.Unload()
	assert.Equal(t, []byte{1, 2, 3}, out)
	assert.True(t, b.IsEmpty())
	assert.Zero(t, b.Cap())

	b.Load([]byte{4, 5, 6})
	_, err := b.read(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{6}, b.Unload())

	b.Load([]byte{7})
	_, err = b.read(1)
	require.NoError(t, err)
	assert.Nil(t, b.Unload())
}

func TestBufferReadPastEnd(t *testing.T) {
	b := NewBuffer(BufferNonDesc)
	b.Load([]byte{1})
	_, err := b.read(2)
	assert.ErrorIs(t, err, status.ErrUnpackReadPastEndOfBuffer)
	assert.Equal(t, 0, b.UnpackOffset())

	_, err = b.getInt32()
	assert.ErrorIs(t, err, status.ErrUnpackReadPastEndOfBuffer)
}

func TestBufferCursorInvariant(t *testing.T) {
	r := newTestRegistry(t)
	b := NewBuffer(BufferFullyDesc)
	check := func() {
		t.Helper()
		assert.LessOrEqual(t, b.UnpackOffset(), b.Len())
		assert.LessOrEqual(t, b.Len(), b.Cap())
	}
	check()
	require.NoError(t, r.Pack(b, []string{"a", "bb", "ccc"}, TypeString))
	check()
	_, err := r.Unpack(b, make([]string, 3), TypeString)
	require.NoError(t, err)
	check()
	_, err = r.Unpack(b, make([]string, 1), TypeString)
	assert.Error(t, err)
	check()
}

func TestParseBufferType(t *testing.T) {
	tests := []struct {
		in      string
		want    BufferType
		wantErr bool
	}{
		{"non-desc", BufferNonDesc, false},
		{"fully-desc", BufferFullyDesc, false},
		{"fully-described", BufferFullyDesc, false},
		{"binary", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBufferType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, status.ErrBadParam)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, must(ParseBufferType(got.String())))
		})
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
