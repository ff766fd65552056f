package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddAndFind(t *testing.T) {
	store := NewStore()

	f, err := store.AddFloat("maxiter", 10)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, f.OriginalValue, 0)

	_, err = store.AddBoolean("done", false)
	require.NoError(t, err)

	_, err = store.AddString("model", "Refine3D/job010/run_class001.mrc")
	require.NoError(t, err)

	found, err := store.Float("maxiter")
	require.NoError(t, err)
	assert.Same(t, f, found)

	assert.True(t, store.HasBoolean("done"))
	assert.True(t, store.HasString("model"))
	assert.False(t, store.HasFloat("done"))
}

func TestStore_DuplicateNames(t *testing.T) {
	store := NewStore()

	_, err := store.AddFloat("x", 1)
	require.NoError(t, err)

	_, err = store.AddFloat("x", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateName)

	// names only need to be unique within a kind
	_, err = store.AddBoolean("x", true)
	require.NoError(t, err)

	_, err = store.AddString("x", "path")
	require.NoError(t, err)
}

func TestStore_LookupErrors(t *testing.T) {
	store := NewStore()

	tests := []struct {
		name   string
		lookup func() error
		want   string
	}{
		{
			name:   "float",
			lookup: func() error { _, err := store.Float("missing"); return err },
			want:   "cannot find float variable: missing",
		},
		{
			name:   "boolean",
			lookup: func() error { _, err := store.Boolean("missing"); return err },
			want:   "cannot find boolean variable: missing",
		},
		{
			name:   "string",
			lookup: func() error { _, err := store.String("missing"); return err },
			want:   "cannot find string variable: missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lookup()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestStore_BooleanNullSentinel(t *testing.T) {
	store := NewStore()

	v, err := store.Boolean(NullName)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = store.Float(NullName)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ResetIsIdempotent(t *testing.T) {
	store := NewStore()

	f, _ := store.AddFloat("x", 1)
	b, _ := store.AddBoolean("done", false)
	s, _ := store.AddString("file", "a.txt")

	for range 5 {
		f.Value += 3
	}

	b.Value = true
	s.Value = "b.txt"

	store.Reset()
	store.Reset()

	assert.InDelta(t, 1.0, f.Value, 0)
	assert.False(t, b.Value)
	assert.Equal(t, "a.txt", s.Value)
}

func TestStore_PreservesOrder(t *testing.T) {
	store := NewStore()

	for _, name := range []string{"c", "a", "b"} {
		_, err := store.AddFloat(name, 0)
		require.NoError(t, err)
	}

	names := make([]string, 0, 3)
	for _, v := range store.Floats() {
		names = append(names, v.Name)
	}

	assert.Equal(t, []string{"c", "a", "b"}, names)
}
