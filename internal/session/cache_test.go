package session

import (
	"testing"

	"github.com/phrazzld/triage-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTriple() domain.QuadrantSet {
	return domain.QuadrantSet{A: domain.KeyQ2, B: domain.KeyR1, C: domain.KeyS4}
}

func TestClassificationCache_LookupMiss(t *testing.T) {
	t.Parallel()

	c := NewClassificationCache()
	_, ok := c.Lookup("never classified")
	assert.False(t, ok)
}

func TestClassificationCache_PutAndLookup(t *testing.T) {
	t.Parallel()

	c := NewClassificationCache()
	triple := validTriple()
	require.NoError(t, c.Put("walk the dog", triple))

	got, ok := c.Lookup("walk the dog")
	require.True(t, ok)
	assert.Equal(t, triple, got)
	assert.Equal(t, 1, c.Len())
}

func TestClassificationCache_PutOverwrites(t *testing.T) {
	t.Parallel()

	c := NewClassificationCache()
	require.NoError(t, c.Put("task", validTriple()))

	newer := domain.QuadrantSet{A: domain.KeyQ4, B: domain.KeyR3, C: domain.KeyS1}
	require.NoError(t, c.Put("task", newer))

	got, ok := c.Lookup("task")
	require.True(t, ok)
	assert.Equal(t, newer, got)
	assert.Equal(t, 1, c.Len())
}

func TestClassificationCache_PutRejectsEmptyText(t *testing.T) {
	t.Parallel()

	c := NewClassificationCache()
	err := c.Put("", validTriple())
	assert.ErrorIs(t, err, domain.ErrEmptyTaskText)
	assert.Equal(t, 0, c.Len())
}

func TestClassificationCache_PutRejectsInvalidTriple(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		triple  domain.QuadrantSet
		wantErr error
	}{
		{
			name:    "missing_key",
			triple:  domain.QuadrantSet{A: domain.KeyQ1, B: domain.KeyR1},
			wantErr: domain.ErrUnclassifiedTask,
		},
		{
			name:    "key_from_wrong_matrix",
			triple:  domain.QuadrantSet{A: domain.KeyR1, B: domain.KeyR1, C: domain.KeyS1},
			wantErr: domain.ErrKeyOutsideDomain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewClassificationCache()
			err := c.Put("task", tt.triple)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, c.Len())
		})
	}
}

func TestClassificationCache_EntriesIsACopy(t *testing.T) {
	t.Parallel()

	c := NewClassificationCache()
	require.NoError(t, c.Put("task", validTriple()))

	entries := c.Entries()
	entries["task"] = domain.QuadrantSet{}
	entries["injected"] = validTriple()

	got, ok := c.Lookup("task")
	require.True(t, ok)
	assert.Equal(t, validTriple(), got)
	_, ok = c.Lookup("injected")
	assert.False(t, ok)
}

func TestClassificationCache_Replace(t *testing.T) {
	t.Parallel()

	c := NewClassificationCache()
	require.NoError(t, c.Put("old", validTriple()))

	replacement := map[string]domain.QuadrantSet{
		"new a": {A: domain.KeyQ1, B: domain.KeyR1, C: domain.KeyS1},
		"new b": {A: domain.KeyQ3, B: domain.KeyR2, C: domain.KeyS2},
	}
	require.NoError(t, c.Replace(replacement))
	assert.Equal(t, 2, c.Len())
	_, ok := c.Lookup("old")
	assert.False(t, ok)

	err := c.Replace(map[string]domain.QuadrantSet{
		"bad": {A: domain.KeyQ1},
	})
	require.Error(t, err)
	assert.Equal(t, 2, c.Len(), "failed replace must leave the cache untouched")
}
