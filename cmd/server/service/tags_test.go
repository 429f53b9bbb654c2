package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"trims and lowercases", []string{" Go ", "DATABASES"}, []string{"go", "databases"}},
		{"drops empties", []string{"", "  ", "go"}, []string{"go"}},
		{"dedupes across casing", []string{"Go", "go", " GO "}, []string{"go"}},
		{"preserves first-seen order", []string{"zebra", "alpha", "zebra"}, []string{"zebra", "alpha"}},
		{"nil input", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestMerge_UserTagsFirst(t *testing.T) {
	merged := Merge([]string{"Work", "go"}, []string{"GO", "ai", "work"})

	assert.Equal(t, []string{"work", "go", "ai"}, merged)
}

func TestResolve_CreatesAndReuses(t *testing.T) {
	store := newMockTagStore()
	resolver := NewTagResolver(store, testLogger())
	ctx := context.Background()

	ids, names, err := resolver.Resolve(ctx, []string{"Go", "testing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "testing"}, names)
	require.Len(t, ids, 2)

	// Same names again resolve to the same ids
	ids2, _, err := resolver.Resolve(ctx, []string{" GO ", "Testing"})
	require.NoError(t, err)
	assert.Equal(t, ids, ids2)
}

func TestResolve_EmptyInput(t *testing.T) {
	resolver := NewTagResolver(newMockTagStore(), testLogger())

	ids, names, err := resolver.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, names)
}

func TestResolve_PropagatesStoreError(t *testing.T) {
	store := newMockTagStore()
	store.getOrCreateErr = assert.AnError
	resolver := NewTagResolver(store, testLogger())

	_, _, err := resolver.Resolve(context.Background(), []string{"go"})
	assert.Error(t, err)
}
