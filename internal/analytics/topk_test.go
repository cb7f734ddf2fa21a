package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopK(t *testing.T) {
	entries := []Ranked[string]{
		{Key: "a", Weight: 1},
		{Key: "b", Weight: 3},
		{Key: "c", Weight: 2},
		{Key: "d", Weight: 3},
		{Key: "e", Weight: 1},
	}

	tests := []struct {
		name  string
		count int
		want  []string
	}{
		{name: "top two keeps tie order", count: 2, want: []string{"b", "d"}},
		{name: "zero returns all", count: 0, want: []string{"b", "d", "c", "a", "e"}},
		{name: "negative returns all", count: -1, want: []string{"b", "d", "c", "a", "e"}},
		{name: "larger than data is not padded", count: 10, want: []string{"b", "d", "c", "a", "e"}},
		{name: "one", count: 1, want: []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopK(entries, tt.count)
			keys := make([]string, 0, len(got))
			for _, r := range got {
				keys = append(keys, r.Key)
			}
			assert.Equal(t, tt.want, keys)
		})
	}

	assert.Equal(t, "a", entries[0].Key, "input is not reordered")
}

func TestTopK_Empty(t *testing.T) {
	got := TopK[string](nil, DefaultCount)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTally(t *testing.T) {
	tally := NewTally[string]()
	tally.Add("x", 1)
	tally.Add("y", 2)
	tally.Add("x", 1)
	tally.Add("z", 2)

	assert.Equal(t, 3, tally.Len())
	assert.Equal(t, int64(2), tally.Get("x"))
	assert.Equal(t, []Ranked[string]{
		{Key: "x", Weight: 2},
		{Key: "y", Weight: 2},
		{Key: "z", Weight: 2},
	}, tally.Top(0))
}
