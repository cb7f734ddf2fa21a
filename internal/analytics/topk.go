package analytics

import (
	"cmp"
	"slices"

	"react-analytics/internal/domain"
)

// DefaultCount is the result size used when a caller does not ask for one.
const DefaultCount = 5

// Ranked is one entry of a ranking.
type Ranked[K comparable] struct {
	Key    K     `json:"key"`
	Weight int64 `json:"weight"`
}

// TopK orders entries by descending weight and keeps the first count of
// them. Ties keep their order in entries. count <= 0 keeps everything.
func TopK[K comparable](entries []Ranked[K], count int) []Ranked[K] {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Ranked[K]) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	if out == nil {
		out = []Ranked[K]{}
	}
	return out
}

// Tally accumulates weights per key and remembers the order in which keys
// were first seen, so rankings built from it break ties deterministically.
type Tally[K comparable] struct {
	order  []K
	counts map[K]int64
}

func NewTally[K comparable]() *Tally[K] {
	return &Tally[K]{counts: make(map[K]int64)}
}

func (t *Tally[K]) Add(key K, n int64) {
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, key)
	}
	t.counts[key] += n
}

func (t *Tally[K]) Get(key K) int64 {
	return t.counts[key]
}

func (t *Tally[K]) Len() int {
	return len(t.order)
}

func (t *Tally[K]) Entries() []Ranked[K] {
	entries := make([]Ranked[K], 0, len(t.order))
	for _, key := range t.order {
		entries = append(entries, Ranked[K]{Key: key, Weight: t.counts[key]})
	}
	return entries
}

func (t *Tally[K]) Top(count int) []Ranked[K] {
	return TopK(t.Entries(), count)
}

func fromKeyCounts(rows []domain.KeyCount) []Ranked[string] {
	entries := make([]Ranked[string], 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Ranked[string]{Key: row.Key, Weight: row.Count})
	}
	return entries
}
