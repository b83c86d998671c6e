package domain

import (
	"slices"
	"time"
)

// MergeOrders folds incoming into existing keyed by (store, upstream id).
// Incoming orders replace existing ones under the same key. The result is
// sorted by creation time, newest first; ties keep insertion order and
// orders with unparseable timestamps sort last.
func MergeOrders(existing, incoming []Order) []Order {
	index := make(map[OrderKey]int, len(existing)+len(incoming))
	merged := make([]Order, 0, len(existing)+len(incoming))

	put := func(o Order) {
		if i, ok := index[o.Key()]; ok {
			merged[i] = o
			return
		}
		index[o.Key()] = len(merged)
		merged = append(merged, o)
	}
	for _, o := range existing {
		put(o)
	}
	for _, o := range incoming {
		put(o)
	}

	type entry struct {
		order Order
		at    time.Time
		ok    bool
	}
	entries := make([]entry, len(merged))
	for i, o := range merged {
		at, ok := o.CreatedTime(time.Local)
		entries[i] = entry{order: o, at: at, ok: ok}
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.ok && !b.ok:
			return -1
		case !a.ok && b.ok:
			return 1
		case !a.ok && !b.ok:
			return 0
		}
		return b.at.Compare(a.at)
	})

	for i, e := range entries {
		merged[i] = e.order
	}
	return merged
}
