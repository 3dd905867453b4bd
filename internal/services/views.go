package services

import (
	"fmt"
	"time"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/report"
)

// Views serves the derived views of the store, memoized per store revision.
// Any mutation bumps the revision, so cached entries of older revisions are
// simply never asked for again and age out of the LRU.
type Views struct {
	store    *Store
	totals   *cache.LRUCache[core.Totals]
	listings *cache.LRUCache[report.Listing]
}

func NewViews(store *Store, size int, ttl time.Duration) *Views {
	return &Views{
		store:    store,
		totals:   cache.NewLRUCache[core.Totals](size, ttl),
		listings: cache.NewLRUCache[report.Listing](size, ttl),
	}
}

// Register hands the caches to m for periodic expiry.
func (v *Views) Register(m *cache.Manager) {
	m.Register(v.totals)
	m.Register(v.listings)
}

// Totals over the whole collection, independent of any filter.
func (v *Views) Totals() core.Totals {
	txns, rev := v.store.Snapshot()
	return v.totals.GetOrCompute(fmt.Sprintf("%d", rev), func() core.Totals {
		return report.Totals(txns)
	})
}

// Listing is the filtered, sorted list and its monthly breakdown. Callers
// get their own copy; the cached entry is never handed out.
func (v *Views) Listing(c report.Criteria) report.Listing {
	txns, rev := v.store.Snapshot()
	return v.listings.GetOrCompute(listingKey(rev, c), func() report.Listing {
		return report.View(txns, c)
	}).Clone()
}

// Stats reports cache effectiveness for the listing cache.
func (v *Views) Stats() cache.Stats {
	return v.listings.Stats()
}

func listingKey(rev uint64, c report.Criteria) string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%d|%s|%s|%s", rev, c.Type, bound(c.From), bound(c.To))
}
