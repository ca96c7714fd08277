package access

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
)

// TestHeapInsertScanPreservesMultiset checks spec invariant 1: for any
// sequence of inserts on a fresh relation, a subsequent scan yields the
// same multiset of tuples, in page order then item-id order (which for
// a single never-evicted relation is simply insertion order).
func TestHeapInsertScanPreservesMultiset(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 20; trial++ {
		pool, rel := newTestRelation(t, 50)

		n := rng.Intn(200)
		var inserted []string
		for i := 0; i < n; i++ {
			a := int32(rng.Intn(1_000_000))
			b := fmt.Sprintf("v%d", rng.Intn(1_000_000))
			encoded, err := EncodeTuple(rel.TupleDesc(), []any{a, b})
			if err != nil {
				t.Fatalf("trial %d: EncodeTuple: %v", trial, err)
			}
			if err := HeapInsert(pool, rel, encoded); err != nil {
				t.Fatalf("trial %d: HeapInsert: %v", trial, err)
			}
			inserted = append(inserted, fmt.Sprintf("%d|%s", a, b))
		}

		rows := scanAll(t, pool, rel)
		if len(rows) != n {
			t.Fatalf("trial %d: scanned %d rows, want %d", trial, len(rows), n)
		}
		var scanned []string
		for _, row := range rows {
			scanned = append(scanned, fmt.Sprintf("%d|%s", row[0], row[1]))
		}

		sort.Strings(inserted)
		sort.Strings(scanned)
		for i := range inserted {
			if inserted[i] != scanned[i] {
				t.Fatalf("trial %d: multiset mismatch at %d: got %q, want %q", trial, i, scanned[i], inserted[i])
			}
		}
	}
}
