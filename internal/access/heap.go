package access

import (
	"fmt"

	"github.com/tinypgdb/tinypg/internal/dberr"
	"github.com/tinypgdb/tinypg/internal/relation"
	"github.com/tinypgdb/tinypg/internal/storage/pager"
)

// HeapInsert appends tuple — the output of EncodeTuple, or any other
// caller-assembled encoding sharing the same on-page framing — to some
// page of rel with enough free space, per the free-space policy in
// GetPageWithFreeSpace. It returns dberr.UnsupportedOperation if tuple
// could never fit on an empty page.
func HeapInsert(pool *pager.BufferPool, rel *relation.Relation, tuple []byte) error {
	if len(tuple) > pager.MaxTupleSize {
		return dberr.UnsupportedOperation(fmt.Sprintf("tuple of %d bytes exceeds maximum %d", len(tuple), pager.MaxTupleSize))
	}

	bufID, err := GetPageWithFreeSpace(pool, rel, len(tuple))
	if err != nil {
		return err
	}

	page := pool.GetPage(bufID)
	if err := pager.PageAddItem(page, tuple); err != nil {
		pool.UnpinBuffer(bufID, false)
		return err
	}
	pool.UnpinBuffer(bufID, true)
	return nil
}

// HeapScanner is a lazy, forward-only, restartable iterator over all
// tuples of a relation, in page order then item-id order. It holds at
// most one page pinned at a time; advancing to the next page unpins the
// prior one. Callers that stop iterating before Next returns false must
// call Close to release any pin still held.
type HeapScanner struct {
	pool *pager.BufferPool
	rel  *relation.Relation

	pageCount   pager.PageNumber
	currentPage pager.PageNumber
	bufID       pager.BufferID
	itemIDs     []pager.ItemId
	idx         int

	current []byte
	err     error
	done    bool
}

// NewHeapScanner opens a scanner over rel. The number of pages is
// snapshotted at open time; pages appended afterward are not visited by
// this scanner instance (restart with a new scanner to see them).
func NewHeapScanner(pool *pager.BufferPool, rel *relation.Relation) (*HeapScanner, error) {
	size, err := pool.StorageManager().Size(rel.Locator)
	if err != nil {
		return nil, err
	}
	return &HeapScanner{pool: pool, rel: rel, pageCount: pager.PageNumber(size)}, nil
}

// Next advances the scanner to the next live tuple and reports whether
// one was found. It returns false both on exhaustion and on error;
// callers must check Err after a false return to distinguish the two.
func (s *HeapScanner) Next() bool {
	if s.done {
		return false
	}
	for {
		if s.bufID == 0 {
			if !s.loadNextPage() {
				return false
			}
		}

		for s.idx < len(s.itemIDs) {
			id := s.itemIDs[s.idx]
			s.idx++
			if id.IsTombstone() {
				continue
			}
			tuple, err := pager.ItemBytes(s.pool.GetPage(s.bufID), id)
			if err != nil {
				s.fail(err)
				return false
			}
			s.current = append([]byte(nil), tuple...)
			return true
		}

		// Exhausted this page's item ids; move on.
		s.pool.UnpinBuffer(s.bufID, false)
		s.bufID = 0
	}
}

// loadNextPage pins the next page in sequence and loads its item-id
// array. It returns false once all pages have been visited or on error.
func (s *HeapScanner) loadNextPage() bool {
	s.currentPage++
	if s.currentPage > s.pageCount {
		s.done = true
		return false
	}
	bufID, err := s.pool.FetchBuffer(s.rel, s.currentPage)
	if err != nil {
		s.fail(err)
		return false
	}
	ids, err := pager.ItemIDs(s.pool.GetPage(bufID))
	if err != nil {
		s.pool.UnpinBuffer(bufID, false)
		s.fail(err)
		return false
	}
	s.bufID = bufID
	s.itemIDs = ids
	s.idx = 0
	return true
}

func (s *HeapScanner) fail(err error) {
	s.err = err
	s.done = true
}

// Tuple returns the raw bytes of the tuple found by the most recent
// successful call to Next.
func (s *HeapScanner) Tuple() []byte { return s.current }

// Err returns the error, if any, that terminated iteration.
func (s *HeapScanner) Err() error { return s.err }

// Close releases the pin held by the scanner, if any. It is a no-op if
// the scanner has already released it (via exhaustion or error). Safe to
// call multiple times.
func (s *HeapScanner) Close() {
	if s.bufID != 0 {
		s.pool.UnpinBuffer(s.bufID, false)
		s.bufID = 0
	}
	s.done = true
}
