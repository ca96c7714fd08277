package access

import (
	"github.com/tinypgdb/tinypg/internal/relation"
	"github.com/tinypgdb/tinypg/internal/storage/pager"
)

// GetPageWithFreeSpace returns a pinned buffer for some page of rel with
// at least required bytes of free space, per §4.6's linear scan: pages
// are tried from the first to the last in relation order, each fetched
// and unpinned again if it does not qualify, and a new page is allocated
// only once every existing page has been tried and rejected.
//
// This is a simple, un-cached first-fit: it re-scans from page 1 on
// every call and never remembers a page's free space across calls. That
// cost is acceptable at the scale this core targets; a production
// engine would track free space in a separate map instead.
func GetPageWithFreeSpace(pool *pager.BufferPool, rel *relation.Relation, required int) (pager.BufferID, error) {
	size, err := pool.StorageManager().Size(rel.Locator)
	if err != nil {
		return 0, err
	}

	needed := required + pager.ItemIDSize
	for pageNumber := pager.PageNumber(1); pageNumber <= pager.PageNumber(size); pageNumber++ {
		bufID, err := pool.FetchBuffer(rel, pageNumber)
		if err != nil {
			return 0, err
		}
		h, err := pager.ReadPageHeader(pool.GetPage(bufID))
		if err != nil {
			pool.UnpinBuffer(bufID, false)
			return 0, err
		}
		if h.FreeSpace() >= needed {
			return bufID, nil
		}
		pool.UnpinBuffer(bufID, false)
	}

	return pool.AllocBuffer(rel)
}
