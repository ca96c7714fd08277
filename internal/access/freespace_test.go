package access

import (
	"testing"

	"github.com/tinypgdb/tinypg/internal/storage/pager"
)

func TestGetPageWithFreeSpaceAllocatesWhenEmpty(t *testing.T) {
	pool, rel := newTestRelation(t, 10)

	bufID, err := GetPageWithFreeSpace(pool, rel, 16)
	if err != nil {
		t.Fatalf("GetPageWithFreeSpace: %v", err)
	}
	defer pool.UnpinBuffer(bufID, false)

	size, err := pool.StorageManager().Size(rel.Locator)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 1 {
		t.Fatalf("expected relation to gain one page, got %d", size)
	}
}

func TestGetPageWithFreeSpaceReusesExistingPage(t *testing.T) {
	pool, rel := newTestRelation(t, 10)

	bufID, err := pool.AllocBuffer(rel)
	if err != nil {
		t.Fatalf("AllocBuffer: %v", err)
	}
	pool.UnpinBuffer(bufID, false)

	got, err := GetPageWithFreeSpace(pool, rel, 16)
	if err != nil {
		t.Fatalf("GetPageWithFreeSpace: %v", err)
	}
	defer pool.UnpinBuffer(got, false)

	if got != bufID {
		t.Fatalf("expected the existing empty page to be reused, got a different buffer")
	}

	size, err := pool.StorageManager().Size(rel.Locator)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 1 {
		t.Fatalf("expected no new page to be allocated, relation has %d pages", size)
	}
}

func TestGetPageWithFreeSpaceSkipsFullPages(t *testing.T) {
	pool, rel := newTestRelation(t, 10)

	bufID, err := pool.AllocBuffer(rel)
	if err != nil {
		t.Fatalf("AllocBuffer: %v", err)
	}
	big := make([]byte, pager.MaxTupleSize)
	if err := pager.PageAddItem(pool.GetPage(bufID), big); err != nil {
		t.Fatalf("PageAddItem: %v", err)
	}
	pool.UnpinBuffer(bufID, true)

	got, err := GetPageWithFreeSpace(pool, rel, 16)
	if err != nil {
		t.Fatalf("GetPageWithFreeSpace: %v", err)
	}
	defer pool.UnpinBuffer(got, false)

	if got == bufID {
		t.Fatalf("expected a full page to be skipped in favor of a fresh one")
	}
	size, err := pool.StorageManager().Size(rel.Locator)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 2 {
		t.Fatalf("expected a second page to be allocated, relation has %d pages", size)
	}
}
