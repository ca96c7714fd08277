// Package pager implements the fixed-size slotted-page format and the
// buffer pool that caches pages in memory for tinypg's heap storage.
//
// The on-disk format is a sequence of PageSize pages, each laid out as a
// small header, an item-id array that grows forward from the header, and
// a tuple heap that grows backward from the end of the page:
//
//	0            PageHeaderSize       StartFreeSpace       EndFreeSpace       PageSize
//	+------------+--------------------+--------------------+------------------+
//	| PageHeader | ItemId[] (grows →) | free space          | tuples (← grows) |
//	+------------+--------------------+--------------------+------------------+
//
// Header integers and item-id fields are little-endian.
package pager

import (
	"encoding/binary"
	"fmt"

	"github.com/tinypgdb/tinypg/internal/dberr"
)

// PageNumber identifies a page within a relation's file. Page numbers
// start at 1; InvalidPageNumber (0) never refers to a real page.
type PageNumber uint32

// InvalidPageNumber is the distinguished "no page" value.
const InvalidPageNumber PageNumber = 0

const (
	// PageSize is the fixed on-disk page size. Configurable at build time
	// only.
	PageSize = 8192

	// PageHeaderSize is the size in bytes of PageHeader on disk.
	PageHeaderSize = 6

	// ItemIDSize is the size in bytes of one ItemId entry.
	ItemIDSize = 4
)

// PageHeader is the 6-byte header at the start of every page.
type PageHeader struct {
	StartFreeSpace uint16 // offset where the item-id array ends
	EndFreeSpace   uint16 // offset where the tuple heap begins
	Flags          uint16 // reserved
}

// NewPageHeader returns the header of a freshly allocated, empty page.
func NewPageHeader() PageHeader {
	return PageHeader{StartFreeSpace: PageHeaderSize, EndFreeSpace: PageSize}
}

// FreeSpace returns the number of bytes available between the item-id
// array and the tuple heap.
func (h PageHeader) FreeSpace() int {
	return int(h.EndFreeSpace) - int(h.StartFreeSpace)
}

// ReadPageHeader parses the header from the first PageHeaderSize bytes of
// page. An all-zero header, as left by StorageManager.Extend, reads as the
// header of an empty page (NewPageHeader). Otherwise it returns
// dberr.PageCorruption if the header's invariant
// PageHeaderSize <= StartFreeSpace <= EndFreeSpace <= PageSize is violated.
func ReadPageHeader(page []byte) (PageHeader, error) {
	if len(page) < PageHeaderSize {
		return PageHeader{}, dberr.PageCorruption(fmt.Sprintf("page shorter than header: %d bytes", len(page)))
	}
	h := PageHeader{
		StartFreeSpace: binary.LittleEndian.Uint16(page[0:2]),
		EndFreeSpace:   binary.LittleEndian.Uint16(page[2:4]),
		Flags:          binary.LittleEndian.Uint16(page[4:6]),
	}
	if h == (PageHeader{}) {
		return NewPageHeader(), nil
	}
	if h.StartFreeSpace < PageHeaderSize || h.StartFreeSpace > h.EndFreeSpace || int(h.EndFreeSpace) > PageSize {
		return PageHeader{}, dberr.PageCorruption(fmt.Sprintf(
			"header out of range: start=%d end=%d", h.StartFreeSpace, h.EndFreeSpace))
	}
	return h, nil
}

// WriteHeader serializes h into the first PageHeaderSize bytes of page.
func WriteHeader(page []byte, h PageHeader) {
	binary.LittleEndian.PutUint16(page[0:2], h.StartFreeSpace)
	binary.LittleEndian.PutUint16(page[2:4], h.EndFreeSpace)
	binary.LittleEndian.PutUint16(page[4:6], h.Flags)
}

// NewPage returns a freshly allocated, zeroed page with its header
// already written.
func NewPage() []byte {
	page := make([]byte, PageSize)
	WriteHeader(page, NewPageHeader())
	return page
}

// ItemId is a fixed 4-byte slot pointer into the tuple heap region of a
// page. A zero-length item id is a tombstone: reserved for forward
// compatibility with deletion, never produced by this core, but tolerated
// by iteration.
type ItemId struct {
	Offset uint16
	Length uint16
}

// readItemID reads the item id at the given byte offset within page.
func readItemID(page []byte, off int) ItemId {
	return ItemId{
		Offset: binary.LittleEndian.Uint16(page[off : off+2]),
		Length: binary.LittleEndian.Uint16(page[off+2 : off+4]),
	}
}

// writeItemID writes id at the given byte offset within page.
func writeItemID(page []byte, off int, id ItemId) {
	binary.LittleEndian.PutUint16(page[off:off+2], id.Offset)
	binary.LittleEndian.PutUint16(page[off+2:off+4], id.Length)
}

// MaxTupleSize is the largest encoded tuple PageAddItem can ever place on
// an empty page.
const MaxTupleSize = PageSize - PageHeaderSize - ItemIDSize

// PageAddItem appends data as a new item on page, following the slotted
// page algorithm of §4.1: it requires enough free space for the tuple
// plus one new item id, writes the tuple bytes at the top of the tuple
// heap, appends an item id pointing at them, and advances the header.
// It returns dberr.NoRoomOnPage if there is insufficient space; the page
// is left unmodified in that case.
func PageAddItem(page []byte, data []byte) error {
	h, err := ReadPageHeader(page)
	if err != nil {
		return err
	}
	needed := len(data) + ItemIDSize
	if h.FreeSpace() < needed {
		return dberr.NoRoomOnPage()
	}

	newTupleOffset := int(h.EndFreeSpace) - len(data)
	copy(page[newTupleOffset:int(h.EndFreeSpace)], data)
	writeItemID(page, int(h.StartFreeSpace), ItemId{Offset: uint16(newTupleOffset), Length: uint16(len(data))})

	h.StartFreeSpace += ItemIDSize
	h.EndFreeSpace = uint16(newTupleOffset)
	WriteHeader(page, h)
	return nil
}

// ItemIDs returns the ordered sequence of item ids stored in page's
// item-id array.
func ItemIDs(page []byte) ([]ItemId, error) {
	h, err := ReadPageHeader(page)
	if err != nil {
		return nil, err
	}
	n := (int(h.StartFreeSpace) - PageHeaderSize) / ItemIDSize
	ids := make([]ItemId, n)
	for i := 0; i < n; i++ {
		ids[i] = readItemID(page, PageHeaderSize+i*ItemIDSize)
	}
	return ids, nil
}

// IsTombstone reports whether id is a deleted-slot marker. Tombstones are
// never produced by this core but must be tolerated by scans for forward
// compatibility with deletion.
func (id ItemId) IsTombstone() bool { return id.Length == 0 }

// ItemBytes returns the slice of page addressed by id, or a
// dberr.PageCorruption error if id's range falls outside the page.
func ItemBytes(page []byte, id ItemId) ([]byte, error) {
	end := int(id.Offset) + int(id.Length)
	if end > PageSize || end < PageHeaderSize {
		return nil, dberr.PageCorruption(fmt.Sprintf("item id out of range: offset=%d length=%d", id.Offset, id.Length))
	}
	return page[id.Offset:end], nil
}
