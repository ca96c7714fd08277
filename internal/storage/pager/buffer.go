package pager

import (
	"log"

	"github.com/tinypgdb/tinypg/internal/dberr"
	"github.com/tinypgdb/tinypg/internal/oid"
	"github.com/tinypgdb/tinypg/internal/relation"
)

// BufferID identifies a cached frame within a BufferPool. Zero is
// invalid; valid ids start at 1.
type BufferID int

const invalidBufferID BufferID = 0

// DefaultCapacity is the default number of frames a BufferPool holds
// when Config.Capacity is left zero.
const DefaultCapacity = 120

// bufferTag identifies which disk block a frame currently caches.
type bufferTag struct {
	tablespace oid.Oid
	db         oid.Oid
	relation   oid.Oid
	pageNumber PageNumber
}

func tagOf(rel *relation.Relation, pageNumber PageNumber) bufferTag {
	return bufferTag{
		tablespace: rel.Locator.Tablespace,
		db:         rel.Locator.Database,
		relation:   rel.Locator.Relation,
		pageNumber: pageNumber,
	}
}

// frame is one cache slot of the buffer pool.
type frame struct {
	id       BufferID
	tag      bufferTag
	rel      *relation.Relation
	refcount int
	dirty    bool
	bytes    []byte

	// lru doubly-linked list pointers; only meaningful while refcount==0.
	prev, next BufferID
}

// Config configures a BufferPool.
type Config struct {
	// Capacity is the number of frames the pool holds. Zero means
	// DefaultCapacity.
	Capacity int
	// Verbose enables debug logging of fetch/victim/flush activity.
	Verbose bool
	// Logger receives debug output when Verbose is set. Defaults to
	// log.Default().
	Logger *log.Logger
}

// BufferPool is a bounded, single-threaded page cache with pin counts,
// dirty tracking, and strict-LRU victim selection over unpinned frames.
// It is the sole mutator of in-memory pages; disk files are mutated only
// through its StorageManager.
type BufferPool struct {
	smgr      *StorageManager
	capacity  int
	frames    []*frame // 1-indexed; frames[0] unused
	freeList  []BufferID
	pageTable map[bufferTag]BufferID

	// lru is a doubly-linked list of unpinned frame ids, oldest-first
	// (lruHead) to most-recently-unpinned (lruTail).
	lruHead, lruTail BufferID

	verbose bool
	logger  *log.Logger
}

// NewBufferPool creates a pool of cfg.Capacity frames backed by smgr.
func NewBufferPool(smgr *StorageManager, cfg Config) *BufferPool {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	bp := &BufferPool{
		smgr:      smgr,
		capacity:  capacity,
		frames:    make([]*frame, capacity+1),
		freeList:  make([]BufferID, 0, capacity),
		pageTable: make(map[bufferTag]BufferID, capacity),
		verbose:   cfg.Verbose,
		logger:    logger,
	}
	for i := 1; i <= capacity; i++ {
		id := BufferID(i)
		bp.frames[i] = &frame{id: id}
		bp.freeList = append(bp.freeList, id)
	}
	return bp
}

func (bp *BufferPool) debugf(format string, args ...any) {
	if bp.verbose {
		bp.logger.Printf(format, args...)
	}
}

func (bp *BufferPool) frameAt(id BufferID) *frame { return bp.frames[id] }

// lruUnlink removes id from the lru list. id must currently be in it.
func (bp *BufferPool) lruUnlink(id BufferID) {
	f := bp.frameAt(id)
	if f.prev != invalidBufferID {
		bp.frameAt(f.prev).next = f.next
	} else {
		bp.lruHead = f.next
	}
	if f.next != invalidBufferID {
		bp.frameAt(f.next).prev = f.prev
	} else {
		bp.lruTail = f.prev
	}
	f.prev, f.next = invalidBufferID, invalidBufferID
}

// lruPushTail inserts id at the most-recently-used end.
func (bp *BufferPool) lruPushTail(id BufferID) {
	f := bp.frameAt(id)
	f.prev = bp.lruTail
	f.next = invalidBufferID
	if bp.lruTail != invalidBufferID {
		bp.frameAt(bp.lruTail).next = id
	} else {
		bp.lruHead = id
	}
	bp.lruTail = id
}

// pin removes id from the lru list (if present) and increments its
// refcount.
func (bp *BufferPool) pin(id BufferID) {
	f := bp.frameAt(id)
	if f.refcount == 0 {
		bp.lruUnlink(id)
	}
	f.refcount++
}

// FetchBuffer returns a pinned buffer holding pageNumber of rel, reading
// it from storage on a cache miss (victimizing an unpinned frame if the
// pool is full). The caller must eventually call UnpinBuffer exactly once
// per FetchBuffer/AllocBuffer call.
func (bp *BufferPool) FetchBuffer(rel *relation.Relation, pageNumber PageNumber) (BufferID, error) {
	tag := tagOf(rel, pageNumber)
	if id, ok := bp.pageTable[tag]; ok {
		bp.debugf("pager: page %d of relation %s hit in buffer %d", pageNumber, rel.RelName, id)
		bp.pin(id)
		return id, nil
	}

	bp.debugf("pager: fetching page %d of relation %s from disk", pageNumber, rel.RelName)
	id, err := bp.obtainFrame()
	if err != nil {
		return invalidBufferID, err
	}

	f := bp.frameAt(id)
	if f.bytes == nil {
		f.bytes = make([]byte, PageSize)
	}
	if err := bp.smgr.Read(rel.Locator, pageNumber, f.bytes); err != nil {
		bp.freeList = append(bp.freeList, id)
		return invalidBufferID, err
	}

	f.tag = tag
	f.rel = rel
	f.dirty = false
	bp.pageTable[tag] = id
	// A frame from the free list or from victim() is not on the lru list,
	// so it is pinned directly rather than through pin().
	f.refcount = 1
	return id, nil
}

// AllocBuffer extends rel's file by one zeroed page and returns it
// pinned, already bound into the buffer pool.
func (bp *BufferPool) AllocBuffer(rel *relation.Relation) (BufferID, error) {
	pageNumber, err := bp.smgr.Extend(rel.Locator)
	if err != nil {
		return invalidBufferID, err
	}
	bp.debugf("pager: allocated new page %d for relation %s", pageNumber, rel.RelName)
	return bp.FetchBuffer(rel, pageNumber)
}

// obtainFrame returns a free frame id, evicting the LRU victim if the
// free list is empty.
func (bp *BufferPool) obtainFrame() (BufferID, error) {
	if n := len(bp.freeList); n > 0 {
		id := bp.freeList[n-1]
		bp.freeList = bp.freeList[:n-1]
		return id, nil
	}
	return bp.victim()
}

// victim selects the oldest unpinned frame, flushing it first if dirty,
// and returns it for reuse.
func (bp *BufferPool) victim() (BufferID, error) {
	if bp.lruHead == invalidBufferID {
		return invalidBufferID, dberr.NoFreeBuffer()
	}
	id := bp.lruHead
	f := bp.frameAt(id)
	bp.debugf("pager: page %d of relation %s chosen for eviction", f.tag.pageNumber, relName(f.rel))

	if f.dirty {
		if err := bp.flush(f); err != nil {
			return invalidBufferID, err
		}
	}
	bp.lruUnlink(id)
	delete(bp.pageTable, f.tag)
	return id, nil
}

func relName(rel *relation.Relation) string {
	if rel == nil {
		return "<none>"
	}
	return rel.RelName
}

// GetPage returns the byte buffer backing buffer id. The returned slice
// is owned by the pool and is only valid while the buffer remains
// pinned; callers must not retain it past the matching UnpinBuffer.
func (bp *BufferPool) GetPage(id BufferID) []byte {
	return bp.frameAt(id).bytes
}

// UnpinBuffer decrements the pin count of id, ORs wasDirtied into the
// frame's dirty flag, and — once the refcount reaches zero — makes the
// frame eligible for eviction again as the most-recently-used entry.
func (bp *BufferPool) UnpinBuffer(id BufferID, wasDirtied bool) {
	f := bp.frameAt(id)
	f.dirty = f.dirty || wasDirtied
	f.refcount--
	if f.refcount == 0 {
		bp.lruPushTail(id)
	}
}

// FlushBuffer writes id's bytes to storage and clears its dirty flag.
// Pin state is unaffected.
func (bp *BufferPool) FlushBuffer(id BufferID) error {
	return bp.flush(bp.frameAt(id))
}

func (bp *BufferPool) flush(f *frame) error {
	bp.debugf("pager: flushing page %d of relation %s to disk", f.tag.pageNumber, relName(f.rel))
	if err := bp.smgr.Write(f.rel.Locator, f.tag.pageNumber, f.bytes); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// FlushAll flushes every dirty frame currently resident in the pool.
func (bp *BufferPool) FlushAll() error {
	bp.debugf("pager: flushing all dirty buffers")
	for _, id := range bp.pageTable {
		f := bp.frameAt(id)
		if f.dirty {
			if err := bp.flush(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// StorageManager exposes the pool's underlying storage manager, used by
// the free-space policy to query relation size directly.
func (bp *BufferPool) StorageManager() *StorageManager { return bp.smgr }
