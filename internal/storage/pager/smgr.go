package pager

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tinypgdb/tinypg/internal/dberr"
	"github.com/tinypgdb/tinypg/internal/oid"
)

// StorageManager maps a relation locator to a file under a data root and
// performs blocking page-sized I/O against it. Files are opened on
// demand per call; no descriptor is cached across calls.
type StorageManager struct {
	DataRoot string
}

// NewStorageManager returns a StorageManager rooted at dataRoot.
func NewStorageManager(dataRoot string) *StorageManager {
	return &StorageManager{DataRoot: dataRoot}
}

func (s *StorageManager) path(loc oid.Locator) string {
	return loc.Path(s.DataRoot)
}

func (s *StorageManager) openForWrite(loc oid.Locator) (*os.File, error) {
	p := s.path(loc)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("create relation directory: %w", err)
	}
	return os.OpenFile(p, os.O_RDWR|os.O_CREATE, 0o644)
}

// Read seeks to the block for pageNumber and reads exactly PageSize bytes
// into dst, which must be PageSize bytes long. It returns
// dberr.ShortRead if fewer bytes are available.
func (s *StorageManager) Read(loc oid.Locator, pageNumber PageNumber, dst []byte) error {
	f, err := os.Open(s.path(loc))
	if err != nil {
		return fmt.Errorf("open relation file: %w", err)
	}
	defer f.Close()

	off := int64(pageNumber-1) * PageSize
	n, err := f.ReadAt(dst[:PageSize], off)
	if err != nil || n != PageSize {
		return dberr.ShortRead(fmt.Sprintf("page %d: read %d of %d bytes", pageNumber, n, PageSize), err)
	}
	return nil
}

// Write seeks to the block for pageNumber and writes exactly PageSize
// bytes from src. It returns dberr.ShortWrite if the write is short.
func (s *StorageManager) Write(loc oid.Locator, pageNumber PageNumber, src []byte) error {
	f, err := s.openForWrite(loc)
	if err != nil {
		return err
	}
	defer f.Close()

	off := int64(pageNumber-1) * PageSize
	n, err := f.WriteAt(src[:PageSize], off)
	if err != nil || n != PageSize {
		return dberr.ShortWrite(fmt.Sprintf("page %d: wrote %d of %d bytes", pageNumber, n, PageSize), err)
	}
	return nil
}

// Extend appends one zeroed page to the relation's file and returns its
// new 1-based page number.
func (s *StorageManager) Extend(loc oid.Locator) (PageNumber, error) {
	f, err := s.openForWrite(loc)
	if err != nil {
		return InvalidPageNumber, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return InvalidPageNumber, fmt.Errorf("stat relation file: %w", err)
	}
	newPageNumber := PageNumber(info.Size()/PageSize) + 1

	zero := make([]byte, PageSize)
	off := int64(newPageNumber-1) * PageSize
	n, err := f.WriteAt(zero, off)
	if err != nil || n != PageSize {
		return InvalidPageNumber, dberr.ShortWrite(fmt.Sprintf("extend page %d", newPageNumber), err)
	}
	return newPageNumber, nil
}

// Size returns the number of pages currently stored for loc, or zero if
// the file does not yet exist.
func (s *StorageManager) Size(loc oid.Locator) (int, error) {
	info, err := os.Stat(s.path(loc))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat relation file: %w", err)
	}
	return int(info.Size() / PageSize), nil
}
