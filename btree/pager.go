package btree

import (
	"fmt"
	"os"
)

// maxCachedPages caps the pager's in-memory page cache.
const maxCachedPages = 1024

// Pager owns the backing file and moves whole pages to and from it. It
// never interprets node contents. New pages exist only by appending via
// WritePage; existing pages are updated in place via WritePageAtOffset.
//
// The pager keeps a write-through cache of recently touched pages, keyed by
// offset. Cached pages are copied on the way out so callers always hold an
// owned buffer.
type Pager struct {
	file   *os.File
	cursor Offset // next append position == current file length
	cache  map[Offset]Page
}

// OpenPager opens or creates the backing file at path and derives the
// allocation cursor from its length.
func OpenPager(path string) (*Pager, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open page file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat page file: %w", err)
	}
	return &Pager{
		file:   file,
		cursor: Offset(info.Size()),
		cache:  make(map[Offset]Page),
	}, nil
}

// GetPage reads exactly one page starting at offset. A short read means the
// offset points beyond the file -- a corrupt tree or a bad offset -- and is
// unrecoverable at this layer.
func (pg *Pager) GetPage(offset Offset) (*Page, error) {
	if cached, ok := pg.cache[offset]; ok {
		page := cached
		return &page, nil
	}
	page := &Page{}
	if _, err := pg.file.ReadAt(page.Data(), int64(offset)); err != nil {
		return nil, fmt.Errorf("failed to read page at offset %d: %w", offset, err)
	}
	pg.cachePage(offset, page)
	return page, nil
}

// WritePage appends page at the end of the file and returns the offset it
// was written at. This is the only way new pages are created.
func (pg *Pager) WritePage(page *Page) (Offset, error) {
	offset := pg.cursor
	if _, err := pg.file.WriteAt(page.Data(), int64(offset)); err != nil {
		return 0, fmt.Errorf("failed to append page: %w", err)
	}
	pg.cursor += PageSize
	pg.cachePage(offset, page)
	return offset, nil
}

// WritePageAtOffset overwrites the page at an existing offset in place.
// It never changes the file length.
func (pg *Pager) WritePageAtOffset(page *Page, offset Offset) error {
	if offset+PageSize > pg.cursor {
		return fmt.Errorf("failed to overwrite page: offset %d was never allocated", offset)
	}
	if _, err := pg.file.WriteAt(page.Data(), int64(offset)); err != nil {
		return fmt.Errorf("failed to overwrite page at offset %d: %w", offset, err)
	}
	pg.cachePage(offset, page)
	return nil
}

func (pg *Pager) cachePage(offset Offset, page *Page) {
	if len(pg.cache) >= maxCachedPages {
		for k := range pg.cache {
			delete(pg.cache, k)
			break
		}
	}
	pg.cache[offset] = *page
}

// Flush is the durability barrier: it syncs all written pages to disk so a
// crash can lose at most the pages written since the last barrier.
func (pg *Pager) Flush() error {
	if err := pg.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync page file: %w", err)
	}
	return nil
}

// Close flushes and closes the backing file.
func (pg *Pager) Close() error {
	if err := pg.Flush(); err != nil {
		pg.file.Close()
		return err
	}
	pg.cache = make(map[Offset]Page)
	return pg.file.Close()
}
