// Package buffer implements the buffer pool: a fixed-capacity, pinned
// mapping from PageID to an in-memory page buffer, backed by a disk
// manager. Eviction is clock-approximated LRU restricted to unpinned
// frames.
package buffer

import (
	"sync"

	"github.com/cottontaildb/cottontail/pkg/dberrors"
	"github.com/cottontaildb/cottontail/pkg/primitives"
	"github.com/cottontaildb/cottontail/pkg/storage/disk"
)

type frame struct {
	id         primitives.PageID
	data       []byte
	pinCount   int
	dirty      bool
	referenced bool
}

// Pool is a fixed-capacity buffer pool over a single disk manager. All
// methods are safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	capacity int
	frames   map[primitives.PageID]*frame
	order    []primitives.PageID // clock sweep order, rebuilt lazily
	hand     int
	disk     disk.Manager
}

// New creates a buffer pool of the given frame capacity over disk.
func New(capacity int, disk disk.Manager) *Pool {
	return &Pool{
		capacity: capacity,
		frames:   make(map[primitives.PageID]*frame, capacity),
		disk:     disk,
	}
}

// Handle is a pinned reference to a page returned by Get. The pin is held
// until Release is called; callers must always Release a handle they
// obtained.
type Handle struct {
	pool *Pool
	id   primitives.PageID
}

func (h *Handle) ID() primitives.PageID { return h.id }

// Data returns the page's mutable byte buffer. Mutating it and then
// calling MarkDirty is the only supported way to change a page's content.
func (h *Handle) Data() []byte {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()
	return h.pool.frames[h.id].data
}

// MarkDirty records that this page must be written back before eviction
// or on the next FlushAll.
func (h *Handle) MarkDirty() {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()
	if f, ok := h.pool.frames[h.id]; ok {
		f.dirty = true
	}
}

// Release decrements the pin count, making the page eligible for eviction
// once no other handle holds it pinned.
func (h *Handle) Release() {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()
	if f, ok := h.pool.frames[h.id]; ok && f.pinCount > 0 {
		f.pinCount--
	}
}

// Get returns a pinned handle to the page at id, loading it from disk on a
// miss. If the pool is at capacity, the clock hand sweeps the resident
// frames looking for an unpinned victim, giving each a second chance if
// its referenced bit is set; if two full sweeps still find every frame
// pinned, Get fails with a pool-exhausted storage error.
func (p *Pool) Get(id primitives.PageID) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if f, ok := p.frames[id]; ok {
		f.pinCount++
		f.referenced = true
		return &Handle{pool: p, id: id}, nil
	}

	if len(p.frames) >= p.capacity {
		if err := p.evictLocked(); err != nil {
			return nil, err
		}
	}

	data, err := p.disk.Read(id)
	if err != nil {
		return nil, err
	}

	f := &frame{id: id, data: data, pinCount: 1, referenced: true}
	p.frames[id] = f
	p.order = append(p.order, id)
	return &Handle{pool: p, id: id}, nil
}

// evictLocked runs the clock algorithm over the current frame set looking
// for an unpinned victim. Pinned frames are skipped; frames with the
// referenced bit set get one second chance (bit cleared, hand advances)
// before becoming eligible. Called with mu held.
func (p *Pool) evictLocked() error {
	if len(p.order) == 0 {
		return dberrors.New(dberrors.Storage, "pool-exhausted", "buffer pool has no frames to evict")
	}

	maxSweeps := 2 * len(p.order)
	for i := 0; i < maxSweeps; i++ {
		if len(p.order) == 0 {
			break
		}
		if p.hand >= len(p.order) {
			p.hand = 0
		}
		id := p.order[p.hand]
		f, ok := p.frames[id]
		if !ok {
			p.order = append(p.order[:p.hand], p.order[p.hand+1:]...)
			continue
		}
		if f.pinCount > 0 {
			p.hand++
			continue
		}
		if f.referenced {
			f.referenced = false
			p.hand++
			continue
		}

		if f.dirty {
			if err := p.disk.Update(f.id, f.data); err != nil {
				return err
			}
		}
		delete(p.frames, f.id)
		p.order = append(p.order[:p.hand], p.order[p.hand+1:]...)
		return nil
	}

	return dberrors.New(dberrors.Storage, "pool-exhausted", "no unpinned page available for eviction")
}

// FlushAll writes every dirty frame back through the disk manager without
// evicting anything.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, f := range p.frames {
		if !f.dirty {
			continue
		}
		if err := p.disk.Update(f.id, f.data); err != nil {
			return err
		}
		f.dirty = false
	}
	return nil
}

// Size returns the number of frames currently resident.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

// DiscardDirty drops every dirty, unpinned frame without flushing it,
// forcing the next Get to reload its content from the disk manager. Used
// by a rolling-back transaction to undo in-memory buffered writes, just
// before the disk manager discards its own buffering.
func (p *Pool) DiscardDirty() {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.order[:0]
	for _, id := range p.order {
		f, ok := p.frames[id]
		if !ok {
			continue
		}
		if f.dirty && f.pinCount == 0 {
			delete(p.frames, id)
			continue
		}
		kept = append(kept, id)
	}
	p.order = kept
	p.hand = 0
}
