// Package logring is a fixed-size byte ring with one write side and a
// fixed table of independent read cursors. Each cursor is evicted on its
// own when the writer laps it, so a slow reader only loses its own data.
package logring

import (
	"sync"
	"sync/atomic"
	"time"
)

// DropMarker replaces the first byte handed to a marking cursor after it
// lost data to eviction.
const DropMarker = '^'

// DefaultLockWait bounds how long Write and Read wait for the ring lock.
const DefaultLockWait = 100 * time.Millisecond

// Cursor identifies a read cursor slot. Slots are fixed at construction.
type Cursor int

type cursor struct {
	tail     uint64 // monotonic, head-tail <= size
	attached bool
	mark     bool   // substitute DropMarker after a loss
	lost     uint64 // bytes evicted since the last Read
	lostAll  uint64
	readable chan struct{} // empty->non-empty edge, coalesced
}

// Ring holds at most Size() unread bytes per cursor.
type Ring struct {
	mu       sync.Mutex
	buf      []byte
	mask     uint64
	head     uint64 // monotonic write position
	curs     []cursor
	lockWait time.Duration

	droppedWrites atomic.Uint64
	failedReads   atomic.Uint64
}

// New allocates a ring of the given power-of-two size with n cursor slots.
// No slot is attached yet.
func New(size, n int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("logring: size must be power of two >= 2")
	}
	if n < 1 {
		panic("logring: need at least one cursor")
	}
	r := &Ring{
		buf:      make([]byte, size),
		mask:     uint64(size - 1),
		curs:     make([]cursor, n),
		lockWait: DefaultLockWait,
	}
	for i := range r.curs {
		r.curs[i].readable = make(chan struct{}, 1)
	}
	return r
}

// SetLockWait changes the lock budget. d <= 0 means a single TryLock.
func (r *Ring) SetLockWait(d time.Duration) { r.lockWait = d }

func (r *Ring) Size() int { return len(r.buf) }

// lock spins on TryLock until the budget runs out. A producer must never
// park behind a stuck consumer.
func (r *Ring) lock() bool {
	if r.mu.TryLock() {
		return true
	}
	if r.lockWait <= 0 {
		return false
	}
	deadline := time.Now().Add(r.lockWait)
	backoff := 10 * time.Microsecond
	for {
		time.Sleep(backoff)
		if r.mu.TryLock() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		if backoff < time.Millisecond {
			backoff *= 2
		}
	}
}

// Attach claims the first free slot and positions it at head, so the new
// reader only sees bytes written from now on.
func (r *Ring) Attach(mark bool) (Cursor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.curs {
		if !r.curs[i].attached {
			r.attachLocked(i, r.head, mark)
			return Cursor(i), true
		}
	}
	return -1, false
}

// AttachAt attaches slot c at the oldest still-buffered position not
// before pos. Used for the fixed consumers that exist from boot.
func (r *Ring) AttachAt(c Cursor, pos uint64, mark bool) bool {
	if !r.valid(c) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.curs[c].attached {
		return false
	}
	if pos > r.head {
		pos = r.head
	}
	if r.head-pos > uint64(len(r.buf)) {
		pos = r.head - uint64(len(r.buf))
	}
	r.attachLocked(int(c), pos, mark)
	return true
}

func (r *Ring) attachLocked(i int, pos uint64, mark bool) {
	c := &r.curs[i]
	c.tail = pos
	c.attached = true
	c.mark = mark
	c.lost = 0
	c.lostAll = 0
	select {
	case <-c.readable:
	default:
	}
}

// Detach releases a slot. Its unread bytes are forgotten.
func (r *Ring) Detach(c Cursor) {
	if !r.valid(c) {
		return
	}
	r.mu.Lock()
	r.curs[c].attached = false
	r.mu.Unlock()
}

func (r *Ring) valid(c Cursor) bool { return c >= 0 && int(c) < len(r.curs) }

// Write appends p as one contiguous unit. Cursors that would fall more
// than Size() bytes behind are pushed forward and remember how much they
// lost. It reports false if the lock budget ran out and p was dropped.
func (r *Ring) Write(p []byte) bool {
	if len(p) == 0 {
		return true
	}
	if !r.lock() {
		r.droppedWrites.Add(1)
		return false
	}
	size := uint64(len(r.buf))
	n := uint64(len(p))
	newHead := r.head + n

	// Only the last size bytes of an oversized write can survive.
	src := p
	start := r.head
	if n > size {
		src = p[n-size:]
		start = newHead - size
	}
	idx := start & r.mask
	first := copy(r.buf[idx:], src)
	if first < len(src) {
		copy(r.buf, src[first:])
	}
	r.head = newHead

	for i := range r.curs {
		c := &r.curs[i]
		if !c.attached {
			continue
		}
		if newHead-c.tail > size {
			lost := newHead - size - c.tail
			c.tail = newHead - size
			c.lost += lost
			c.lostAll += lost
		}
		select {
		case c.readable <- struct{}{}:
		default:
		}
	}
	r.mu.Unlock()
	return true
}

// Read copies unread bytes of cursor c into dst and advances only c.
// lost is the number of bytes evicted from c since its previous Read.
func (r *Ring) Read(c Cursor, dst []byte) (n, lost int) {
	if len(dst) == 0 || !r.valid(c) {
		return 0, 0
	}
	if !r.lock() {
		r.failedReads.Add(1)
		return 0, 0
	}
	defer r.mu.Unlock()

	cur := &r.curs[c]
	if !cur.attached {
		return 0, 0
	}
	avail := r.head - cur.tail
	if avail == 0 {
		return 0, 0
	}
	if uint64(len(dst)) < avail {
		avail = uint64(len(dst))
	}
	n = int(avail)
	idx := cur.tail & r.mask
	first := copy(dst[:n], r.buf[idx:])
	if first < n {
		copy(dst[first:n], r.buf)
	}
	cur.tail += avail

	lost = int(cur.lost)
	cur.lost = 0
	if lost > 0 && cur.mark {
		dst[0] = DropMarker
	}
	return n, lost
}

// Pending is the number of unread bytes for c.
func (r *Ring) Pending(c Cursor) int {
	if !r.valid(c) {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.curs[c].attached {
		return 0
	}
	return int(r.head - r.curs[c].tail)
}

// Readable fires once after new bytes arrive for c. Readers still poll,
// this only shortens the wait.
func (r *Ring) Readable(c Cursor) <-chan struct{} {
	if !r.valid(c) {
		return nil
	}
	return r.curs[c].readable
}

// CursorStats describes one cursor slot.
type CursorStats struct {
	Attached bool
	Pending  uint64
	Lost     uint64
}

type Stats struct {
	Head          uint64
	DroppedWrites uint64
	FailedReads   uint64
	Cursors       []CursorStats
}

func (r *Ring) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Stats{
		Head:          r.head,
		DroppedWrites: r.droppedWrites.Load(),
		FailedReads:   r.failedReads.Load(),
		Cursors:       make([]CursorStats, len(r.curs)),
	}
	for i, c := range r.curs {
		cs := CursorStats{Attached: c.attached, Lost: c.lostAll}
		if c.attached {
			cs.Pending = r.head - c.tail
		}
		st.Cursors[i] = cs
	}
	return st
}
