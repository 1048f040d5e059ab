// Package pool provides a fixed-capacity object allocator with stable addresses.
package pool

import (
	"errors"
	"unsafe"
)

// ErrOutOfCapacity is returned by NewFromPool when the free list is empty.
var ErrOutOfCapacity = errors.New("pool: out of capacity")

// node wraps a user value with the intrusive free-list link. The value is
// the first field so a *T handed to the caller and the *node[T] that holds
// it share an address.
type node[T any] struct {
	value T
	next  *node[T]
	used  bool
}

// Pool is a fixed-capacity allocator over chunked backing storage. Objects
// keep their address from New until pool teardown; Delete returns a slot to
// the free list without moving any other slot. Growth appends a new chunk
// rather than reallocating, so existing pointers stay valid.
type Pool[T any] struct {
	chunks [][]node[T]
	free   *node[T]
	inUse  int
}

// NewWithCapacity creates a pool with n slots eagerly materialised on the
// free list.
func NewWithCapacity[T any](n int) *Pool[T] {
	if n < 1 {
		n = 1
	}
	p := &Pool[T]{}
	p.grow(n)
	return p
}

// grow appends a chunk of n nodes and threads them onto the free list.
func (p *Pool[T]) grow(n int) {
	chunk := make([]node[T], n)
	for i := n - 1; i >= 0; i-- {
		chunk[i].next = p.free
		p.free = &chunk[i]
	}
	p.chunks = append(p.chunks, chunk)
}

// New pops a slot from the free list, growing the backing storage when the
// list is empty. Not safe for real-time use; see NewFromPool.
func (p *Pool[T]) New() *T {
	v, err := p.NewFromPool()
	if err != nil {
		p.grow(p.Cap())
		v, _ = p.NewFromPool()
	}
	return v
}

// NewFromPool pops a slot from the free list and fails with ErrOutOfCapacity
// when the list is empty. It never allocates.
func (p *Pool[T]) NewFromPool() (*T, error) {
	n := p.free
	if n == nil {
		return nil, ErrOutOfCapacity
	}
	p.free = n.next
	n.next = nil
	n.used = true
	p.inUse++
	var zero T
	n.value = zero
	return &n.value, nil
}

// Delete pushes a slot back on the free list. Other slots are unaffected.
// The pointer must have come from this pool.
func (p *Pool[T]) Delete(v *T) {
	// The value is the first field of its node, so the addresses coincide.
	n := (*node[T])(unsafe.Pointer(v))
	if !n.used {
		return
	}
	n.used = false
	n.next = p.free
	p.free = n
	p.inUse--
}

// Len reports the number of slots currently in use.
func (p *Pool[T]) Len() int { return p.inUse }

// Cap reports the total number of slots across all chunks.
func (p *Pool[T]) Cap() int {
	total := 0
	for _, c := range p.chunks {
		total += len(c)
	}
	return total
}

// Range calls fn for every in-use slot until fn returns false.
func (p *Pool[T]) Range(fn func(*T) bool) {
	for _, c := range p.chunks {
		for i := range c {
			if c[i].used {
				if !fn(&c[i].value) {
					return
				}
			}
		}
	}
}
