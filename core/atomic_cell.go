package core

import "sync/atomic"

// AtomicCell is a lock-free slot holding a comparable value.
type AtomicCell[T comparable] struct {
	ptr atomic.Pointer[T]
}

func NewAtomicCell[T comparable](initial T) *AtomicCell[T] {
	cell := &AtomicCell[T]{}
	cell.Store(initial)
	return cell
}

func (c *AtomicCell[T]) Load() T {
	current := c.ptr.Load()
	if current == nil {
		var zero T
		return zero
	}
	return *current
}

func (c *AtomicCell[T]) Store(value T) {
	c.ptr.Store(&value)
}

// CompareAndSet installs next only while the cell still holds expected.
func (c *AtomicCell[T]) CompareAndSet(expected T, next T) bool {
	for {
		current := c.ptr.Load()
		var value T
		if current != nil {
			value = *current
		}
		if value != expected {
			return false
		}
		if c.ptr.CompareAndSwap(current, &next) {
			return true
		}
	}
}
