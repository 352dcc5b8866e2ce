package strata

// DynamicBuffer is a resizable array standing in for a GPU vertex or index
// buffer. Its logical length and its capacity are distinct: shrinking or
// clearing keeps the capacity so per-frame refills do not reallocate.
type DynamicBuffer[T any] struct {
	data    []T
	version uint64
}

// VertexBuffer holds uploaded vertices.
type VertexBuffer = DynamicBuffer[Vertex]

// IndexBuffer holds uploaded 16-bit indices.
type IndexBuffer = DynamicBuffer[uint16]

// Len returns the logical number of elements.
func (b *DynamicBuffer[T]) Len() int { return len(b.data) }

// Cap returns the allocated capacity.
func (b *DynamicBuffer[T]) Cap() int { return cap(b.data) }

// Data returns the live contents. The slice is only valid until the next
// mutating call.
func (b *DynamicBuffer[T]) Data() []T { return b.data }

// Version increments on every write; graphics backends can use it to detect
// stale uploads.
func (b *DynamicBuffer[T]) Version() uint64 { return b.version }

// Resize sets the logical length, growing capacity by doubling when needed.
// Newly exposed elements are zeroed.
func (b *DynamicBuffer[T]) Resize(n int) {
	if n < 0 {
		contractf("buffer resize to negative length %d", n)
	}
	if n > cap(b.data) {
		c := cap(b.data)
		if c == 0 {
			c = 64
		}
		for c < n {
			c *= 2
		}
		grown := make([]T, n, c)
		copy(grown, b.data)
		b.data = grown
	} else {
		old := len(b.data)
		b.data = b.data[:n]
		if n > old {
			clear(b.data[old:])
		}
	}
	b.version++
}

// Set replaces the whole contents with src.
func (b *DynamicBuffer[T]) Set(src []T) {
	b.Resize(len(src))
	copy(b.data, src)
}

// SetRegion writes src at offset, extending the logical length if the region
// reaches past it.
func (b *DynamicBuffer[T]) SetRegion(offset int, src []T) {
	if offset < 0 {
		contractf("buffer region at negative offset %d", offset)
	}
	if end := offset + len(src); end > len(b.data) {
		b.Resize(end)
	}
	copy(b.data[offset:], src)
	b.version++
}

// Clear drops the contents but keeps the capacity.
func (b *DynamicBuffer[T]) Clear() {
	b.data = b.data[:0]
	b.version++
}
