package pkg

import (
	"sync"
	"sync/atomic"
)

// BufferPool recycles fixed size byte slices used as connection read caches.
type BufferPool struct {
	size      int
	pool      *sync.Pool
	miss, hit atomic.Uint64
}

// Get returns a buffer of exactly Size bytes.
func (p *BufferPool) Get() []byte {
	if buf, ok := p.pool.Get().(*[]byte); ok {
		p.hit.Add(1)
		return *buf
	}
	p.miss.Add(1)
	return make([]byte, p.size)
}

// Put adds given buffer to the pool. Buffers of another size are dropped.
func (p *BufferPool) Put(b []byte) {
	if len(b) != p.size {
		return
	}
	p.pool.Put(&b)
}

// Stats returns the number of Get calls served from the pool and allocated.
func (p *BufferPool) Stats() (hit, miss uint64) {
	return p.hit.Load(), p.miss.Load()
}

// NewBufferPool creates a new buffer pool instance.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		size: size,
		pool: &sync.Pool{},
	}
}
