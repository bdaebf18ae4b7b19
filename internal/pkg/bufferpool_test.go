package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPool(t *testing.T) {
	assert := assert.New(t)

	t.Run("get", func(t *testing.T) {
		p := NewBufferPool(64)
		buf := p.Get()
		assert.Len(buf, 64)

		_, miss := p.Stats()
		assert.Equal(uint64(1), miss)
	})

	t.Run("put-wrong-size", func(t *testing.T) {
		p := NewBufferPool(64)
		p.Put(make([]byte, 10))
		assert.Len(p.Get(), 64)
	})

	t.Run("reuse", func(t *testing.T) {
		p := NewBufferPool(16)
		for range 100 {
			buf := p.Get()
			assert.Len(buf, 16)
			p.Put(buf)
		}
		hit, miss := p.Stats()
		assert.Equal(uint64(100), hit+miss)
	})
}
