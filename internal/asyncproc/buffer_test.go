package asyncproc

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputBuffer(t *testing.T) {
	buf := NewOutputBuffer()

	n, err := buf.Write([]byte("hello "))
	assert.NoError(t, err)
	assert.Equal(t, 6, n)

	_, _ = buf.Write([]byte("world"))

	assert.Equal(t, 11, buf.Len())
	assert.Equal(t, "hello world", buf.String())
}

func TestOutputBufferStringFrom(t *testing.T) {
	buf := NewOutputBuffer()
	_, _ = buf.Write([]byte("0123456789"))

	assert.Equal(t, "56789", buf.StringFrom(5))
	assert.Equal(t, "0123456789", buf.StringFrom(0))
	assert.Equal(t, "", buf.StringFrom(10))
	assert.Equal(t, "", buf.StringFrom(100))
}

func TestOutputBufferConcurrentWrites(t *testing.T) {
	buf := NewOutputBuffer()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = buf.Write([]byte(fmt.Sprintf("w%d\n", n)))
			}
		}(i)
	}
	wg.Wait()

	// 10 writers x 100 writes x 3 bytes each
	assert.Equal(t, 3000, buf.Len())
}
