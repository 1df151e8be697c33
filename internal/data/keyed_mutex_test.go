//go:build unit

package data

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	counter := 0
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("article")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, km.size(), "entries are released once unused")
}

func TestKeyedMutex_LockAllDeduplicates(t *testing.T) {
	km := NewKeyedMutex()

	unlock := km.LockAll("b", "a", "b")
	assert.Equal(t, 2, km.size())
	unlock()
	assert.Equal(t, 0, km.size())
}
