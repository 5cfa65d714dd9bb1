package client

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UpdateNotifies(t *testing.T) {
	s := NewStore(1)

	var seen []int
	cancel := s.Subscribe(func(v int) { seen = append(seen, v) })

	s.Update(func(prev int) int { return prev + 1 })
	s.Set(10)
	assert.Equal(t, 10, s.Get())
	assert.Equal(t, []int{2, 10}, seen)

	cancel()
	s.Set(11)
	assert.Equal(t, []int{2, 10}, seen)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := NewStore(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(prev int) int { return prev + 1 })
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, s.Get())
}

func TestStore_ListenersSeeChangesInOrder(t *testing.T) {
	s := NewStore(0)

	var seen []int
	s.Subscribe(func(v int) {
		// the value handed over is never older than the last one seen
		seen = append(seen, v)
	})

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(prev int) int { return prev + 1 })
		}()
	}
	wg.Wait()

	require.Len(t, seen, 200)
	for i, v := range seen {
		require.Equal(t, i+1, v)
	}
	assert.Equal(t, 200, s.Get())
}
