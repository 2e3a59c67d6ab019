package cache

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xorcare/pointer"
)

func testGet[TKey comparable, TValue comparable](t *testing.T, cache *LRUSizeCache[TKey, TValue], key TKey, expectedVal *TValue, expectedErr error) {
	val, err := cache.Get(key)
	if expectedVal == nil {
		require.Nil(t, val)
	} else {
		require.NotNil(t, val)
		require.Equal(t, *expectedVal, *val)
	}

	if expectedErr == nil {
		require.Nil(t, err)
	} else {
		require.NotNil(t, err)
		require.Equal(t, expectedErr.Error(), err.Error())
	}
}

func TestInsertAndGet(t *testing.T) {
	load := func(key int) (*int, error, uint64) {
		t.Fatalf("Load function should not be called")
		return nil, nil, 1
	}

	cache := NewLRUSizeCache[int, int](10, load, nil)

	for i := range 10 {
		require.NoError(t, cache.Insert(i, pointer.Int(i), 1))
		for j := range i + 1 {
			testGet(t, cache, j, pointer.Int(j), nil)
		}
	}
}

func TestLoad(t *testing.T) {
	load := func(key int) (*int, error, uint64) {
		if key < 0 {
			return nil, fmt.Errorf("key is %d", key), 1
		}
		return &key, nil, 1
	}

	cache := NewLRUSizeCache[int, int](20, load, nil)

	for i := -5; i < 5; i++ {
		for j := -5; j <= i; j++ {
			if j < 0 {
				testGet(t, cache, j, nil, fmt.Errorf("key is %d", j))
			} else {
				testGet(t, cache, j, pointer.Int(j), nil)
			}
		}
	}
}

func TestEviction(t *testing.T) {
	counter := 0
	load := func(key int) (*int, error, uint64) {
		counter++
		return pointer.Int(counter - 1), nil, 1
	}
	removed := 0
	remover := func(int, *int) {
		removed++
	}
	cache := NewLRUSizeCache[int, int](2, load, remover)

	expect := func(key int, value int) {
		testGet(t, cache, key, &value, nil)
	}

	// Every get misses: the bound fits only 2 of 10 keys.
	for i := range 10 {
		expect(i, i)
	}
	for i := range 10 {
		expect(i, i+10)
	}
	// The last two keys are resident now.
	expect(8, 18)
	expect(9, 19)
	expect(0, 20)
	expect(9, 19)
	require.Equal(t, counter-2, removed)
}

func TestPin(t *testing.T) {
	counter := 0
	load := func(key int) (*int, error, uint64) {
		counter++
		return pointer.Int(counter - 1), nil, 1
	}
	cache := NewLRUSizeCache[int, int](2, load, nil)
	expect := func(key int, value int) {
		testGet(t, cache, key, &value, nil)
	}

	cache.Pin(0)
	expect(0, 0)
	expect(1, 1)
	expect(2, 2)
	expect(1, 3)
	expect(2, 4)
	// Pinned key survived the churn above.
	expect(0, 0)
	require.NoError(t, cache.Unpin(0))
	expect(2, 4)
	expect(1, 5)
	expect(0, 6)

	// Pins may exceed the size bound.
	cache.Pin(10)
	expect(10, 7)
	cache.Pin(11)
	expect(11, 8)
	cache.Pin(12)
	expect(12, 9)
	expect(0, 10)
	expect(1, 11)
	expect(0, 12)
	expect(10, 7)
	expect(11, 8)
	expect(12, 9)
}

func TestSharedLoad(t *testing.T) {
	var loads atomic.Int32
	gate := make(chan struct{})
	load := func(key int) (*int, error, uint64) {
		<-gate
		return pointer.Int(int(loads.Add(1))), nil, 1
	}
	cache := NewLRUSizeCache[int, int](10, load, nil)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err := cache.Get(7)
			require.Nil(t, err)
			require.Equal(t, 1, *val)
		}()
	}
	close(gate)
	wg.Wait()
	require.Equal(t, int32(1), loads.Load())
}

func singleTestGoroutine(t *testing.T, size uint64, maxKey int, iterations int) {
	load := func(key int) (*int, error, uint64) {
		return &key, nil, rand.Uint64() % 10
	}
	cache := NewLRUSizeCache[int, int](size, load, nil)
	expect := func(key int, value int) {
		testGet(t, cache, key, &value, nil)
	}

	var wg sync.WaitGroup
	runThread := func() {
		lastPin := rand.Int() % maxKey
		cache.Pin(lastPin)
		for range iterations {
			if rand.Int()%5 == 0 {
				require.NoError(t, cache.Unpin(lastPin))
				lastPin = rand.Int() % maxKey
				cache.Pin(lastPin)
			}
			key := rand.Int() % maxKey
			expect(key, key)
		}
		wg.Done()
	}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go runThread()
	}
	wg.Wait()
}

func TestGoroutines(t *testing.T) {
	singleTestGoroutine(t, 100, 10, 1000)
	singleTestGoroutine(t, 100, 100, 10000)
	singleTestGoroutine(t, 10, 10, 100000)
}

func TestErrors(t *testing.T) {
	load := func(key int) (*int, error, uint64) {
		return &key, nil, 1
	}
	cache := NewLRUSizeCache[int, int](100, load, nil)

	err := cache.Unpin(0)
	var errNotFound *ErrItemNotFound
	require.ErrorAs(t, err, &errNotFound)

	cache.Pin(0)
	require.NoError(t, cache.Unpin(0))

	err = cache.Unpin(0)
	var errNotPinned *ErrItemNotPinned
	require.ErrorAs(t, err, &errNotPinned)

	err = cache.Insert(0, pointer.Int(0), 1)
	var errItemExists *ErrItemAlreadyExists
	require.ErrorAs(t, err, &errItemExists)

	cache.Pin(1)
	testGet(t, cache, 1, pointer.Int(1), nil)
	err = cache.Remove(1)
	var errPinned *ErrItemPinned
	require.ErrorAs(t, err, &errPinned)
	require.NoError(t, cache.Unpin(1))
	require.NoError(t, cache.Remove(1))
}
