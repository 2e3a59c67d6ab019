package cache

import (
	"container/list"
	"sync"

	"judge_engine/lib/logger"
)

type entry[TValue any] struct {
	Value *TValue
	Error error

	PinCount uint64
	Size     uint64
	Loading  *sync.WaitGroup
	UsePos   *list.Element
}

// LRUSizeCache is a key value LRU cache bounded by the total size of values.
// When the bound is exceeded, the least recently used unpinned values are
// evicted.
//
// The loader is called to load a value for a key. It returns the value (or an
// error) together with the size the value accounts for; the size is charged
// even on error, so that failing keys cannot pile up for free.
//
// If a remover is given, it is called for successfully loaded values right
// before eviction.
//
// Pin and Unpin protect specific keys from eviction.
type LRUSizeCache[TKey comparable, TValue any] struct {
	mutex   sync.Mutex
	entries map[TKey]*entry[TValue]

	loader  func(TKey) (*TValue, error, uint64)
	remover func(TKey, *TValue)

	sizeBound uint64
	totalSize uint64

	useOrder *list.List
}

// NewLRUSizeCache creates a cache with the given total size bound.
func NewLRUSizeCache[TKey comparable, TValue any](
	sizeBound uint64,
	loader func(TKey) (*TValue, error, uint64),
	remover func(TKey, *TValue),
) *LRUSizeCache[TKey, TValue] {
	return &LRUSizeCache[TKey, TValue]{
		entries: make(map[TKey]*entry[TValue]),

		loader:  loader,
		remover: remover,

		sizeBound: sizeBound,

		useOrder: list.New(),
	}
}

// Get returns the value for key, loading it if absent. Concurrent Gets for
// the same key share one load. The loader's error is returned as is.
func (c *LRUSizeCache[TKey, TValue]) Get(key TKey) (*TValue, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e := c.pinEntry(key)
	if e.Loading == nil {
		e.PinCount--
		c.markUsed(key, e)
		return e.Value, e.Error
	}

	loading := e.Loading
	c.mutex.Unlock()

	loading.Wait()
	c.mutex.Lock()

	// The pin taken in pinEntry kept the entry alive through the load.
	e = c.entries[key]
	e.PinCount--
	c.markUsed(key, e)
	return e.Value, e.Error
}

// Pin protects the key from eviction. An absent key starts loading in the
// background. Pins stack and need a matching number of Unpin calls.
func (c *LRUSizeCache[TKey, TValue]) Pin(key TKey) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	e := c.pinEntry(key)
	if e.Loading == nil {
		c.markUsed(key, e) // Only loaded entries appear in useOrder
	}
}

// Unpin releases one pin from the key.
//
// Returns ErrItemNotFound for an unknown key and ErrItemNotPinned if the key
// has no pins left.
func (c *LRUSizeCache[TKey, TValue]) Unpin(key TKey) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return &ErrItemNotFound{key: key}
	}
	if e.PinCount == 0 {
		return &ErrItemNotPinned{key: key}
	}
	e.PinCount--
	c.evictIfNeeded()
	return nil
}

// Remove drops the key from the cache. An absent key is not an error, a
// pinned one is.
func (c *LRUSizeCache[TKey, TValue]) Remove(key TKey) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}

	if e.PinCount > 0 {
		return &ErrItemPinned{key: key}
	}

	c.evictEntry(key)
	return nil
}

// Insert places a preloaded value into the cache, bypassing the loader.
// The key must not be present, otherwise ErrItemAlreadyExists is returned.
func (c *LRUSizeCache[TKey, TValue]) Insert(key TKey, val *TValue, size uint64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.entries[key]; ok {
		return &ErrItemAlreadyExists{key: key}
	}
	c.entries[key] = &entry[TValue]{
		Value: val,
		Size:  size,
	}
	c.totalSize += size
	c.markUsed(key, c.entries[key])
	c.evictIfNeeded()
	return nil
}

// Mutex must be locked.
// Increases the pin count. An absent key starts loading in the background;
// the returned entry then carries an active waitgroup.
func (c *LRUSizeCache[TKey, TValue]) pinEntry(key TKey) *entry[TValue] {
	e, ok := c.entries[key]
	if ok {
		e.PinCount++
		return e
	}
	e = &entry[TValue]{
		Loading:  &sync.WaitGroup{},
		PinCount: 1,
	}

	e.Loading.Add(1)
	c.entries[key] = e

	go c.loadAbsent(key)

	return e
}

// Runs in its own goroutine; exactly one load per absent key.
func (c *LRUSizeCache[TKey, TValue]) loadAbsent(key TKey) {
	value, err, size := c.loader(key)

	c.mutex.Lock()
	defer c.mutex.Unlock()
	e := c.entries[key]

	if e.Value != nil || e.Error != nil {
		logger.Panic("Error in LRUSizeCache. loadAbsent is called for already loaded key, key: %v", key)
	}

	e.Value = value
	e.Error = err

	c.totalSize += size
	e.Size = size
	e.Loading.Done()
	e.Loading = nil // Waiters still hold the old waitgroup pointer

	c.markUsed(key, e)
	c.evictIfNeeded()
}

// Mutex must be locked
func (c *LRUSizeCache[TKey, TValue]) markUsed(key TKey, e *entry[TValue]) {
	if e.UsePos != nil {
		c.useOrder.MoveToBack(e.UsePos)
	} else {
		e.UsePos = c.useOrder.PushBack(key)
	}
}

// Mutex must be locked
func (c *LRUSizeCache[TKey, TValue]) evictIfNeeded() {
	elem := c.useOrder.Front()
	for c.totalSize > c.sizeBound && elem != nil {
		key := elem.Value.(TKey)
		e := c.entries[key]
		elem = elem.Next()

		if e.PinCount == 0 {
			c.evictEntry(key)
		}
	}
}

// Mutex must be locked, entry must be present with zero pin count.
func (c *LRUSizeCache[TKey, TValue]) evictEntry(key TKey) {
	e := c.entries[key]
	if e.PinCount != 0 {
		logger.Panic("Error in LRUSizeCache. Evicting key with non zero pin count, key: %#v", key)
	}
	if c.remover != nil && e.Error == nil {
		c.remover(key, e.Value)
	}

	delete(c.entries, key)
	c.totalSize -= e.Size
	c.useOrder.Remove(e.UsePos)
}
