package cache

import "fmt"

type ErrItemPinned struct {
	key interface{}
}

func (e *ErrItemPinned) Error() string {
	return fmt.Sprintf("size_cache: item is pinned, key: %#v", e.key)
}

type ErrItemNotFound struct {
	key interface{}
}

func (e *ErrItemNotFound) Error() string {
	return fmt.Sprintf("size_cache: item not found, key: %#v", e.key)
}

type ErrItemNotPinned struct {
	key interface{}
}

func (e *ErrItemNotPinned) Error() string {
	return fmt.Sprintf("size_cache: item not pinned, key: %#v", e.key)
}

type ErrItemAlreadyExists struct {
	key interface{}
}

func (e *ErrItemAlreadyExists) Error() string {
	return fmt.Sprintf("size_cache: item already exists, key: %#v", e.key)
}
