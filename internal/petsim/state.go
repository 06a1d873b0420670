package petsim

import "slices"

// collection is a keyed store that remembers insertion order. Overwriting an
// existing key keeps its position; deleting and re-adding moves it to the end.
type collection[K comparable, V any] struct {
	order []K
	items map[K]V
}

func newCollection[K comparable, V any]() *collection[K, V] {
	return &collection[K, V]{items: make(map[K]V)}
}

func (c *collection[K, V]) get(key K) (V, bool) {
	v, ok := c.items[key]
	return v, ok
}

func (c *collection[K, V]) has(key K) bool {
	_, ok := c.items[key]
	return ok
}

func (c *collection[K, V]) put(key K, v V) {
	if _, ok := c.items[key]; !ok {
		c.order = append(c.order, key)
	}
	c.items[key] = v
}

func (c *collection[K, V]) remove(key K) bool {
	if _, ok := c.items[key]; !ok {
		return false
	}
	delete(c.items, key)
	if i := slices.Index(c.order, key); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
	return true
}

func (c *collection[K, V]) keys() []K {
	return slices.Clone(c.order)
}

func (c *collection[K, V]) len() int {
	return len(c.order)
}
