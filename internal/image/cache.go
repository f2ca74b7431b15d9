package image

import "container/list"

// Cache keeps the most recently used decoded layers.
type Cache struct {
	max   int
	order *list.List // front is most recent
	items map[string]*list.Element
}

// NewCache returns a cache holding at most max layers.
func NewCache(max int) *Cache {
	if max < 1 {
		max = 1
	}
	return &Cache{max: max, order: list.New(), items: make(map[string]*list.Element)}
}

// Get returns the layer for path, decoding it on a miss.
func (c *Cache) Get(path string) (*Layer, error) {
	if e, ok := c.items[path]; ok {
		c.order.MoveToFront(e)
		return e.Value.(*Layer), nil
	}

	layer, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.items[path] = c.order.PushFront(layer)
	for c.order.Len() > c.max {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.items, last.Value.(*Layer).Path)
	}
	return layer, nil
}

// Len returns the number of cached layers.
func (c *Cache) Len() int { return c.order.Len() }

// Clear drops every cached layer.
func (c *Cache) Clear() {
	c.order.Init()
	c.items = make(map[string]*list.Element)
}
