package nutrition

import (
	"iter"
)

// Catalog is a read-only food database keyed by food id. Iteration follows
// insertion order, which is what breaks ties between equally scored swaps.
type Catalog struct {
	order []int
	foods map[int]FoodItem
}

// NewCatalog builds a catalog from items in the given order. A later item
// with an id already present replaces the earlier one in place.
func NewCatalog(items ...FoodItem) *Catalog {
	c := &Catalog{
		order: make([]int, 0, len(items)),
		foods: make(map[int]FoodItem, len(items)),
	}
	for _, item := range items {
		if _, exists := c.foods[item.ID]; !exists {
			c.order = append(c.order, item.ID)
		}
		c.foods[item.ID] = item
	}
	return c
}

// Lookup returns the food with the given id
func (c *Catalog) Lookup(id int) (FoodItem, bool) {
	if c == nil {
		return FoodItem{}, false
	}
	food, ok := c.foods[id]
	return food, ok
}

// All yields every food in insertion order
func (c *Catalog) All() iter.Seq[FoodItem] {
	return func(yield func(FoodItem) bool) {
		if c == nil {
			return
		}
		for _, id := range c.order {
			if !yield(c.foods[id]) {
				return
			}
		}
	}
}

// Len returns the number of foods
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Items returns the foods as a slice in insertion order
func (c *Catalog) Items() []FoodItem {
	items := make([]FoodItem, 0, c.Len())
	for food := range c.All() {
		items = append(items, food)
	}
	return items
}
