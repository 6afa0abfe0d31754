package models

import (
	"sort"
	"strings"
)

// CartItem is one unit a client put in the cart. Name and ItemType are optional hints.
type CartItem struct {
	MenuItemID FlexInt `json:"menu_item_id"`
	Name       string  `json:"name,omitempty"`
	ItemType   string  `json:"item_type,omitempty"`
}

// Cart maps a category key (SIDE, ENTREE, LACARTE, CARTEITEMS, ...) to its items.
type Cart map[string][]CartItem

// ItemIDs returns every referenced menu item id, in cart order, with duplicates.
func (c Cart) ItemIDs() []int64 {
	var ids []int64
	for _, key := range c.Keys() {
		for _, item := range c[key] {
			ids = append(ids, item.MenuItemID.Int64())
		}
	}
	return ids
}

// Keys returns the category keys in a stable order.
func (c Cart) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c Cart) Len() int {
	n := 0
	for _, items := range c {
		n += len(items)
	}
	return n
}

const (
	GroupMeal    = "MEAL"
	GroupLaCarte = "LACARTE"
)

// GroupedComponent is one logical unit shown together on the kitchen display.
type GroupedComponent struct {
	Type     string     `json:"type"`
	GroupNum FlexInt    `json:"groupNum"`
	Meal     *CartItem  `json:"meal,omitempty"`
	Sides    []CartItem `json:"sides,omitempty"`
	Entrees  []CartItem `json:"entrees,omitempty"`
	Size     *CartItem  `json:"size,omitempty"`
	Item     *CartItem  `json:"item,omitempty"`
}

// Components flattens the unit into the physical items the kitchen prepares.
func (g GroupedComponent) Components() []CartItem {
	var out []CartItem
	switch strings.ToUpper(g.Type) {
	case GroupMeal:
		if g.Meal != nil {
			out = append(out, *g.Meal)
		}
		out = append(out, g.Sides...)
		out = append(out, g.Entrees...)
	case GroupLaCarte:
		if g.Size != nil {
			out = append(out, *g.Size)
		}
		if g.Item != nil {
			out = append(out, *g.Item)
		}
	default:
		if g.Item != nil {
			out = append(out, *g.Item)
		}
	}
	return out
}
