package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// Inventory is the set of items the user currently possesses. Names are
// trimmed on insert and compared case-sensitively.
type Inventory struct {
	items []string
	index map[string]struct{}
}

func NewInventory(items ...string) *Inventory {
	inv := &Inventory{index: make(map[string]struct{})}
	for _, item := range items {
		inv.Add(item)
	}
	return inv
}

// NormalizeItem trims surrounding whitespace from an item name.
func NormalizeItem(name string) string {
	return strings.TrimSpace(name)
}

// Add inserts name and reports whether the inventory changed.
func (inv *Inventory) Add(name string) bool {
	name = NormalizeItem(name)
	if name == "" {
		return false
	}
	if inv.index == nil {
		inv.index = make(map[string]struct{})
	}
	if _, ok := inv.index[name]; ok {
		return false
	}
	inv.index[name] = struct{}{}
	inv.items = append(inv.items, name)
	return true
}

func (inv *Inventory) Remove(name string) bool {
	name = NormalizeItem(name)
	if _, ok := inv.index[name]; !ok {
		return false
	}
	delete(inv.index, name)
	for i, item := range inv.items {
		if item == name {
			inv.items = append(inv.items[:i], inv.items[i+1:]...)
			break
		}
	}
	return true
}

func (inv *Inventory) Has(name string) bool {
	if inv == nil {
		return false
	}
	_, ok := inv.index[name]
	return ok
}

func (inv *Inventory) Clear() {
	inv.items = nil
	inv.index = make(map[string]struct{})
}

func (inv *Inventory) Len() int {
	if inv == nil {
		return 0
	}
	return len(inv.items)
}

// Items returns the inventory sorted alphabetically.
func (inv *Inventory) Items() []string {
	if inv == nil {
		return nil
	}
	out := append([]string(nil), inv.items...)
	sort.Strings(out)
	return out
}

func (inv *Inventory) Clone() *Inventory {
	return NewInventory(inv.insertionOrder()...)
}

func (inv *Inventory) insertionOrder() []string {
	if inv == nil {
		return nil
	}
	return append([]string(nil), inv.items...)
}

func (inv *Inventory) MarshalJSON() ([]byte, error) {
	items := inv.insertionOrder()
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func (inv *Inventory) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*inv = *NewInventory(items...)
	return nil
}
