package item

import (
	"errors"

	"github.com/google/uuid"
	"github.com/spirittosoul/server/resource"
)

var (
	ErrInventoryFull = errors.New("inventory full")
	ErrItemNotFound  = errors.New("item not found")
)

// DefaultCapacity is the bag size when none is configured.
const DefaultCapacity = 20

// Instance is one carried item. ID is unique per instance; DefID names the
// catalogue entry it was created from.
type Instance struct {
	ID       string `json:"id"`
	DefID    string `json:"def_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Inventory is an ordered, bounded bag of item instances.
type Inventory struct {
	capacity int
	items    []Instance
}

// NewInventory creates an empty inventory holding at most capacity items.
func NewInventory(capacity int) *Inventory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Inventory{capacity: capacity, items: make([]Instance, 0, capacity)}
}

// Capacity returns the maximum number of instances.
func (inv *Inventory) Capacity() int { return inv.capacity }

// Len returns the number of instances carried.
func (inv *Inventory) Len() int { return len(inv.items) }

// Full reports whether another Add would fail.
func (inv *Inventory) Full() bool { return len(inv.items) >= inv.capacity }

// Add appends a fresh instance of def. It returns ErrInventoryFull and
// leaves the bag untouched when at capacity.
func (inv *Inventory) Add(def *resource.Item) (Instance, error) {
	if inv.Full() {
		return Instance{}, ErrInventoryFull
	}
	it := Instance{
		ID:       uuid.NewString(),
		DefID:    def.ID,
		Name:     def.Name,
		Quantity: 1,
	}
	inv.items = append(inv.items, it)
	return it, nil
}

// Remove takes out the instance with the given id.
func (inv *Inventory) Remove(instanceID string) (Instance, error) {
	for i, it := range inv.items {
		if it.ID == instanceID {
			inv.items = append(inv.items[:i], inv.items[i+1:]...)
			return it, nil
		}
	}
	return Instance{}, ErrItemNotFound
}

// Find returns the instance with the given id.
func (inv *Inventory) Find(instanceID string) (Instance, bool) {
	for _, it := range inv.items {
		if it.ID == instanceID {
			return it, true
		}
	}
	return Instance{}, false
}

// FirstOf returns the first instance created from defID.
func (inv *Inventory) FirstOf(defID string) (Instance, bool) {
	for _, it := range inv.items {
		if it.DefID == defID {
			return it, true
		}
	}
	return Instance{}, false
}

// CountByDef counts instances created from defID.
func (inv *Inventory) CountByDef(defID string) int {
	n := 0
	for _, it := range inv.items {
		if it.DefID == defID {
			n++
		}
	}
	return n
}

// Items returns a copy of the carried instances in order.
func (inv *Inventory) Items() []Instance {
	out := make([]Instance, len(inv.items))
	copy(out, inv.items)
	return out
}

// Restore replaces the contents with saved instances, dropping any beyond
// capacity. Instances without an id get a fresh one.
func (inv *Inventory) Restore(items []Instance) {
	inv.items = inv.items[:0]
	for _, it := range items {
		if len(inv.items) >= inv.capacity {
			break
		}
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if it.Quantity <= 0 {
			it.Quantity = 1
		}
		inv.items = append(inv.items, it)
	}
}
