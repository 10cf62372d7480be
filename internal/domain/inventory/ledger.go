package inventory

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrQuantityNotPositive = errors.New("quantity must be positive")
	ErrUnknownItem         = errors.New("item is not in the fetched snapshot")
	ErrInsufficientStock   = errors.New("quantity exceeds available stock")
	ErrLineOutOfRange      = errors.New("line index out of range")
)

// Line is one pending reservation in a consumption record being composed.
type Line struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// Ledger tracks reservations against a snapshot of item quantities while a
// consumption record is composed. For every item, displayed availability
// plus the sum of its reserved lines always equals the snapshot value.
// A Ledger serves a single composing session and is not safe for concurrent
// use.
type Ledger struct {
	available map[uuid.UUID]int
	lines     []Line
}

// NewLedger snapshots the given items as the session's starting stock.
func NewLedger(items []*Item) *Ledger {
	available := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		available[it.ID] = it.Quantity
	}
	return &Ledger{available: available}
}

// AddLine reserves quantity of an item. A line for the same item is merged
// rather than duplicated. The ceiling is the currently displayed
// availability, so reservations already pending reduce what can be added.
func (l *Ledger) AddLine(itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrQuantityNotPositive
	}
	avail, ok := l.available[itemID]
	if !ok {
		return ErrUnknownItem
	}
	if quantity > avail {
		return ErrInsufficientStock
	}
	l.available[itemID] = avail - quantity
	for i := range l.lines {
		if l.lines[i].ItemID == itemID {
			l.lines[i].Quantity += quantity
			return nil
		}
	}
	l.lines = append(l.lines, Line{ItemID: itemID, Quantity: quantity})
	return nil
}

// RemoveLine deletes the line at index and returns its full reserved
// quantity to the item's availability.
func (l *Ledger) RemoveLine(index int) error {
	if index < 0 || index >= len(l.lines) {
		return ErrLineOutOfRange
	}
	line := l.lines[index]
	l.available[line.ItemID] += line.Quantity
	l.lines = append(l.lines[:index], l.lines[index+1:]...)
	return nil
}

// Available reports the currently displayed availability of an item.
func (l *Ledger) Available(itemID uuid.UUID) (int, bool) {
	avail, ok := l.available[itemID]
	return avail, ok
}

// Lines returns a copy of the pending reservation lines in insertion order.
func (l *Ledger) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// Reset discards the whole pending record, restoring every reserved
// quantity. Equivalent to removing every line.
func (l *Ledger) Reset() {
	for _, line := range l.lines {
		l.available[line.ItemID] += line.Quantity
	}
	l.lines = nil
}
