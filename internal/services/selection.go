package services

import (
	"sort"
	"sync"

	"nft-bridge/internal/models"
	"nft-bridge/internal/utils"
)

// ToggleSelection removes tokenID when selected, appends it when capacity remains,
// and otherwise returns selection unchanged
func ToggleSelection(selection []uint64, tokenID uint64, maxBatch int) []uint64 {
	for i, id := range selection {
		if id == tokenID {
			out := make([]uint64, 0, len(selection)-1)
			out = append(out, selection[:i]...)
			return append(out, selection[i+1:]...)
		}
	}
	if len(selection) >= maxBatch {
		return selection
	}
	out := make([]uint64, len(selection), len(selection)+1)
	copy(out, selection)
	return append(out, tokenID)
}

// SelectAll selects the first maxBatch inventory ids in ascending order,
// or clears the selection when it already equals that set
func SelectAll(selection []uint64, inventory []models.NftItem, maxBatch int) []uint64 {
	ids := make([]uint64, 0, len(inventory))
	for _, item := range inventory {
		ids = append(ids, item.TokenID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > maxBatch {
		ids = ids[:maxBatch]
	}

	if len(ids) > 0 && sameMembers(selection, ids) {
		return []uint64{}
	}
	return ids
}

// ReconcileSelection drops ids missing from inventory keeping the order of the rest.
// When nothing is dropped the input slice itself is returned.
func ReconcileSelection(selection []uint64, inventory []models.NftItem) []uint64 {
	owned := make(map[uint64]struct{}, len(inventory))
	for _, item := range inventory {
		owned[item.TokenID] = struct{}{}
	}

	pruned := false
	for _, id := range selection {
		if _, ok := owned[id]; !ok {
			pruned = true
			break
		}
	}
	if !pruned {
		return selection
	}

	out := make([]uint64, 0, len(selection))
	for _, id := range selection {
		if _, ok := owned[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func sameMembers(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uint64]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// SelectionSnapshot read-only view of the controller
type SelectionSnapshot struct {
	Selection    []uint64        `json:"selection"`
	Direction    utils.Direction `json:"direction"`
	MaxBatchSize int             `json:"max_batch_size"`
	Busy         bool            `json:"busy"`
}

// SelectionController selection set, active direction and the source inventory it is checked against
type SelectionController struct {
	mu        sync.Mutex
	selection []uint64
	direction utils.Direction
	maxBatch  int
	inventory []models.NftItem
	busy      bool
}

// NewSelectionController starts with an empty selection
func NewSelectionController(direction utils.Direction, maxBatch int) *SelectionController {
	if maxBatch < 1 {
		maxBatch = 1
	}
	return &SelectionController{
		selection: []uint64{},
		direction: direction,
		maxBatch:  maxBatch,
	}
}

// Toggle flips tokenID; ids outside the source inventory are rejected, the cap is silent
func (c *SelectionController) Toggle(tokenID uint64) ([]uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !containsToken(c.inventory, tokenID) && !containsID(c.selection, tokenID) {
		return c.copySelection(), ErrTokenNotOwned
	}
	c.selection = ToggleSelection(c.selection, tokenID, c.maxBatch)
	return c.copySelection(), nil
}

// SelectAll see SelectAll
func (c *SelectionController) SelectAll() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selection = SelectAll(c.selection, c.inventory, c.maxBatch)
	return c.copySelection()
}

// Reconcile installs inventory as the source snapshot and prunes the selection against it
func (c *SelectionController) Reconcile(inventory []models.NftItem) []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inventory = inventory
	c.selection = ReconcileSelection(c.selection, inventory)
	return c.copySelection()
}

// SwapDirection flips source and destination; the selection belongs to the old source and is cleared
func (c *SelectionController) SwapDirection() (utils.Direction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return c.direction, ErrBridgeInFlight
	}
	c.direction = c.direction.Swap()
	c.selection = []uint64{}
	c.inventory = nil
	return c.direction, nil
}

// Clear empties the selection
func (c *SelectionController) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = []uint64{}
}

// TryBegin marks an operation in flight; false when one already is
func (c *SelectionController) TryBegin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

// End clears the in-flight mark
func (c *SelectionController) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
}

// Direction active direction
func (c *SelectionController) Direction() utils.Direction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.direction
}

// Snapshot copy of the current state
func (c *SelectionController) Snapshot() SelectionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SelectionSnapshot{
		Selection:    c.copySelection(),
		Direction:    c.direction,
		MaxBatchSize: c.maxBatch,
		Busy:         c.busy,
	}
}

func (c *SelectionController) copySelection() []uint64 {
	return append([]uint64{}, c.selection...)
}

func containsToken(items []models.NftItem, tokenID uint64) bool {
	for _, item := range items {
		if item.TokenID == tokenID {
			return true
		}
	}
	return false
}

func containsID(ids []uint64, tokenID uint64) bool {
	for _, id := range ids {
		if id == tokenID {
			return true
		}
	}
	return false
}
