package renderer

import "sync"

// DescriptorTable manages a stable slot table of texture views, giving shaders
// a fixed integer handle per registered texture (the environment map registry
// indexes into it). Slots freed by Free are reused by later Allocate calls.
//
// Freeing a slot only detaches the view from the table; the caller must release
// the returned view itself, and must call Renderer.WaitForIdle first so that no
// in-flight frame still references it.
type DescriptorTable struct {
	mu *sync.Mutex

	slots []any
	free  []int
}

// NewDescriptorTable creates an empty descriptor table.
//
// Returns:
//   - *DescriptorTable: the new table
func NewDescriptorTable() *DescriptorTable {
	return &DescriptorTable{
		mu: &sync.Mutex{},
	}
}

// Allocate stores a resource in the table and returns its slot index.
// Freed slots are reused before the table grows.
//
// Parameters:
//   - resource: the resource to register (typically a *wgpu.TextureView)
//
// Returns:
//   - int: the slot index assigned to the resource
func (t *DescriptorTable) Allocate(resource any) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.free); n > 0 {
		slot := t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[slot] = resource
		return slot
	}
	t.slots = append(t.slots, resource)
	return len(t.slots) - 1
}

// Replace swaps the resource stored at a slot, returning the previous resource
// so the caller can release it after a WaitForIdle.
//
// Parameters:
//   - slot: the slot index to replace
//   - resource: the new resource
//
// Returns:
//   - any: the previous resource, or nil if the slot was empty or out of range
func (t *DescriptorTable) Replace(slot int, resource any) any {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slot < 0 || slot >= len(t.slots) {
		return nil
	}
	prev := t.slots[slot]
	t.slots[slot] = resource
	return prev
}

// Free detaches the resource at a slot and marks the slot reusable.
//
// Parameters:
//   - slot: the slot index to free
//
// Returns:
//   - any: the detached resource for the caller to release, or nil
func (t *DescriptorTable) Free(slot int) any {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slot < 0 || slot >= len(t.slots) || t.slots[slot] == nil {
		return nil
	}
	prev := t.slots[slot]
	t.slots[slot] = nil
	t.free = append(t.free, slot)
	return prev
}

// Resource returns the resource stored at a slot.
//
// Parameters:
//   - slot: the slot index
//
// Returns:
//   - any: the stored resource, or nil if the slot is empty or out of range
func (t *DescriptorTable) Resource(slot int) any {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slot < 0 || slot >= len(t.slots) {
		return nil
	}
	return t.slots[slot]
}

// Len returns the current table size including freed slots.
//
// Returns:
//   - int: the slot count
func (t *DescriptorTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}
