package container

import "errors"

// ErrHeapEmpty is returned by Heap operations that require at least one element.
var ErrHeapEmpty = errors.New("container: heap is empty")

// HeapEntry pairs a priority with an opaque 32-bit payload value. Priority
// is a plain int32 rather than a Tag since heap ordering never needs the
// full tagged-value machinery.
type HeapEntry struct {
	Priority int32
	Value    uint32
}

// Heap is a binary min-heap over a slice, with priority stored inline
// alongside its payload. find-min and find-second-min are O(1); delete-min
// is O(log n).
type Heap struct {
	items []HeapEntry
}

// NewHeap returns an empty Heap.
func NewHeap() *Heap { return &Heap{} }

// Len returns the number of entries.
func (h *Heap) Len() int { return len(h.items) }

// Push inserts a new entry, sifting it up to restore the heap property.
func (h *Heap) Push(priority int32, value uint32) {
	h.items = append(h.items, HeapEntry{Priority: priority, Value: value})
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[parent].Priority <= h.items[i].Priority {
			break
		}
		h.items[parent], h.items[i] = h.items[i], h.items[parent]
		i = parent
	}
}

// FindMin returns the minimum-priority entry without removing it.
func (h *Heap) FindMin() (HeapEntry, error) {
	if len(h.items) == 0 {
		return HeapEntry{}, ErrHeapEmpty
	}
	return h.items[0], nil
}

// FindSecondMin returns the second-smallest-priority entry without removing
// it. With a binary heap the second minimum is always one of the root's two
// children, so this is O(1).
func (h *Heap) FindSecondMin() (HeapEntry, error) {
	switch len(h.items) {
	case 0:
		return HeapEntry{}, ErrHeapEmpty
	case 1:
		return HeapEntry{}, ErrHeapEmpty
	case 2:
		return h.items[1], nil
	default:
		if h.items[1].Priority <= h.items[2].Priority {
			return h.items[1], nil
		}
		return h.items[2], nil
	}
}

// DeleteMin removes and returns the minimum-priority entry, sifting the last
// element down from the root to restore the heap property.
func (h *Heap) DeleteMin() (HeapEntry, error) {
	if len(h.items) == 0 {
		return HeapEntry{}, ErrHeapEmpty
	}
	min := h.items[0]
	last := len(h.items) - 1
	h.items[0] = h.items[last]
	h.items = h.items[:last]

	i := 0
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < len(h.items) && h.items[left].Priority < h.items[smallest].Priority {
			smallest = left
		}
		if right < len(h.items) && h.items[right].Priority < h.items[smallest].Priority {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
	return min, nil
}
