package container

import (
	"github.com/i-e-b/mecs-go/arena"
	"github.com/i-e-b/mecs-go/tag"
)

// growLoadFactor triggers a table resize once occupancy crosses it.
const growLoadFactor = 0.8

// shrinkLoadFactor triggers a table resize down once occupancy drops below it.
const shrinkLoadFactor = 0.25

// minHashMapCapacity is the smallest table size HashMap ever shrinks to.
const minHashMapCapacity = 8

type hashMapEntry struct {
	key      uint32
	value    tag.Tag
	used     bool
	distance int32 // probe distance from the entry's ideal slot; -1 for an empty slot
}

// HashMap is an open-addressed, robin-hood-probed map from uint32 keys
// (crushed-name hashes) to Tag values. Robin-hood probing bounds the
// worst-case probe distance by having an insert displace whichever existing
// entry is closer to its own ideal slot.
type HashMap struct {
	slots []hashMapEntry
	count int
}

// NewHashMap returns an empty HashMap.
func NewHashMap() *HashMap {
	m := &HashMap{}
	m.slots = make([]hashMapEntry, minHashMapCapacity)
	for i := range m.slots {
		m.slots[i].distance = -1
	}
	return m
}

// Len returns the number of stored key/value pairs.
func (m *HashMap) Len() int { return m.count }

func (m *HashMap) idealSlot(key uint32) int {
	return int(key) % len(m.slots)
}

// Get returns the value for key and whether it was present.
func (m *HashMap) Get(key uint32) (tag.Tag, bool) {
	idx := m.idealSlot(key)
	for dist := int32(0); dist < int32(len(m.slots)); dist++ {
		slot := &m.slots[(idx+int(dist))%len(m.slots)]
		if !slot.used {
			return tag.Tag{}, false
		}
		if slot.key == key {
			return slot.value, true
		}
		if slot.distance < dist {
			// A robin-hood table guarantees entries are ordered by probe
			// distance along a chain; seeing a shorter distance than ours
			// means key is absent.
			return tag.Tag{}, false
		}
	}
	return tag.Tag{}, false
}

// Set inserts or overwrites the value for key, growing the table first if
// the load factor would exceed growLoadFactor.
func (m *HashMap) Set(key uint32, value tag.Tag) {
	if float64(m.count+1)/float64(len(m.slots)) > growLoadFactor {
		m.resize(len(m.slots) * 2)
	}
	m.insert(key, value)
}

func (m *HashMap) insert(key uint32, value tag.Tag) {
	idx := m.idealSlot(key)
	entry := hashMapEntry{key: key, value: value, used: true, distance: 0}
	n := len(m.slots)
	for i := 0; i < n; i++ {
		pos := (idx + i) % n
		slot := &m.slots[pos]
		if !slot.used {
			*slot = entry
			m.count++
			return
		}
		if slot.key == entry.key {
			slot.value = entry.value
			return
		}
		if slot.distance < entry.distance {
			entry, *slot = *slot, entry
		}
		entry.distance++
	}
}

// Delete removes key, backward-shifting the probe chain so later lookups
// along it remain correct.
func (m *HashMap) Delete(key uint32) bool {
	idx := m.idealSlot(key)
	n := len(m.slots)
	pos := -1
	for i := 0; i < n; i++ {
		p := (idx + i) % n
		slot := &m.slots[p]
		if !slot.used {
			return false
		}
		if slot.key == key {
			pos = p
			break
		}
	}
	if pos == -1 {
		return false
	}
	m.slots[pos] = hashMapEntry{distance: -1}
	m.count--

	// Backward-shift subsequent entries in the chain to close the gap.
	cur := pos
	for {
		next := (cur + 1) % n
		if !m.slots[next].used || m.slots[next].distance == 0 {
			break
		}
		m.slots[cur] = m.slots[next]
		m.slots[cur].distance--
		m.slots[next] = hashMapEntry{distance: -1}
		cur = next
	}

	if len(m.slots) > minHashMapCapacity && float64(m.count)/float64(len(m.slots)) < shrinkLoadFactor {
		newCap := len(m.slots) / 2
		if newCap < minHashMapCapacity {
			newCap = minHashMapCapacity
		}
		m.resize(newCap)
	}
	return true
}

func (m *HashMap) resize(newCap int) {
	old := m.slots
	m.slots = make([]hashMapEntry, newCap)
	for i := range m.slots {
		m.slots[i].distance = -1
	}
	m.count = 0
	for _, e := range old {
		if e.used {
			m.insert(e.key, e.value)
		}
	}
}

// Range calls fn for every stored key/value pair in unspecified order,
// stopping early if fn returns false.
func (m *HashMap) Range(fn func(key uint32, value tag.Tag) bool) {
	for _, e := range m.slots {
		if e.used {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}

// NewHandle registers m in a's object table and returns a HashMapPtr tag
// addressing it.
func (m *HashMap) NewHandle(a *arena.Arena) (tag.Tag, error) {
	h, err := a.AllocObject(m)
	if err != nil {
		return tag.Tag{}, err
	}
	return tag.Tag{Kind: tag.HashMapPtr, Payload: uint32(h)}, nil
}

// HashMapAt resolves a HashMapPtr tag back to the *HashMap it addresses.
func HashMapAt(a *arena.Arena, t tag.Tag) (*HashMap, bool) {
	obj, ok := a.Object(arena.Handle(t.Payload))
	if !ok {
		return nil, false
	}
	m, ok := obj.(*HashMap)
	return m, ok
}
