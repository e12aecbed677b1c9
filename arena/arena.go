// Copyright 2024 The mecs-go Authors
// This file is part of mecs-go.
//
// mecs-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// mecs-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with mecs-go. If not, see <http://www.gnu.org/licenses/>.

// Package arena implements a zoned bump allocator and the process-wide arena
// stack built on top of it.
//
// Design inherited from the register-VM's flat Memory allocator (see
// probe-lang/lang/vm/memory.go): a single backing byte slice, bounds-checked
// access, monotone-pointer growth. Arena subdivides that backing store into
// fixed-size zones so that a single zone's refcount reaching zero frees it
// for reuse without compacting the whole pool, which a flat allocation map
// cannot do.
package arena

import (
	"errors"
	"fmt"
)

// DefaultZoneSize is the default per-zone capacity, 64 KiB.
const DefaultZoneSize = 64 * 1024

// ErrZoneTooSmall is returned by New when capacity can't hold even one zone.
var ErrZoneTooSmall = errors.New("arena: capacity smaller than one zone")

// ErrAllocTooLarge is returned by Alloc when n exceeds a single zone's size.
var ErrAllocTooLarge = errors.New("arena: allocation larger than one zone")

// ErrOutOfMemory is returned by Alloc when no zone has room.
var ErrOutOfMemory = errors.New("arena: no zone has room for the allocation")

// ErrInvalidHandle is returned when a handle does not fall within the arena.
var ErrInvalidHandle = errors.New("arena: handle out of bounds")

// Handle is an absolute, arena-relative byte offset. Zero is a valid handle:
// the first allocation in zone 0 returns it.
type Handle uint32

// Stats reports point-in-time accounting for an Arena.
type Stats struct {
	AllocatedBytes  uint64
	FreeBytes       uint64
	OccupiedZones   int
	EmptyZones      int
	TotalRefs       uint64
	LargestFreeZone uint32
}

// Arena is a fixed-capacity pool subdivided into equal-size zones. Each zone
// is a bump allocator with its own refcount; a zone is reused only once its
// refcount returns to zero.
type Arena struct {
	data     []byte
	zoneSize uint32
	heads    []uint32 // per-zone bump pointer, bytes from zone base
	refs     []uint32 // per-zone refcount (saturates at 16 bits)
	current  int      // index of the zone most recently allocated from

	objects map[Handle]interface{}
}

const maxZoneRefcount = 0xFFFF

// New returns an Arena whose usable capacity is rounded down to a whole
// number of zones of zoneSize bytes. If zoneSize is 0, DefaultZoneSize is
// used.
func New(capacity int, zoneSize uint32) (*Arena, error) {
	if zoneSize == 0 {
		zoneSize = DefaultZoneSize
	}
	zoneCount := capacity / int(zoneSize)
	if zoneCount < 1 {
		return nil, ErrZoneTooSmall
	}
	usable := zoneCount * int(zoneSize)
	return &Arena{
		data:     make([]byte, usable),
		zoneSize: zoneSize,
		heads:    make([]uint32, zoneCount),
		refs:     make([]uint32, zoneCount),
	}, nil
}

// ZoneCount returns the number of zones in the arena.
func (a *Arena) ZoneCount() int { return len(a.heads) }

// ZoneSize returns the configured per-zone capacity.
func (a *Arena) ZoneSize() uint32 { return a.zoneSize }

// Alloc reserves n bytes and returns an absolute handle to the start of the
// reservation. It scans from the most-recently-successful zone, wrapping,
// and takes the first zone whose head+n fits.
func (a *Arena) Alloc(n uint32) (Handle, error) {
	if n > a.zoneSize {
		return 0, ErrAllocTooLarge
	}
	zoneCount := len(a.heads)
	for i := 0; i < zoneCount; i++ {
		idx := (a.current + i) % zoneCount
		if a.heads[idx]+n <= a.zoneSize {
			base := uint32(idx) * a.zoneSize
			offset := a.heads[idx]
			a.heads[idx] += n
			if a.refs[idx] < maxZoneRefcount {
				a.refs[idx]++
			}
			a.current = idx
			return Handle(base + offset), nil
		}
	}
	return 0, ErrOutOfMemory
}

// zoneOf returns the zone index containing handle h, or -1 if out of bounds.
func (a *Arena) zoneOf(h Handle) int {
	if uint32(h) >= uint32(len(a.data)) {
		return -1
	}
	return int(uint32(h) / a.zoneSize)
}

// Reference increments the refcount of the zone containing h. It returns
// false if the zone's 16-bit counter is already saturated.
func (a *Arena) Reference(h Handle) bool {
	idx := a.zoneOf(h)
	if idx < 0 {
		return false
	}
	if a.refs[idx] >= maxZoneRefcount {
		return false
	}
	a.refs[idx]++
	return true
}

// Dereference decrements the refcount of the zone containing h. If the
// refcount reaches zero, the zone's head resets to zero and, if the zone's
// index is below the current allocation cursor, the cursor moves to it to
// keep allocations dense at low addresses. Dereferencing an already-zero-count
// zone is a no-op that returns false, signalling a contract violation to the
// caller.
func (a *Arena) Dereference(h Handle) bool {
	idx := a.zoneOf(h)
	if idx < 0 {
		return false
	}
	if a.refs[idx] == 0 {
		return false
	}
	a.refs[idx]--
	if a.refs[idx] == 0 {
		a.heads[idx] = 0
		if idx < a.current {
			a.current = idx
		}
	}
	return true
}

// Contains reports whether h falls within this arena's backing store.
func (a *Arena) Contains(h Handle) bool {
	return uint32(h) < uint32(len(a.data))
}

// Read returns a view of n bytes starting at h. The returned slice aliases
// the arena's backing store; callers must not retain it across a Dereference
// that frees the owning zone.
func (a *Arena) Read(h Handle, n uint32) ([]byte, error) {
	if !a.Contains(h) || uint64(h)+uint64(n) > uint64(len(a.data)) {
		return nil, fmt.Errorf("%w: handle=%d len=%d", ErrInvalidHandle, h, n)
	}
	return a.data[h : uint32(h)+n], nil
}

// Write copies src into the arena starting at h.
func (a *Arena) Write(h Handle, src []byte) error {
	if !a.Contains(h) || uint64(h)+uint64(len(src)) > uint64(len(a.data)) {
		return fmt.Errorf("%w: handle=%d len=%d", ErrInvalidHandle, h, len(src))
	}
	copy(a.data[h:], src)
	return nil
}

// AllocObject reserves one byte (enough to own a unique handle and
// participate in zone refcounting) and associates obj with the returned
// handle. This backs container.Vector/HashMap/Tree, whose contents live as
// ordinary Go values rather than a byte-for-byte arena layout, while still
// letting them be addressed by the same Handle space as raw allocations.
func (a *Arena) AllocObject(obj interface{}) (Handle, error) {
	h, err := a.Alloc(1)
	if err != nil {
		return 0, err
	}
	if a.objects == nil {
		a.objects = make(map[Handle]interface{})
	}
	a.objects[h] = obj
	return h, nil
}

// Object returns the value previously associated with h by AllocObject.
func (a *Arena) Object(h Handle) (interface{}, bool) {
	obj, ok := a.objects[h]
	return obj, ok
}

// Stats reports point-in-time accounting for the arena.
func (a *Arena) Stats() Stats {
	var s Stats
	for i, head := range a.heads {
		s.AllocatedBytes += uint64(head)
		free := a.zoneSize - head
		s.FreeBytes += uint64(free)
		if free > s.LargestFreeZone {
			s.LargestFreeZone = free
		}
		s.TotalRefs += uint64(a.refs[i])
		if head == 0 && a.refs[i] == 0 {
			s.EmptyZones++
		} else {
			s.OccupiedZones++
		}
	}
	return s
}
