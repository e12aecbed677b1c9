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

// Package container implements the arena-resident data structures shared by
// the scope, interpreter, and serializer: a chunked vector, a robin-hood hash
// map, a binary heap, pointer- and diagonal-array trees, and a mutable byte
// string with a cached hash.
//
// Vector is bound to the arena.Arena supplied at construction time, not
// whatever arena happens to be on top of the stack, so a vector handed to a
// long-lived owner survives arena stack churn around it. HashMap and
// MutableString are plain Go values until NewHandle registers them in an
// arena; Heap and the trees hold no arena at all.
package container

import (
	"errors"

	"github.com/i-e-b/mecs-go/arena"
	"github.com/i-e-b/mecs-go/tag"
)

// ErrIndexOutOfRange is returned by Vector accessors given an out-of-bounds index.
var ErrIndexOutOfRange = errors.New("container: index out of range")

// vectorChunkSize is the number of Tag slots per chunk.
const vectorChunkSize = 64

// maxSkipTableEntries caps the skip table so it stays inside one arena zone.
const maxSkipTableEntries = 1024

// skipTableRebuildThreshold is the number of random-access walks since the
// last rebuild that triggers a lazy skip-table rebuild.
const skipTableRebuildThreshold = 32

// Vector is a chunked, arena-resident list of Tag values. Chunks are
// allocated lazily; a skip table mapping chunk index to cumulative length is
// rebuilt lazily once random access is frequent enough to justify it.
type Vector struct {
	a       *arena.Arena
	chunks  [][]tag.Tag // each inner slice has length vectorChunkSize; logical tail may be partially filled
	length  int
	skip    []int // skip[i] = cumulative element count before chunk i
	skipOK  bool
	walks   int
	dequeue int // logical offset of element 0 within chunks[0], for O(1) dequeue
}

// NewVector returns an empty Vector that allocates through a.
func NewVector(a *arena.Arena) *Vector {
	return &Vector{a: a}
}

// NewHandle registers v in its owning arena's object table and returns a
// VectorPtr tag addressing it.
func (v *Vector) NewHandle() (tag.Tag, error) {
	h, err := v.a.AllocObject(v)
	if err != nil {
		return tag.Tag{}, err
	}
	return tag.Tag{Kind: tag.VectorPtr, Payload: uint32(h)}, nil
}

// VectorAt resolves a VectorPtr tag back to the *Vector it addresses.
func VectorAt(a *arena.Arena, t tag.Tag) (*Vector, bool) {
	obj, ok := a.Object(arena.Handle(t.Payload))
	if !ok {
		return nil, false
	}
	v, ok := obj.(*Vector)
	return v, ok
}

// Len returns the number of live elements.
func (v *Vector) Len() int { return v.length }

// chunkAndOffset maps a logical index (post-dequeue-adjusted) to a chunk
// index and intra-chunk offset.
func (v *Vector) chunkAndOffset(i int) (int, int) {
	abs := i + v.dequeue
	return abs / vectorChunkSize, abs % vectorChunkSize
}

// Push appends t to the end of the vector, growing the chunk list as needed.
func (v *Vector) Push(t tag.Tag) {
	ci, off := v.chunkAndOffset(v.length)
	for ci >= len(v.chunks) {
		v.chunks = append(v.chunks, make([]tag.Tag, vectorChunkSize))
	}
	v.chunks[ci][off] = t
	v.length++
	v.skipOK = false
}

// Pop removes and returns the last element. ok is false on an empty vector.
func (v *Vector) Pop() (t tag.Tag, ok bool) {
	if v.length == 0 {
		return tag.Tag{}, false
	}
	ci, off := v.chunkAndOffset(v.length - 1)
	t = v.chunks[ci][off]
	v.chunks[ci][off] = tag.Tag{}
	v.length--
	v.skipOK = false
	return t, true
}

// Dequeue removes and returns the first element in O(1) by advancing the
// logical start offset instead of shifting remaining elements.
func (v *Vector) Dequeue() (t tag.Tag, ok bool) {
	if v.length == 0 {
		return tag.Tag{}, false
	}
	t = v.chunks[0][v.dequeue%vectorChunkSize]
	v.dequeue++
	v.length--
	if v.dequeue >= vectorChunkSize {
		v.chunks = v.chunks[1:]
		v.dequeue -= vectorChunkSize
	}
	v.skipOK = false
	return t, true
}

// Get returns the element at logical index i.
func (v *Vector) Get(i int) (tag.Tag, error) {
	if i < 0 || i >= v.length {
		return tag.Tag{}, ErrIndexOutOfRange
	}
	v.walks++
	v.maybeRebuildSkipTable()
	ci, off := v.chunkAndOffset(i)
	return v.chunks[ci][off], nil
}

// Set overwrites the element at logical index i.
func (v *Vector) Set(i int, t tag.Tag) error {
	if i < 0 || i >= v.length {
		return ErrIndexOutOfRange
	}
	ci, off := v.chunkAndOffset(i)
	v.chunks[ci][off] = t
	return nil
}

// Swap exchanges the elements at logical indices i and j.
func (v *Vector) Swap(i, j int) error {
	a, err := v.Get(i)
	if err != nil {
		return err
	}
	b, err := v.Get(j)
	if err != nil {
		return err
	}
	v.Set(i, b)
	v.Set(j, a)
	return nil
}

// Prealloc ensures the vector has chunk capacity for n elements without
// changing Len.
func (v *Vector) Prealloc(n int) {
	ci, _ := v.chunkAndOffset(n)
	for ci >= len(v.chunks) {
		v.chunks = append(v.chunks, make([]tag.Tag, vectorChunkSize))
	}
}

// maybeRebuildSkipTable rebuilds the cumulative-length skip table once
// enough random-access walks have happened since the last rebuild and there
// are enough chunks to make the table worthwhile; the table is capped at
// maxSkipTableEntries so it fits a single arena zone.
func (v *Vector) maybeRebuildSkipTable() {
	if v.skipOK {
		return
	}
	if v.walks < skipTableRebuildThreshold || len(v.chunks) < 4 {
		return
	}
	n := len(v.chunks)
	if n > maxSkipTableEntries {
		n = maxSkipTableEntries
	}
	v.skip = make([]int, n)
	acc := 0
	for i := 0; i < n; i++ {
		v.skip[i] = acc
		acc += vectorChunkSize
	}
	v.skipOK = true
	v.walks = 0
}
