package container

import (
	"testing"

	"github.com/i-e-b/mecs-go/tag"
)

func TestHashMapSetGet(t *testing.T) {
	m := NewHashMap()
	m.Set(1, tag.NewInteger(10))
	m.Set(2, tag.NewInteger(20))
	v, ok := m.Get(1)
	if !ok || v.Int() != 10 {
		t.Fatalf("Get(1) = %v,%v want 10,true", v, ok)
	}
	v, ok = m.Get(2)
	if !ok || v.Int() != 20 {
		t.Fatalf("Get(2) = %v,%v want 20,true", v, ok)
	}
	if _, ok := m.Get(3); ok {
		t.Fatalf("Get(3) should miss")
	}
}

func TestHashMapOverwrite(t *testing.T) {
	m := NewHashMap()
	m.Set(5, tag.NewInteger(1))
	m.Set(5, tag.NewInteger(2))
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	v, _ := m.Get(5)
	if v.Int() != 2 {
		t.Fatalf("Get(5) = %d, want 2", v.Int())
	}
}

func TestHashMapGrowsAndRetainsAllEntries(t *testing.T) {
	m := NewHashMap()
	const n = 2000
	for i := uint32(0); i < n; i++ {
		m.Set(i, tag.NewInteger(int32(i)))
	}
	if m.Len() != n {
		t.Fatalf("Len() = %d, want %d", m.Len(), n)
	}
	for i := uint32(0); i < n; i++ {
		v, ok := m.Get(i)
		if !ok || v.Int() != int32(i) {
			t.Fatalf("Get(%d) = %v,%v want %d,true", i, v, ok, i)
		}
	}
}

func TestHashMapDelete(t *testing.T) {
	m := NewHashMap()
	for i := uint32(0); i < 20; i++ {
		m.Set(i, tag.NewInteger(int32(i)))
	}
	if !m.Delete(10) {
		t.Fatalf("Delete(10) should succeed")
	}
	if _, ok := m.Get(10); ok {
		t.Fatalf("Get(10) should miss after delete")
	}
	for i := uint32(0); i < 20; i++ {
		if i == 10 {
			continue
		}
		if _, ok := m.Get(i); !ok {
			t.Fatalf("Get(%d) should still hit after unrelated delete", i)
		}
	}
	if m.Delete(999) {
		t.Fatalf("Delete of absent key should return false")
	}
}

func TestHashMapShrinksOnSparseDeletes(t *testing.T) {
	m := NewHashMap()
	const n = 500
	for i := uint32(0); i < n; i++ {
		m.Set(i, tag.NewInteger(int32(i)))
	}
	grownCap := len(m.slots)
	for i := uint32(0); i < n-5; i++ {
		m.Delete(i)
	}
	if len(m.slots) >= grownCap {
		t.Fatalf("expected table to shrink after sparse deletes, cap=%d grownCap=%d", len(m.slots), grownCap)
	}
	for i := uint32(n - 5); i < n; i++ {
		if _, ok := m.Get(i); !ok {
			t.Fatalf("Get(%d) should survive shrink", i)
		}
	}
}

func TestHashMapRange(t *testing.T) {
	m := NewHashMap()
	want := map[uint32]int32{1: 10, 2: 20, 3: 30}
	for k, v := range want {
		m.Set(k, tag.NewInteger(v))
	}
	got := map[uint32]int32{}
	m.Range(func(k uint32, v tag.Tag) bool {
		got[k] = v.Int()
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("Range visited %d entries, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("Range entry %d = %d, want %d", k, got[k], v)
		}
	}
}
