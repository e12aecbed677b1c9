package arena

import "testing"

func TestAllocWithinZone(t *testing.T) {
	a, err := New(3*64*1024, 64*1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h, err := a.Alloc(100)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if !a.Contains(h) {
		t.Fatalf("allocated handle %d not contained in arena", h)
	}
}

func TestAllocLargerThanZoneFails(t *testing.T) {
	a, err := New(2*1024, 1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Alloc(2000); err != ErrAllocTooLarge {
		t.Fatalf("Alloc: got %v, want ErrAllocTooLarge", err)
	}
}

func TestNewRoundsDownToWholeZones(t *testing.T) {
	a, err := New(2500, 1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.ZoneCount() != 2 {
		t.Fatalf("ZoneCount() = %d, want 2", a.ZoneCount())
	}
}

func TestNewZoneTooSmall(t *testing.T) {
	if _, err := New(100, 1024); err != ErrZoneTooSmall {
		t.Fatalf("New: got %v, want ErrZoneTooSmall", err)
	}
}

func TestDereferenceFreesZoneForReuse(t *testing.T) {
	a, err := New(2*1024, 1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h1, err := a.Alloc(1000)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if _, err := a.Alloc(1000); err != nil {
		t.Fatalf("second Alloc: %v", err)
	}
	if !a.Dereference(h1) {
		t.Fatalf("Dereference returned false for a live handle")
	}
	stats := a.Stats()
	if stats.EmptyZones != 1 {
		t.Fatalf("EmptyZones = %d, want 1 after freeing the first zone", stats.EmptyZones)
	}
}

func TestDereferenceZeroCountIsNoOp(t *testing.T) {
	a, err := New(1024, 1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h, err := a.Alloc(8)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if !a.Dereference(h) {
		t.Fatalf("first Dereference should succeed")
	}
	if a.Dereference(h) {
		t.Fatalf("second Dereference on a zero-count zone should report false")
	}
}

func TestZoneDensityInvariant(t *testing.T) {
	// After any Dereference, current_zone <= first_nonempty_zone_index + 1.
	a, err := New(4*1024, 1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var handles []Handle
	for i := 0; i < 4; i++ {
		h, err := a.Alloc(1000)
		if err != nil {
			t.Fatalf("Alloc %d: %v", i, err)
		}
		handles = append(handles, h)
	}
	a.Dereference(handles[0])
	a.Dereference(handles[1])

	firstNonEmpty := -1
	for i, head := range a.heads {
		if head != 0 {
			firstNonEmpty = i
			break
		}
	}
	if firstNonEmpty == -1 {
		firstNonEmpty = len(a.heads) - 1
	}
	if a.current > firstNonEmpty+1 {
		t.Fatalf("current zone %d exceeds first-nonempty+1 (%d)", a.current, firstNonEmpty+1)
	}
}

func TestStatsAccounting(t *testing.T) {
	a, err := New(2*1024, 1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Alloc(500); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	stats := a.Stats()
	if stats.AllocatedBytes != 500 {
		t.Fatalf("AllocatedBytes = %d, want 500", stats.AllocatedBytes)
	}
	if stats.TotalRefs != 1 {
		t.Fatalf("TotalRefs = %d, want 1", stats.TotalRefs)
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	a, err := New(1024, 1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h, err := a.Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	want := []byte("0123456789abcdef")
	if err := a.Write(h, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := a.Read(h, 16)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("Read() = %q, want %q", got, want)
	}
}
