package misscache

import (
	"sort"
	"sync"
	"testing"
)

func TestCache_InsertDrainIsEmpty(t *testing.T) {
	c := New()
	if !c.IsEmpty() {
		t.Fatal("new cache should be empty")
	}

	c.Insert("sw1.example.com")
	c.Insert("sw2.example.com")
	c.Insert("sw1.example.com") // duplicate, idempotent

	if c.IsEmpty() {
		t.Fatal("cache should not be empty after Insert")
	}

	drained := c.Drain()
	sort.Strings(drained)
	want := []string{"sw1.example.com", "sw2.example.com"}
	if len(drained) != len(want) || drained[0] != want[0] || drained[1] != want[1] {
		t.Fatalf("Drain() = %v, want %v", drained, want)
	}

	if !c.IsEmpty() {
		t.Fatal("cache should be empty after Drain")
	}
	if got := c.Drain(); got != nil {
		t.Fatalf("second Drain() = %v, want nil", got)
	}
}

func TestCache_InsertAllRequeues(t *testing.T) {
	c := New()
	c.InsertAll([]string{"a.example.com", "b.example.com"})
	drained := c.Drain()
	if len(drained) != 2 {
		t.Fatalf("Drain() = %v, want 2 entries", drained)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Insert("device.example.com")
		}(i)
	}
	wg.Wait()
	if c.IsEmpty() {
		t.Fatal("expected at least one entry")
	}
}
