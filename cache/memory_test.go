package cache

import (
	"testing"
	"time"
)

func TestMemorySetGetDelete(t *testing.T) {
	m := NewMemory()

	if err := m.Set("state", []byte("abc"), NoTTL); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := m.Get("state")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("Get returned %q", got)
	}

	previous, err := m.Delete("state")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if string(previous) != "abc" {
		t.Fatalf("Delete returned %q", previous)
	}

	got, _ = m.Get("state")
	if got != nil {
		t.Fatalf("key survived delete: %q", got)
	}
}

func TestMemoryMissingKey(t *testing.T) {
	m := NewMemory()

	if got, err := m.Get("nope"); err != nil || got != nil {
		t.Fatalf("Get missing: %q, %v", got, err)
	}
	if previous, err := m.Delete("nope"); err != nil || previous != nil {
		t.Fatalf("Delete missing: %q, %v", previous, err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	current := time.Now()
	m.now = func() time.Time { return current }

	m.Set("short", []byte("v"), time.Minute)

	current = current.Add(30 * time.Second)
	if got, _ := m.Get("short"); string(got) != "v" {
		t.Fatalf("entry expired early: %q", got)
	}

	current = current.Add(time.Hour)
	if got, _ := m.Get("short"); got != nil {
		t.Fatalf("entry outlived its ttl: %q", got)
	}
	if previous, _ := m.Delete("short"); previous != nil {
		t.Fatalf("Delete returned expired value: %q", previous)
	}
}

func TestMemoryValueIsCopied(t *testing.T) {
	m := NewMemory()
	value := []byte("original")
	m.Set("k", value, NoTTL)
	value[0] = 'X'

	if got, _ := m.Get("k"); string(got) != "original" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
}
