package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestBolt(t *testing.T) *Bolt {
	t.Helper()
	b, err := OpenBolt(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBoltSetGetDelete(t *testing.T) {
	b := openTestBolt(t)

	if err := b.Set("token", []byte(`{"t":"x"}`), NoTTL); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := b.Get("token")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"t":"x"}` {
		t.Fatalf("Get returned %q", got)
	}

	previous, err := b.Delete("token")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if string(previous) != `{"t":"x"}` {
		t.Fatalf("Delete returned %q", previous)
	}
	if got, _ := b.Get("token"); got != nil {
		t.Fatalf("key survived delete: %q", got)
	}
}

func TestBoltMissingKey(t *testing.T) {
	b := openTestBolt(t)

	if got, err := b.Get("nope"); err != nil || got != nil {
		t.Fatalf("Get missing: %q, %v", got, err)
	}
	if previous, err := b.Delete("nope"); err != nil || previous != nil {
		t.Fatalf("Delete missing: %q, %v", previous, err)
	}
}

func TestBoltExpiry(t *testing.T) {
	b := openTestBolt(t)
	current := time.Now()
	b.now = func() time.Time { return current }

	b.Set("short", []byte("v"), time.Minute)

	current = current.Add(30 * time.Second)
	if got, _ := b.Get("short"); string(got) != "v" {
		t.Fatalf("entry expired early: %q", got)
	}

	current = current.Add(time.Hour)
	if got, _ := b.Get("short"); got != nil {
		t.Fatalf("entry outlived its ttl: %q", got)
	}
}

func TestBoltSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	b, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	if err := b.Set("k", []byte("persisted"), NoTTL); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err = OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()

	if got, _ := b.Get("k"); string(got) != "persisted" {
		t.Fatalf("value lost across reopen: %q", got)
	}
}
