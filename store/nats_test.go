//go:build integration

package store

import (
	"os"
	"sort"
	"testing"

	"github.com/nats-io/nats.go"
)

// getNATSURL returns the NATS URL from environment or default.
func getNATSURL() string {
	if url := os.Getenv("NATS_URL"); url != "" {
		return url
	}
	return nats.DefaultURL
}

// newTestNATSStore creates a NATSStore for testing.
func newTestNATSStore(t *testing.T, bucket string) *NATSStore {
	conn, err := nats.Connect(getNATSURL())
	if err != nil {
		t.Skipf("NATS not available: %v", err)
	}

	s, err := NewNATSStore(NATSStoreConfig{
		Conn:   conn,
		Bucket: bucket,
	})
	if err != nil {
		conn.Close()
		t.Fatalf("NewNATSStore failed: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
		conn.Close()
	})

	return s
}

func TestNATSStore_Get_NotFound(t *testing.T) {
	s := newTestNATSStore(t, "deaddrop-test-notfound")

	_, err := s.Get("1700000000000-absent.in.dat")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNATSStore_PutGetDelete(t *testing.T) {
	s := newTestNATSStore(t, "deaddrop-test-roundtrip")

	name := "1700000000000-ab12.in.dat"
	value := []byte("task payload")

	if err := s.Put(name, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get(name)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("expected %s, got %s", value, got)
	}

	if err := s.Delete(name); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(name); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestNATSStore_List(t *testing.T) {
	s := newTestNATSStore(t, "deaddrop-test-list")

	names := []string{
		"1700000000000-aa11.in.dat",
		"1700000000000-aa11.in.sig",
	}
	for _, name := range names {
		if err := s.Put(name, []byte("x")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	t.Cleanup(func() {
		for _, name := range names {
			s.Delete(name)
		}
	})

	got, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	sort.Strings(got)
	if len(got) < len(names) {
		t.Fatalf("expected at least %d names, got %v", len(names), got)
	}
}

func TestNATSStore_Delete_Nonexistent(t *testing.T) {
	s := newTestNATSStore(t, "deaddrop-test-delete")

	if err := s.Delete("1700000000000-absent.in.dat"); err != nil {
		t.Errorf("Delete of nonexistent object should not error: %v", err)
	}
}
