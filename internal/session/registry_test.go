package session

import (
	"errors"
	"testing"

	"github.com/ignite/chat-gateway/internal/domain"
)

func TestRegistryOwnershipGate(t *testing.T) {
	reg := NewRegistry()
	h, created := reg.ensure("sess-1", "owner-a", "15550001")
	if !created {
		t.Fatal("expected handle to be created")
	}

	got, err := reg.Get("sess-1", "owner-a")
	if err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if got != h {
		t.Error("expected same handle back")
	}

	// Same ID under a different owner is access-denied, not not-found
	_, err = reg.Get("sess-1", "owner-b")
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}

	_, err = reg.Get("sess-unknown", "owner-a")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryEnsureIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	h1, created1 := reg.ensure("sess-1", "owner-a", "15550001")
	h2, created2 := reg.ensure("sess-1", "owner-a", "15550001")

	if !created1 || created2 {
		t.Errorf("expected created=(true,false), got (%v,%v)", created1, created2)
	}
	if h1 != h2 {
		t.Error("ensure must return the existing handle")
	}
}

func TestRegistryListByOwner(t *testing.T) {
	reg := NewRegistry()
	reg.ensure(domain.SessionID("15550002", "owner-a"), "owner-a", "15550002")
	reg.ensure(domain.SessionID("15550001", "owner-a"), "owner-a", "15550001")
	reg.ensure(domain.SessionID("15550003", "owner-b"), "owner-b", "15550003")

	list := reg.ListByOwner("owner-a")
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions for owner-a, got %d", len(list))
	}
	// Sorted by account address
	if list[0].AccountAddress != "15550001" || list[1].AccountAddress != "15550002" {
		t.Errorf("expected sorted accounts, got %s, %s", list[0].AccountAddress, list[1].AccountAddress)
	}

	if got := reg.ListByOwner("owner-c"); len(got) != 0 {
		t.Errorf("expected no sessions for owner-c, got %d", len(got))
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry()
	reg.ensure("sess-1", "owner-a", "15550001")

	if _, ok := reg.remove("sess-1"); !ok {
		t.Fatal("expected removal to find the handle")
	}
	if _, ok := reg.remove("sess-1"); ok {
		t.Error("second removal should find nothing")
	}
	if _, err := reg.Get("sess-1", "owner-a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after removal, got %v", err)
	}
}
