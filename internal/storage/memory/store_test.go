package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopgrove/concierge/internal/domain"
	"github.com/shopgrove/concierge/internal/storage"
)

func TestStore_RoundTrip(t *testing.T) {
	s := New(0)
	defer s.Close()
	ctx := context.Background()

	sess := domain.NewSession("s1")
	sess.ActiveDomain = domain.DomainLaptops
	sess.ExplicitFilters["brand"] = "dell"
	sess.History = append(sess.History, domain.Message{Role: "user", Content: "hi"})

	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ActiveDomain != domain.DomainLaptops || got.ExplicitFilters["brand"] != "dell" {
		t.Errorf("Get() = %+v, want stored session", got)
	}

	// The store hands out copies, not aliases.
	got.ExplicitFilters["brand"] = "tampered"
	again, _ := s.Get(ctx, "s1")
	if again.ExplicitFilters["brand"] != "dell" {
		t.Error("mutating a returned session leaked into the store")
	}
	sess.ExplicitFilters["brand"] = "also tampered"
	again, _ = s.Get(ctx, "s1")
	if again.ExplicitFilters["brand"] != "dell" {
		t.Error("mutating the original after Put leaked into the store")
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := New(0)
	defer s.Close()

	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := New(0)
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, domain.NewSession("s1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "s1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	// Deleting a missing id is not an error.
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Errorf("Delete() of missing id error = %v", err)
	}
}

func TestStore_TTLEviction(t *testing.T) {
	s := New(20 * time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, domain.NewSession("s1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if _, err := s.Get(ctx, "s1"); errors.Is(err, storage.ErrNotFound) {
			return
		}
		select {
		case <-deadline:
			t.Fatal("session was never evicted past its TTL")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	s := New(time.Minute)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
