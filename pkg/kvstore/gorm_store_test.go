package kvstore

import (
	"context"
	"testing"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestGormStoreRoundTrip(t *testing.T) {
	s, err := NewInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	var got sample
	ok, err := s.Get(ctx, "missing", &got)
	if err != nil || ok {
		t.Fatalf("Get(missing) = %v, %v; want false, nil", ok, err)
	}

	if err := s.Put(ctx, "k", sample{Name: "a", Count: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "k", sample{Name: "b", Count: 2}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	ok, err = s.Get(ctx, "k", &got)
	if err != nil || !ok {
		t.Fatalf("Get(k) = %v, %v", ok, err)
	}
	if got.Name != "b" || got.Count != 2 {
		t.Errorf("got %+v, want {b 2}", got)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, _ = s.Get(ctx, "k", &got)
	if ok {
		t.Error("key still present after delete")
	}
}

func TestGormStoreSlices(t *testing.T) {
	s, err := NewInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	in := []sample{{Name: "x"}, {Name: "y"}}
	if err := s.Put(ctx, "list", in); err != nil {
		t.Fatalf("put: %v", err)
	}
	var out []sample
	if _, err := s.Get(ctx, "list", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out) != 2 || out[1].Name != "y" {
		t.Errorf("got %+v", out)
	}
}

func TestGormStorePing(t *testing.T) {
	s, err := NewInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}
