package store

import "testing"

func TestSetGetImmutable(t *testing.T) {
	s0 := New()
	s1 := s0.Set("k", "v1")
	s2 := s1.Set("k", "v2")

	if _, ok := s0.Get("k"); ok {
		t.Fatalf("expected empty store to have no keys")
	}
	if v, ok := s1.Get("k"); !ok || v != "v1" {
		t.Fatalf("expected s1[k]=v1, got %q %v", v, ok)
	}
	if v, ok := s2.Get("k"); !ok || v != "v2" {
		t.Fatalf("expected s2[k]=v2, got %q %v", v, ok)
	}
	// s1 is untouched by the s2 update (copy-on-write).
	if v, _ := s1.Get("k"); v != "v1" {
		t.Fatalf("expected s1 unaffected by later Set, got %q", v)
	}
}

func TestLen(t *testing.T) {
	s := New().Set("a", "1").Set("b", "2")
	if s.Len() != 2 {
		t.Fatalf("expected len 2, got %d", s.Len())
	}
}
