package graph

import "testing"

func TestSequence(t *testing.T) {
	s := NewSequence("s", []string{"a", "b", "c", "a"})

	if s.Key() != "s" || s.Len() != 4 {
		t.Fatalf("unexpected sequence %q with %d keys", s.Key(), s.Len())
	}
	if i, ok := s.Index("a"); !ok || i != 0 {
		t.Errorf("Index(a) = %d, %v; want 0, true", i, ok)
	}
	if k, ok := s.FindNextKey("b"); !ok || k != "c" {
		t.Errorf("FindNextKey(b) = %q, %v", k, ok)
	}
	if k, ok := s.FindPrevKey("b"); !ok || k != "a" {
		t.Errorf("FindPrevKey(b) = %q, %v", k, ok)
	}
	if _, ok := s.FindPrevKey("a"); ok {
		t.Error("first key should have no previous key")
	}
	if _, ok := s.FindNextKey("missing"); ok {
		t.Error("missing key should have no next key")
	}

	keys := s.Keys()
	keys[0] = "z"
	if s.Keys()[0] != "a" {
		t.Error("Keys should return a copy")
	}
}
