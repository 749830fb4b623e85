package sim

import (
	"testing"

	"github.com/wippyai/capspace/abi"
)

func TestStore_Basic(t *testing.T) {
	s := newStore()

	id := s.create(abi.EndpointObject, "ep")
	if id == 0 {
		t.Fatal("Expected non-zero id")
	}

	val, ok := s.get(id)
	if !ok || val != "ep" {
		t.Fatalf("get = %v, %v", val, ok)
	}
	if _, ok := s.getTyped(id, abi.EndpointObject); !ok {
		t.Fatal("getTyped with correct type failed")
	}
	if _, ok := s.getTyped(id, abi.TCBObject); ok {
		t.Fatal("getTyped with wrong type should fail")
	}

	val, ok = s.drop(id)
	if !ok || val != "ep" {
		t.Fatalf("drop = %v, %v", val, ok)
	}
	if _, ok := s.get(id); ok {
		t.Fatal("Expected get to fail after drop")
	}
	if s.len() != 0 {
		t.Fatalf("len = %d, want 0", s.len())
	}
}

func TestStore_FreeListReuse(t *testing.T) {
	s := newStore()
	a := s.create(abi.TCBObject, 1)
	b := s.create(abi.TCBObject, 2)
	s.drop(a)

	c := s.create(abi.TCBObject, 3)
	if c != a {
		t.Errorf("reused id = %d, want %d", c, a)
	}
	if v, _ := s.get(b); v != 2 {
		t.Errorf("get(b) = %v", v)
	}
}

func TestStore_Refs(t *testing.T) {
	s := newStore()
	id := s.create(abi.EndpointObject, nil)
	s.retain(id)
	s.retain(id)

	if s.release(id) {
		t.Fatal("first release should not be last")
	}
	if !s.release(id) {
		t.Fatal("second release should be last")
	}
}

func TestStore_InvalidIDs(t *testing.T) {
	s := newStore()
	for _, id := range []ObjectID{0, 1, 100} {
		if _, ok := s.get(id); ok {
			t.Errorf("get(%d) should fail", id)
		}
		if _, ok := s.drop(id); ok {
			t.Errorf("drop(%d) should fail", id)
		}
	}
}

func TestStore_Each(t *testing.T) {
	s := newStore()
	s.create(abi.TCBObject, 1)
	dropped := s.create(abi.TCBObject, 2)
	s.create(abi.EndpointObject, 3)
	s.drop(dropped)

	var seen []any
	s.each(func(_ ObjectID, _ abi.ObjectType, v any) bool {
		seen = append(seen, v)
		return true
	})
	if len(seen) != 2 {
		t.Errorf("each visited %v", seen)
	}

	n := 0
	s.each(func(ObjectID, abi.ObjectType, any) bool {
		n++
		return false
	})
	if n != 1 {
		t.Errorf("each after stop visited %d", n)
	}
}
