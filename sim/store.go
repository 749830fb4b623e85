package sim

import "github.com/wippyai/capspace/abi"

// ObjectID names a kernel object in the store. ID 0 is reserved and
// always invalid.
type ObjectID uint32

// store is a handle table of kernel objects with free-list reuse.
// The kernel lock guards it.
type store struct {
	entries  []storeEntry
	freeList []ObjectID
}

type storeEntry struct {
	value any
	typ   abi.ObjectType
	refs  int
	valid bool
}

func newStore() *store {
	return &store{
		entries:  make([]storeEntry, 0, 64),
		freeList: make([]ObjectID, 0, 16),
	}
}

func (s *store) create(typ abi.ObjectType, value any) ObjectID {
	e := storeEntry{
		typ:   typ,
		value: value,
		valid: true,
	}

	if len(s.freeList) > 0 {
		id := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		s.entries[id-1] = e
		return id
	}

	s.entries = append(s.entries, e)
	return ObjectID(len(s.entries))
}

func (s *store) entry(id ObjectID) *storeEntry {
	if id == 0 || int(id) > len(s.entries) {
		return nil
	}
	e := &s.entries[id-1]
	if !e.valid {
		return nil
	}
	return e
}

func (s *store) get(id ObjectID) (any, bool) {
	e := s.entry(id)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

func (s *store) getTyped(id ObjectID, typ abi.ObjectType) (any, bool) {
	e := s.entry(id)
	if e == nil || e.typ != typ {
		return nil, false
	}
	return e.value, true
}

// retain records one more capability naming id.
func (s *store) retain(id ObjectID) {
	if e := s.entry(id); e != nil {
		e.refs++
	}
}

// release drops one reference and reports whether it was the last.
func (s *store) release(id ObjectID) bool {
	e := s.entry(id)
	if e == nil {
		return false
	}
	e.refs--
	return e.refs <= 0
}

func (s *store) drop(id ObjectID) (any, bool) {
	e := s.entry(id)
	if e == nil {
		return nil, false
	}

	value := e.value
	e.valid = false
	e.value = nil
	e.refs = 0
	s.freeList = append(s.freeList, id)

	return value, true
}

func (s *store) len() int {
	n := 0
	for i := range s.entries {
		if s.entries[i].valid {
			n++
		}
	}
	return n
}

func (s *store) each(fn func(ObjectID, abi.ObjectType, any) bool) {
	for i := range s.entries {
		e := &s.entries[i]
		if e.valid {
			if !fn(ObjectID(i+1), e.typ, e.value) {
				return
			}
		}
	}
}
