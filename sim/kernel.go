package sim

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/addr"
	"github.com/wippyai/capspace/errors"
	"go.uber.org/zap"
)

// Well-known slots of the root CNode after Boot.
const (
	SlotNull         = 0
	SlotRootTCB      = 1
	SlotRootCNode    = 2
	SlotFirstUntyped = 16
)

// Kernel is an in-process capability kernel. All state is guarded by a
// single lock; blocking IPC waits outside it.
type Kernel struct {
	store     *store
	caps      map[uint64]slotLoc
	observers []subscription
	nextSub   uint64
	threads   []*Thread
	root      *cnodeObj
	rootCap   capability
	log       *zap.Logger
	cfg       Config
	nextCap   uint64
	id        uuid.UUID
	mu        sync.Mutex
	closed    bool
}

// Boot builds a kernel from cfg with one root thread.
func Boot(cfg Config) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	k := &Kernel{
		id:    uuid.New(),
		cfg:   cfg,
		store: newStore(),
		caps:  make(map[uint64]slotLoc),
	}
	k.log = Logger().With(zap.String("kernel", k.id.String()))

	k.root = newCNode(kobject{sizeBits: abi.Word(cfg.Root.RadixBits) + abi.SlotBits}, cfg.Root.RadixBits)
	rootID := k.store.create(abi.CapTableObject, k.root)
	k.rootCap = capability{
		obj:       rootID,
		typ:       abi.CapTableObject,
		rights:    abi.AllRights,
		guardSize: cfg.Root.GuardBits,
	}
	self := k.rootCap
	k.insertCap(slotLoc{k.root, SlotRootCNode}, &self)

	tcbID := k.store.create(abi.TCBObject, &kobject{sizeBits: abi.TCBBits})
	k.insertCap(slotLoc{k.root, SlotRootTCB}, &capability{obj: tcbID, typ: abi.TCBObject, rights: abi.AllRights})

	slot := SlotFirstUntyped
	var next abi.Word
	for _, u := range cfg.Untyped {
		for j := 0; j < u.Count; j++ {
			sb := abi.Word(u.SizeBits)
			next = alignUp(next, sb)
			obj := &untypedObj{kobject: kobject{addr: next, sizeBits: sb}}
			id := k.store.create(abi.UntypedObject, obj)
			k.insertCap(slotLoc{k.root, slot}, &capability{obj: id, typ: abi.UntypedObject, rights: abi.AllRights})
			next += obj.size()
			slot++
		}
	}

	k.spawn("root", tcbID)

	k.log.Info("kernel booted",
		zap.Uint8("radix_bits", cfg.Root.RadixBits),
		zap.Uint8("guard_bits", cfg.Root.GuardBits),
		zap.Int("untyped", slot-SlotFirstUntyped))
	return k, nil
}

// ID identifies this kernel instance in logs.
func (k *Kernel) ID() uuid.UUID { return k.id }

// Config returns the configuration the kernel booted with.
func (k *Kernel) Config() Config { return k.cfg }

// RootShape addresses the slots of the root CNode.
func (k *Kernel) RootShape() addr.TableShape {
	return addr.TableShape{RadixBits: k.cfg.Root.RadixBits, GuardBits: k.cfg.Root.GuardBits}
}

// RootThread returns the thread created at boot.
func (k *Kernel) RootThread() *Thread {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.threads[0]
}

// Spawn starts a new thread whose cspace root is the root CNode.
func (k *Kernel) Spawn(name string) *Thread {
	k.mu.Lock()
	defer k.mu.Unlock()

	tcbID := k.store.create(abi.TCBObject, &kobject{sizeBits: abi.TCBBits})
	k.store.retain(tcbID)
	return k.spawn(name, tcbID)
}

func (k *Kernel) spawn(name string, tcb ObjectID) *Thread {
	root := k.rootCap
	k.store.retain(root.obj)
	t := &Thread{k: k, name: name, tcb: tcb, root: &root}
	k.threads = append(k.threads, t)
	k.log.Debug("thread spawned", zap.String("name", name), zap.Uint32("tcb", uint32(tcb)))
	return t
}

type subscription struct {
	id uint64
	o  Observer
}

// Subscribe adds an observer for object lifecycle events and returns a
// function that removes it.
func (k *Kernel) Subscribe(o Observer) (unsubscribe func()) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.nextSub++
	id := k.nextSub
	k.observers = append(k.observers, subscription{id: id, o: o})

	return func() {
		k.mu.Lock()
		defer k.mu.Unlock()
		for i, sub := range k.observers {
			if sub.id == id {
				k.observers = append(k.observers[:i], k.observers[i+1:]...)
				return
			}
		}
	}
}

// Objects returns the number of live kernel objects.
func (k *Kernel) Objects() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.store.len()
}

// Close fails every blocked send and receive and stops accepting new ones.
func (k *Kernel) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true

	var wake []func()
	k.store.each(func(_ ObjectID, _ abi.ObjectType, v any) bool {
		if ep, ok := v.(*endpointObj); ok {
			wake = append(wake, k.cancelIPC(ep, errors.Closed(errors.PhaseInvoke, "kernel"))...)
		}
		return true
	})
	k.mu.Unlock()

	for _, w := range wake {
		w()
	}
	k.log.Info("kernel closed")
	return nil
}

func (k *Kernel) notify(e Event) {
	for _, sub := range k.observers {
		sub.o.OnKernelEvent(e)
	}
}

// newCap assigns a fresh derivation-tree identity to c.
func (k *Kernel) newCap(c capability) *capability {
	k.nextCap++
	c.id = k.nextCap
	return &c
}

func (k *Kernel) insertCap(loc slotLoc, c *capability) {
	if c.id == 0 {
		k.nextCap++
		c.id = k.nextCap
	}
	loc.node.slots[loc.index] = c
	k.caps[c.id] = loc
	k.store.retain(c.obj)
}

func (k *Kernel) moveCap(from, to slotLoc) {
	c := from.cap()
	from.node.slots[from.index] = nil
	to.node.slots[to.index] = c
	k.caps[c.id] = to
}

// removeCap empties loc. Children of the removed cap are adopted by its
// parent. Removing the last cap to an object destroys the object.
func (k *Kernel) removeCap(loc slotLoc) {
	c := loc.cap()
	if c == nil {
		return
	}
	loc.node.slots[loc.index] = nil
	delete(k.caps, c.id)

	for _, l := range k.caps {
		if child := l.cap(); child != nil && child.parent == c.id {
			child.parent = c.parent
		}
	}

	if k.store.release(c.obj) {
		k.destroy(c.obj)
	}
}

func (k *Kernel) destroy(id ObjectID) {
	e := k.store.entry(id)
	if e == nil {
		return
	}
	typ := e.typ
	v, _ := k.store.drop(id)

	var wake []func()
	switch o := v.(type) {
	case *cnodeObj:
		for i := range o.slots {
			k.removeCap(slotLoc{o, i})
		}
	case *endpointObj:
		wake = k.cancelIPC(o, errors.Closed(errors.PhaseInvoke, "endpoint"))
	}
	for _, w := range wake {
		// buffered channels, never blocks
		w()
	}

	ob, _ := v.(objectBase)
	ev := Event{Object: id, Type: typ, Event: EventDeleted}
	if ob != nil {
		ev.Addr, ev.SizeBits = ob.base().addr, ob.base().sizeBits
	}
	k.notify(ev)
	k.log.Debug("object deleted", zap.Uint32("object", uint32(id)), zap.Uint64("type", typ))
}

func (k *Kernel) hasChildren(capID uint64) bool {
	for _, l := range k.caps {
		if c := l.cap(); c != nil && c.parent == capID {
			return true
		}
	}
	return false
}

func (k *Kernel) isDescendant(c *capability, ancestor uint64) bool {
	for p := c.parent; p != 0; {
		if p == ancestor {
			return true
		}
		l, ok := k.caps[p]
		if !ok {
			return false
		}
		p = l.cap().parent
	}
	return false
}

// revoke removes every capability derived from the one at loc.
func (k *Kernel) revoke(loc slotLoc) {
	c := loc.cap()
	if c == nil {
		return
	}
	var victims []uint64
	for id, l := range k.caps {
		if d := l.cap(); d != nil && k.isDescendant(d, c.id) {
			victims = append(victims, id)
		}
	}
	for _, id := range victims {
		if l, ok := k.caps[id]; ok {
			k.removeCap(l)
		}
	}
	k.log.Debug("capability revoked", zap.Uint64("cap", c.id), zap.Int("removed", len(victims)))
}

// SlotInfo describes one occupied slot.
type SlotInfo struct {
	Index     int
	Object    ObjectID
	Type      abi.ObjectType
	Rights    abi.CapRights
	Badge     abi.Word
	Guard     abi.Word
	GuardSize uint8
	Addr      abi.Word
	SizeBits  abi.Word
	FreeBytes abi.Word
	Derived   bool
}

// RootSlots lists the occupied slots of the root CNode.
func (k *Kernel) RootSlots() []SlotInfo {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.slotsOf(k.root)
}

// Slots lists the occupied slots of the CNode that cptr names in the root
// thread's cspace.
func (k *Kernel) Slots(cptr abi.CPtr) ([]SlotInfo, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	c, _, ok := k.lookupCap(&k.rootCap, cptr)
	if !ok || c.typ != abi.CapTableObject {
		return nil, errors.NotFound(errors.PhaseInvoke, "cnode", fmt.Sprint(cptr))
	}
	v, _ := k.store.get(c.obj)
	return k.slotsOf(v.(*cnodeObj)), nil
}

func (k *Kernel) slotsOf(n *cnodeObj) []SlotInfo {
	var out []SlotInfo
	for i, c := range n.slots {
		if c == nil {
			continue
		}
		info := SlotInfo{
			Index:     i,
			Object:    c.obj,
			Type:      c.typ,
			Rights:    c.rights,
			Badge:     c.badge,
			Guard:     c.guard,
			GuardSize: c.guardSize,
			Derived:   c.parent != 0,
		}
		if v, ok := k.store.get(c.obj); ok {
			if ob, ok := v.(objectBase); ok {
				info.Addr, info.SizeBits = ob.base().addr, ob.base().sizeBits
			}
			if u, ok := v.(*untypedObj); ok {
				info.FreeBytes = u.freeBytes()
			}
		}
		out = append(out, info)
	}
	return out
}
