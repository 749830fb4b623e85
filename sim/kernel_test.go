package sim_test

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/cspace"
	"github.com/wippyai/capspace/endpoint"
	"github.com/wippyai/capspace/errors"
	"github.com/wippyai/capspace/ipc"
	"github.com/wippyai/capspace/object"
	"github.com/wippyai/capspace/sim"
)

type fixture struct {
	k    *sim.Kernel
	s    *ipc.Session
	root cspace.CNode
}

func boot(t *testing.T, untyped ...sim.UntypedConfig) fixture {
	t.Helper()
	cfg := sim.DefaultConfig()
	if len(untyped) > 0 {
		cfg.Untyped = untyped
	}
	k, err := sim.Boot(cfg)
	if err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	t.Cleanup(func() { _ = k.Close() })
	return fixture{k: k, s: ipc.NewSession(k.RootThread()), root: cspace.CNode{CPtr: sim.SlotRootCNode}}
}

// slot names a root slot for CNode operations.
func (f fixture) slot(i int) cspace.SlotRef {
	return f.root.Slot(abi.Word(i), abi.WordBits)
}

// window is a run of root slots as a retype destination.
func (f fixture) window(first, n int) cspace.Window {
	return cspace.Window{Table: f.root.Slot(0, 0), FirstSlot: first, NumSlots: n}
}

func (f fixture) untyped(i int) object.Cap[object.Untyped] {
	return object.Cap[object.Untyped]{CPtr: abi.CPtr(sim.SlotFirstUntyped + i)}
}

func (f fixture) occupied(t *testing.T) map[int]sim.SlotInfo {
	t.Helper()
	out := map[int]sim.SlotInfo{}
	for _, s := range f.k.RootSlots() {
		out[s.Index] = s
	}
	return out
}

func details(t *testing.T, err error) errors.Details {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	d, ok := errors.DetailsOf(err)
	if !ok {
		t.Fatalf("error %v carries no details", err)
	}
	return d
}

func TestBoot_WellKnownSlots(t *testing.T) {
	f := boot(t, sim.UntypedConfig{SizeBits: 20, Count: 2}, sim.UntypedConfig{SizeBits: 12, Count: 1})

	slots := f.occupied(t)
	if len(slots) != 5 {
		t.Fatalf("occupied slots = %d, want 5", len(slots))
	}
	if _, ok := slots[sim.SlotNull]; ok {
		t.Error("null slot should be empty")
	}
	if slots[sim.SlotRootTCB].Type != abi.TCBObject {
		t.Errorf("slot 1 = %+v", slots[sim.SlotRootTCB])
	}
	if s := slots[sim.SlotRootCNode]; s.Type != abi.CapTableObject || s.GuardSize != 52 {
		t.Errorf("slot 2 = %+v", s)
	}
	for i, bits := range []abi.Word{20, 20, 12} {
		s := slots[sim.SlotFirstUntyped+i]
		if s.Type != abi.UntypedObject || s.SizeBits != bits || s.FreeBytes != 1<<bits {
			t.Errorf("untyped %d = %+v", i, s)
		}
		if s.Addr&(1<<bits-1) != 0 {
			t.Errorf("untyped %d not aligned: %#x", i, s.Addr)
		}
	}
	if f.k.ID().String() == "" {
		t.Error("kernel has no id")
	}
}

func TestBoot_InvalidConfig(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Root.RadixBits = 2
	_, err := sim.Boot(cfg)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput}) {
		t.Errorf("Boot = %v", err)
	}
}

func TestRetype_Batched(t *testing.T) {
	f := boot(t)

	n, err := object.Create[object.Endpoint](f.s, f.untyped(0), 0, f.window(100, 600))
	if err != nil {
		t.Fatal(err)
	}
	if n != 600 {
		t.Fatalf("created = %d", n)
	}

	slots := f.occupied(t)
	for i := 100; i < 700; i++ {
		s, ok := slots[i]
		if !ok || s.Type != abi.EndpointObject || !s.Derived {
			t.Fatalf("slot %d = %+v, %v", i, s, ok)
		}
	}
	if _, ok := slots[700]; ok {
		t.Error("slot 700 should be empty")
	}
	want := abi.Word(1<<24 - 600*16)
	if got := slots[sim.SlotFirstUntyped].FreeBytes; got != want {
		t.Errorf("free bytes = %d, want %d", got, want)
	}
}

func TestRetype_PartialFailure(t *testing.T) {
	// 8 KiB holds exactly 256 notifications.
	f := boot(t, sim.UntypedConfig{SizeBits: 13, Count: 1})

	n, err := object.Create[object.Notification](f.s, f.untyped(0), 0, f.window(100, 300))
	if n != 256 {
		t.Errorf("created = %d, want 256", n)
	}
	if d := details(t, err); d != (errors.NotEnoughMemory{BytesAvailable: 0}) {
		t.Errorf("details = %#v", d)
	}

	slots := f.occupied(t)
	for i := 100; i < 400; i++ {
		_, ok := slots[i]
		if ok != (i < 356) {
			t.Fatalf("slot %d occupied = %v", i, ok)
		}
	}
}

func TestRetype_Validation(t *testing.T) {
	f := boot(t, sim.UntypedConfig{SizeBits: 16, Count: 1})
	u := abi.CPtr(sim.SlotFirstUntyped)

	retype := func(args ...abi.Word) error {
		_, err := f.s.Invoke(u, abi.UntypedRetype, args, []abi.CPtr{sim.SlotRootCNode})
		return err
	}

	tests := []struct {
		name string
		args []abi.Word
		want errors.Details
	}{
		{"bad type", []abi.Word{abi.NumObjectTypes, 0, 0, 0, 100, 1}, errors.InvalidArgument{Which: 0}},
		{"untyped too small", []abi.Word{abi.UntypedObject, 3, 0, 0, 100, 1}, errors.RangeError{Min: 4, Max: 47}},
		{"cnode size zero", []abi.Word{abi.CapTableObject, 0, 0, 0, 100, 1}, errors.RangeError{Min: 1, Max: 42}},
		{"offset past end", []abi.Word{abi.EndpointObject, 0, 0, 0, 4096, 1}, errors.RangeError{Min: 0, Max: 4095}},
		{"count zero", []abi.Word{abi.EndpointObject, 0, 0, 0, 100, 0}, errors.RangeError{Min: 1, Max: 256}},
		{"count over fan out", []abi.Word{abi.EndpointObject, 0, 0, 0, 100, 257}, errors.RangeError{Min: 1, Max: 256}},
		{"count past end", []abi.Word{abi.EndpointObject, 0, 0, 0, 4000, 100}, errors.RangeError{Min: 1, Max: 96}},
		{"slot occupied", []abi.Word{abi.EndpointObject, 0, 0, 0, sim.SlotRootCNode, 1}, errors.DeleteFirst{}},
		{"out of memory", []abi.Word{abi.X86PageObject, 0, 0, 0, 100, 17}, errors.NotEnoughMemory{BytesAvailable: 1 << 16}},
		{"truncated", []abi.Word{abi.EndpointObject, 0, 0, 0}, errors.TruncatedMessage{}},
		{
			"destination not a cnode", []abi.Word{abi.EndpointObject, 0, sim.SlotRootTCB, 64, 0, 1},
			errors.FailedLookup{Lookup: errors.MissingCapability{BitsRemaining: 64}},
		},
		{
			"destination depth mismatch", []abi.Word{abi.EndpointObject, 0, sim.SlotRootCNode, 60, 0, 1},
			errors.FailedLookup{Lookup: errors.DepthMismatch{BitsRemaining: 60, BitsResolved: 64}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := details(t, retype(tt.args...)); d != tt.want {
				t.Errorf("details = %#v, want %#v", d, tt.want)
			}
		})
	}

	if len(f.occupied(t)) != 3 {
		t.Error("failed retypes must not create objects")
	}
}

func TestRetype_IntoChildCNode(t *testing.T) {
	f := boot(t)

	if _, err := object.Create[object.CNode](f.s, f.untyped(0), 3, f.window(202, 1)); err != nil {
		t.Fatal(err)
	}

	// the child sits in root slot 202, resolved with a depth of 64 bits
	dest := cspace.Window{Table: f.root.Slot(202, 64), FirstSlot: 2, NumSlots: 4}
	n, err := object.Create[object.Endpoint](f.s, f.untyped(0), 0, dest)
	if err != nil || n != 4 {
		t.Fatalf("Create = %d, %v", n, err)
	}

	slots, err := f.k.Slots(202)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 4 || slots[0].Index != 2 || slots[3].Index != 5 {
		t.Errorf("child slots = %+v", slots)
	}

	// an 8-slot table has room for 2 more objects after slot 6
	_, err = object.Create[object.Endpoint](f.s, f.untyped(0), 0, cspace.Window{Table: dest.Table, FirstSlot: 6, NumSlots: 3})
	if d := details(t, err); d != (errors.RangeError{Min: 1, Max: 2}) {
		t.Errorf("details = %#v", d)
	}

	if _, err := f.k.Slots(sim.SlotRootTCB); err == nil {
		t.Error("Slots on a non-CNode should fail")
	}
}

func TestRetype_WatermarkResets(t *testing.T) {
	f := boot(t, sim.UntypedConfig{SizeBits: 12, Count: 1})

	if _, err := object.Create[object.Page](f.s, f.untyped(0), 0, f.window(100, 1)); err != nil {
		t.Fatal(err)
	}
	_, err := object.Create[object.Page](f.s, f.untyped(0), 0, f.window(101, 1))
	if d := details(t, err); d != (errors.NotEnoughMemory{BytesAvailable: 0}) {
		t.Fatalf("details = %#v", d)
	}

	if err := f.slot(sim.SlotFirstUntyped).Revoke(f.s); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.occupied(t)[100]; ok {
		t.Fatal("revoke left the page cap")
	}
	if _, err := object.Create[object.Page](f.s, f.untyped(0), 0, f.window(101, 1)); err != nil {
		t.Fatalf("retype after revoke: %v", err)
	}
}

func TestInvoke_InvalidCapability(t *testing.T) {
	f := boot(t)
	_, err := f.s.Invoke(999, abi.CNodeCopy, nil, nil)
	if d := details(t, err); d != (errors.InvalidCapability{Which: 0}) {
		t.Errorf("details = %#v", d)
	}

	_, err = f.s.Invoke(sim.SlotRootTCB, abi.CNodeCopy, nil, nil)
	if d := details(t, err); d != (errors.IllegalOperation{}) {
		t.Errorf("details = %#v", d)
	}
}

func TestObservers(t *testing.T) {
	f := boot(t)
	var events []sim.Event
	obs := sim.ObserverFunc(func(e sim.Event) { events = append(events, e) })
	unsubscribe := f.k.Subscribe(obs)

	if _, err := object.Create[object.TCB](f.s, f.untyped(0), 0, f.window(100, 2)); err != nil {
		t.Fatal(err)
	}
	if err := f.slot(100).Delete(f.s); err != nil {
		t.Fatal(err)
	}

	kinds := make([]sim.EventType, len(events))
	for i, e := range events {
		kinds[i] = e.Event
	}
	want := []sim.EventType{sim.EventCreated, sim.EventCreated, sim.EventRetyped, sim.EventDeleted}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}
	if events[2].Count != 2 || events[3].Type != abi.TCBObject {
		t.Errorf("events = %+v", events)
	}

	unsubscribe()
	_ = f.slot(101).Delete(f.s)
	if len(events) != 4 {
		t.Error("unsubscribed observer still notified")
	}
}

func TestEndpoint_Rendezvous(t *testing.T) {
	f := boot(t)
	if _, err := object.Create[object.Endpoint](f.s, f.untyped(0), 0, f.window(100, 1)); err != nil {
		t.Fatal(err)
	}
	// badged send cap at 101
	if err := f.slot(100).Mint(f.s, f.slot(101), abi.AllRights, cspace.NewBadge(0xBEEF)); err != nil {
		t.Fatal(err)
	}

	peer := ipc.NewSession(f.k.Spawn("peer"))
	cspace.SetCapDestination(peer, f.slot(300))

	got := make(chan endpoint.RecvToken, 1)
	errc := make(chan error, 1)
	go func() {
		tok, err := endpoint.Endpoint{CPtr: 100}.Recv(peer)
		errc <- err
		got <- tok
	}()

	ep := endpoint.Endpoint{CPtr: 101}
	if err := ep.Send(f.s, 7, []abi.Word{1, 2, 3}, []abi.CPtr{sim.SlotRootTCB}); err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	tok := <-got

	if tok.Badge.Value() != 0xBEEF || tok.Label != 7 {
		t.Errorf("token = %+v", tok)
	}
	if len(tok.Data) != 3 || tok.Data[2] != 3 {
		t.Errorf("data = %v", tok.Data)
	}
	if len(tok.Caps) != 1 {
		t.Errorf("caps = %v", tok.Caps)
	}
	if s, ok := f.occupied(t)[300]; !ok || s.Type != abi.TCBObject || !s.Derived {
		t.Errorf("transferred cap = %+v, %v", s, ok)
	}
}

func TestEndpoint_Unwrap(t *testing.T) {
	f := boot(t)
	if _, err := object.Create[object.Endpoint](f.s, f.untyped(0), 0, f.window(100, 1)); err != nil {
		t.Fatal(err)
	}
	if err := f.slot(100).Mint(f.s, f.slot(101), abi.AllRights, cspace.NewBadge(5)); err != nil {
		t.Fatal(err)
	}

	peer := ipc.NewSession(f.k.Spawn("peer"))
	done := make(chan endpoint.RecvToken, 1)
	go func() {
		tok, _ := endpoint.Endpoint{CPtr: 100}.Recv(peer)
		done <- tok
	}()

	if err := (endpoint.Endpoint{CPtr: 100}).SendCap(f.s, 0, 101); err != nil {
		t.Fatal(err)
	}
	tok := <-done
	if tok.CapsUnwrapped != 1 || len(tok.Caps) != 1 || tok.Caps[0] != 5 {
		t.Errorf("token = %+v", tok)
	}
}

func TestEndpoint_NonBlocking(t *testing.T) {
	f := boot(t)
	if _, err := object.Create[object.Endpoint](f.s, f.untyped(0), 0, f.window(100, 1)); err != nil {
		t.Fatal(err)
	}
	ep := endpoint.Endpoint{CPtr: 100}

	tok, err := ep.TryRecv(f.s)
	if err != nil {
		t.Fatal(err)
	}
	if tok.Badge.Value() != 0 || len(tok.Data) != 0 {
		t.Errorf("token = %+v", tok)
	}

	// no receiver: dropped
	if err := ep.TrySend(f.s, 1, []abi.Word{9}, nil); err != nil {
		t.Fatal(err)
	}
	if tok, _ := ep.TryRecv(f.s); len(tok.Data) != 0 {
		t.Errorf("dropped message delivered: %+v", tok)
	}

	// a blocked sender is picked up by TryRecv
	peer := ipc.NewSession(f.k.Spawn("peer"))
	sent := make(chan error, 1)
	go func() { sent <- ep.SendData(peer, 4, []abi.Word{42}) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		tok, err := ep.TryRecv(f.s)
		if err != nil {
			t.Fatal(err)
		}
		if len(tok.Data) == 1 {
			if tok.Data[0] != 42 || tok.Label != 4 {
				t.Errorf("token = %+v", tok)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sender never arrived")
		}
		time.Sleep(time.Millisecond)
	}
	if err := <-sent; err != nil {
		t.Fatal(err)
	}
}

func TestEndpoint_Faults(t *testing.T) {
	f := boot(t)
	err := endpoint.Endpoint{CPtr: sim.SlotRootTCB}.SendData(f.s, 0, nil)
	if d := details(t, err); d != (errors.InvalidCapability{Which: 0}) {
		t.Errorf("details = %#v", d)
	}

	// a receive-only cap cannot send
	if _, err := object.Create[object.Endpoint](f.s, f.untyped(0), 0, f.window(100, 1)); err != nil {
		t.Fatal(err)
	}
	if err := f.slot(100).Copy(f.s, f.slot(101), abi.RightRead); err != nil {
		t.Fatal(err)
	}
	if err := (endpoint.Endpoint{CPtr: 101}).TrySend(f.s, 0, nil, nil); err == nil {
		t.Error("send through read-only cap succeeded")
	}
}

func TestClose_WakesReceivers(t *testing.T) {
	f := boot(t)
	if _, err := object.Create[object.Endpoint](f.s, f.untyped(0), 0, f.window(100, 1)); err != nil {
		t.Fatal(err)
	}
	peer := ipc.NewSession(f.k.Spawn("peer"))

	errc := make(chan error, 1)
	go func() {
		_, err := endpoint.Endpoint{CPtr: 100}.Recv(peer)
		errc <- err
	}()

	// wait until the receiver is queued
	time.Sleep(20 * time.Millisecond)
	if err := f.k.Close(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errc:
		if !stderrors.Is(err, &errors.Error{Kind: errors.KindClosed}) {
			t.Errorf("err = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("receiver not woken")
	}
}
