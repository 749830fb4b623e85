package sim

import (
	"runtime"

	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
	"github.com/wippyai/capspace/ipc"
	"go.uber.org/zap"
)

// Thread is one execution context. It implements ipc.Conn and, like its
// buffer, must be driven by one goroutine at a time.
type Thread struct {
	k    *Kernel
	root *capability
	name string
	buf  ipc.Buffer
	tcb  ObjectID
}

var _ ipc.Conn = (*Thread)(nil)

// Name returns the name the thread was spawned with.
func (t *Thread) Name() string { return t.name }

// Kernel returns the kernel the thread runs on.
func (t *Thread) Kernel() *Kernel { return t.k }

func (t *Thread) Buffer() *ipc.Buffer { return &t.buf }

// Call invokes the object dest names. Failures are written to the buffer
// and reported through the returned label.
func (t *Thread) Call(dest abi.CPtr, info abi.MessageInfo) abi.MessageInfo {
	k := t.k
	k.mu.Lock()
	defer k.mu.Unlock()

	d := k.invoke(t, dest, info)
	if d != nil {
		k.log.Debug("invocation failed",
			zap.String("thread", t.name),
			zap.String("op", abi.InvocationName(info.Label())),
			zap.Uint64("dest", dest),
			zap.Stringer("error", d))
	}
	ipc.EncodeError(&t.buf, d)
	return t.buf.Tag
}

func (t *Thread) Send(dest abi.CPtr, info abi.MessageInfo) error {
	return t.send("endpoint.send", dest, info, true)
}

func (t *Thread) NBSend(dest abi.CPtr, info abi.MessageInfo) error {
	return t.send("endpoint.nb_send", dest, info, false)
}

func (t *Thread) Recv(src abi.CPtr) (abi.MessageInfo, abi.Word, error) {
	return t.recv("endpoint.recv", src, true)
}

func (t *Thread) NBRecv(src abi.CPtr) (abi.MessageInfo, abi.Word, error) {
	return t.recv("endpoint.nb_recv", src, false)
}

func (t *Thread) Yield() { runtime.Gosched() }

// message is a send in flight.
type message struct {
	info  abi.MessageInfo
	badge abi.Word
	ep    ObjectID
	grant bool
	data  []abi.Word
	caps  []*capability
}

type sendRequest struct {
	done chan error
	msg  message
}

type recvRequest struct {
	t    *Thread
	done chan recvResult
}

type recvResult struct {
	err   error
	info  abi.MessageInfo
	badge abi.Word
}

func (k *Kernel) endpointFor(t *Thread, op string, cptr abi.CPtr, right abi.CapRights) (*capability, *endpointObj, error) {
	if k.closed {
		return nil, nil, errors.Closed(errors.PhaseInvoke, "kernel")
	}
	c, _, ok := k.lookupCap(t.root, cptr)
	if !ok || c.typ != abi.EndpointObject || !c.rights.Has(right) {
		return nil, nil, errors.FromDetails(errors.PhaseInvoke, op, errors.InvalidCapability{Which: 0})
	}
	v, _ := k.store.get(c.obj)
	return c, v.(*endpointObj), nil
}

func (t *Thread) send(op string, dest abi.CPtr, info abi.MessageInfo, block bool) error {
	k := t.k
	k.mu.Lock()

	c, ep, err := k.endpointFor(t, op, dest, abi.RightWrite)
	if err != nil {
		k.mu.Unlock()
		return err
	}

	n := min(int(info.Length()), abi.MsgMaxLength)
	msg := message{
		info:  info,
		badge: c.badge,
		ep:    c.obj,
		grant: c.rights.Has(abi.RightGrant),
		data:  append([]abi.Word(nil), t.buf.Msg[:n]...),
	}
	for i, n := 0, min(int(info.ExtraCaps()), abi.MsgMaxExtraCaps); i < n; i++ {
		xc, _, ok := k.lookupCap(t.root, t.buf.CapsOrBadges[i])
		if !ok {
			k.mu.Unlock()
			return errors.FromDetails(errors.PhaseInvoke, op, errors.InvalidCapability{Which: abi.Word(i + 1)})
		}
		msg.caps = append(msg.caps, xc)
	}

	if len(ep.receivers) > 0 {
		r := ep.receivers[0]
		ep.receivers = ep.receivers[1:]
		res := k.deliver(r.t, msg)
		k.mu.Unlock()
		r.done <- res
		return nil
	}
	if !block {
		k.mu.Unlock()
		k.log.Debug("message dropped", zap.String("thread", t.name), zap.Uint64("dest", dest))
		return nil
	}

	req := &sendRequest{msg: msg, done: make(chan error, 1)}
	ep.senders = append(ep.senders, req)
	k.mu.Unlock()
	return <-req.done
}

func (t *Thread) recv(op string, src abi.CPtr, block bool) (abi.MessageInfo, abi.Word, error) {
	k := t.k
	k.mu.Lock()

	_, ep, err := k.endpointFor(t, op, src, abi.RightRead)
	if err != nil {
		k.mu.Unlock()
		return 0, 0, err
	}

	if len(ep.senders) > 0 {
		s := ep.senders[0]
		ep.senders = ep.senders[1:]
		res := k.deliver(t, s.msg)
		k.mu.Unlock()
		s.done <- nil
		return res.info, res.badge, nil
	}
	if !block {
		k.mu.Unlock()
		t.buf.Tag = 0
		return 0, 0, nil
	}

	req := &recvRequest{t: t, done: make(chan recvResult, 1)}
	ep.receivers = append(ep.receivers, req)
	k.mu.Unlock()

	res := <-req.done
	return res.info, res.badge, res.err
}

// deliver copies msg into the receiver's buffer. Caps to the endpoint the
// message travels through are unwrapped to their badges; the first other
// cap is transferred into the receive slot if the sender may grant. The
// first cap that can be neither stops cap delivery.
func (k *Kernel) deliver(r *Thread, msg message) recvResult {
	copy(r.buf.Msg[:], msg.data)

	var extra, unwrapped abi.Word
	transferred := false
	for i, c := range msg.caps {
		if c.typ == abi.EndpointObject && c.obj == msg.ep {
			r.buf.CapsOrBadges[i] = c.badge
			unwrapped |= 1 << i
			extra++
			continue
		}
		if transferred || !msg.grant || !k.transfer(r, c) {
			break
		}
		transferred = true
		extra++
	}

	info := abi.NewMessageInfo(msg.info.Label(), unwrapped, extra, abi.Word(len(msg.data)))
	r.buf.Tag = info
	return recvResult{info: info, badge: msg.badge}
}

func (k *Kernel) transfer(r *Thread, c *capability) bool {
	if _, ok := k.caps[c.id]; !ok {
		return false
	}
	slot := r.buf.GetReceiveSlot()
	root, _, ok := k.lookupCap(r.root, slot.CNode)
	if !ok {
		return false
	}
	loc, d := k.lookupSlot(false, root, slot.Index, slot.Depth)
	if d != nil || loc.cap() != nil {
		return false
	}
	if c.typ == abi.UntypedObject && k.hasChildren(c.id) {
		return false
	}
	nc := *c
	nc.parent = c.id
	k.insertCap(loc, k.newCap(nc))
	return true
}

// cancelIPC removes every waiter on ep and returns the wake-ups to run
// once the lock may be released.
func (k *Kernel) cancelIPC(ep *endpointObj, err error) []func() {
	var wake []func()
	for _, s := range ep.senders {
		s := s // per-iteration copy (go1.22 loopvar semantics)
		wake = append(wake, func() { s.done <- err })
	}
	for _, r := range ep.receivers {
		r := r // per-iteration copy (go1.22 loopvar semantics)
		wake = append(wake, func() { r.done <- recvResult{err: err} })
	}
	ep.senders, ep.receivers = nil, nil
	return wake
}
