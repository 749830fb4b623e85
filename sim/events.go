package sim

import "github.com/wippyai/capspace/abi"

// EventType names an object lifecycle transition.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDeleted
	EventRetyped
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDeleted:
		return "deleted"
	case EventRetyped:
		return "retyped"
	}
	return "unknown"
}

// Event reports an object lifecycle transition. For EventRetyped, Object
// is the untyped and Count the number of objects carved from it.
type Event struct {
	Object   ObjectID
	Type     abi.ObjectType
	Event    EventType
	Addr     abi.Word
	SizeBits abi.Word
	Count    int
}

// Observer receives object lifecycle events. It is called with the
// kernel lock held and must not call back into the kernel.
type Observer interface {
	OnKernelEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnKernelEvent(e Event) { f(e) }
