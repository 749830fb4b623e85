package ipc

import "github.com/wippyai/capspace/abi"

// Word offsets of the Buffer fields in its flat layout.
const (
	TagWord          = 0
	MsgWord          = 1
	UserDataWord     = MsgWord + abi.MsgMaxLength
	CapsWord         = UserDataWord + 1
	ReceiveCNodeWord = CapsWord + abi.MsgMaxExtraCaps
	ReceiveIndexWord = ReceiveCNodeWord + 1
	ReceiveDepthWord = ReceiveIndexWord + 1

	// BufferWords is the size of a Buffer in words.
	BufferWords = ReceiveDepthWord + 1

	// BufferBytes is the size of a Buffer in bytes.
	BufferBytes = BufferWords * abi.WordBytes
)

// Buffer is the region shared between one execution context and the
// kernel for message registers, capability transfer and receive-slot
// configuration.
type Buffer struct {
	Tag          abi.MessageInfo
	Msg          [abi.MsgMaxLength]abi.Word
	UserData     abi.Word
	CapsOrBadges [abi.MsgMaxExtraCaps]abi.Word
	ReceiveCNode abi.CPtr
	ReceiveIndex abi.Word
	ReceiveDepth abi.Word
}

// Word returns the i-th word of the flat layout. It panics if i is out of range.
func (b *Buffer) Word(i int) abi.Word {
	switch {
	case i == TagWord:
		return abi.Word(b.Tag)
	case i < UserDataWord:
		return b.Msg[i-MsgWord]
	case i == UserDataWord:
		return b.UserData
	case i < ReceiveCNodeWord:
		return b.CapsOrBadges[i-CapsWord]
	case i == ReceiveCNodeWord:
		return b.ReceiveCNode
	case i == ReceiveIndexWord:
		return b.ReceiveIndex
	case i == ReceiveDepthWord:
		return b.ReceiveDepth
	}
	panic("ipc: buffer word index out of range")
}

// SetWord stores the i-th word of the flat layout. It panics if i is out of range.
func (b *Buffer) SetWord(i int, w abi.Word) {
	switch {
	case i == TagWord:
		b.Tag = abi.MessageInfo(w)
	case i < UserDataWord:
		b.Msg[i-MsgWord] = w
	case i == UserDataWord:
		b.UserData = w
	case i < ReceiveCNodeWord:
		b.CapsOrBadges[i-CapsWord] = w
	case i == ReceiveCNodeWord:
		b.ReceiveCNode = w
	case i == ReceiveIndexWord:
		b.ReceiveIndex = w
	case i == ReceiveDepthWord:
		b.ReceiveDepth = w
	default:
		panic("ipc: buffer word index out of range")
	}
}

// Data returns a copy of the message registers named by the tag length.
func (b *Buffer) Data() []abi.Word {
	n := min(int(b.Tag.Length()), abi.MsgMaxLength)
	out := make([]abi.Word, n)
	copy(out, b.Msg[:n])
	return out
}

// Caps returns a copy of the extra caps or badges named by the tag.
func (b *Buffer) Caps() []abi.Word {
	n := min(int(b.Tag.ExtraCaps()), abi.MsgMaxExtraCaps)
	out := make([]abi.Word, n)
	copy(out, b.CapsOrBadges[:n])
	return out
}

// ReceiveSlot is where an incoming capability is placed.
type ReceiveSlot struct {
	CNode abi.CPtr
	Index abi.Word
	Depth abi.Word
}

// SetReceiveSlot configures the receive slot.
func (b *Buffer) SetReceiveSlot(r ReceiveSlot) {
	b.ReceiveCNode = r.CNode
	b.ReceiveIndex = r.Index
	b.ReceiveDepth = r.Depth
}

// GetReceiveSlot returns the configured receive slot.
func (b *Buffer) GetReceiveSlot() ReceiveSlot {
	return ReceiveSlot{CNode: b.ReceiveCNode, Index: b.ReceiveIndex, Depth: b.ReceiveDepth}
}
