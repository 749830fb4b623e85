package abi

// MessageInfo is the packed message tag carried in the first register of
// every IPC. Layout, low to high: length (7), extra caps (2),
// caps unwrapped (3), label (rest).
type MessageInfo Word

const (
	msgLengthBits        = 7
	msgCapsUnwrappedBits = 3

	msgLengthShift        = 0
	msgExtraCapsShift     = msgLengthShift + msgLengthBits
	msgCapsUnwrappedShift = msgExtraCapsShift + MsgExtraCapBits
	msgLabelShift         = msgCapsUnwrappedShift + msgCapsUnwrappedBits

	msgLabelBits = WordBits - msgLabelShift
)

// NewMessageInfo packs a message tag. Fields wider than their slot are truncated.
func NewMessageInfo(label, capsUnwrapped, extraCaps, length Word) MessageInfo {
	var m MessageInfo
	return m.WithLabel(label).
		WithCapsUnwrapped(capsUnwrapped).
		WithExtraCaps(extraCaps).
		WithLength(length)
}

func (m MessageInfo) field(shift, bits uint) Word {
	return (Word(m) >> shift) & Mask(bits)
}

func (m MessageInfo) with(shift, bits uint, v Word) MessageInfo {
	mask := Mask(bits) << shift
	return MessageInfo((Word(m) &^ mask) | ((v << shift) & mask))
}

// Label returns the message label. For replies from the kernel it is an ErrorLabel.
func (m MessageInfo) Label() Word { return m.field(msgLabelShift, msgLabelBits) }

// CapsUnwrapped returns the bitmask of extra caps delivered as badges.
func (m MessageInfo) CapsUnwrapped() Word {
	return m.field(msgCapsUnwrappedShift, msgCapsUnwrappedBits)
}

// ExtraCaps returns the number of extra capabilities in the message.
func (m MessageInfo) ExtraCaps() Word { return m.field(msgExtraCapsShift, MsgExtraCapBits) }

// Length returns the number of message registers in use.
func (m MessageInfo) Length() Word { return m.field(msgLengthShift, msgLengthBits) }

func (m MessageInfo) WithLabel(v Word) MessageInfo {
	return m.with(msgLabelShift, msgLabelBits, v)
}

func (m MessageInfo) WithCapsUnwrapped(v Word) MessageInfo {
	return m.with(msgCapsUnwrappedShift, msgCapsUnwrappedBits, v)
}

func (m MessageInfo) WithExtraCaps(v Word) MessageInfo {
	return m.with(msgExtraCapsShift, MsgExtraCapBits, v)
}

func (m MessageInfo) WithLength(v Word) MessageInfo {
	return m.with(msgLengthShift, msgLengthBits, v)
}
