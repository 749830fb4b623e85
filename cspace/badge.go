package cspace

import "github.com/wippyai/capspace/abi"

// Badge is the tag a receiver sees when a message arrives through a
// badged endpoint capability. It lives in the badge view of a CapData word.
type Badge struct {
	data abi.CapData
}

// NewBadge returns a badge carrying v.
func NewBadge(v uint32) Badge {
	var b Badge
	b.data.SetBadge(v)
	return b
}

// BadgeOf reads the badge view of d.
func BadgeOf(d abi.CapData) Badge {
	return NewBadge(d.Badge())
}

// Value returns the tag.
func (b Badge) Value() uint32 { return b.data.Badge() }

// Data returns the cap-data word to pass to mint or mutate.
func (b Badge) Data() abi.CapData { return b.data }
