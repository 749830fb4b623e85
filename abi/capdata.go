package abi

// CapData is the word passed to mint and mutate. Which view applies depends
// on the capability being derived: endpoint and notification caps take a
// badge, CNode caps take a guard.
type CapData Word

const (
	badgeShift = 0
	badgeBits  = 32

	guardSizeShift = 0
	guardSizeBits  = 6
	guardShift     = guardSizeShift + guardSizeBits
	guardBits      = WordBits - guardShift
)

// Badge returns the badge view.
func (d CapData) Badge() uint32 {
	return uint32((Word(d) >> badgeShift) & Mask(badgeBits))
}

// SetBadge replaces the badge view.
func (d *CapData) SetBadge(v uint32) {
	mask := Mask(badgeBits) << badgeShift
	*d = CapData((Word(*d) &^ mask) | (Word(v) << badgeShift))
}

// GuardSize returns the guard-size field of the guard view.
func (d CapData) GuardSize() uint8 {
	return uint8((Word(d) >> guardSizeShift) & Mask(guardSizeBits))
}

// Guard returns the guard field of the guard view.
func (d CapData) Guard() Word {
	return (Word(d) >> guardShift) & Mask(guardBits)
}

// NewGuardData builds the guard view.
func NewGuardData(guard Word, guardSize uint8) CapData {
	w := (Word(guardSize) & Mask(guardSizeBits)) << guardSizeShift
	w |= (guard & Mask(guardBits)) << guardShift
	return CapData(w)
}

// CapRights restricts what a derived capability may do.
type CapRights Word

const (
	RightWrite CapRights = 1 << iota
	RightRead
	RightGrant

	AllRights           = RightWrite | RightRead | RightGrant
	NoRights  CapRights = 0
)

// Has reports whether every right in r is present.
func (c CapRights) Has(r CapRights) bool { return c&r == r }

func (c CapRights) String() string {
	b := []byte("---")
	if c.Has(RightRead) {
		b[0] = 'r'
	}
	if c.Has(RightWrite) {
		b[1] = 'w'
	}
	if c.Has(RightGrant) {
		b[2] = 'g'
	}
	return string(b)
}
