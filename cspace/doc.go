// Package cspace names capability slots and manipulates the capabilities
// in them.
//
// A SlotRef addresses a slot by the CNode it is resolved against and an
// (index, depth) pair: the low depth bits of index are consumed MSB first
// through the guarded radix tree rooted at that CNode. A Window is a run
// of consecutive slots in one table, used as the destination of bulk
// object creation.
package cspace
