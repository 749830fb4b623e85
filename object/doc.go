// Package object creates kernel objects from untyped memory.
//
// Every object type is described by one row of a table (see Kinds), and a
// marker type per kind lets capabilities carry their kind statically:
//
//	n, err := object.Create[object.Endpoint](s, untyped, 0, window)
//	eps := object.Caps[object.Endpoint](window.Slice(0, n), shape)
//
// Retype splits requests larger than abi.FanOutLimit into several kernel
// calls. A failing call stops the batch; objects from earlier calls stay.
package object
