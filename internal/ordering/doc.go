// Package ordering maintains the two ordered structures of a drill document:
// the page timeline (a singly linked list through next pointers) and shape
// membership (a dense integer order per shape page).
//
// Both implement Collection. Methods never touch storage: they update the
// in-memory model and return the row changes a caller must write, in an
// order that never produces a transient duplicate key when applied one at
// a time.
package ordering
