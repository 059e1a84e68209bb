// Package bridge implements the directory-backed message bus workers use to
// hand data to each other. A bridge is identified by a string id and backed
// by one directory; every message occupies its own uniquely-named file, so
// multiple OS processes can write to the same bridge without cross-process
// locking. An in-process mutex serializes sends from goroutines sharing one
// Bridge value.
//
// Message files are immutable once written. Readers list the directory,
// parse each file, and skip malformed entries with a logged warning rather
// than failing the whole read.
package bridge
