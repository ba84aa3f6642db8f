// Package linker computes connections between notes from their keyword
// signatures and derives the backlinks and tags each note should carry.
//
// Two notes are connected when their signatures share at least a configured
// number of keywords. A connection is symmetric: both notes receive the
// other's display name as a backlink and every shared keyword as a tag.
// Independently of connections, every note is tagged with its group and
// with each keyword of its own signature.
//
// Compute is pure. It never touches the store or the filesystem, and the
// same input always yields the same Result.
package linker
