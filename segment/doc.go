// Package segment implements the on-disk format of one catalog partition:
// the galaxy records and raw link arrays written by a single simulation
// core at a single snapshot.
//
// A segment is a header, a section table, and four block-compressed
// sections (records, first-progenitor, next-progenitor and descendant
// links). Link values are stored exactly as the simulation core emitted
// them: indices local to the destination snapshot's partition boundaries,
// with -1 meaning "no such relation". Offsetting them into the global
// index space is the merger-tree layer's job, not this package's.
package segment
