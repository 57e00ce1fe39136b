// Package vl32 implements a minimal, unframed voxel list format: no
// magic, no header, just a flat sequence of fixed-size records read
// back to back until EOF, each four big-endian 32-bit words (x, y, z,
// argb). It exists to complete the round-trip law spec.md §8 already
// names vl32 as a target for, but never separately defines.
package vl32

// recordSize is the byte length of one (x, y, z, argb) record.
const recordSize = 4 * 4
