package voxelio

import "math/bits"

// Log2Floor returns floor(log2(x)), or 0 for x == 0.
func Log2Floor(x uint32) uint {
	if x == 0 {
		return 0
	}
	return uint(bits.Len32(x) - 1)
}

// Log2Ceil returns ceil(log2(x)), or 0 for x == 0.
func Log2Ceil(x uint32) uint {
	if x <= 1 {
		return 0
	}
	return uint(bits.Len32(x - 1))
}

// CeilPow2 rounds x up to the next power of two. CeilPow2(0) == 1.
func CeilPow2(x uint32) uint32 {
	if x <= 1 {
		return 1
	}
	return uint32(1) << bits.Len32(x-1)
}

// IsPow2 reports whether x is a power of two. Zero is not a power of two.
func IsPow2(x uint32) bool {
	return x != 0 && x&(x-1) == 0
}

// PopCount returns the number of set bits in x.
func PopCount(x uint32) int { return bits.OnesCount32(x) }

// ReverseBits8 reverses the bit order of an 8-bit value.
func ReverseBits8(x uint8) uint8 { return bits.Reverse8(x) }

// ReverseBits32 reverses the bit order of a 32-bit value.
func ReverseBits32(x uint32) uint32 { return bits.Reverse32(x) }

// RotateLeft32 rotates x left by k bits.
func RotateLeft32(x uint32, k int) uint32 { return bits.RotateLeft32(x, k) }

// RotateRight32 rotates x right by k bits.
func RotateRight32(x uint32, k int) uint32 { return bits.RotateLeft32(x, -k) }
