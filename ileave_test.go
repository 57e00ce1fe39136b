package voxelio

import "testing"

func TestIleaveDileave3RoundTrip(t *testing.T) {
	coords := [][3]uint32{
		{0, 0, 0},
		{1, 2, 3},
		{1<<21 - 1, 1<<21 - 1, 1<<21 - 1},
		{12345, 0, 98765},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	for _, c := range coords {
		morton := Ileave3(c[0], c[1], c[2])
		x, y, z := Dileave3(morton)
		if x != c[0] || y != c[1] || z != c[2] {
			t.Errorf("Ileave3/Dileave3 round trip failed for %v: got (%d,%d,%d)", c, x, y, z)
		}
	}
}

func TestIleaveBytesRoundTrip(t *testing.T) {
	for count := uint(0); count <= 8; count++ {
		inputs := []uint64{0, 1, 0xff, 0x0102030405060708, ^uint64(0) >> (8 * (8 - count))}
		for _, in := range inputs {
			var mask uint64
			if count == 8 {
				mask = ^uint64(0)
			} else {
				mask = (uint64(1) << (8 * count)) - 1
			}
			want := in & mask
			ileaved := IleaveBytes(want, count)
			got := DileaveBytes(ileaved, count) & mask
			if got != want {
				t.Errorf("count=%d input=%#x: round trip mismatch, got %#x", count, want, got)
			}
		}
	}
}

func TestIleave4RoundTrip(t *testing.T) {
	colors := []uint32{0, 0xffffffff, 0x11223344, 0xaabbccdd}
	for _, c := range colors {
		m := Ileave4(c)
		back := Dileave4(m)
		if back != c {
			t.Errorf("Ileave4/Dileave4 round trip failed for %#x: got %#x", c, back)
		}
	}
}

func TestLog2FloorCeil(t *testing.T) {
	cases := []struct {
		x           uint32
		floor, ceil uint
	}{
		{0, 0, 0},
		{1, 0, 0},
		{2, 1, 1},
		{3, 1, 2},
		{4, 2, 2},
		{255, 7, 8},
		{256, 8, 8},
	}
	for _, c := range cases {
		if got := Log2Floor(c.x); got != c.floor {
			t.Errorf("Log2Floor(%d) = %d, want %d", c.x, got, c.floor)
		}
		if got := Log2Ceil(c.x); got != c.ceil {
			t.Errorf("Log2Ceil(%d) = %d, want %d", c.x, got, c.ceil)
		}
	}
}

func TestCeilPow2(t *testing.T) {
	cases := map[uint32]uint32{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 64: 64, 65: 128}
	for in, want := range cases {
		if got := CeilPow2(in); got != want {
			t.Errorf("CeilPow2(%d) = %d, want %d", in, got, want)
		}
	}
}
