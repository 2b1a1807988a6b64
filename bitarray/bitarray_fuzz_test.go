package bitarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzBitArray(f *testing.F) {
	f.Add(uint64(0), uint64(0), uint8(0))
	f.Add(uint64(0x00c0ffeedeadbeef), uint64(0xffff0000ffff0000), uint8(13))
	f.Add(^uint64(0), uint64(1), uint8(63))
	f.Add(uint64(0x8000000000000001), ^uint64(0), uint8(64))

	f.Fuzz(func(t *testing.T, a uint64, b uint64, shift uint8) {
		assert := assert.New(t)

		ba := FromUint64(a, 8)
		bb := FromUint64(b, 8)

		and := ba.And(&bb)
		or := ba.Or(&bb)
		not := ba.Not()
		assert.Equal(a&b, and.Uint64())
		assert.Equal(a|b, or.Uint64())
		assert.Equal(^a, not.Uint64())

		var shl, shr uint64
		if shift < 64 {
			shl = a << shift
			shr = a >> shift
		}
		l := ba.Shl(uint(shift))
		r := ba.Shr(uint(shift))
		assert.Equal(shl, l.Uint64())
		assert.Equal(shr, r.Uint64())

		// The same value, widened across the inline boundary.
		ws := uint(shift) % 128
		wide := FromUint64(a, 24)
		wl := wide.Shl(ws)
		wr := wl.Shr(ws)
		assert.Equal(a, wr.Uint64())
	})
}
