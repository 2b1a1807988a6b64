// Package bitarray implements a fixed-width packed bit vector.
//
// A BitArray is treated as a single little-endian integer whose width is a
// whole number of bytes, fixed at construction. Arrays of up to INLINE_BYTES
// live entirely inside the BitArray value; wider arrays use a heap buffer.
//
// Assignment of a BitArray wider than INLINE_BYTES shares the heap buffer.
// Use Clone for an independent copy. All binary operations return fresh
// storage and never modify their operands.
package bitarray

import (
	"encoding/binary"
	"encoding/hex"
	"math/bits"
	"strings"
)

const (
	INLINE_BYTES = 16 // Largest array held without a heap buffer.
)

// Unsigned is the set of integers that can be loaded from or stored to a BitArray.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// BitArray is a variable-width packed bit vector.
type BitArray struct {
	size   int
	inline [INLINE_BYTES]byte
	heap   []byte
}

// New returns a zeroed array of size bytes.
func New(size int) (ba BitArray) {
	if size < 0 {
		size = 0
	}
	ba.size = size
	if size > INLINE_BYTES {
		ba.heap = make([]byte, size)
	}
	return
}

// Ones returns an array of size bytes with every bit set.
func Ones(size int) (ba BitArray) {
	ba = New(size)
	for n := range ba.data() {
		ba.data()[n] = 0xff
	}
	return
}

// FromBytes returns an array holding a copy of data.
func FromBytes(data []byte) (ba BitArray) {
	ba = New(len(data))
	copy(ba.data(), data)
	return
}

// FromBytesPadded returns an array of size bytes. When size exceeds the data
// length, the data is repeated to fill the array; when it is shorter, the data
// is truncated.
func FromBytesPadded(data []byte, size int) (ba BitArray) {
	ba = New(size)
	if len(data) == 0 {
		return
	}
	dst := ba.data()
	for n := 0; n < len(dst); n += len(data) {
		copy(dst[n:], data)
	}
	return
}

// FromUint64 returns an array of size bytes holding value, truncated or
// zero-extended to fit.
func FromUint64(value uint64, size int) (ba BitArray) {
	ba = New(size)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	copy(ba.data(), buf[:])
	return
}

func (ba *BitArray) data() []byte {
	if ba.size <= INLINE_BYTES {
		return ba.inline[:ba.size]
	}
	return ba.heap
}

// Size returns the width of the array in bytes.
func (ba *BitArray) Size() int {
	return ba.size
}

// Bits returns the width of the array in bits.
func (ba *BitArray) Bits() int {
	return ba.size * 8
}

// Bytes returns the live little-endian storage of the array.
func (ba *BitArray) Bytes() []byte {
	return ba.data()
}

// Clone returns an independent copy.
func (ba *BitArray) Clone() BitArray {
	return FromBytes(ba.data())
}

// Uint64 returns the low 8 bytes of the array as an integer.
func (ba *BitArray) Uint64() uint64 {
	var buf [8]byte
	copy(buf[:], ba.data())
	return binary.LittleEndian.Uint64(buf[:])
}

// Value returns the low bytes of the array reinterpreted as T.
func Value[T Unsigned](ba *BitArray) T {
	return T(ba.Uint64())
}

// Fill writes the byte pattern of value periodically across the array.
func Fill[T Unsigned](ba *BitArray, value T) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(value))
	width := bits.Len64(uint64(^T(0))) / 8
	dst := ba.data()
	for n := 0; n < len(dst); n += width {
		copy(dst[n:], buf[:width])
	}
}

// SetRange sets the inclusive bit range [low, high]. Bits beyond the array
// are ignored.
func (ba *BitArray) SetRange(low, high int) {
	ba.updateRange(low, high, true)
}

// ClearRange clears the inclusive bit range [low, high]. Bits beyond the
// array are ignored.
func (ba *BitArray) ClearRange(low, high int) {
	ba.updateRange(low, high, false)
}

func (ba *BitArray) updateRange(low, high int, set bool) {
	if low < 0 {
		low = 0
	}
	if high >= ba.Bits() {
		high = ba.Bits() - 1
	}
	dst := ba.data()
	for bit := low; bit <= high; {
		n := bit / 8
		// Whole bytes in the interior of the range.
		if bit%8 == 0 && bit+7 <= high {
			if set {
				dst[n] = 0xff
			} else {
				dst[n] = 0
			}
			bit += 8
			continue
		}
		if set {
			dst[n] |= 1 << (bit % 8)
		} else {
			dst[n] &^= 1 << (bit % 8)
		}
		bit++
	}
}

// Test returns true if bit is set.
func (ba *BitArray) Test(bit int) bool {
	if bit < 0 || bit >= ba.Bits() {
		return false
	}
	return ba.data()[bit/8]&(1<<(bit%8)) != 0
}

// IsZero returns true when no bit is set.
func (ba *BitArray) IsZero() bool {
	for _, b := range ba.data() {
		if b != 0 {
			return false
		}
	}
	return true
}

// Equal compares size and contents.
func (ba *BitArray) Equal(other *BitArray) bool {
	if ba.size != other.size {
		return false
	}
	return string(ba.data()) == string(other.data())
}

// Shl shifts the array toward the most significant bit, zero filling.
// Shifts of the full width or more yield zero.
func (ba *BitArray) Shl(shift uint) (out BitArray) {
	out = New(ba.size)
	if shift >= uint(ba.Bits()) {
		return
	}

	whole := int(shift / 8)
	part := shift % 8
	src := ba.data()
	dst := out.data()
	for n := len(dst) - 1; n >= whole; n-- {
		v := src[n-whole] << part
		if part != 0 && n-whole-1 >= 0 {
			v |= src[n-whole-1] >> (8 - part)
		}
		dst[n] = v
	}
	return
}

// Shr shifts the array toward the least significant bit, zero filling.
// Shifts of the full width or more yield zero.
func (ba *BitArray) Shr(shift uint) (out BitArray) {
	out = New(ba.size)
	if shift >= uint(ba.Bits()) {
		return
	}

	whole := int(shift / 8)
	part := shift % 8
	src := ba.data()
	dst := out.data()
	for n := 0; n < len(dst)-whole; n++ {
		v := src[n+whole] >> part
		if part != 0 && n+whole+1 < len(src) {
			v |= src[n+whole+1] << (8 - part)
		}
		dst[n] = v
	}
	return
}

// And returns the elementwise and. The result has the width of ba; bytes of
// ba beyond the width of other pass through unchanged.
func (ba *BitArray) And(other *BitArray) (out BitArray) {
	out = ba.Clone()
	dst := out.data()
	src := other.data()
	for n := 0; n < len(dst) && n < len(src); n++ {
		dst[n] &= src[n]
	}
	return
}

// Or returns the elementwise or. The result has the width of ba; bytes of
// ba beyond the width of other pass through unchanged.
func (ba *BitArray) Or(other *BitArray) (out BitArray) {
	out = ba.Clone()
	dst := out.data()
	src := other.data()
	for n := 0; n < len(dst) && n < len(src); n++ {
		dst[n] |= src[n]
	}
	return
}

// Not returns the bitwise complement.
func (ba *BitArray) Not() (out BitArray) {
	out = ba.Clone()
	dst := out.data()
	for n := range dst {
		dst[n] = ^dst[n]
	}
	return
}

// HexString renders the value most significant byte first, without prefix.
func (ba *BitArray) HexString() string {
	src := ba.data()
	msb := make([]byte, len(src))
	for n, b := range src {
		msb[len(src)-1-n] = b
	}
	return hex.EncodeToString(msb)
}

// ByteString renders each byte in hex, most significant first, separated by
// single spaces.
func (ba *BitArray) ByteString() string {
	src := ba.data()
	parts := make([]string, len(src))
	for n, b := range src {
		parts[len(src)-1-n] = hex.EncodeToString([]byte{b})
	}
	return strings.Join(parts, " ")
}

// BitString renders the bits most significant first, in groups of 8
// separated by single spaces.
func (ba *BitArray) BitString() string {
	src := ba.data()
	var sb strings.Builder
	for n := len(src) - 1; n >= 0; n-- {
		for bit := 7; bit >= 0; bit-- {
			if src[n]&(1<<bit) != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		if n != 0 {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// String implements fmt.Stringer.
func (ba BitArray) String() string {
	return "0x" + ba.HexString()
}
