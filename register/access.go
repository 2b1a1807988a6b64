package register

import (
	"encoding/binary"
	"math/bits"

	"github.com/ezrec/archreg/bitarray"
)

// width of T in bytes.
func width[T bitarray.Unsigned]() int {
	return bits.Len64(uint64(^T(0))) / 8
}

// offsetOf returns the byte offset of the index'th T. Indexes past the
// register end are rejected before scaling, so the product cannot wrap.
func offsetOf[T bitarray.Unsigned](reg *Register, index int) (n int, offset int, err error) {
	n = width[T]()
	if index < 0 || index > int(reg.def.Bytes)/n {
		err = &ErrRegister{
			Location: reg.Location(),
			Err:      &ErrAccess{Offset: index, Size: n, Bytes: reg.def.Bytes},
		}
		return
	}
	offset = index * n
	return
}

// Read returns the T at byte offset index*sizeof(T), firing post_read.
func Read[T bitarray.Unsigned](reg *Register, index int) (value T, err error) {
	var buf [8]byte
	n, offset, err := offsetOf[T](reg, index)
	if err != nil {
		return
	}
	err = reg.read(buf[:n], offset, true)
	value = T(binary.LittleEndian.Uint64(buf[:]))
	return
}

// Peek returns the T at byte offset index*sizeof(T) without notification.
func Peek[T bitarray.Unsigned](reg *Register, index int) (value T, err error) {
	var buf [8]byte
	n, offset, err := offsetOf[T](reg, index)
	if err != nil {
		return
	}
	err = reg.read(buf[:n], offset, false)
	value = T(binary.LittleEndian.Uint64(buf[:]))
	return
}

// Write stores value at byte offset index*sizeof(T) through the write-mask,
// firing post_write.
func Write[T bitarray.Unsigned](reg *Register, value T, index int) error {
	n, offset, err := offsetOf[T](reg, index)
	if err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(value))
	return reg.write(buf[:n], offset, true, true)
}

// WriteUnmasked stores value at byte offset index*sizeof(T), ignoring the
// write-mask, firing post_write.
func WriteUnmasked[T bitarray.Unsigned](reg *Register, value T, index int) error {
	n, offset, err := offsetOf[T](reg, index)
	if err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(value))
	return reg.write(buf[:n], offset, false, true)
}

// Poke stores value at byte offset index*sizeof(T) through the write-mask
// without notification.
func Poke[T bitarray.Unsigned](reg *Register, value T, index int) error {
	n, offset, err := offsetOf[T](reg, index)
	if err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(value))
	return reg.write(buf[:n], offset, true, false)
}

// PokeUnmasked stores value at byte offset index*sizeof(T), ignoring the
// write-mask, without notification.
func PokeUnmasked[T bitarray.Unsigned](reg *Register, value T, index int) error {
	n, offset, err := offsetOf[T](reg, index)
	if err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(value))
	return reg.write(buf[:n], offset, false, false)
}

// DMI is direct access to a register's storage.
type DMI struct {
	data []byte
}

// Bytes returns the raw storage.
func (dmi DMI) Bytes() []byte {
	return dmi.data
}

func (dmi DMI) check(n int, index int) int {
	if uint(index) >= uint(len(dmi.data)/n) {
		panic(ErrOutOfBounds)
	}
	return n
}

// DMIRead returns the T at byte offset index*sizeof(T). An out of range
// index panics.
func DMIRead[T bitarray.Unsigned](dmi DMI, index int) T {
	n := dmi.check(width[T](), index)
	var buf [8]byte
	copy(buf[:], dmi.data[index*n:index*n+n])
	return T(binary.LittleEndian.Uint64(buf[:]))
}

// DMIWrite stores value at byte offset index*sizeof(T), with no mask and no
// notification. An out of range index panics.
func DMIWrite[T bitarray.Unsigned](dmi DMI, value T, index int) {
	n := dmi.check(width[T](), index)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(value))
	copy(dmi.data[index*n:index*n+n], buf[:n])
}
