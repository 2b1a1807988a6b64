package register

import (
	"math/bits"
)

// ArchData is the byte arena backing a register set.
//
// Space is allocated while the set is being built; Layout then stamps the
// arena, after which no allocation is possible and views become readable.
type ArchData struct {
	lineSize uint
	size     uint
	data     []byte
	laidOut  bool
}

// NewArchData creates an arena whose lines are lineSize bytes.
func NewArchData(lineSize uint) (arch *ArchData, err error) {
	if bits.OnesCount(lineSize) != 1 {
		err = ErrLineSize
		return
	}

	arch = &ArchData{lineSize: lineSize}
	return
}

// LineSize of the arena in bytes.
func (arch *ArchData) LineSize() uint {
	return arch.lineSize
}

// Size of the allocated arena in bytes.
func (arch *ArchData) Size() uint {
	return arch.size
}

// LaidOut returns true once the layout is stamped.
func (arch *ArchData) LaidOut() bool {
	return arch.laidOut
}

// Allocate reserves size bytes aligned to size. The size must be a power of
// two no larger than the line size, so an allocation never spans lines.
func (arch *ArchData) Allocate(size uint) (view View, err error) {
	switch {
	case arch.laidOut:
		err = ErrLayoutFrozen
		return
	case size == 0:
		err = ErrSizeZero
		return
	case bits.OnesCount(size) != 1:
		err = ErrSizeNotPowerOfTwo
		return
	case size > arch.lineSize:
		err = ErrSizeTooLarge
		return
	}

	offset := (arch.size + size - 1) &^ (size - 1)
	arch.size = offset + size
	view = View{arch: arch, offset: offset, size: size}
	return
}

// Layout stamps the arena and allocates its backing storage, rounded up to a
// whole number of lines.
func (arch *ArchData) Layout() {
	if arch.laidOut {
		return
	}

	lines := (arch.size + arch.lineSize - 1) / arch.lineSize
	arch.data = make([]byte, lines*arch.lineSize)
	arch.laidOut = true
}

// View is a window into an ArchData arena.
type View struct {
	arch   *ArchData
	offset uint
	size   uint
}

// Offset of the view in the arena.
func (view View) Offset() uint {
	return view.offset
}

// Size of the view in bytes.
func (view View) Size() uint {
	return view.size
}

// Sub returns a window of size bytes at offset within the view.
func (view View) Sub(offset, size uint) (sub View, err error) {
	if offset+size > view.size {
		err = ErrSubsetRange
		return
	}

	sub = View{arch: view.arch, offset: view.offset + offset, size: size}
	return
}

// Bytes returns the live storage of the view. The arena must be laid out.
func (view View) Bytes() []byte {
	return view.arch.data[view.offset : view.offset+view.size : view.offset+view.size]
}
