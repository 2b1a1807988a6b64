package register

import (
	"fmt"
	"math/bits"

	"github.com/ezrec/archreg/bitarray"
)

// Field is a bit range window into a register.
type Field struct {
	reg     *Register
	def     *FieldDefinition
	mask    bitarray.BitArray // Ones in [low, high], register width.
	inverse bitarray.BitArray // Complement of mask.
}

func newField(reg *Register, def *FieldDefinition) (fld *Field) {
	fld = &Field{
		reg:  reg,
		def:  def,
		mask: bitarray.New(int(reg.def.Bytes)),
	}
	fld.mask.SetRange(int(def.LowBit), int(def.HighBit))
	fld.inverse = fld.mask.Not()
	return
}

// Register containing the field.
func (fld *Field) Register() *Register {
	return fld.reg
}

// Definition of the field.
func (fld *Field) Definition() *FieldDefinition {
	return fld.def
}

// Name of the field.
func (fld *Field) Name() string {
	return fld.def.Name
}

// Desc returns the field description.
func (fld *Field) Desc() string {
	return fld.def.Desc
}

// LowBit of the field, inclusive.
func (fld *Field) LowBit() uint {
	return fld.def.LowBit
}

// HighBit of the field, inclusive.
func (fld *Field) HighBit() uint {
	return fld.def.HighBit
}

// Width of the field in bits.
func (fld *Field) Width() uint {
	return fld.def.Width()
}

// IsReadOnly returns true if the field was defined read-only.
func (fld *Field) IsReadOnly() bool {
	return fld.def.ReadOnly
}

// Mask returns a copy of the field mask.
func (fld *Field) Mask() bitarray.BitArray {
	return fld.mask.Clone()
}

// Location is the tree location of the field.
func (fld *Field) Location() string {
	return joinLocation(fld.reg.Location(), fld.def.Name)
}

func (fld *Field) extract(value *bitarray.BitArray) uint64 {
	masked := value.And(&fld.mask)
	shifted := masked.Shr(fld.def.LowBit)
	return shifted.Uint64()
}

// Read returns the field value, firing the register's post_read.
func (fld *Field) Read() uint64 {
	value := bitarray.New(int(fld.reg.Bytes()))
	_ = fld.reg.read(value.Bytes(), 0, true)
	return fld.extract(&value)
}

// Peek returns the field value without notification.
func (fld *Field) Peek() uint64 {
	value := bitarray.New(int(fld.reg.Bytes()))
	_ = fld.reg.read(value.Bytes(), 0, false)
	return fld.extract(&value)
}

// compose returns the register value with the field replaced by value,
// as (old & ~mask) | ((value << low) & mask).
func (fld *Field) compose(value uint64) (out bitarray.BitArray, err error) {
	if bits.Len64(value) > int(fld.Width()) {
		err = &ErrRegister{
			Location: fld.reg.Location(),
			Err: &ErrField{
				Field: fld.def.Name,
				Err:   &ErrValue{Value: value, Bits: fld.Width(), Err: ErrFieldValueTooWide},
			},
		}
		return
	}

	old := bitarray.New(int(fld.reg.Bytes()))
	_ = fld.reg.read(old.Bytes(), 0, false)

	// The value fits the field, so truncation to a narrow register is lossless.
	in := bitarray.FromUint64(value, int(fld.reg.Bytes()))
	in = in.Shl(fld.def.LowBit)
	in = in.And(&fld.mask)
	kept := old.And(&fld.inverse)
	out = kept.Or(&in)
	return
}

// Write replaces the field value through the register's write-mask, firing
// post_write. Read-only bits of the register are unchanged.
func (fld *Field) Write(value uint64) (err error) {
	out, err := fld.compose(value)
	if err != nil {
		return
	}
	return fld.reg.write(out.Bytes(), 0, true, true)
}

// Poke replaces the field value through the register's write-mask without
// notification.
func (fld *Field) Poke(value uint64) (err error) {
	out, err := fld.compose(value)
	if err != nil {
		return
	}
	return fld.reg.write(out.Bytes(), 0, true, false)
}

// PokeUnmasked replaces the field value, ignoring the register's write-mask,
// without notification.
func (fld *Field) PokeUnmasked(value uint64) (err error) {
	out, err := fld.compose(value)
	if err != nil {
		return
	}
	return fld.reg.write(out.Bytes(), 0, false, false)
}

// String renders the field location, range, width, and value.
func (fld *Field) String() string {
	ro := ""
	if fld.def.ReadOnly {
		ro = " [READ-ONLY]"
	}
	return fmt.Sprintf("<%v [%v-%v] %v bits LE:0x%x%v>",
		fld.Location(), fld.def.LowBit, fld.def.HighBit, fld.Width(), fld.Peek(), ro)
}
