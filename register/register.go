// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package register implements architectural registers for hardware models.
//
// A RegisterSet owns a byte arena (ArchData) and the registers laid out in
// it. Each Register is a power-of-two sized window into the arena with an
// ordered list of bit Fields, a write-mask derived from its read-only fields,
// and post-write and post-read notification sources. Registers that carry a
// group number are also entered in a bank table, from which a Proxy resolves
// the register visible in the current bank.
//
// Registers are not safe for concurrent use. All accesses and notifications
// are expected to run on the simulation goroutine.
package register

import (
	"fmt"
	"iter"
	"slices"

	"github.com/ezrec/archreg/bitarray"
	"github.com/ezrec/archreg/notify"
)

// Notification channel names.
const (
	POST_WRITE = "post_write"
	POST_READ  = "post_read"
)

// PostWriteData is the payload of the post_write notification.
// The slices are only valid during the observer call.
type PostWriteData struct {
	Register *Register
	Prior    []byte // Register value before the write.
	Final    []byte // Register value after the write-mask was applied.
}

// PriorValue returns the low 8 bytes of the prior value.
func (data *PostWriteData) PriorValue() uint64 {
	return lowValue(data.Prior)
}

// FinalValue returns the low 8 bytes of the final value.
func (data *PostWriteData) FinalValue() uint64 {
	return lowValue(data.Final)
}

// PostReadData is the payload of the post_read notification.
// The slice is only valid during the observer call.
type PostReadData struct {
	Register *Register
	Offset   int    // Byte offset of the read.
	Value    []byte // Bytes returned by the read.
}

// ValueOf returns the low 8 bytes of the value read.
func (data *PostReadData) ValueOf() uint64 {
	return lowValue(data.Value)
}

func lowValue(data []byte) (value uint64) {
	for n := min(len(data), 8) - 1; n >= 0; n-- {
		value = (value << 8) | uint64(data[n])
	}
	return
}

// ReadCallback virtualizes the value of a 4 or 8 byte register.
type ReadCallback func(reg *Register) uint64

// WriteCallback virtualizes writes to a 4 or 8 byte register.
type WriteCallback func(reg *Register, value uint64)

// Register is a named window into a register set's arena.
type Register struct {
	PostWrite *notify.Source[PostWriteData] // Fired after write accesses.
	PostRead  *notify.Source[PostReadData]  // Fired after read accesses.

	def       *Definition
	set       *RegisterSet
	view      View
	data      []byte // Live storage, bound at layout.
	initial   bitarray.BitArray
	writeMask bitarray.BitArray
	readOnly  bool // Some bit of writeMask is clear.
	fields    []*Field
	built     bool

	prior      []byte // Scratch snapshot for post_write.
	writeData  PostWriteData
	readData   PostReadData
	writeDepth int // Nested post_write dispatches in progress.
	readDepth  int // Nested post_read dispatches in progress.

	readCallback  ReadCallback
	writeCallback WriteCallback
}

// newRegister builds a register and its fields over view.
func newRegister(set *RegisterSet, def *Definition, view View) (reg *Register) {
	reg = &Register{
		PostWrite: notify.NewSource[PostWriteData](POST_WRITE),
		PostRead:  notify.NewSource[PostReadData](POST_READ),
		def:       def,
		set:       set,
		view:      view,
		initial:   bitarray.FromBytesPadded(def.InitialValue, int(def.Bytes)),
		writeMask: bitarray.Ones(int(def.Bytes)),
		prior:     make([]byte, def.Bytes),
	}
	reg.writeData.Register = reg
	reg.readData.Register = reg

	for n := range def.Fields {
		// Definitions are validated before construction.
		_ = reg.AddField(&def.Fields[n])
	}
	reg.built = true

	return
}

// AddField appends a field while the register is being built.
// A read-only field clears its bit range in the write-mask.
func (reg *Register) AddField(fd *FieldDefinition) (err error) {
	if reg.built {
		err = &ErrRegister{Location: reg.Location(), Err: ErrRegisterBuilt}
		return
	}

	fld := newField(reg, fd)
	reg.fields = append(reg.fields, fld)
	if fd.ReadOnly {
		reg.writeMask.ClearRange(int(fd.LowBit), int(fd.HighBit))
		reg.readOnly = true
	}

	return
}

// bind attaches the register to its laid out storage.
func (reg *Register) bind() {
	reg.data = reg.view.Bytes()
}

// Definition of the register.
func (reg *Register) Definition() *Definition {
	return reg.def
}

// ID of the register.
func (reg *Register) ID() Ident {
	return reg.def.ID
}

// Name of the register.
func (reg *Register) Name() string {
	return reg.def.Name
}

// Desc returns the register description.
func (reg *Register) Desc() string {
	return reg.def.Desc
}

// Bytes returns the register width in bytes.
func (reg *Register) Bytes() uint {
	return reg.def.Bytes
}

// Bits returns the register width in bits.
func (reg *Register) Bits() uint {
	return reg.def.Bytes * 8
}

// GroupNum of the register.
func (reg *Register) GroupNum() GroupNum {
	return reg.def.GroupNum
}

// GroupName of the register.
func (reg *Register) GroupName() string {
	return reg.def.GroupName
}

// GroupIdx of the register.
func (reg *Register) GroupIdx() GroupIdx {
	return reg.def.GroupIdx
}

// IsBanked returns true if the register is visible in specific banks only.
func (reg *Register) IsBanked() bool {
	return reg.def.IsBanked()
}

// IsInBank returns true if the register is visible in bank.
func (reg *Register) IsInBank(bank BankIdx) bool {
	if !reg.def.IsGrouped() {
		return false
	}
	if !reg.def.IsBanked() {
		return true
	}
	return slices.Contains(reg.def.BankMembership, bank)
}

// Set owning the register.
func (reg *Register) Set() *RegisterSet {
	return reg.set
}

// View of the register's storage in the arena.
func (reg *Register) View() View {
	return reg.view
}

// Location is the tree location of the register.
func (reg *Register) Location() string {
	return joinLocation(reg.set.Location(), reg.def.Name)
}

// HasReadOnlyFields returns true if any bit is protected by the write-mask.
func (reg *Register) HasReadOnlyFields() bool {
	return reg.readOnly
}

// WriteMask returns a copy of the write-mask. Clear bits are read-only.
func (reg *Register) WriteMask() bitarray.BitArray {
	return reg.writeMask.Clone()
}

// WriteMaskBitString renders the write-mask in groups of 8 bits, most
// significant first.
func (reg *Register) WriteMaskBitString() string {
	return reg.writeMask.BitString()
}

// Fields iterates the register fields in definition order.
func (reg *Register) Fields() iter.Seq[*Field] {
	return slices.Values(reg.fields)
}

// Field returns the named field.
func (reg *Register) Field(name string) (fld *Field, err error) {
	n := slices.IndexFunc(reg.fields, func(fld *Field) bool { return fld.Name() == name })
	if n < 0 {
		err = &ErrRegister{Location: reg.Location(), Err: &ErrField{Field: name, Err: ErrNoSuchField}}
		return
	}

	fld = reg.fields[n]
	return
}

// Observe registers an observer on the named notification channel.
// The observer must be a func(*PostWriteData) for POST_WRITE, or a
// func(*PostReadData) for POST_READ.
func (reg *Register) Observe(name string, observer any) (id notify.ObserverID, err error) {
	switch name {
	case POST_WRITE:
		fn, ok := observer.(func(*PostWriteData))
		if !ok {
			err = ErrObserverType
			break
		}
		id = reg.PostWrite.Observe(fn)
	case POST_READ:
		fn, ok := observer.(func(*PostReadData))
		if !ok {
			err = ErrObserverType
			break
		}
		id = reg.PostRead.Observe(fn)
	default:
		err = ErrNoSuchNotification
	}

	if err != nil {
		err = &ErrRegister{Location: reg.Location(), Err: &ErrNotification{Name: name, Err: err}}
	}

	return
}

func (reg *Register) checkRange(offset int, size int) (err error) {
	if offset < 0 || size < 0 || size > int(reg.def.Bytes) || offset > int(reg.def.Bytes)-size {
		err = &ErrRegister{
			Location: reg.Location(),
			Err:      &ErrAccess{Offset: offset, Size: size, Bytes: reg.def.Bytes},
		}
	}
	return
}

// read copies bytes at offset into buf.
func (reg *Register) read(buf []byte, offset int, fire bool) (err error) {
	err = reg.checkRange(offset, len(buf))
	if err != nil {
		return
	}

	window := reg.data[offset : offset+len(buf)]
	copy(buf, window)

	if fire && reg.PostRead.Observed() {
		payload := &reg.readData
		if reg.readDepth > 0 {
			payload = &PostReadData{Register: reg}
		}
		payload.Offset = offset
		payload.Value = window
		reg.readDepth++
		reg.PostRead.Notify(payload)
		reg.readDepth--
		payload.Value = nil
	}

	return
}

// write stores buf at offset, as (prior & ~mask) | (buf & mask) where mask is
// the write-mask shifted down by offset bytes.
func (reg *Register) write(buf []byte, offset int, masked bool, fire bool) (err error) {
	err = reg.checkRange(offset, len(buf))
	if err != nil {
		return
	}

	var payload *PostWriteData
	if fire && reg.PostWrite.Observed() {
		payload = reg.writePayload()
		copy(payload.Prior, reg.data)
	}

	window := reg.data[offset : offset+len(buf)]
	if masked && reg.readOnly {
		mask := reg.writeMask.Bytes()[offset:]
		for n, b := range buf {
			window[n] = (window[n] &^ mask[n]) | (b & mask[n])
		}
	} else {
		copy(window, buf)
	}

	if payload != nil {
		payload.Final = reg.data
		reg.writeDepth++
		reg.PostWrite.Notify(payload)
		reg.writeDepth--
		payload.Prior = nil
		payload.Final = nil
	}

	return
}

// writePayload returns the post_write payload for a new dispatch. An
// observer writing the register gets a fresh payload, so the outer
// dispatch keeps its own prior value.
func (reg *Register) writePayload() *PostWriteData {
	if reg.writeDepth == 0 {
		reg.writeData.Prior = reg.prior
		return &reg.writeData
	}
	return &PostWriteData{Register: reg, Prior: make([]byte, len(reg.data))}
}

// ReadBytes reads len(buf) bytes at offset and fires post_read.
func (reg *Register) ReadBytes(buf []byte, offset int) error {
	return reg.read(buf, offset, true)
}

// PeekBytes reads len(buf) bytes at offset without notification.
func (reg *Register) PeekBytes(buf []byte, offset int) error {
	return reg.read(buf, offset, false)
}

// WriteBytes writes buf at offset through the write-mask and fires post_write.
func (reg *Register) WriteBytes(buf []byte, offset int) error {
	return reg.write(buf, offset, true, true)
}

// WriteBytesUnmasked writes buf at offset, ignoring the write-mask, and fires
// post_write.
func (reg *Register) WriteBytesUnmasked(buf []byte, offset int) error {
	return reg.write(buf, offset, false, true)
}

// PokeBytes writes buf at offset through the write-mask without notification.
func (reg *Register) PokeBytes(buf []byte, offset int) error {
	return reg.write(buf, offset, true, false)
}

// PokeBytesUnmasked writes buf at offset, ignoring the write-mask, without
// notification.
func (reg *Register) PokeBytesUnmasked(buf []byte, offset int) error {
	return reg.write(buf, offset, false, false)
}

// Value returns a copy of the whole register without notification.
func (reg *Register) Value() (value bitarray.BitArray) {
	value = bitarray.New(int(reg.def.Bytes))
	copy(value.Bytes(), reg.data)
	return
}

// InitialValue returns the reset value of the register.
func (reg *Register) InitialValue() bitarray.BitArray {
	return reg.initial.Clone()
}

// Reset restores the initial value one byte at a time. No notification is
// fired. With unmasked false, read-only bits keep their current value.
func (reg *Register) Reset(unmasked bool) {
	initial := reg.initial.Bytes()
	for n := range initial {
		if unmasked {
			_ = reg.PokeBytesUnmasked(initial[n:n+1], n)
		} else {
			_ = reg.PokeBytes(initial[n:n+1], n)
		}
	}
}

// SetReadCallback installs a read callback used by ReadWithCheck.
func (reg *Register) SetReadCallback(cb ReadCallback) (err error) {
	err = reg.checkCallbackSize()
	if err == nil {
		reg.readCallback = cb
	}
	return
}

// SetWriteCallback installs a write callback used by WriteWithCheck.
func (reg *Register) SetWriteCallback(cb WriteCallback) (err error) {
	err = reg.checkCallbackSize()
	if err == nil {
		reg.writeCallback = cb
	}
	return
}

func (reg *Register) checkCallbackSize() (err error) {
	if reg.def.Bytes != 4 && reg.def.Bytes != 8 {
		err = &ErrRegister{Location: reg.Location(), Err: ErrCallbackSizeUnsupported}
	}
	return
}

// ReadWithCheck reads the whole register through the read callback, if one
// is installed, and otherwise through Read.
func (reg *Register) ReadWithCheck() (value uint64, err error) {
	err = reg.checkCallbackSize()
	if err != nil {
		return
	}

	if reg.readCallback != nil {
		value = reg.readCallback(reg)
		return
	}

	if reg.def.Bytes == 4 {
		var v32 uint32
		v32, err = Read[uint32](reg, 0)
		value = uint64(v32)
	} else {
		value, err = Read[uint64](reg, 0)
	}

	return
}

// WriteWithCheck writes the whole register through the write callback, if
// one is installed, and otherwise through Write. For a 4 byte register the
// value is truncated to 32 bits.
func (reg *Register) WriteWithCheck(value uint64) (err error) {
	err = reg.checkCallbackSize()
	if err != nil {
		return
	}

	if reg.def.Bytes == 4 {
		value = uint64(uint32(value))
	}

	if reg.writeCallback != nil {
		reg.writeCallback(reg, value)
		return
	}

	if reg.def.Bytes == 4 {
		err = Write(reg, uint32(value), 0)
	} else {
		err = Write(reg, value, 0)
	}

	return
}

// DMI returns direct access to the register storage, bypassing masks,
// notifications, and callbacks. Registers with installed callbacks do not
// offer DMI.
func (reg *Register) DMI() (dmi DMI, err error) {
	if reg.data == nil || reg.readCallback != nil || reg.writeCallback != nil {
		err = &ErrRegister{Location: reg.Location(), Err: ErrDMIUnsupported}
		return
	}

	dmi = DMI{data: reg.data}
	return
}

// ValueByteString renders the register bytes, most significant first.
func (reg *Register) ValueByteString() string {
	value := reg.Value()
	return value.ByteString()
}

// String renders the register location, width, and value.
func (reg *Register) String() string {
	value := reg.Value()
	return fmt.Sprintf("<%v %v bits LE:0x%v>", reg.Location(), reg.Bits(), value.HexString())
}

func joinLocation(parent string, name string) string {
	if len(parent) == 0 {
		return name
	}
	return parent + "." + name
}
