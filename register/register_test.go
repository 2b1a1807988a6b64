package register

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/archreg/intern"
	"github.com/ezrec/archreg/tree"
)

// newTestSet builds a set under a fresh "top.regs" tree node.
func newTestSet(t *testing.T, defs []Definition, proxies []ProxyDefinition, cfg SetConfig) *RegisterSet {
	t.Helper()

	root, err := tree.NewRoot("top")
	if err != nil {
		t.Fatal(err)
	}
	node, err := root.AddChild("regs")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Strings == nil {
		cfg.Strings = &intern.Manager{}
	}

	set, err := NewRegisterSet(node, defs, proxies, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func mustRegister(t *testing.T, set *RegisterSet, name string) *Register {
	t.Helper()

	reg, err := set.GetRegister(name)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func simpleDef(id Ident, name string, bytes uint) Definition {
	return Definition{
		ID:        id,
		Name:      name,
		GroupNum:  GROUP_NUM_NONE,
		GroupName: GROUP_NAME_NONE,
		GroupIdx:  GROUP_IDX_NONE,
		Bytes:     bytes,
	}
}

func TestRegister_PackedWrites(t *testing.T) {
	assert := assert.New(t)

	set := newTestSet(t, []Definition{simpleDef(0, "packed", 8)}, nil, SetConfig{})
	reg := mustRegister(t, set, "packed")

	assert.NoError(Write(reg, uint64(0xFFFFFFFFFFFFFFFF), 0))
	assert.NoError(Write(reg, uint32(0xEEEEEEEE), 1))
	assert.NoError(Write(reg, uint16(0xDDDD), 3))
	assert.NoError(Write(reg, uint16(0xDDDD), 1))
	assert.NoError(Write(reg, uint8(0xCC), 7))
	assert.NoError(Write(reg, uint8(0xCC), 3))

	value, err := Read[uint64](reg, 0)
	assert.NoError(err)
	assert.Equal(uint64(0xCCDDEEEECCDDFFFF), value)

	low, err := Read[uint32](reg, 0)
	assert.NoError(err)
	assert.Equal(uint32(0xCCDDFFFF), low)

	top, err := Peek[uint8](reg, 7)
	assert.NoError(err)
	assert.Equal(uint8(0xCC), top)
}

func TestRegister_ReadOnlyMask(t *testing.T) {
	assert := assert.New(t)

	def := simpleDef(0, "wm_01", 4)
	def.InitialValue = []byte{0xAA}
	def.Fields = []FieldDefinition{
		{Name: "ro_low", LowBit: 0, HighBit: 3, ReadOnly: true},
		{Name: "ro_mid", LowBit: 5, HighBit: 9, ReadOnly: true},
		{Name: "rw_high", LowBit: 12, HighBit: 15},
	}

	set := newTestSet(t, []Definition{def}, nil, SetConfig{})
	reg := mustRegister(t, set, "wm_01")

	value, err := Peek[uint32](reg, 0)
	assert.NoError(err)
	assert.Equal(uint32(0xAAAAAAAA), value)
	assert.True(reg.HasReadOnlyFields())

	assert.NoError(Write(reg, uint32(0xFFFFFFFF), 0))
	value, err = Read[uint32](reg, 0)
	assert.NoError(err)
	assert.Equal(uint32(0xFFFFFEBA), value)

	assert.NoError(WriteUnmasked(reg, uint32(0xFFFFFFFF), 0))
	value, err = Peek[uint32](reg, 0)
	assert.NoError(err)
	assert.Equal(uint32(0xFFFFFFFF), value)

	reg.Reset(false)
	value, err = Peek[uint32](reg, 0)
	assert.NoError(err)
	assert.Equal(uint32(0xAAAAAAAA|0x3EF), value)

	reg.Reset(true)
	value, err = Peek[uint32](reg, 0)
	assert.NoError(err)
	assert.Equal(uint32(0xAAAAAAAA), value)
}

func TestRegister_FieldSpan(t *testing.T) {
	assert := assert.New(t)

	def := simpleDef(0, "wide", 16)
	def.Fields = []FieldDefinition{
		{Name: "middle", LowBit: 56, HighBit: 71},
	}

	set := newTestSet(t, []Definition{def}, nil, SetConfig{})
	reg := mustRegister(t, set, "wide")

	assert.NoError(PokeUnmasked(reg, uint64(0x00C0FFEEDEADBEEF), 0))
	assert.NoError(PokeUnmasked(reg, uint64(0xCAB5BA1EC001C000), 1))

	fld, err := reg.Field("middle")
	assert.NoError(err)
	assert.Equal(uint64(0), fld.Peek())

	assert.NoError(fld.Write(0x50DA))

	low, err := Peek[uint64](reg, 0)
	assert.NoError(err)
	assert.Equal(uint64(0xDAC0FFEEDEADBEEF), low)
	high, err := Peek[uint64](reg, 1)
	assert.NoError(err)
	assert.Equal(uint64(0xCAB5BA1EC001C050), high)
	assert.Equal(uint64(0x50DA), fld.Read())
}

func TestRegister_Notification(t *testing.T) {
	assert := assert.New(t)

	set := newTestSet(t, []Definition{simpleDef(0, "busy", 8)}, nil, SetConfig{})
	reg := mustRegister(t, set, "busy")

	allocs := testing.AllocsPerRun(1000, func() {
		_ = Write(reg, uint64(0x1234), 0)
		_, _ = Read[uint64](reg, 0)
	})
	assert.Equal(0.0, allocs)

	var writes []PostWriteData
	var priors, finals []uint64
	_, err := reg.Observe(POST_WRITE, func(data *PostWriteData) {
		writes = append(writes, *data)
		priors = append(priors, data.PriorValue())
		finals = append(finals, data.FinalValue())
	})
	assert.NoError(err)

	var reads []uint64
	readID, err := reg.Observe(POST_READ, func(data *PostReadData) {
		assert.Equal(4, data.Offset)
		reads = append(reads, data.ValueOf())
	})
	assert.NoError(err)

	assert.NoError(Write(reg, uint64(0x5678), 0))
	assert.NoError(Write(reg, uint64(0x9ABC), 0))
	assert.NoError(Poke(reg, uint64(0xDEF0), 0))

	assert.Len(writes, 2)
	assert.Equal(reg, writes[0].Register)
	assert.Equal([]uint64{0x1234, 0x5678}, priors)
	assert.Equal([]uint64{0x5678, 0x9ABC}, finals)

	assert.NoError(Write(reg, uint32(0xFEEDFACE), 1))
	_, err = Read[uint32](reg, 1)
	assert.NoError(err)
	_, err = Peek[uint32](reg, 1)
	assert.NoError(err)
	assert.Equal([]uint64{0xFEEDFACE}, reads)

	assert.True(reg.PostRead.Remove(readID))
	assert.False(reg.PostRead.Observed())

	_, err = reg.Observe("pre_write", func(*PostWriteData) {})
	assert.True(errors.Is(err, ErrNoSuchNotification))
	var channel *ErrNotification
	if assert.True(errors.As(err, &channel)) {
		assert.Equal("pre_write", channel.Name)
	}
	_, err = reg.Observe(POST_READ, func(*PostWriteData) {})
	assert.True(errors.Is(err, ErrObserverType))
}

func TestRegister_NestedNotification(t *testing.T) {
	assert := assert.New(t)

	set := newTestSet(t, []Definition{simpleDef(0, "nest", 8)}, nil, SetConfig{})
	reg := mustRegister(t, set, "nest")

	rewritten := false
	_, err := reg.Observe(POST_WRITE, func(*PostWriteData) {
		if !rewritten {
			rewritten = true
			assert.NoError(Write(reg, uint64(0x77), 0))
		}
	})
	assert.NoError(err)

	type seen struct {
		prior, final uint64
		priorLen     int
		finalLen     int
	}
	var writes []seen
	_, err = reg.Observe(POST_WRITE, func(data *PostWriteData) {
		writes = append(writes, seen{data.PriorValue(), data.FinalValue(), len(data.Prior), len(data.Final)})
	})
	assert.NoError(err)

	assert.NoError(Write(reg, uint64(0x1234), 0))

	// The rewrite is dispatched first; the outer write still sees its own
	// prior value and the register's final value.
	assert.Equal([]seen{
		{0x1234, 0x77, 8, 8},
		{0, 0x77, 8, 8},
	}, writes)

	reread := false
	_, err = reg.Observe(POST_READ, func(*PostReadData) {
		if !reread {
			reread = true
			_, err := Read[uint16](reg, 1)
			assert.NoError(err)
		}
	})
	assert.NoError(err)

	var offsets []int
	var sizes []int
	_, err = reg.Observe(POST_READ, func(data *PostReadData) {
		offsets = append(offsets, data.Offset)
		sizes = append(sizes, len(data.Value))
	})
	assert.NoError(err)

	_, err = Read[uint32](reg, 1)
	assert.NoError(err)
	assert.Equal([]int{2, 4}, offsets)
	assert.Equal([]int{2, 4}, sizes)
}

func TestRegister_OverlappingFields(t *testing.T) {
	assert := assert.New(t)

	def := simpleDef(0, "overlap", 2)
	def.Fields = []FieldDefinition{
		{Name: "A", LowBit: 4, HighBit: 7},
		{Name: "B", LowBit: 6, HighBit: 9, ReadOnly: true},
	}

	set := newTestSet(t, []Definition{def}, nil, SetConfig{})
	reg := mustRegister(t, set, "overlap")

	assert.Equal("11111100 00111111", reg.WriteMaskBitString())

	mask := reg.WriteMask()
	for bit := range 16 {
		assert.Equal(bit < 6 || bit > 9, mask.Test(bit), "bit %v", bit)
	}

	assert.NoError(Write(reg, uint16(0xFFFF), 0))
	value, err := Peek[uint16](reg, 0)
	assert.NoError(err)
	assert.Equal(uint16(0xFC3F), value)

	fld, err := reg.Field("A")
	assert.NoError(err)
	assert.Equal(uint64(0x3), fld.Peek())

	// Writes to a fully read-only field leave the register unchanged.
	ro, err := reg.Field("B")
	assert.NoError(err)
	assert.NoError(ro.Write(0xF))
	value, err = Peek[uint16](reg, 0)
	assert.NoError(err)
	assert.Equal(uint16(0xFC3F), value)

	assert.NoError(ro.PokeUnmasked(0xF))
	assert.Equal(uint64(0xF), ro.Peek())
}

func TestRegister_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	set := newTestSet(t, []Definition{simpleDef(0, "rt", 8)}, nil, SetConfig{})
	reg := mustRegister(t, set, "rt")

	for index := range 8 {
		assert.NoError(PokeUnmasked(reg, uint8(index+0x10), index))
		value, err := Peek[uint8](reg, index)
		assert.NoError(err)
		assert.Equal(uint8(index+0x10), value)
	}
	for index := range 4 {
		assert.NoError(PokeUnmasked(reg, uint16(0xA000+index), index))
		value, err := Peek[uint16](reg, index)
		assert.NoError(err)
		assert.Equal(uint16(0xA000+index), value)
	}
	for index := range 2 {
		assert.NoError(PokeUnmasked(reg, uint32(0xB0000000+index), index))
		value, err := Peek[uint32](reg, index)
		assert.NoError(err)
		assert.Equal(uint32(0xB0000000+index), value)
	}

	assert.NoError(PokeUnmasked(reg, uint64(0x0123456789ABCDEF), 0))
	value, err := Peek[uint64](reg, 0)
	assert.NoError(err)
	assert.Equal(uint64(0x0123456789ABCDEF), value)

	reg.Reset(true)
	value, err = Peek[uint64](reg, 0)
	assert.NoError(err)
	assert.Equal(uint64(0), value)
}

func TestRegister_OutOfBounds(t *testing.T) {
	assert := assert.New(t)

	set := newTestSet(t, []Definition{simpleDef(0, "small", 4)}, nil, SetConfig{})
	reg := mustRegister(t, set, "small")

	_, err := Read[uint64](reg, 0)
	assert.True(errors.Is(err, ErrOutOfBounds))

	var access *ErrAccess
	assert.True(errors.As(err, &access))
	assert.Equal(8, access.Size)

	err = Write(reg, uint16(1), 2)
	assert.True(errors.Is(err, ErrOutOfBounds))
	assert.ErrorContains(err, "top.regs.small")

	err = reg.PokeBytes(make([]byte, 2), -1)
	assert.True(errors.Is(err, ErrOutOfBounds))

	// Huge indexes must not wrap around to a valid offset.
	for _, index := range []int{1 << 61, 1 << 62, -1} {
		_, err = Read[uint64](reg, index)
		assert.True(errors.Is(err, ErrOutOfBounds), "index %v", index)
		_, err = Peek[uint32](reg, index)
		assert.True(errors.Is(err, ErrOutOfBounds), "index %v", index)
		err = Write(reg, uint32(1), index)
		assert.True(errors.Is(err, ErrOutOfBounds), "index %v", index)
		err = PokeUnmasked(reg, uint16(1), index)
		assert.True(errors.Is(err, ErrOutOfBounds), "index %v", index)
	}
	err = reg.PokeBytes(make([]byte, 1), int(^uint(0)>>1))
	assert.True(errors.Is(err, ErrOutOfBounds))

	assert.NoError(reg.PokeBytes([]byte{1, 2}, 2))
	buf := make([]byte, 4)
	assert.NoError(reg.PeekBytes(buf, 0))
	assert.Equal([]byte{0, 0, 1, 2}, buf)
}

func TestRegister_ByteStrings(t *testing.T) {
	assert := assert.New(t)

	set := newTestSet(t, []Definition{simpleDef(0, "beef", 8)}, nil, SetConfig{})
	reg := mustRegister(t, set, "beef")

	assert.NoError(reg.WriteBytes([]byte{0xef, 0xbe, 0xad, 0xde, 0xee, 0xff, 0xc0, 0x00}, 0))

	value, err := Read[uint64](reg, 0)
	assert.NoError(err)
	assert.Equal(uint64(0x00c0ffeedeadbeef), value)
	assert.Equal("00 c0 ff ee de ad be ef", reg.ValueByteString())
	assert.Equal("<top.regs.beef 64 bits LE:0x00c0ffeedeadbeef>", reg.String())
	assert.Equal("11111111 11111111 11111111 11111111 11111111 11111111 11111111 11111111", reg.WriteMaskBitString())
	assert.False(reg.HasReadOnlyFields())
}

func TestField_Width(t *testing.T) {
	assert := assert.New(t)

	def := simpleDef(0, "flags", 8)
	def.Fields = []FieldDefinition{
		{Name: "nibble", LowBit: 4, HighBit: 7},
		{Name: "all", LowBit: 0, HighBit: 63},
		{Name: "status", LowBit: 8, HighBit: 8, ReadOnly: true, Desc: "Busy flag"},
	}

	set := newTestSet(t, []Definition{def}, nil, SetConfig{})
	reg := mustRegister(t, set, "flags")

	fld, err := reg.Field("nibble")
	assert.NoError(err)
	assert.Equal(uint(4), fld.Width())

	err = fld.Write(1 << 4)
	assert.True(errors.Is(err, ErrFieldValueTooWide))
	var wide *ErrValue
	if assert.True(errors.As(err, &wide)) {
		assert.Equal(uint64(0x10), wide.Value)
		assert.Equal(uint(4), wide.Bits)
	}
	assert.NoError(fld.Write((1 << 4) - 1))
	assert.Equal(uint64(0xF), fld.Peek())

	assert.NoError(fld.Poke(0x5))
	assert.Equal(uint64(0x5), fld.Peek())

	all, err := reg.Field("all")
	assert.NoError(err)
	assert.NoError(all.PokeUnmasked(0xFFFFFFFFFFFFFFFF))
	assert.Equal(uint64(0xFFFFFFFFFFFFFFFF), all.Peek())

	status, err := reg.Field("status")
	assert.NoError(err)
	assert.True(status.IsReadOnly())
	assert.Equal("Busy flag", status.Desc())
	assert.Equal("<top.regs.flags.status [8-8] 1 bits LE:0x1 [READ-ONLY]>", status.String())
	assert.Equal("<top.regs.flags.nibble [4-7] 4 bits LE:0xf>", fld.String())

	_, err = reg.Field("missing")
	assert.True(errors.Is(err, ErrNoSuchField))

	err = reg.AddField(&FieldDefinition{Name: "late", LowBit: 0, HighBit: 0})
	assert.True(errors.Is(err, ErrRegisterBuilt))
}

func TestRegister_Callbacks(t *testing.T) {
	assert := assert.New(t)

	set := newTestSet(t, []Definition{
		simpleDef(0, "word", 4),
		simpleDef(1, "dword", 8),
		simpleDef(2, "half", 2),
	}, nil, SetConfig{})
	word := mustRegister(t, set, "word")
	dword := mustRegister(t, set, "dword")
	half := mustRegister(t, set, "half")

	assert.NoError(word.WriteWithCheck(0x1_2345_6789))
	value, err := word.ReadWithCheck()
	assert.NoError(err)
	assert.Equal(uint64(0x2345_6789), value)

	var written uint64
	assert.NoError(dword.SetReadCallback(func(*Register) uint64 { return 0xC0DE }))
	assert.NoError(dword.SetWriteCallback(func(_ *Register, v uint64) { written = v }))

	value, err = dword.ReadWithCheck()
	assert.NoError(err)
	assert.Equal(uint64(0xC0DE), value)
	assert.NoError(dword.WriteWithCheck(0xFEED))
	assert.Equal(uint64(0xFEED), written)

	stored, err := Peek[uint64](dword, 0)
	assert.NoError(err)
	assert.Equal(uint64(0), stored)

	_, err = dword.DMI()
	assert.True(errors.Is(err, ErrDMIUnsupported))

	err = half.SetReadCallback(func(*Register) uint64 { return 0 })
	assert.True(errors.Is(err, ErrCallbackSizeUnsupported))
	_, err = half.ReadWithCheck()
	assert.True(errors.Is(err, ErrCallbackSizeUnsupported))
	err = half.WriteWithCheck(0)
	assert.True(errors.Is(err, ErrCallbackSizeUnsupported))
}

func TestRegister_DMI(t *testing.T) {
	assert := assert.New(t)

	def := simpleDef(0, "fast", 8)
	def.Fields = []FieldDefinition{{Name: "locked", LowBit: 0, HighBit: 7, ReadOnly: true}}

	set := newTestSet(t, []Definition{def}, nil, SetConfig{})
	reg := mustRegister(t, set, "fast")

	called := 0
	_, err := reg.Observe(POST_WRITE, func(*PostWriteData) { called++ })
	assert.NoError(err)

	dmi, err := reg.DMI()
	assert.NoError(err)
	assert.Len(dmi.Bytes(), 8)

	DMIWrite(dmi, uint16(0xBEEF), 0)
	DMIWrite(dmi, uint32(0xDEADC0DE), 1)
	assert.Equal(uint16(0xBEEF), DMIRead[uint16](dmi, 0))
	assert.Equal(uint64(0xDEADC0DE0000BEEF), DMIRead[uint64](dmi, 0))
	assert.Equal(0, called)

	value, err := Peek[uint64](reg, 0)
	assert.NoError(err)
	assert.Equal(uint64(0xDEADC0DE0000BEEF), value)

	assert.Panics(func() { DMIRead[uint32](dmi, 2) })
	assert.Panics(func() { DMIRead[uint64](dmi, 1<<61) })
	assert.Panics(func() { DMIWrite(dmi, uint64(0), 1<<61) })
}
