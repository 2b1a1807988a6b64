package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/archreg/intern"
	"github.com/ezrec/archreg/regdef"
	"github.com/ezrec/archreg/register"
)

const script = `
register(0, "ctrl", 4, group="sys", group_num=0, group_idx=0,
         fields=[field("enable", 0, 0), field("rev", 24, 31, read_only=True)],
         initial=0x01000000)
register(1, "lo", 2)
register(2, "shadow0", 4, group="shadow", group_num=1, group_idx=0, banks=[0])
register(3, "shadow1", 4, group="shadow", group_num=1, group_idx=0, banks=[1])
proxy(10, "shadow", "shadow", 1, 0)
`

func newSet(t *testing.T, bank register.BankIdx) *register.RegisterSet {
	t.Helper()

	tables, err := regdef.Load("cli.star", script)
	if err != nil {
		t.Fatal(err)
	}
	set, err := tables.NewRegisterSet(nil, register.SetConfig{
		Strings:     &intern.Manager{},
		CurrentBank: func(register.GroupNum, register.GroupIdx, *string) register.BankIdx { return bank },
	})
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestPoke(t *testing.T) {
	assert := assert.New(t)

	set := newSet(t, 1)

	assert.NoError(poke(set, "ctrl=0xffffffff", false))
	ctrl, err := set.GetRegister("ctrl")
	assert.NoError(err)
	value, err := register.Peek[uint32](ctrl, 0)
	assert.NoError(err)
	assert.Equal(uint32(0x01ffffff), value)

	assert.NoError(poke(set, "ctrl=0xffffffff", true))
	value, err = register.Peek[uint32](ctrl, 0)
	assert.NoError(err)
	assert.Equal(uint32(0xffffffff), value)

	assert.NoError(poke(set, "ctrl.enable=0", false))
	value, err = register.Peek[uint32](ctrl, 0)
	assert.NoError(err)
	assert.Equal(uint32(0xfffffffe), value)

	assert.NoError(poke(set, "shadow=42", false))
	shadow1, err := set.GetRegister("shadow1")
	assert.NoError(err)
	value, err = register.Peek[uint32](shadow1, 0)
	assert.NoError(err)
	assert.Equal(uint32(42), value)

	err = poke(set, "lo=0x10000", false)
	assert.True(errors.Is(err, register.ErrOutOfBounds))
	var wide *register.ErrValue
	if assert.True(errors.As(err, &wide)) {
		assert.Equal(uint64(0x10000), wide.Value)
		assert.Equal(uint(16), wide.Bits)
	}
	assert.ErrorContains(err, "lo")
	err = poke(set, "ctrl.enable=2", false)
	assert.True(errors.Is(err, register.ErrFieldValueTooWide))
	err = poke(set, "ctrl.missing=0", false)
	assert.True(errors.Is(err, register.ErrNoSuchField))
	err = poke(set, "nothing=0", false)
	assert.True(errors.Is(err, register.ErrNoSuchProxy))
	err = poke(set, "ctrl", false)
	assert.True(errors.Is(err, ErrAssignment))
	var bad *ErrPoke
	if assert.True(errors.As(err, &bad)) {
		assert.Equal("ctrl", bad.Assign)
	}
	assert.Error(poke(set, "ctrl=zero", false))
}

func TestShow(t *testing.T) {
	assert := assert.New(t)

	set := newSet(t, 0)

	var buf bytes.Buffer
	show(&buf, set)

	assert.Equal(
		"<ctrl 32 bits LE:0x01000000>\n"+
			"   <ctrl.enable [0-0] 1 bits LE:0x0>\n"+
			"   <ctrl.rev [24-31] 8 bits LE:0x1 [READ-ONLY]>\n"+
			"<lo 16 bits LE:0x0000>\n"+
			"<shadow0 32 bits LE:0x00000000>\n"+
			"<shadow1 32 bits LE:0x00000000>\n"+
			"<shadow -> shadow0>\n",
		buf.String())
}

func TestPokeList(t *testing.T) {
	assert := assert.New(t)

	var pl pokeList
	assert.NoError(pl.Set("a=1"))
	assert.NoError(pl.Set("b=2"))
	assert.Equal("a=1,b=2", pl.String())
}
