// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package regdef loads register definition tables from Starlark scripts.
//
// A script describes its registers by calling the predeclared builtins
//
//	field(name, low, high, read_only=False, desc="")
//	register(id, name, bytes, group="", group_num=None, group_idx=None,
//	         fields=[], banks=[], aliases=[], initial=None,
//	         subset_of=None, subset_offset=0, desc="", hints=0, regdomain=0)
//	proxy(id, name, group, group_num, group_idx, desc="")
//
// and may set the arena line size with a top level `line_size = N`.
// Registers and proxies are defined in call order.
package regdef

import (
	"fmt"
	"log"
	"maps"
	"math"
	"slices"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/archreg/register"
)

// Definitions are the tables built by a script.
type Definitions struct {
	LineSize  uint // Zero if the script does not set line_size.
	Registers []register.Definition
	Proxies   []register.ProxyDefinition
}

// NewRegisterSet builds a register set from the tables. The script's line
// size is used unless cfg sets one.
func (defs *Definitions) NewRegisterSet(parent register.Locator, cfg register.SetConfig) (*register.RegisterSet, error) {
	if cfg.LineSize == 0 {
		cfg.LineSize = defs.LineSize
	}
	return register.NewRegisterSet(parent, defs.Registers, defs.Proxies, cfg)
}

// Loader evaluates definition scripts.
type Loader struct {
	Verbose bool // If set, verbosely logs each definition.

	predefine starlark.StringDict
}

// Predefine makes an integer constant visible to scripts.
func (ld *Loader) Predefine(name string, value int64) {
	if ld.predefine == nil {
		ld.predefine = starlark.StringDict{}
	}
	ld.predefine[name] = starlark.MakeInt64(value)
}

// Load evaluates a script. As with starlark.ExecFileOptions, src may be a
// string, []byte, or io.Reader, or nil to read filename.
func (ld *Loader) Load(filename string, src any) (defs *Definitions, err error) {
	defer func() {
		if err != nil {
			err = &ErrScript{Filename: filename, Err: err}
		}
	}()

	st := &state{loader: ld, filename: filename, defs: &Definitions{}}

	pred := starlark.StringDict{}
	maps.Copy(pred, ld.predefine)
	pred["field"] = starlark.NewBuiltin("field", st.field)
	pred["register"] = starlark.NewBuiltin("register", st.register)
	pred["proxy"] = starlark.NewBuiltin("proxy", st.proxy)

	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			log.Printf("regdef: %v: %v", filename, msg)
		},
	}
	opts := syntax.FileOptions{}
	globals, err := starlark.ExecFileOptions(&opts, thread, filename, src, pred)
	if st.err != nil {
		// Report the builtin's own error rather than its backtrace.
		err = st.err
		return
	}
	if err != nil {
		return
	}

	if value, ok := globals["line_size"]; ok {
		size, ok := value.(starlark.Int)
		if !ok {
			err = ErrLineSize
			return
		}
		n, ok := size.Uint64()
		if !ok || n > math.MaxUint32 {
			err = ErrLineSize
			return
		}
		st.defs.LineSize = uint(n)
	}

	if ld.Verbose {
		log.Printf("regdef: %v: %v registers, %v proxies", filename, len(st.defs.Registers), len(st.defs.Proxies))
	}

	defs = st.defs
	return
}

// Load evaluates a script with a default Loader.
func Load(filename string, src any) (*Definitions, error) {
	return (&Loader{}).Load(filename, src)
}

// fieldValue is the Starlark value returned by field().
type fieldValue struct {
	def register.FieldDefinition
}

var _ starlark.Value = (*fieldValue)(nil)

func (fv *fieldValue) String() string {
	return fmt.Sprintf("field(%q, %d, %d)", fv.def.Name, fv.def.LowBit, fv.def.HighBit)
}

func (fv *fieldValue) Type() string {
	return "field"
}

func (fv *fieldValue) Freeze() {}

func (fv *fieldValue) Truth() starlark.Bool {
	return starlark.True
}

func (fv *fieldValue) Hash() (uint32, error) {
	return 0, ErrUnhashable
}

// state collects definitions while a script runs.
type state struct {
	loader   *Loader
	filename string
	defs     *Definitions
	err      error // First error raised by a builtin.
}

func (st *state) fail(b *starlark.Builtin, arg string, err error) error {
	err = &ErrArg{Builtin: b.Name(), Arg: arg, Err: err}
	if st.err == nil {
		st.err = err
	}
	return err
}

// uintArg converts an integer argument no larger than limit.
func (st *state) uintArg(b *starlark.Builtin, arg string, value starlark.Value, limit uint64) (n uint64, err error) {
	num, ok := value.(starlark.Int)
	if !ok {
		err = st.fail(b, arg, ErrArgType)
		return
	}
	n, ok = num.Uint64()
	if !ok || n > limit {
		err = st.fail(b, arg, ErrArgRange)
	}
	return
}

// optUintArg is uintArg for an argument that may be omitted or None.
func (st *state) optUintArg(b *starlark.Builtin, arg string, value starlark.Value, none uint64, limit uint64) (n uint64, err error) {
	if value == nil || value == starlark.None {
		n = none
		return
	}
	return st.uintArg(b, arg, value, limit)
}

// eachArg calls fn for each element of a list or tuple argument.
func (st *state) eachArg(b *starlark.Builtin, arg string, value starlark.Value, fn func(item starlark.Value) error) (err error) {
	if value == nil || value == starlark.None {
		return
	}
	if _, ok := value.(starlark.String); ok {
		return st.fail(b, arg, ErrArgType)
	}
	seq, ok := value.(starlark.Indexable)
	if !ok {
		return st.fail(b, arg, ErrArgType)
	}
	for n := range seq.Len() {
		err = fn(seq.Index(n))
		if err != nil {
			return
		}
	}
	return
}

// initialArg converts an initial value. An integer is encoded little endian
// at the register width; a list gives the bytes directly.
func (st *state) initialArg(b *starlark.Builtin, value starlark.Value, size uint) (data []byte, err error) {
	if value == nil || value == starlark.None {
		return
	}

	if num, ok := value.(starlark.Int); ok {
		big := num.BigInt()
		if big.Sign() < 0 {
			err = st.fail(b, "initial", ErrArgRange)
			return
		}
		data = big.Bytes()
		if uint(len(data)) > size {
			err = st.fail(b, "initial", ErrInitialWide)
			return
		}
		slices.Reverse(data)
		data = append(data, make([]byte, size-uint(len(data)))...)
		return
	}

	err = st.eachArg(b, "initial", value, func(item starlark.Value) error {
		n, err := st.uintArg(b, "initial", item, math.MaxUint8)
		data = append(data, byte(n))
		return err
	})
	return
}

func (st *state) field(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var name, desc string
	var low, high starlark.Value
	var readOnly bool
	err = starlark.UnpackArgs(b.Name(), args, kwargs,
		"name", &name, "low", &low, "high", &high,
		"read_only?", &readOnly, "desc?", &desc)
	if err != nil {
		return
	}

	lowBit, err := st.uintArg(b, "low", low, math.MaxUint32)
	if err != nil {
		return
	}
	highBit, err := st.uintArg(b, "high", high, math.MaxUint32)
	if err != nil {
		return
	}

	value = &fieldValue{def: register.FieldDefinition{
		Name:     name,
		Desc:     desc,
		LowBit:   uint(lowBit),
		HighBit:  uint(highBit),
		ReadOnly: readOnly,
	}}
	return
}

func (st *state) register(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var name, group, desc string
	var id, size, groupNum, groupIdx starlark.Value
	var fields, banks, aliases, initial starlark.Value
	var subsetOf, subsetOffset, hints, regdomain starlark.Value
	err = starlark.UnpackArgs(b.Name(), args, kwargs,
		"id", &id, "name", &name, "bytes", &size,
		"group?", &group, "group_num?", &groupNum, "group_idx?", &groupIdx,
		"fields?", &fields, "banks?", &banks, "aliases?", &aliases,
		"initial?", &initial, "subset_of?", &subsetOf, "subset_offset?", &subsetOffset,
		"desc?", &desc, "hints?", &hints, "regdomain?", &regdomain)
	if err != nil {
		return
	}

	def := register.Definition{
		Name:      name,
		GroupName: group,
		Desc:      desc,
	}

	n, err := st.uintArg(b, "id", id, math.MaxUint32)
	if err != nil {
		return
	}
	def.ID = register.Ident(n)

	n, err = st.uintArg(b, "bytes", size, math.MaxUint32)
	if err != nil {
		return
	}
	def.Bytes = uint(n)

	n, err = st.optUintArg(b, "group_num", groupNum, uint64(register.GROUP_NUM_NONE), math.MaxUint32)
	if err != nil {
		return
	}
	def.GroupNum = register.GroupNum(n)

	n, err = st.optUintArg(b, "group_idx", groupIdx, uint64(register.GROUP_IDX_NONE), math.MaxUint32)
	if err != nil {
		return
	}
	def.GroupIdx = register.GroupIdx(n)

	err = st.eachArg(b, "fields", fields, func(item starlark.Value) error {
		fv, ok := item.(*fieldValue)
		if !ok {
			return st.fail(b, "fields", ErrFieldType)
		}
		def.Fields = append(def.Fields, fv.def)
		return nil
	})
	if err != nil {
		return
	}

	err = st.eachArg(b, "banks", banks, func(item starlark.Value) error {
		bank, err := st.uintArg(b, "banks", item, math.MaxUint32)
		def.BankMembership = append(def.BankMembership, register.BankIdx(bank))
		return err
	})
	if err != nil {
		return
	}

	err = st.eachArg(b, "aliases", aliases, func(item starlark.Value) error {
		alias, ok := starlark.AsString(item)
		if !ok {
			return st.fail(b, "aliases", ErrArgType)
		}
		def.Aliases = append(def.Aliases, alias)
		return nil
	})
	if err != nil {
		return
	}

	def.InitialValue, err = st.initialArg(b, initial, def.Bytes)
	if err != nil {
		return
	}

	if subsetOf != nil && subsetOf != starlark.None {
		def.Subset = &register.Subset{}
		n, err = st.uintArg(b, "subset_of", subsetOf, math.MaxUint32)
		if err != nil {
			return
		}
		def.Subset.Of = register.Ident(n)
		n, err = st.optUintArg(b, "subset_offset", subsetOffset, 0, math.MaxUint32)
		if err != nil {
			return
		}
		def.Subset.Offset = uint(n)
	}

	def.Hints, err = st.optUintArg(b, "hints", hints, 0, math.MaxUint64)
	if err != nil {
		return
	}
	def.RegDomain, err = st.optUintArg(b, "regdomain", regdomain, 0, math.MaxUint64)
	if err != nil {
		return
	}

	if st.loader.Verbose {
		log.Printf("regdef: %v: register %v id %v, %v bytes", st.filename, def.Name, def.ID, def.Bytes)
	}

	st.defs.Registers = append(st.defs.Registers, def)
	value = starlark.None
	return
}

func (st *state) proxy(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var name, group, desc string
	var id, groupNum, groupIdx starlark.Value
	err = starlark.UnpackArgs(b.Name(), args, kwargs,
		"id", &id, "name", &name, "group", &group,
		"group_num", &groupNum, "group_idx", &groupIdx, "desc?", &desc)
	if err != nil {
		return
	}

	def := register.ProxyDefinition{
		Name:      name,
		GroupName: group,
		Desc:      desc,
	}

	n, err := st.uintArg(b, "id", id, math.MaxUint32)
	if err != nil {
		return
	}
	def.ID = register.Ident(n)

	n, err = st.uintArg(b, "group_num", groupNum, math.MaxUint32)
	if err != nil {
		return
	}
	def.GroupNum = register.GroupNum(n)

	n, err = st.uintArg(b, "group_idx", groupIdx, math.MaxUint32)
	if err != nil {
		return
	}
	def.GroupIdx = register.GroupIdx(n)

	if st.loader.Verbose {
		log.Printf("regdef: %v: proxy %v for group %v index %v", st.filename, def.Name, def.GroupNum, def.GroupIdx)
	}

	st.defs.Proxies = append(st.defs.Proxies, def)
	value = starlark.None
	return
}
