// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/bits"
	"os"
	"strconv"
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/ezrec/archreg/bitarray"
	"github.com/ezrec/archreg/regdef"
	"github.com/ezrec/archreg/register"
	"github.com/ezrec/archreg/tree"
)

// pokeList collects repeated -poke name=value flags.
type pokeList []string

func (pl *pokeList) String() string {
	return strings.Join(*pl, ",")
}

func (pl *pokeList) Set(value string) error {
	*pl = append(*pl, value)
	return nil
}

// poke applies one name=value assignment. The name may be a register, an
// alias, a proxy, or register.field.
func poke(set *register.RegisterSet, assign string, unmasked bool) (err error) {
	name, text, ok := strings.Cut(assign, "=")
	if !ok {
		err = &ErrPoke{Assign: assign, Err: ErrAssignment}
		return
	}

	value, err := strconv.ParseUint(text, 0, 64)
	if err != nil {
		return
	}

	regName, fieldName, isField := strings.Cut(name, ".")
	proxy, err := set.GetRegisterProxy(regName)
	if err != nil {
		return
	}
	reg, err := proxy.CurrentRegister()
	if err != nil {
		return
	}

	if isField {
		var fld *register.Field
		fld, err = reg.Field(fieldName)
		if err != nil {
			return
		}
		if unmasked {
			return fld.PokeUnmasked(value)
		}
		return fld.Poke(value)
	}

	if uint(bits.Len64(value)) > reg.Bits() {
		err = &register.ErrRegister{
			Location: reg.Location(),
			Err:      &register.ErrValue{Value: value, Bits: reg.Bits(), Err: register.ErrOutOfBounds},
		}
		return
	}
	data := bitarray.FromUint64(value, int(reg.Bytes()))
	if unmasked {
		return reg.PokeBytesUnmasked(data.Bytes(), 0)
	}
	return reg.PokeBytes(data.Bytes(), 0)
}

// show prints every register with its fields, then every proxy.
func show(w io.Writer, set *register.RegisterSet) {
	for reg := range set.Registers() {
		fmt.Fprintln(w, reg)
		for fld := range reg.Fields() {
			fmt.Fprintln(w, "  ", fld)
		}
	}
	for proxy := range set.Proxies() {
		fmt.Fprintln(w, proxy)
	}
}

func main() {
	var defs string
	var root string
	var bank int
	var lineSize int
	var pokes pokeList
	var unmasked bool
	var dump bool
	var output string
	var verbose bool

	flag.StringVar(&defs, "f", "", ".star register definition file")
	flag.StringVar(&root, "n", "top", "Name of the tree node owning the registers")
	flag.IntVar(&bank, "bank", env.Int("ARCHREG_BANK", 0), "Current bank for proxies")
	flag.IntVar(&lineSize, "line", env.Int("ARCHREG_LINE_SIZE", 0), "Arena line size (0 to use the script's)")
	flag.Var(&pokes, "poke", "Poke name=value (repeatable)")
	flag.BoolVar(&unmasked, "u", false, "Pokes ignore the write-mask")
	flag.BoolVar(&dump, "dump", false, "Print the bank cross-table")
	flag.StringVar(&output, "o", "-", "Output")
	flag.BoolVar(&verbose, "v", env.Bool("ARCHREG_VERBOSE"), "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}
	if len(defs) == 0 {
		log.Fatalf("%v: -f is required", os.Args[0])
	}
	if bank < 0 || lineSize < 0 {
		log.Fatalf("%v: -bank and -line must not be negative", os.Args[0])
	}

	ld := &regdef.Loader{Verbose: verbose}
	tables, err := ld.Load(defs, nil)
	if err != nil {
		log.Fatal(err)
	}

	node, err := tree.NewRoot(root)
	if err != nil {
		log.Fatalf("%v: %v", root, err)
	}
	node.Verbose = verbose

	set, err := tables.NewRegisterSet(node, register.SetConfig{
		LineSize: uint(lineSize),
		CurrentBank: func(register.GroupNum, register.GroupIdx, *string) register.BankIdx {
			return register.BankIdx(bank)
		},
		Verbose: verbose,
	})
	if err != nil {
		log.Fatalf("%v: %v", defs, err)
	}

	for _, assign := range pokes {
		err = poke(set, assign, unmasked)
		if err != nil {
			log.Fatalf("%v: %v", assign, err)
		}
	}

	ouf := os.Stdout
	if output != "-" {
		ouf, err = os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
	}

	show(ouf, set)

	if dump {
		fmt.Fprintln(ouf)
		err = set.Dump(ouf)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}
}
