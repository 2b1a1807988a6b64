package register

import (
	"iter"
	"log"
	"maps"
	"slices"

	"github.com/ezrec/archreg/intern"
	"github.com/ezrec/archreg/internal"
	"github.com/ezrec/archreg/tree"
)

// Locator is the tree node owning a register set.
type Locator interface {
	Location() string
}

// phaser is implemented by tree nodes that track the lifecycle phase.
type phaser interface {
	Phase() tree.Phase
}

// CurrentBankFunc selects the bank for a proxy resolution. The name is the
// interned proxy name, suitable for pointer comparison.
type CurrentBankFunc func(gn GroupNum, gi GroupIdx, name *string) BankIdx

// SetConfig configures a new register set.
type SetConfig struct {
	LineSize    uint            // Arena line size; zero selects DEFAULT_LINE_SIZE.
	Strings     *intern.Manager // Proxy name interning; nil selects intern.Default.
	CurrentBank CurrentBankFunc // Bank selection; nil always selects bank 0.
	Verbose     bool            // Set to enable verbose logging.
}

// RegisterSet owns the arena, the registers laid out in it, the bank table,
// and the proxies.
type RegisterSet struct {
	Verbose bool // Set to enable verbose logging.

	parent      Locator
	strings     *intern.Manager
	currentBank CurrentBankFunc
	arch        *ArchData
	table       *bankTable
	registers   []*Register
	byName      map[string]*Register // Includes aliases.
	byID        map[Ident]*Register
	proxies     map[string]*Proxy
	proxyList   []*Proxy // Defined proxies, in definition order.
	proxyIDs    map[Ident]*Proxy
	complete    bool // All registers are added.
}

// NewRegisterSet builds every register in defs, lays out the arena, applies
// initial values, and then adds every proxy in proxyDefs. Either table may be
// terminated early by its END sentinel. After construction no register may
// be added.
func NewRegisterSet(parent Locator, defs []Definition, proxyDefs []ProxyDefinition, cfg SetConfig) (set *RegisterSet, err error) {
	location := ""
	if parent != nil {
		location = parent.Location()
	}

	if node, ok := parent.(phaser); ok && node.Phase() > tree.CONFIGURING {
		err = &ErrRegister{Location: location, Err: ErrPhase}
		return
	}

	lineSize := cfg.LineSize
	if lineSize == 0 {
		lineSize = DEFAULT_LINE_SIZE
	}

	arch, err := NewArchData(lineSize)
	if err != nil {
		err = &ErrRegister{Location: location, Err: err}
		return
	}

	strs := cfg.Strings
	if strs == nil {
		strs = intern.Default
	}

	rs := &RegisterSet{
		Verbose:     cfg.Verbose,
		parent:      parent,
		strings:     strs,
		currentBank: cfg.CurrentBank,
		arch:        arch,
		table:       newBankTable(),
		byName:      make(map[string]*Register),
		byID:        make(map[Ident]*Register),
		proxies:     make(map[string]*Proxy),
		proxyIDs:    make(map[Ident]*Proxy),
	}

	for n := range defs {
		if defs[n].IsEnd() {
			break
		}
		err = rs.addRegister(&defs[n])
		if err != nil {
			return
		}
	}

	rs.layout()

	for n := range proxyDefs {
		if proxyDefs[n].IsEnd() {
			break
		}
		def := proxyDefs[n]
		_, err = rs.addProxy(&def)
		if err != nil {
			return
		}
	}

	set = rs
	return
}

// addRegister validates def and allocates its register.
func (rs *RegisterSet) addRegister(def *Definition) (err error) {
	defer func() {
		if err != nil {
			err = &ErrRegister{Location: joinLocation(rs.Location(), def.Name), Err: err}
		}
	}()

	if rs.arch.LaidOut() {
		return ErrLayoutFrozen
	}

	err = def.validate(rs.arch.LineSize())
	if err != nil {
		return
	}
	def = def.clone()

	if _, ok := rs.byID[def.ID]; ok {
		return ErrDuplicateID
	}
	for _, name := range def.Names() {
		if _, ok := rs.byName[name]; ok {
			return ErrDuplicateName
		}
	}

	var view View
	if def.Subset != nil {
		parent, ok := rs.byID[def.Subset.Of]
		if !ok {
			return ErrSubsetParent
		}
		view, err = parent.view.Sub(def.Subset.Offset, def.Bytes)
	} else {
		view, err = rs.arch.Allocate(def.Bytes)
	}
	if err != nil {
		return
	}

	reg := newRegister(rs, def, view)
	err = rs.table.add(reg)
	if err != nil {
		return
	}

	rs.registers = append(rs.registers, reg)
	rs.byID[def.ID] = reg
	for _, name := range def.Names() {
		rs.byName[name] = reg
	}

	if rs.Verbose {
		log.Printf("register: %v: %v bytes at %#x", reg.Location(), def.Bytes, view.Offset())
	}

	return
}

// layout stamps the arena and applies initial values.
func (rs *RegisterSet) layout() {
	rs.arch.Layout()
	rs.complete = true

	for _, reg := range rs.registers {
		reg.bind()
	}
	rs.Reset(true)

	if rs.Verbose {
		log.Printf("register: %v: %v registers in %v bytes, %v banks",
			rs.Location(), len(rs.registers), rs.arch.Size(), rs.table.numBanks())
	}
}

// AddRegister adds a register. Registers may only be added while the set is
// being constructed, so this always fails with ErrLayoutFrozen once
// NewRegisterSet has returned.
func (rs *RegisterSet) AddRegister(def Definition) error {
	return rs.addRegister(&def)
}

// Location is the tree location of the set.
func (rs *RegisterSet) Location() string {
	if rs.parent == nil {
		return ""
	}
	return rs.parent.Location()
}

// LineSize of the backing arena.
func (rs *RegisterSet) LineSize() uint {
	return rs.arch.LineSize()
}

// ArchData returns the backing arena.
func (rs *RegisterSet) ArchData() *ArchData {
	return rs.arch
}

// Len returns the number of registers.
func (rs *RegisterSet) Len() int {
	return len(rs.registers)
}

// Registers iterates the registers in definition order.
func (rs *RegisterSet) Registers() iter.Seq[*Register] {
	return slices.Values(rs.registers)
}

// Proxies iterates the defined proxies in definition order.
func (rs *RegisterSet) Proxies() iter.Seq[*Proxy] {
	return slices.Values(rs.proxyList)
}

// Names iterates every register name, alias, and defined proxy name.
func (rs *RegisterSet) Names() iter.Seq[string] {
	return internal.Concat(
		internal.FlatMap(rs.Registers(), func(reg *Register) []string { return reg.def.Names() }),
		internal.Map(rs.Proxies(), (*Proxy).Name),
	)
}

// GetRegister returns the register with the given name or alias.
func (rs *RegisterSet) GetRegister(name string) (reg *Register, err error) {
	reg, ok := rs.byName[name]
	if !ok {
		err = &ErrRegister{Location: joinLocation(rs.Location(), name), Err: ErrNoSuchRegister}
	}
	return
}

// GetRegisterByID returns the register with the given identifier.
func (rs *RegisterSet) GetRegisterByID(id Ident) (reg *Register, err error) {
	reg, ok := rs.byID[id]
	if !ok {
		err = &ErrRegister{Location: rs.Location(), Err: ErrNoSuchRegister}
	}
	return
}

// NumBanks returns the number of banks in the bank table.
func (rs *RegisterSet) NumBanks() int {
	return rs.table.numBanks()
}

// CanLookupRegister returns true if a register occupies the slot.
func (rs *RegisterSet) CanLookupRegister(gn GroupNum, gi GroupIdx, bankIdx BankIdx) bool {
	return rs.table.canLookup(gn, gi, bankIdx)
}

// LookupRegister returns the register in the slot, or nil if the slot is
// empty. The bank must exist; an out of range bank panics.
func (rs *RegisterSet) LookupRegister(gn GroupNum, gi GroupIdx, bankIdx BankIdx) *Register {
	return rs.table.lookup(gn, gi, bankIdx)
}

// GetRegisterAt returns the register in the slot, with full bounds checks.
func (rs *RegisterSet) GetRegisterAt(gn GroupNum, gi GroupIdx, bankIdx BankIdx) (reg *Register, err error) {
	if !rs.table.canLookup(gn, gi, bankIdx) {
		err = &ErrRegister{
			Location: rs.Location(),
			Err:      &ErrBankSlot{Bank: bankIdx, GroupNum: gn, GroupIdx: gi, Err: ErrNoSuchRegister},
		}
		return
	}

	reg = rs.table.lookup(gn, gi, bankIdx)
	return
}

// GetGroupSize returns the number of registers in a group in a bank.
func (rs *RegisterSet) GetGroupSize(gn GroupNum, bankIdx BankIdx) int {
	return rs.table.groupSize(gn, bankIdx)
}

// SetMinimumBankIndex ensures banks 0 through bankIdx exist.
func (rs *RegisterSet) SetMinimumBankIndex(bankIdx BankIdx) (err error) {
	err = checkBankIdx(bankIdx)
	if err != nil {
		err = &ErrRegister{Location: rs.Location(), Err: err}
		return
	}

	rs.table.extend(bankIdx)
	return
}

// SetCurrentBankFunction replaces the bank selection callback. A nil
// callback always selects bank 0.
func (rs *RegisterSet) SetCurrentBankFunction(fn CurrentBankFunc) {
	rs.currentBank = fn
}

// CurrentBank returns the bank selected for a proxy.
func (rs *RegisterSet) CurrentBank(gn GroupNum, gi GroupIdx, name *string) BankIdx {
	if rs.currentBank == nil {
		return 0
	}
	return rs.currentBank(gn, gi, name)
}

// Strings returns the intern manager used for proxy names.
func (rs *RegisterSet) Strings() *intern.Manager {
	return rs.strings
}

// Reset restores every register to its initial value without notification.
// Subset registers without an initial value keep their parent's value.
func (rs *RegisterSet) Reset(unmasked bool) {
	for _, reg := range rs.registers {
		if reg.def.Subset != nil && len(reg.def.InitialValue) == 0 {
			continue
		}
		reg.Reset(unmasked)
	}
}

// ProxyNames iterates the names of every proxy, including lazily bound ones,
// in sorted order.
func (rs *RegisterSet) ProxyNames() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(rs.proxies)))
}
