package register

import (
	"log"
	"math"
	"math/bits"
	"slices"

	"github.com/ezrec/archreg/tree"
)

type Ident uint32    // Register or proxy identifier, unique within a set.
type GroupNum uint32 // Numeric group tag.
type GroupIdx uint32 // Index within a group.
type BankIdx uint32  // Bank index.

const (
	INVALID_ID      = Ident(math.MaxUint32)
	GROUP_NUM_NONE  = GroupNum(math.MaxUint32)
	GROUP_IDX_NONE  = GroupIdx(math.MaxUint32)
	GROUP_NAME_NONE = ""

	MAX_FIELD_BITS     = 64   // Widest field accessible as an integer.
	DEFAULT_LINE_SIZE  = 64   // Default arena line size in bytes.
	WARN_MAX_BANK_IDX  = 64   // Bank indices above this are logged.
	ERROR_MAX_BANK_IDX = 4096 // Bank indices above this are rejected.
)

// FieldDefinition describes a bit range within a register.
// LowBit and HighBit are both inclusive.
type FieldDefinition struct {
	Name     string
	Desc     string
	LowBit   uint
	HighBit  uint
	ReadOnly bool
}

// Width of the field in bits.
func (fd *FieldDefinition) Width() uint {
	return fd.HighBit - fd.LowBit + 1
}

// Subset places a register inside the storage of a larger register.
type Subset struct {
	Of     Ident // Identifier of the parent register, defined earlier.
	Offset uint  // Byte offset into the parent.
}

// Definition is the immutable description of a register.
type Definition struct {
	ID             Ident
	Name           string
	GroupNum       GroupNum // GROUP_NUM_NONE when ungrouped.
	GroupName      string   // GROUP_NAME_NONE when ungrouped.
	GroupIdx       GroupIdx // GROUP_IDX_NONE when ungrouped.
	Desc           string
	Subset         *Subset // Set when the register aliases part of another.
	Bytes          uint
	Fields         []FieldDefinition
	BankMembership []BankIdx // Empty for registers visible in every bank.
	Aliases        []string
	InitialValue   []byte // Repeated to fill the register; nil for zero.
	Hints          uint64
	RegDomain      uint64
}

// DEFINITION_END terminates a definition table. Entries after it are ignored.
var DEFINITION_END = Definition{}

// IsEnd returns true for the table terminator.
func (def *Definition) IsEnd() bool {
	return len(def.Name) == 0
}

// IsGrouped returns true if the register appears in the bank table.
func (def *Definition) IsGrouped() bool {
	return def.GroupNum != GROUP_NUM_NONE
}

// IsBanked returns true if the register is restricted to specific banks.
func (def *Definition) IsBanked() bool {
	return len(def.BankMembership) != 0
}

// Names returns the register name followed by its aliases.
func (def *Definition) Names() []string {
	return append([]string{def.Name}, def.Aliases...)
}

// clone returns a copy that shares no slices with def.
func (def *Definition) clone() (out *Definition) {
	out = &Definition{}
	*out = *def
	out.Fields = slices.Clone(def.Fields)
	out.BankMembership = slices.Clone(def.BankMembership)
	out.Aliases = slices.Clone(def.Aliases)
	out.InitialValue = slices.Clone(def.InitialValue)
	if def.Subset != nil {
		subset := *def.Subset
		out.Subset = &subset
	}
	return
}

// validate checks the definition in isolation.
func (def *Definition) validate(lineSize uint) (err error) {
	if def.ID == INVALID_ID {
		return ErrInvalidID
	}

	names := def.Names()
	for n, name := range names {
		if tree.ValidateName(name) != nil {
			return ErrInvalidName
		}
		if slices.Contains(names[:n], name) {
			return ErrDuplicateName
		}
	}

	switch {
	case def.Bytes == 0:
		return ErrSizeZero
	case bits.OnesCount(def.Bytes) != 1:
		return ErrSizeNotPowerOfTwo
	case def.Bytes > lineSize:
		return ErrSizeTooLarge
	}

	if (def.GroupNum == GROUP_NUM_NONE) != (def.GroupName == GROUP_NAME_NONE) {
		return ErrGroupMismatch
	}
	if (def.GroupNum == GROUP_NUM_NONE) != (def.GroupIdx == GROUP_IDX_NONE) {
		return ErrGroupMismatch
	}

	if def.IsBanked() {
		if !def.IsGrouped() {
			return ErrBankUngrouped
		}
		err = checkBankIdx(slices.Max(def.BankMembership))
		if err != nil {
			return
		}
	}

	for n := range def.Fields {
		fd := &def.Fields[n]
		err = fd.validate(def.Bytes)
		if err == nil && slices.ContainsFunc(def.Fields[:n], func(other FieldDefinition) bool {
			return other.Name == fd.Name
		}) {
			err = ErrDuplicateName
		}
		if err != nil {
			return &ErrField{Field: fd.Name, Err: err}
		}
	}

	return
}

func (fd *FieldDefinition) validate(regBytes uint) (err error) {
	switch {
	case tree.ValidateName(fd.Name) != nil:
		err = ErrInvalidName
	case fd.HighBit < fd.LowBit:
		err = ErrFieldRange
	case fd.HighBit >= regBytes*8:
		err = ErrFieldRange
	case fd.Width() > MAX_FIELD_BITS:
		err = ErrFieldTooWide
	}
	return
}

// checkBankIdx applies the bank index ceilings.
func checkBankIdx(idx BankIdx) (err error) {
	if idx > ERROR_MAX_BANK_IDX {
		return ErrBankIndexTooLarge
	}
	if idx > WARN_MAX_BANK_IDX {
		log.Printf("register: bank index %v exceeds %v", idx, WARN_MAX_BANK_IDX)
	}
	return
}

// ProxyDefinition describes a name resolved to a register through the
// current bank.
type ProxyDefinition struct {
	ID        Ident
	Name      string
	GroupName string
	GroupNum  GroupNum
	GroupIdx  GroupIdx
	Desc      string
}

// PROXY_DEFINITION_END terminates a proxy definition table.
var PROXY_DEFINITION_END = ProxyDefinition{}

// IsEnd returns true for the table terminator.
func (def *ProxyDefinition) IsEnd() bool {
	return len(def.Name) == 0
}
