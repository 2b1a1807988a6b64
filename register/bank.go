package register

import (
	"cmp"
	"maps"
	"slices"
)

// bank maps group number and group index to a register.
type bank map[GroupNum]map[GroupIdx]*Register

func (bk bank) get(gn GroupNum, gi GroupIdx) *Register {
	return bk[gn][gi]
}

func (bk bank) put(reg *Register) {
	group, ok := bk[reg.def.GroupNum]
	if !ok {
		group = make(map[GroupIdx]*Register)
		bk[reg.def.GroupNum] = group
	}
	group[reg.def.GroupIdx] = reg
}

// bankTable is the bank x group number x group index lookup table.
// Bank 0 always exists. Unbanked registers appear in every bank, including
// banks created after they were added.
type bankTable struct {
	banks    []bank
	unbanked []*Register
}

func newBankTable() *bankTable {
	return &bankTable{banks: []bank{{}}}
}

func (bt *bankTable) collision(bankIdx BankIdx, occupant *Register) error {
	return &ErrBankSlot{
		Bank:     bankIdx,
		GroupNum: occupant.def.GroupNum,
		GroupIdx: occupant.def.GroupIdx,
		Occupant: occupant.def.Name,
		Err:      ErrCollision,
	}
}

// add enters a grouped register into the table.
func (bt *bankTable) add(reg *Register) (err error) {
	def := reg.def
	if !def.IsGrouped() {
		if def.IsBanked() {
			err = ErrBankUngrouped
		}
		return
	}

	if !def.IsBanked() {
		for n, bk := range bt.banks {
			if other := bk.get(def.GroupNum, def.GroupIdx); other != nil {
				return bt.collision(BankIdx(n), other)
			}
		}
		for _, bk := range bt.banks {
			bk.put(reg)
		}
		bt.unbanked = append(bt.unbanked, reg)
		return
	}

	// Bank indexes were bounded by Definition.validate.
	top := slices.Max(def.BankMembership)

	for _, bankIdx := range def.BankMembership {
		if int(bankIdx) >= len(bt.banks) {
			continue
		}
		if other := bt.banks[bankIdx].get(def.GroupNum, def.GroupIdx); other != nil {
			return bt.collision(bankIdx, other)
		}
	}

	for _, other := range bt.unbanked {
		if other.def.GroupNum == def.GroupNum && other.def.GroupIdx == def.GroupIdx {
			return bt.collision(def.BankMembership[0], other)
		}
	}

	bt.extend(top)
	for _, bankIdx := range def.BankMembership {
		bt.banks[bankIdx].put(reg)
	}

	return
}

// extend ensures banks 0 through top exist. New banks receive every
// unbanked register.
func (bt *bankTable) extend(top BankIdx) {
	for BankIdx(len(bt.banks)) <= top {
		bk := bank{}
		for _, reg := range bt.unbanked {
			bk.put(reg)
		}
		bt.banks = append(bt.banks, bk)
	}
}

func (bt *bankTable) numBanks() int {
	return len(bt.banks)
}

// canLookup bounds checks all three dimensions.
func (bt *bankTable) canLookup(gn GroupNum, gi GroupIdx, bankIdx BankIdx) bool {
	if int(bankIdx) >= len(bt.banks) {
		return false
	}
	return bt.banks[bankIdx].get(gn, gi) != nil
}

// lookup returns the register in a slot, or nil. An out of range bank panics.
func (bt *bankTable) lookup(gn GroupNum, gi GroupIdx, bankIdx BankIdx) *Register {
	return bt.banks[bankIdx][gn][gi]
}

func (bt *bankTable) groupSize(gn GroupNum, bankIdx BankIdx) int {
	if int(bankIdx) >= len(bt.banks) {
		return 0
	}
	return len(bt.banks[bankIdx][gn])
}

// anyBank returns every register occupying the (gn, gi) slot in some bank.
func (bt *bankTable) anyBank(gn GroupNum, gi GroupIdx) (regs []*Register) {
	for _, bk := range bt.banks {
		reg := bk.get(gn, gi)
		if reg != nil && !slices.Contains(regs, reg) {
			regs = append(regs, reg)
		}
	}
	return
}

// slotKey identifies a row of the cross-table dump.
type slotKey struct {
	GroupName string
	GroupNum  GroupNum
	GroupIdx  GroupIdx
}

// rows returns every occupied slot, sorted by group number then index.
func (bt *bankTable) rows() (keys []slotKey) {
	seen := map[slotKey]bool{}
	for _, bk := range bt.banks {
		for _, group := range bk {
			for _, reg := range group {
				seen[slotKey{reg.def.GroupName, reg.def.GroupNum, reg.def.GroupIdx}] = true
			}
		}
	}

	keys = slices.SortedFunc(maps.Keys(seen), func(a, b slotKey) int {
		return cmp.Or(cmp.Compare(a.GroupNum, b.GroupNum), cmp.Compare(a.GroupIdx, b.GroupIdx))
	})
	return
}
