package register

import (
	"fmt"
	"log"

	"github.com/ezrec/archreg/tree"
)

// Proxy resolves a stable name to a register. A bound proxy always resolves
// to the same register. A dynamic proxy resolves its group slot in the bank
// selected by the set's current bank function at each access.
type Proxy struct {
	set  *RegisterSet
	reg  *Register        // Set for bound proxies.
	def  *ProxyDefinition // Set for dynamic proxies.
	name *string          // Interned.
}

// addProxy validates def and adds a dynamic proxy.
func (rs *RegisterSet) addProxy(def *ProxyDefinition) (proxy *Proxy, err error) {
	defer func() {
		if err != nil {
			err = &ErrRegister{Location: joinLocation(rs.Location(), def.Name), Err: err}
		}
	}()

	if !rs.complete {
		err = ErrProxyBeforeRegisters
		return
	}

	if def.ID == INVALID_ID {
		err = ErrInvalidID
		return
	}
	if tree.ValidateName(def.Name) != nil {
		err = ErrInvalidName
		return
	}
	if def.GroupNum == GROUP_NUM_NONE || def.GroupIdx == GROUP_IDX_NONE {
		err = ErrProxyUngrouped
		return
	}

	if _, ok := rs.byID[def.ID]; ok {
		err = ErrDuplicateID
		return
	}
	if _, ok := rs.proxyIDs[def.ID]; ok {
		err = ErrDuplicateID
		return
	}
	if _, ok := rs.byName[def.Name]; ok {
		err = ErrDuplicateName
		return
	}
	if _, ok := rs.proxies[def.Name]; ok {
		err = ErrDuplicateName
		return
	}

	backing := rs.table.anyBank(def.GroupNum, def.GroupIdx)
	if len(backing) == 0 {
		err = &ErrBankSlot{GroupNum: def.GroupNum, GroupIdx: def.GroupIdx, Err: ErrProxyNoBacking}
		return
	}
	for _, reg := range backing {
		if reg.def.GroupName != def.GroupName {
			err = &ErrProxyGroup{
				Proxy:         def.Name,
				GroupName:     def.GroupName,
				Register:      reg.def.Name,
				RegisterGroup: reg.def.GroupName,
			}
			return
		}
	}

	proxy = &Proxy{
		set:  rs,
		def:  def,
		name: rs.strings.Intern(def.Name),
	}
	rs.proxies[def.Name] = proxy
	rs.proxyIDs[def.ID] = proxy
	rs.proxyList = append(rs.proxyList, proxy)

	if rs.Verbose {
		log.Printf("register: %v: proxy for group %v index %v", joinLocation(rs.Location(), def.Name), def.GroupNum, def.GroupIdx)
	}

	return
}

// AddProxy adds a dynamic proxy after all registers are added.
func (rs *RegisterSet) AddProxy(def ProxyDefinition) (proxy *Proxy, err error) {
	return rs.addProxy(&def)
}

// GetRegisterProxy returns the proxy with the given name. If no proxy was
// defined with that name, a proxy bound to the named register is created and
// kept, so later calls return the same proxy.
func (rs *RegisterSet) GetRegisterProxy(name string) (proxy *Proxy, err error) {
	proxy, ok := rs.proxies[name]
	if ok {
		return
	}

	reg, ok := rs.byName[name]
	if !ok {
		err = &ErrRegister{Location: joinLocation(rs.Location(), name), Err: ErrNoSuchProxy}
		return
	}

	proxy = &Proxy{
		set:  rs,
		reg:  reg,
		name: rs.strings.Intern(name),
	}
	rs.proxies[name] = proxy
	return
}

// Name of the proxy.
func (proxy *Proxy) Name() string {
	return *proxy.name
}

// InternedName returns the interned name pointer passed to the current bank
// function.
func (proxy *Proxy) InternedName() *string {
	return proxy.name
}

// IsBound returns true if the proxy always resolves to the same register.
func (proxy *Proxy) IsBound() bool {
	return proxy.reg != nil
}

// Definition returns the proxy definition, or nil for a bound proxy.
func (proxy *Proxy) Definition() *ProxyDefinition {
	return proxy.def
}

// Location is the tree location of the proxy.
func (proxy *Proxy) Location() string {
	return joinLocation(proxy.set.Location(), *proxy.name)
}

// TryCurrentRegister returns the register visible through the proxy, or nil
// if the slot is empty in the current bank.
func (proxy *Proxy) TryCurrentRegister() *Register {
	if proxy.reg != nil {
		return proxy.reg
	}

	def := proxy.def
	bankIdx := proxy.set.CurrentBank(def.GroupNum, def.GroupIdx, proxy.name)
	if !proxy.set.table.canLookup(def.GroupNum, def.GroupIdx, bankIdx) {
		return nil
	}
	return proxy.set.table.lookup(def.GroupNum, def.GroupIdx, bankIdx)
}

// CurrentRegister returns the register visible through the proxy.
func (proxy *Proxy) CurrentRegister() (reg *Register, err error) {
	if proxy.reg != nil {
		reg = proxy.reg
		return
	}

	def := proxy.def
	bankIdx := proxy.set.CurrentBank(def.GroupNum, def.GroupIdx, proxy.name)
	if !proxy.set.table.canLookup(def.GroupNum, def.GroupIdx, bankIdx) {
		err = &ErrRegister{
			Location: proxy.Location(),
			Err:      &ErrBankSlot{Bank: bankIdx, GroupNum: def.GroupNum, GroupIdx: def.GroupIdx, Err: ErrNoSuchRegisterInBank},
		}
		return
	}

	reg = proxy.set.table.lookup(def.GroupNum, def.GroupIdx, bankIdx)
	return
}

// String renders the proxy and its current resolution.
func (proxy *Proxy) String() string {
	reg := proxy.TryCurrentRegister()
	if reg == nil {
		return fmt.Sprintf("<%v -> (none)>", proxy.Location())
	}
	return fmt.Sprintf("<%v -> %v>", proxy.Location(), reg.Name())
}
