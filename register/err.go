package register

import (
	"errors"

	"github.com/ezrec/archreg/translate"
)

var f = translate.From

var (
	// Definition errors
	ErrInvalidID         = errors.New(f("invalid id"))
	ErrInvalidName       = errors.New(f("invalid name"))
	ErrDuplicateID       = errors.New(f("duplicate id"))
	ErrDuplicateName     = errors.New(f("duplicate name"))
	ErrSizeZero          = errors.New(f("size is zero"))
	ErrSizeNotPowerOfTwo = errors.New(f("size is not a power of two"))
	ErrSizeTooLarge      = errors.New(f("size exceeds line size"))
	ErrLineSize          = errors.New(f("line size is not a power of two"))
	ErrGroupMismatch     = errors.New(f("group name and number disagree"))
	ErrFieldRange        = errors.New(f("field bit range invalid"))
	ErrFieldTooWide      = errors.New(f("field wider than 64 bits"))
	ErrBankUngrouped     = errors.New(f("bank membership on ungrouped register"))
	ErrBankIndexTooLarge = errors.New(f("bank index too large"))
	ErrCollision         = errors.New(f("bank slot already occupied"))
	ErrSubsetParent      = errors.New(f("subset parent unknown"))
	ErrSubsetRange       = errors.New(f("subset exceeds parent"))
	ErrProxyUngrouped    = errors.New(f("proxy requires a group number and index"))
	ErrProxyNoBacking    = errors.New(f("proxy has no backing register"))
	ErrProxyGroupName    = errors.New(f("proxy group name differs from backing register"))

	// Lookup errors
	ErrNoSuchRegister       = errors.New(f("no such register"))
	ErrNoSuchRegisterInBank = errors.New(f("no such register in current bank"))
	ErrNoSuchProxy          = errors.New(f("no such proxy"))
	ErrNoSuchField          = errors.New(f("no such field"))

	// Access errors
	ErrOutOfBounds             = errors.New(f("access out of bounds"))
	ErrFieldValueTooWide       = errors.New(f("value too wide for field"))
	ErrDMIUnsupported          = errors.New(f("dmi not supported"))
	ErrCallbackSizeUnsupported = errors.New(f("callback requires a 4 or 8 byte register"))

	// State errors
	ErrLayoutFrozen         = errors.New(f("register layout frozen"))
	ErrRegisterBuilt        = errors.New(f("register already built"))
	ErrProxyBeforeRegisters = errors.New(f("proxy added before registers"))
	ErrPhase                = errors.New(f("register set built too late"))

	// Observer errors
	ErrNoSuchNotification = errors.New(f("no such notification"))
	ErrObserverType       = errors.New(f("observer type does not match notification"))
)

// ErrRegister indicates the tree location of a register error.
type ErrRegister struct {
	Location string
	Err      error
}

func (err *ErrRegister) Error() string {
	return f("%v: %v", err.Location, err.Err)
}

func (err *ErrRegister) Unwrap() error {
	return err.Err
}

// ErrAccess describes an out of range access.
type ErrAccess struct {
	Offset int
	Size   int
	Bytes  uint
}

func (err *ErrAccess) Error() string {
	return f("%v: offset %v size %v in %v bytes", ErrOutOfBounds, err.Offset, err.Size, err.Bytes)
}

func (err *ErrAccess) Unwrap() error {
	return ErrOutOfBounds
}

// ErrBankSlot describes a bank table slot.
type ErrBankSlot struct {
	Bank     BankIdx
	GroupNum GroupNum
	GroupIdx GroupIdx
	Occupant string // Name of the register in the slot, if any.
	Err      error
}

func (err *ErrBankSlot) Error() string {
	if len(err.Occupant) != 0 {
		return f("bank %v group %v index %v (%v) %v", err.Bank, err.GroupNum, err.GroupIdx, err.Occupant, err.Err)
	}
	return f("bank %v group %v index %v %v", err.Bank, err.GroupNum, err.GroupIdx, err.Err)
}

func (err *ErrBankSlot) Unwrap() error {
	return err.Err
}

// ErrField describes a field definition or access error.
type ErrField struct {
	Field string
	Err   error
}

func (err *ErrField) Error() string {
	return f("field %v %v", err.Field, err.Err)
}

func (err *ErrField) Unwrap() error {
	return err.Err
}

// ErrValue describes a value too wide for its destination.
type ErrValue struct {
	Value uint64
	Bits  uint // Width of the destination.
	Err   error
}

func (err *ErrValue) Error() string {
	return f("%v: %#x in %v bits", err.Err, err.Value, err.Bits)
}

func (err *ErrValue) Unwrap() error {
	return err.Err
}

// ErrNotification names the notification channel of an observer error.
type ErrNotification struct {
	Name string
	Err  error
}

func (err *ErrNotification) Error() string {
	return f("%v '%v'", err.Err, err.Name)
}

func (err *ErrNotification) Unwrap() error {
	return err.Err
}

// ErrProxyGroup describes a proxy whose group name differs from a backing
// register.
type ErrProxyGroup struct {
	Proxy         string
	GroupName     string
	Register      string
	RegisterGroup string
}

func (err *ErrProxyGroup) Error() string {
	return f("%v: %v '%v' (%v is '%v')", ErrProxyGroupName, err.Proxy, err.GroupName, err.Register, err.RegisterGroup)
}

func (err *ErrProxyGroup) Unwrap() error {
	return ErrProxyGroupName
}
