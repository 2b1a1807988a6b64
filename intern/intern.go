// Package intern maps strings to canonical pointers, so that hot-path callers
// can compare names by pointer rather than by content.
package intern

// Manager is a string intern table. The zero value is ready to use.
type Manager struct {
	table map[string]*string
}

// Default is the process-wide manager.
var Default = &Manager{}

// Intern returns the canonical pointer for s, creating it on first use.
func (mgr *Manager) Intern(s string) (ptr *string) {
	ptr, ok := mgr.table[s]
	if ok {
		return
	}

	if mgr.table == nil {
		mgr.table = make(map[string]*string)
	}
	ptr = new(string)
	*ptr = s
	mgr.table[s] = ptr
	return
}

// Lookup returns the canonical pointer for s, if interned.
func (mgr *Manager) Lookup(s string) (ptr *string, ok bool) {
	ptr, ok = mgr.table[s]
	return
}

// IsInterned returns true if ptr is the canonical pointer for its content.
func (mgr *Manager) IsInterned(ptr *string) bool {
	if ptr == nil {
		return false
	}
	canon, ok := mgr.table[*ptr]
	return ok && canon == ptr
}

// Len returns the number of interned strings.
func (mgr *Manager) Len() int {
	return len(mgr.table)
}
