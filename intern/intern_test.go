package intern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager(t *testing.T) {
	assert := assert.New(t)

	mgr := &Manager{}
	assert.Equal(0, mgr.Len())

	a := mgr.Intern("sprxx")
	b := mgr.Intern("spr" + "xx")
	assert.True(a == b)
	assert.Equal("sprxx", *a)
	assert.Equal(1, mgr.Len())

	other := "sprxx"
	assert.False(mgr.IsInterned(&other))
	assert.True(mgr.IsInterned(a))
	assert.False(mgr.IsInterned(nil))

	ptr, ok := mgr.Lookup("sprxx")
	assert.True(ok)
	assert.True(ptr == a)

	_, ok = mgr.Lookup("missing")
	assert.False(ok)
}
