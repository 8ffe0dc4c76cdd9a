package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	r := NewRegistry()

	s, ok := r.Resolve("1204")
	require.True(t, ok)
	assert.Equal(t, "Jonathan Tagasa", s.Name)
	assert.Equal(t, "Shift Leader", s.Role)

	// 前后空白容忍
	s, ok = r.Resolve(" 9033 ")
	require.True(t, ok)
	assert.Equal(t, "Production Manager", s.Role)

	_, ok = r.Resolve("0000")
	assert.False(t, ok)
}

func TestResolveByName(t *testing.T) {
	r := NewRegistry()

	s, ok := r.ResolveByName("  thomas kaestner ")
	require.True(t, ok)
	assert.Equal(t, "9033", s.Pin)

	_, ok = r.ResolveByName("nobody")
	assert.False(t, ok)
}

func TestIsAllowed(t *testing.T) {
	r := NewRegistry()
	shiftLeader, _ := r.Resolve("1204")
	staff, _ := r.Resolve("4521")

	allowed := []string{"Shift Leader", "Production Manager"}
	assert.True(t, IsAllowed(shiftLeader, allowed))
	assert.False(t, IsAllowed(staff, allowed))

	// 大小写与空白不敏感
	assert.True(t, IsAllowed(shiftLeader, []string{" shift leader "}))

	// 空准入表放行任何已解析签核人
	assert.True(t, IsAllowed(staff, nil))
	assert.False(t, IsAllowed(nil, nil))
}
