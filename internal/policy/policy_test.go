package policy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engine/internal/domain"
)

func defaultTable(t *testing.T) *Table {
	t.Helper()
	snap, err := Default()
	require.NoError(t, err)
	return NewTable(snap)
}

func everyCapability(tbl *Table) map[Capability]struct{} {
	all := map[Capability]struct{}{}
	for _, class := range domain.UserClasses {
		for _, c := range tbl.Allowed(class) {
			all[c] = struct{}{}
		}
	}
	return all
}

func TestHasCapability_UnknownClassDenied(t *testing.T) {
	tbl := defaultTable(t)
	assert.False(t, tbl.HasCapability("unknown_class", "any_capability"))
	assert.False(t, tbl.HasCapability("unknown_class", "dashboard"))
	assert.False(t, tbl.HasCapability("", "dashboard"))
}

func TestHasCapability_DisabledDeniedEverything(t *testing.T) {
	tbl := defaultTable(t)
	require.True(t, tbl.Knows(domain.UserClassDisabled))
	for c := range everyCapability(tbl) {
		assert.False(t, tbl.HasCapability(domain.UserClassDisabled, c), "disabled must not have %s", c)
	}
	assert.Empty(t, tbl.Allowed(domain.UserClassDisabled))
}

func TestHasCapability_UnknownCapabilityDenied(t *testing.T) {
	tbl := defaultTable(t)
	assert.False(t, tbl.HasCapability(domain.UserClassPro, "teleport"))
}

func TestDefaultTable_Grants(t *testing.T) {
	tbl := defaultTable(t)
	cases := []struct {
		class domain.UserClass
		cap   Capability
		want  bool
	}{
		{domain.UserClassTrial, "engage_templates", true},
		{domain.UserClassTrial, "property_analyzer", true},
		{domain.UserClassTrial, "fund_create", false},
		{domain.UserClassCore, "ai_coach", true},
		{domain.UserClassCore, "engage_templates", false},
		{domain.UserClassCore, "property_analyzer", false},
		{domain.UserClassPro, "fund_create", true},
		{domain.UserClassCohort, "fund_create", true},
		{domain.UserClassPro, "admin_tools", false},
		{domain.UserClassAdmin, "admin_tools", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tbl.HasCapability(tc.class, tc.cap), "%s/%s", tc.class, tc.cap)
	}
}

func TestDefaultTable_LegacyClassesMirrorCurrentTiers(t *testing.T) {
	tbl := defaultTable(t)
	assert.Equal(t, tbl.Allowed(domain.UserClassCore), tbl.Allowed(domain.UserClassCharlieChat))
	assert.Equal(t, tbl.Allowed(domain.UserClassPlus), tbl.Allowed(domain.UserClassCharlieChatPlus))
	assert.Equal(t, tbl.Allowed(domain.UserClassPro), tbl.Allowed(domain.UserClassCharlieChatPro))
}

func TestDefaultTable_CoversEveryClass(t *testing.T) {
	tbl := defaultTable(t)
	for _, class := range domain.UserClasses {
		assert.True(t, tbl.Knows(class), "class %s missing from policy", class)
	}
}

func TestAllowedIsSorted(t *testing.T) {
	tbl := defaultTable(t)
	caps := tbl.Allowed(domain.UserClassPro)
	require.NotEmpty(t, caps)
	for i := 1; i < len(caps); i++ {
		assert.Less(t, string(caps[i-1]), string(caps[i]))
	}
}

func TestReplaceDuringReads(t *testing.T) {
	tbl := NewTable(NewSnapshot(map[domain.UserClass][]Capability{
		domain.UserClassCore: {"a"},
	}))
	next := NewSnapshot(map[domain.UserClass][]Capability{
		domain.UserClassCore: {"a", "b"},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if !tbl.HasCapability(domain.UserClassCore, "a") {
					t.Error("capability a lost during replace")
					return
				}
			}
		}()
	}
	tbl.Replace(next)
	wg.Wait()
	assert.True(t, tbl.HasCapability(domain.UserClassCore, "b"))
}

func TestNilTableDenies(t *testing.T) {
	var tbl *Table
	assert.False(t, tbl.HasCapability(domain.UserClassPro, "dashboard"))
	assert.Nil(t, tbl.Allowed(domain.UserClassPro))
}
