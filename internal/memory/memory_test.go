package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestSkillMemoryPersistReload(t *testing.T) {
	store, path := newTestStore(t)
	mem := NewSkillMemory(store, "ura")

	require.NoError(t, mem.MarkPurchased("Concentration", GradeSingle, "Y2-06-1", 12))
	require.NoError(t, store.Close())

	// Reopen: the persisted snapshot is authoritative.
	store2, err := Open(path)
	require.NoError(t, err)
	defer store2.Close()
	mem2 := NewSkillMemory(store2, "ura")

	assert.True(t, mem2.IsPurchased("Concentration", GradeSingle))
	assert.False(t, mem2.IsPurchased("Concentration", GradeDouble))
	assert.True(t, mem2.HasAnyGrade("Concentration"))
}

func TestSkillMemoryMarkPurchasedIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	mem := NewSkillMemory(store, "ura")

	require.NoError(t, mem.MarkPurchased("Swinging Maestro ◎", GradeDouble, "Y2-06-1", 12))
	require.NoError(t, mem.MarkPurchased("Swinging Maestro ◎", GradeDouble, "Y2-06-2", 13))

	purchases, err := mem.Purchases()
	require.NoError(t, err)
	assert.Len(t, purchases, 1)
	assert.Equal(t, "Swinging Maestro", purchases[0][0])
}

func TestSkillMemoryResetCareer(t *testing.T) {
	store, _ := newTestStore(t)
	mem := NewSkillMemory(store, "ura")

	require.NoError(t, mem.MarkPurchased("Focus", GradeSingle, "", -1))
	require.NoError(t, mem.ResetCareer())
	assert.False(t, mem.HasAnyGrade("Focus"))
}

func TestSkillMemoryIncompatibleRunResets(t *testing.T) {
	store, _ := newTestStore(t)
	mem := NewSkillMemory(store, "ura")

	require.NoError(t, mem.EnsureCompatibleRun("preset-a", "Y2-06-1", 24))
	require.NoError(t, mem.MarkPurchased("Focus", GradeSingle, "Y2-06-1", 12))

	// Same preset, later date: compatible, purchases survive.
	require.NoError(t, mem.EnsureCompatibleRun("preset-a", "Y2-07-1", 26))
	assert.True(t, mem.HasAnyGrade("Focus"))

	// Different preset: the career memory resets.
	require.NoError(t, mem.EnsureCompatibleRun("preset-b", "Y1-07-1", 1))
	assert.False(t, mem.HasAnyGrade("Focus"))
}

func TestSkillMemoryDateRegressionResets(t *testing.T) {
	store, _ := newTestStore(t)
	mem := NewSkillMemory(store, "ura")

	require.NoError(t, mem.EnsureCompatibleRun("preset-a", "Y3-01-1", 50))
	require.NoError(t, mem.MarkPurchased("Focus", GradeSingle, "Y3-01-1", 5))

	// A much earlier date means a fresh career started.
	require.NoError(t, mem.EnsureCompatibleRun("preset-a", "Y1-07-1", 1))
	assert.False(t, mem.HasAnyGrade("Focus"))
}

func TestGradeHelpers(t *testing.T) {
	assert.Equal(t, GradeDouble, GradeFromText("Professor of Curvature ◎"))
	assert.Equal(t, GradeSingle, GradeFromText("Corner Recovery ○"))
	assert.Equal(t, Grade(""), GradeFromText("Concentration"))
	assert.Equal(t, "Corner Recovery", CanonicalSkillName(" Corner  Recovery ○ "))
}

func TestPalMemoryChainLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	pal := NewPalMemory(store, "ura")

	yes := true
	require.NoError(t, pal.RecordPresence(true, "Y2-06-1", 10))
	require.NoError(t, pal.RecordChain("support_tazuna", 2, &yes, "Y2-06-1"))

	assert.True(t, pal.IconPresent())
	assert.True(t, pal.AnyNextEnergy())
	steps, ok := pal.ChainStep("support_tazuna")
	require.True(t, ok)
	assert.Equal(t, 2, steps)

	// Icon disappearing clears the chains.
	require.NoError(t, pal.RecordPresence(false, "Y2-06-2", 11))
	assert.False(t, pal.IconPresent())
	assert.False(t, pal.AnyNextEnergy())
	_, ok = pal.ChainStep("support_tazuna")
	assert.False(t, ok)
}

func TestPalMemoryNoEnergyStep(t *testing.T) {
	store, _ := newTestStore(t)
	pal := NewPalMemory(store, "unity_cup")

	no := false
	require.NoError(t, pal.RecordPresence(true, "", -1))
	require.NoError(t, pal.RecordChain("support_kashimoto", 4, &no, ""))
	assert.False(t, pal.AnyNextEnergy())
}

func TestPlannedRacesSkipCooldown(t *testing.T) {
	store, _ := newTestStore(t)
	planned := NewPlannedRaces(store, map[string]PlannedEntry{
		"Y3-06-2": {Name: "Takarazuka Kinen"},
	})

	entry, ok := planned.RaceFor("Y3-06-2")
	require.True(t, ok)
	assert.Equal(t, "Takarazuka Kinen", entry.Name)

	require.NoError(t, planned.MarkSkipped("Y3-06-2", 2))

	// Two ticks of cooldown: the entry is treated as absent.
	_, ok = planned.RaceFor("Y3-06-2")
	assert.False(t, ok)
	require.NoError(t, planned.Tick())
	_, ok = planned.RaceFor("Y3-06-2")
	assert.False(t, ok)
	require.NoError(t, planned.Tick())

	// Cooldown elapsed: attemptable again.
	_, ok = planned.RaceFor("Y3-06-2")
	assert.True(t, ok)
}

func TestPlannedRacesTentativeFlag(t *testing.T) {
	store, _ := newTestStore(t)
	planned := NewPlannedRaces(store, map[string]PlannedEntry{
		"Y2-10-2": {Name: "Kikuka Sho", Tentative: true},
	})
	entry, ok := planned.RaceFor("Y2-10-2")
	require.True(t, ok)
	assert.True(t, entry.Tentative)
}
