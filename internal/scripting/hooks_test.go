package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenfall/covenfall/internal/scripting"
)

// repoRoot walks up from the test's working directory to find the module root.
func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	root := wd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("could not find repo root from %s", wd)
		}
		root = parent
	}
}

func loadContentHooks(t *testing.T, mgr *scripting.Manager) {
	t.Helper()
	dir := filepath.Join(repoRoot(t), "content", "scripts")
	require.NoError(t, mgr.Load(dir, 0))
}

func TestContentHooks_OnSmite_AnnouncesCasterName(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadContentHooks(t, mgr)
	mgr.GetActor = func(id string) *scripting.ActorInfo {
		return &scripting.ActorInfo{ID: id, Name: "Aldric", HP: 50, MaxHP: 100, Alive: true}
	}
	var announced string
	mgr.Announce = func(actorID, text string) { announced = text }

	require.NoError(t, mgr.OnCast("on_smite", "a-1", "m-1", "smite"))
	assert.Contains(t, announced, "Aldric")
	assert.Contains(t, announced, "smite")
}

func TestContentHooks_OnSmite_UnknownCaster_NoAnnouncement(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadContentHooks(t, mgr)
	mgr.GetActor = func(id string) *scripting.ActorInfo { return nil }
	called := false
	mgr.Announce = func(actorID, text string) { called = true }

	require.NoError(t, mgr.OnCast("on_smite", "ghost", "m-1", "smite"))
	assert.False(t, called)
}

func TestContentHooks_OnRally_GrantsProtection(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadContentHooks(t, mgr)
	var gotTarget, gotKind string
	var gotMagnitude, gotDuration int
	mgr.ApplyEffect = func(actorID, kind string, magnitude, duration int) error {
		gotTarget, gotKind, gotMagnitude, gotDuration = actorID, kind, magnitude, duration
		return nil
	}
	mgr.Announce = func(actorID, text string) {}

	require.NoError(t, mgr.OnCast("on_rally", "a-1", "b-1", "rally"))
	assert.Equal(t, "b-1", gotTarget)
	assert.Equal(t, "protected", gotKind)
	assert.Equal(t, 2, gotMagnitude)
	assert.Equal(t, 1, gotDuration)
}

func TestContentHooks_OnBloodletting_CostsCasterHP(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadContentHooks(t, mgr)
	mgr.GetActor = func(id string) *scripting.ActorInfo {
		return &scripting.ActorInfo{ID: id, HP: 40, MaxHP: 100, Alive: true}
	}
	var gotID string
	var gotAmount int
	mgr.DealDamage = func(actorID string, amount int) error {
		gotID, gotAmount = actorID, amount
		return nil
	}

	require.NoError(t, mgr.OnCast("on_bloodletting", "a-1", "b-1", "bloodletting"))
	assert.Equal(t, "a-1", gotID)
	assert.Equal(t, 2, gotAmount)
}

func TestContentHooks_OnBloodletting_NearDeath_NoCost(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadContentHooks(t, mgr)
	mgr.GetActor = func(id string) *scripting.ActorInfo {
		return &scripting.ActorInfo{ID: id, HP: 3, MaxHP: 100, Alive: true}
	}
	called := false
	mgr.DealDamage = func(actorID string, amount int) error {
		called = true
		return nil
	}

	require.NoError(t, mgr.OnCast("on_bloodletting", "a-1", "b-1", "bloodletting"))
	assert.False(t, called)
}
