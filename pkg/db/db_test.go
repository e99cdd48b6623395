package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "airsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.Migrate(ctx))
	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	needed, err := db.NeedsBootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, needed)

	require.NoError(t, db.Bootstrap(ctx))
	require.NoError(t, db.Bootstrap(ctx))

	profiles, err := db.Profiles().List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	cfg, err := db.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, cfg.Profile.Name)
	assert.Equal(t, DefaultBackendURL, cfg.BackendURL())
	assert.Equal(t, "0.0.0.0:8080", cfg.APIAddress())
}

func TestActiveConfig_NoProfile(t *testing.T) {
	db := openTestDB(t)

	_, err := db.ActiveConfig(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveProfile)

	var cfg *Config
	assert.Equal(t, "", cfg.BackendURL())
	assert.Equal(t, "0.0.0.0:8080", cfg.APIAddress())
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.Bootstrap(ctx))
	store := db.Profiles()

	lab := &Profile{Name: "lab", BackendURL: "http://lab:8000"}
	require.NoError(t, store.Create(ctx, lab))
	assert.NotZero(t, lab.ID)

	got, err := store.GetByName(ctx, "lab")
	require.NoError(t, err)
	assert.Equal(t, "http://lab:8000", got.BackendURL)
	assert.False(t, got.IsActive)

	require.NoError(t, store.SetActive(ctx, lab.ID))
	active, err := store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "lab", active.Name)

	def, err := store.GetByName(ctx, DefaultProfile)
	require.NoError(t, err)
	assert.False(t, def.IsActive)

	active.BackendURL = "http://lab:9000"
	require.NoError(t, store.Update(ctx, active))
	got, err = store.GetByName(ctx, "lab")
	require.NoError(t, err)
	assert.Equal(t, "http://lab:9000", got.BackendURL)

	assert.ErrorIs(t, store.SetActive(ctx, 9999), ErrProfileNotFound)
	_, err = store.GetByName(ctx, "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.ErrorIs(t, store.Update(ctx, &Profile{ID: 9999, Name: "x"}), ErrProfileNotFound)

	// A failed activation rolls back and leaves the old profile active.
	active, err = store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "lab", active.Name)

	require.NoError(t, store.Delete(ctx, def.ID))
	assert.ErrorIs(t, store.Delete(ctx, def.ID), ErrProfileNotFound)
}

func TestProfiles_DuplicateName(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.Profiles().Create(ctx, &Profile{Name: "dup"}))
	assert.Error(t, db.Profiles().Create(ctx, &Profile{Name: "dup"}))
}

func TestAPIServers(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	p := &Profile{Name: "p"}
	require.NoError(t, db.Profiles().Create(ctx, p))

	_, err := db.APIServers().Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrAPIServerNotFound)

	require.NoError(t, db.APIServers().Update(ctx, &APIServer{ProfileID: p.ID, Host: "127.0.0.1", Port: 9090}))
	require.NoError(t, db.APIServers().Update(ctx, &APIServer{ProfileID: p.ID, Host: "::1", Port: 9091}))

	a, err := db.APIServers().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "[::1]:9091", a.Address())

	// Cascades with the profile.
	require.NoError(t, db.Profiles().Delete(ctx, p.ID))
	_, err = db.APIServers().Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrAPIServerNotFound)
}

func TestResolvePath(t *testing.T) {
	p, err := resolvePath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("airsync", "airsync.db"), filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p)))

	p, err = resolvePath("/tmp/x.db")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", p)
}
