package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestOpenStoreAndSeed(t *testing.T) {
	dir := t.TempDir()
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))
	masterKey := filepath.Join(dir, "master.key")
	require.NoError(t, os.WriteFile(masterKey, []byte("test-master-key"), 0o600))
	cryptox.SetMasterKeyPath(masterKey)

	cfg := Config{
		DatabaseDriver: "sqlite",
		DatabaseFile:   filepath.Join(dir, "campus.db"),
		TicketIssuer:   "campus-test",
		MasterKeyPath:  masterKey,
	}
	ctx := context.Background()
	logger := slogx.Discard()

	db, err := OpenStore(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Seed(ctx, db, logger))
	// Second run is a no-op.
	require.NoError(t, Seed(ctx, db, logger))

	events, err := db.Events().ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 5)

	admin, err := db.Accounts().GetAccountByEmail(ctx, service.SeedAdminEmail)
	require.NoError(t, err)
	require.True(t, admin.Verified)

	// Keys persist: a second manager over the same store reuses the key.
	first, err := InitTicketKeys(ctx, cfg, db, logger)
	require.NoError(t, err)
	second, err := InitTicketKeys(ctx, cfg, db, logger)
	require.NoError(t, err)
	require.Equal(t, first.Signer().KID(), second.Signer().KID())
}
