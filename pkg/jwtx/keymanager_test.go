package jwtx_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type memKeyStore struct {
	mu   sync.Mutex
	keys []jwtx.SigningKeyRecord
}

func (m *memKeyStore) ListSigningKeys(context.Context) ([]jwtx.SigningKeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]jwtx.SigningKeyRecord(nil), m.keys...), nil
}

func (m *memKeyStore) CreateSigningKey(_ context.Context, k jwtx.SigningKeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, k)
	return nil
}

func withMasterKey(t *testing.T) {
	t.Helper()
	t.Setenv(cryptox.MasterKeyEnv, "keymanager-test-master-key")
	cryptox.ResetMasterKeyForTesting()
	t.Cleanup(cryptox.ResetMasterKeyForTesting)
}

func TestNewKeyManager_GeneratesAndPersists(t *testing.T) {
	withMasterKey(t)
	ctx := context.Background()
	store := &memKeyStore{}

	km, err := jwtx.NewKeyManager(ctx, store, exampleIssuer)
	require.NoError(t, err)
	require.True(t, km.IsReady())
	require.Len(t, store.keys, 1)
	require.Equal(t, jwtx.AlgorithmEdDSA, store.keys[0].Algorithm)

	// Restart: the same key is loaded, nothing new is minted.
	again, err := jwtx.NewKeyManager(ctx, store, exampleIssuer)
	require.NoError(t, err)
	require.Len(t, store.keys, 1)
	require.Equal(t, km.Signer().KID(), again.Signer().KID())

	token, err := km.Sign(sampleClaims(time.Now().UTC()))
	require.NoError(t, err)
	_, err = again.Verify(ctx, token)
	require.NoError(t, err)
}

func TestKeyManager_RetiredKeysStillVerify(t *testing.T) {
	withMasterKey(t)
	ctx := context.Background()
	store := &memKeyStore{}

	km, err := jwtx.NewKeyManager(ctx, store, exampleIssuer)
	require.NoError(t, err)
	oldToken, err := km.Sign(sampleClaims(time.Now().UTC()))
	require.NoError(t, err)

	retired := time.Now().UTC()
	store.keys[0].RetiredAt = &retired

	rotated, err := jwtx.NewKeyManager(ctx, store, exampleIssuer)
	require.NoError(t, err)
	require.Len(t, store.keys, 2)
	require.NotEqual(t, km.Signer().KID(), rotated.Signer().KID())
	require.Len(t, rotated.KeySet().PublicJWKS().Keys, 2)

	_, err = rotated.Verify(ctx, oldToken)
	require.NoError(t, err)
}

func TestKeyManager_RefreshesOnUnknownKid(t *testing.T) {
	withMasterKey(t)
	ctx := context.Background()
	store := &memKeyStore{}

	a, err := jwtx.NewKeyManager(ctx, store, exampleIssuer)
	require.NoError(t, err)

	// b was started before a rotated its key.
	b, err := jwtx.NewKeyManager(ctx, store, exampleIssuer)
	require.NoError(t, err)

	retired := time.Now().UTC()
	store.keys[0].RetiredAt = &retired
	rotated, err := jwtx.NewKeyManager(ctx, store, exampleIssuer)
	require.NoError(t, err)
	require.NotEqual(t, a.Signer().KID(), rotated.Signer().KID())

	token, err := rotated.Sign(sampleClaims(time.Now().UTC()))
	require.NoError(t, err)

	_, err = b.Verify(ctx, token)
	require.NoError(t, err)
}

func TestNewKeyManager_Validation(t *testing.T) {
	_, err := jwtx.NewKeyManager(context.Background(), nil, exampleIssuer)
	require.Error(t, err)

	_, err = jwtx.NewKeyManager(context.Background(), &memKeyStore{}, "")
	require.Error(t, err)
}

func TestEphemeralKeyManager(t *testing.T) {
	km, err := jwtx.NewEphemeralKeyManager(exampleIssuer)
	require.NoError(t, err)
	require.True(t, km.IsReady())
	require.Equal(t, exampleIssuer, km.Issuer())

	token, err := km.Sign(sampleClaims(time.Now().UTC()))
	require.NoError(t, err)

	claims, err := km.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "priya@college.edu", claims.UserEmail)

	other, err := jwtx.NewEphemeralKeyManager(exampleIssuer)
	require.NoError(t, err)
	_, err = other.Verify(context.Background(), token)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
}
