package jwtx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/idx"
)

// SigningKeyRecord is a ticket key as persisted. It mirrors the store row
// without importing the store package.
type SigningKeyRecord struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time
}

// KeyStore is the persistence the KeyManager needs.
type KeyStore interface {
	// ListSigningKeys returns every key, retired ones included, oldest first.
	ListSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)
	CreateSigningKey(ctx context.Context, key SigningKeyRecord) error
}

// KeyManager owns the ticket signing key and the KeySet used to verify
// tickets. Retired keys stay in the KeySet so old tickets keep scanning.
type KeyManager struct {
	issuer string
	store  KeyStore
	keys   *KeySet

	mu     sync.RWMutex
	signer Signer
}

// NewKeyManager loads the ticket keys from store, generating and persisting
// a fresh one when no active key exists. Private keys are sealed with the
// cryptox master key at rest.
func NewKeyManager(ctx context.Context, store KeyStore, issuer string) (*KeyManager, error) {
	if store == nil {
		return nil, errors.New("jwtx: key store is required")
	}
	if issuer == "" {
		return nil, errors.New("jwtx: issuer is required")
	}

	km := &KeyManager{issuer: issuer, store: store, keys: NewKeySet()}
	if err := km.Refresh(ctx); err != nil {
		return nil, err
	}

	if km.Signer() == nil {
		if err := km.generate(ctx); err != nil {
			return nil, err
		}
		// Another replica may have raced us; pick up whatever won.
		if err := km.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return km, nil
}

// NewEphemeralKeyManager creates a KeyManager holding one in-memory key.
// Tickets it signs die with the process.
func NewEphemeralKeyManager(issuer string) (*KeyManager, error) {
	if issuer == "" {
		return nil, errors.New("jwtx: issuer is required")
	}

	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, err
	}
	signer, err := NewSignerEdDSA(newKeyID(), pemKey)
	if err != nil {
		return nil, err
	}

	km := &KeyManager{issuer: issuer, keys: NewKeySet(), signer: signer}
	if err := km.keys.AddSigner(signer); err != nil {
		return nil, err
	}
	return km, nil
}

// Refresh reloads every stored key into the KeySet and selects the newest
// active key for signing.
func (km *KeyManager) Refresh(ctx context.Context) error {
	if km.store == nil {
		return nil
	}

	records, err := km.store.ListSigningKeys(ctx)
	if err != nil {
		return fmt.Errorf("jwtx: failed to load keys: %w", err)
	}

	var active Signer
	for _, rec := range records {
		if rec.Algorithm != AlgorithmEdDSA {
			return fmt.Errorf("jwtx: key %s has unsupported algorithm %q", rec.Kid, rec.Algorithm)
		}

		pemData, err := cryptox.DecryptPrivateKey(rec.PrivateKeyEncrypted)
		if err != nil {
			return fmt.Errorf("jwtx: failed to decrypt key %s: %w", rec.Kid, err)
		}
		signer, err := NewSignerEdDSA(rec.Kid, pemData)
		if err != nil {
			return fmt.Errorf("jwtx: failed to load key %s: %w", rec.Kid, err)
		}
		if err := km.keys.AddSigner(signer); err != nil {
			return fmt.Errorf("jwtx: failed to add key %s: %w", rec.Kid, err)
		}
		if rec.RetiredAt == nil {
			active = signer
		}
	}

	if active != nil {
		km.mu.Lock()
		km.signer = active
		km.mu.Unlock()
	}
	return nil
}

func (km *KeyManager) generate(ctx context.Context) error {
	pemData, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return fmt.Errorf("jwtx: failed to generate key: %w", err)
	}
	sealed, err := cryptox.EncryptPrivateKey(pemData)
	if err != nil {
		return fmt.Errorf("jwtx: failed to encrypt key: %w", err)
	}

	rec := SigningKeyRecord{
		ID:                  idx.New().String(),
		Kid:                 newKeyID(),
		Algorithm:           AlgorithmEdDSA,
		PrivateKeyEncrypted: sealed,
		CreatedAt:           time.Now().UTC(),
	}
	if err := km.store.CreateSigningKey(ctx, rec); err != nil {
		return fmt.Errorf("jwtx: failed to store key: %w", err)
	}
	return nil
}

// Signer returns the active signing key, or nil before one is loaded.
func (km *KeyManager) Signer() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.signer
}

// KeySet exposes the verification keys for JWKS publishing.
func (km *KeyManager) KeySet() *KeySet { return km.keys }

// Issuer is the iss claim stamped on and required of every ticket.
func (km *KeyManager) Issuer() string { return km.issuer }

// Sign signs claims with the active key.
func (km *KeyManager) Sign(claims TicketClaims) (string, error) {
	s := km.Signer()
	if s == nil {
		return "", errors.New("jwtx: no active signing key")
	}
	return s.Sign(claims)
}

// Verify checks a ticket against the KeySet. An unknown kid triggers one
// reload from the store, covering keys minted by another replica.
func (km *KeyManager) Verify(ctx context.Context, token string) (TicketClaims, error) {
	v := NewVerifierEdDSA(km.keys, km.issuer)
	claims, err := v.Verify(token)
	if errors.Is(err, ErrUnknownKID) && km.store != nil {
		if rerr := km.Refresh(ctx); rerr != nil {
			return TicketClaims{}, rerr
		}
		return v.Verify(token)
	}
	return claims, err
}

// IsReady reports whether a signing key is loaded.
func (km *KeyManager) IsReady() bool {
	return km.Signer() != nil && km.keys.IsReady()
}

func newKeyID() string {
	return "campus-" + cryptox.MustGenerateToken(cryptox.TokenSize128)
}
