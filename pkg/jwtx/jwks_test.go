package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJWK_PEM_Ed25519(t *testing.T) {
	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	pemStr, err := NewEd25519JWK("test-key-id", "sig", AlgorithmEdDSA, publicKey).PEM()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))

	block, _ := pem.Decode([]byte(pemStr))
	require.NotNil(t, block)
	require.Equal(t, "PUBLIC KEY", block.Type)

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)
	require.Equal(t, publicKey, parsed.(ed25519.PublicKey))
}

func TestJWK_PEM_Rejects(t *testing.T) {
	tests := []struct {
		name string
		jwk  JWK
	}{
		{"unsupported kty", JWK{Kty: "RSA", Kid: "k"}},
		{"unsupported curve", JWK{Kty: "OKP", Crv: "X25519", Kid: "k"}},
		{"invalid base64", JWK{Kty: "OKP", Crv: "Ed25519", X: "!!!"}},
		{"short key", JWK{Kty: "OKP", Crv: "Ed25519", X: "AQID"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.jwk.PEM()
			require.Error(t, err)
		})
	}
}

func TestKeySetReplacesSameKid(t *testing.T) {
	a, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	b, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	ks := NewKeySet()
	require.False(t, ks.IsReady())
	require.NoError(t, ks.AddJWK(NewEd25519JWK("k", "sig", AlgorithmEdDSA, a)))
	require.NoError(t, ks.AddJWK(NewEd25519JWK("k", "sig", AlgorithmEdDSA, b)))
	require.True(t, ks.IsReady())

	require.Len(t, ks.PublicJWKS().Keys, 1)
	got, err := ks.Get("k")
	require.NoError(t, err)
	require.Equal(t, b, got)

	_, err = ks.Get("missing")
	require.ErrorIs(t, err, ErrNoKey)
}
