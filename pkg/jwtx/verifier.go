package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrUnknownKID = errors.New("jwtx: unknown kid")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// Verifier validates a ticket and gives back its claims.
type Verifier interface {
	Verify(token string) (TicketClaims, error)
}

// EdDSAVerifier validates tickets signed with any key in its KeySet.
type EdDSAVerifier struct {
	keys   *KeySet
	issuer string
	now    func() time.Time
}

// NewVerifierEdDSA creates a verifier using a KeySet of Ed25519 public keys.
func NewVerifierEdDSA(keys *KeySet, issuer string) *EdDSAVerifier {
	return &EdDSAVerifier{keys: keys, issuer: issuer, now: time.Now}
}

// Verify checks the signature, issuer and subject and returns the claims.
func (v *EdDSAVerifier) Verify(tokenStr string) (TicketClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims TicketClaims
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid", ErrUnknownKID)
		}
		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
		}
		return pub, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKID):
			return TicketClaims{}, fmt.Errorf("jwtx: verify: %w", ErrUnknownKID)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return TicketClaims{}, ErrInvalidSig
		default:
			return TicketClaims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}
	if !token.Valid {
		return TicketClaims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return TicketClaims{}, err
	}
	if err := claims.ValidateSubject(); err != nil {
		return TicketClaims{}, err
	}
	if err := claims.ValidateExpiry(v.now().UTC()); err != nil {
		return TicketClaims{}, err
	}
	return claims, nil
}

// ParseUnverified reads ticket claims without checking the signature. Only
// for display: anything that grants access must go through Verify.
func ParseUnverified(tokenStr string) (TicketClaims, error) {
	var claims TicketClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return TicketClaims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return claims, nil
}

var _ Verifier = (*EdDSAVerifier)(nil)
