package security

import (
	"crypto"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrCannotSign is returned when the provider was built without a private key.
	ErrCannotSign = errors.New("token provider has no signing key")
)

// AccessValidator resolves a bearer token to the tenant it was issued for.
type AccessValidator interface {
	ValidateAccess(token string) (tenantID string, err error)
}

// AccessClaims holds JWT claims for the access token. Subject is the tenant id.
type AccessClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// TokenProvider issues and validates JWT access tokens using RS256 or ES256.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	nowF       func() time.Time
}

// NewTokenProvider returns a TokenProvider. privateKey may be nil when this service only
// validates tokens minted elsewhere.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		nowF:       func() time.Time { return time.Now().UTC() },
	}
}

// IssueAccess issues an access JWT whose subject is tenantID.
func (p *TokenProvider) IssueAccess(tenantID, name string) (token string, expiresAt time.Time, err error) {
	if p.privateKey == nil {
		return "", time.Time{}, ErrCannotSign
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := p.nowF()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   tenantID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name: name,
	}
	method := jwt.GetSigningMethod(KeyAlg(p.privateKey.Public()))
	if method == nil {
		return "", time.Time{}, ErrInvalidToken
	}
	token, err = jwt.NewWithClaims(method, claims).SignedString(p.privateKey)
	return token, expiresAt, err
}

// ValidateAccess parses and validates the access token (signature, exp, iss, aud) and returns
// its subject. A token without a subject is invalid.
func (p *TokenProvider) ValidateAccess(tokenString string) (string, error) {
	keyFunc := func(*jwt.Token) (interface{}, error) { return p.publicKey, nil }
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, keyFunc,
		jwt.WithValidMethods([]string{KeyAlg(p.publicKey)}),
		jwt.WithTimeFunc(p.nowF),
	)
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Issuer != p.issuer || !slices.Contains(claims.Audience, p.audience) || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
