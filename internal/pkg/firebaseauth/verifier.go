package firebaseauth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meishibox/meishibox/internal/pkg/env"
)

var (
	ErrInvalidToken = errors.New("invalid firebase token")
	ErrUnknownKeyID = errors.New("token signed with unknown key id")
)

// IdentityClaims is the subset of a verified Firebase ID token the
// application cares about.
type IdentityClaims struct {
	UID      string
	Email    string
	Name     string
	Provider string
}

// Verifier validates Firebase ID tokens against Google's published
// securetoken certificates.
type Verifier struct {
	ProjectID string
	Keys      KeyFetcher
	// now is overridable for tests
	now func() time.Time
}

// NewVerifier builds a verifier for the configured Firebase project.
func NewVerifier(keys KeyFetcher) *Verifier {
	return &Verifier{
		ProjectID: env.GetEnv("FIREBASE_PROJECT_ID", ""),
		Keys:      keys,
		now:       time.Now,
	}
}

type firebaseClaims struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Firebase struct {
		SignInProvider string `json:"sign_in_provider"`
	} `json:"firebase"`
	jwt.RegisteredClaims
}

// Verify checks the token's signature, algorithm, audience, issuer and
// timestamps, and returns the extracted identity on success.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*IdentityClaims, error) {
	if rawToken == "" {
		return nil, ErrInvalidToken
	}

	// First pass without verification, only to read the key id header.
	unverified, _, err := jwt.NewParser().ParseUnverified(rawToken, &firebaseClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: missing kid header", ErrInvalidToken)
	}

	certs, err := v.Keys.FetchVerificationKeys(ctx)
	if err != nil {
		return nil, err
	}
	certPEM, ok := certs[kid]
	if !ok {
		return nil, ErrUnknownKeyID
	}
	publicKey, err := parseCertPublicKey(certPEM)
	if err != nil {
		return nil, err
	}

	claims := &firebaseClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.ProjectID),
		jwt.WithIssuer("https://securetoken.google.com/"+v.ProjectID),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	token, err := parser.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		return publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &IdentityClaims{
		UID:      claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Provider: claims.Firebase.SignInProvider,
	}, nil
}

func parseCertPublicKey(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, fmt.Errorf("%w: malformed certificate", ErrInvalidToken)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: certificate does not carry an RSA key", ErrInvalidToken)
	}
	return key, nil
}
