package firebaseauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProjectID = "meishibox-test"

type staticKeyFetcher struct {
	keys map[string]string
}

func (f *staticKeyFetcher) FetchVerificationKeys(_ context.Context) (map[string]string, error) {
	return f.keys, nil
}

type tokenSigner struct {
	key     *rsa.PrivateKey
	certPEM string
	kid     string
}

func newTokenSigner(t *testing.T) *tokenSigner {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken.system.gserviceaccount.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return &tokenSigner{key: key, certPEM: string(certPEM), kid: "test-key-1"}
}

func (s *tokenSigner) sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.kid
	raw, err := token.SignedString(s.key)
	require.NoError(t, err)
	return raw
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":   "firebase-uid-1",
		"aud":   testProjectID,
		"iss":   "https://securetoken.google.com/" + testProjectID,
		"iat":   now.Add(-time.Minute).Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"email": "taro@example.com",
		"name":  "Taro Yamada",
		"firebase": map[string]interface{}{
			"sign_in_provider": "google.com",
		},
	}
}

func newTestVerifier(s *tokenSigner) *Verifier {
	return &Verifier{
		ProjectID: testProjectID,
		Keys:      &staticKeyFetcher{keys: map[string]string{s.kid: s.certPEM}},
		now:       time.Now,
	}
}

func TestVerifierAcceptsValidToken(t *testing.T) {
	signer := newTokenSigner(t)
	v := newTestVerifier(signer)

	identity, err := v.Verify(context.Background(), signer.sign(t, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid-1", identity.UID)
	assert.Equal(t, "taro@example.com", identity.Email)
	assert.Equal(t, "Taro Yamada", identity.Name)
	assert.Equal(t, "google.com", identity.Provider)
}

func TestVerifierRejectsExpiredToken(t *testing.T) {
	signer := newTokenSigner(t)
	v := newTestVerifier(signer)

	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()

	_, err := v.Verify(context.Background(), signer.sign(t, claims))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifierRejectsFutureIssuedAt(t *testing.T) {
	signer := newTokenSigner(t)
	v := newTestVerifier(signer)

	claims := validClaims()
	claims["iat"] = time.Now().Add(time.Hour).Unix()

	_, err := v.Verify(context.Background(), signer.sign(t, claims))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifierRejectsWrongAudience(t *testing.T) {
	signer := newTokenSigner(t)
	v := newTestVerifier(signer)

	claims := validClaims()
	claims["aud"] = "some-other-project"

	_, err := v.Verify(context.Background(), signer.sign(t, claims))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifierRejectsWrongIssuer(t *testing.T) {
	signer := newTokenSigner(t)
	v := newTestVerifier(signer)

	claims := validClaims()
	claims["iss"] = "https://accounts.example.com"

	_, err := v.Verify(context.Background(), signer.sign(t, claims))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifierRejectsUnknownKeyID(t *testing.T) {
	signer := newTokenSigner(t)
	v := &Verifier{
		ProjectID: testProjectID,
		Keys:      &staticKeyFetcher{keys: map[string]string{"another-kid": signer.certPEM}},
		now:       time.Now,
	}

	_, err := v.Verify(context.Background(), signer.sign(t, validClaims()))
	assert.ErrorIs(t, err, ErrUnknownKeyID)
}

func TestVerifierRejectsUnsignedToken(t *testing.T) {
	signer := newTokenSigner(t)
	v := newTestVerifier(signer)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims())
	token.Header["kid"] = signer.kid
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifierRejectsEmptyToken(t *testing.T) {
	signer := newTokenSigner(t)
	v := newTestVerifier(signer)

	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
