package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://cognito-idp.ap-southeast-2.amazonaws.com/test-pool"

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims(sub string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": sub,
		"iss": testIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func TestValidateJwt(t *testing.T) {
	key := generateKey(t)
	keys := map[string]*rsa.PublicKey{"key-1": &key.PublicKey}

	t.Run("valid token", func(t *testing.T) {
		token, err := ValidateJwt(signToken(t, key, "key-1", validClaims("user-1")), keys, testIssuer)
		require.NoError(t, err)
		assert.True(t, token.Valid)

		sub, err := Subject(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", sub)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims("user-1")
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		_, err := ValidateJwt(signToken(t, key, "key-1", claims), keys, testIssuer)
		require.Error(t, err)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := validClaims("user-1")
		delete(claims, "exp")
		_, err := ValidateJwt(signToken(t, key, "key-1", claims), keys, testIssuer)
		require.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims("user-1")
		claims["iss"] = "https://evil.example.com"
		_, err := ValidateJwt(signToken(t, key, "key-1", claims), keys, testIssuer)
		require.Error(t, err)
	})

	t.Run("unknown kid", func(t *testing.T) {
		_, err := ValidateJwt(signToken(t, key, "key-2", validClaims("user-1")), keys, testIssuer)
		require.Error(t, err)
	})

	t.Run("missing kid", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims("user-1"))
		delete(token.Header, "kid")
		signed, err := token.SignedString(key)
		require.NoError(t, err)
		_, err = ValidateJwt(signed, keys, testIssuer)
		require.Error(t, err)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := generateKey(t)
		_, err := ValidateJwt(signToken(t, other, "key-1", validClaims("user-1")), keys, testIssuer)
		require.Error(t, err)
	})
}

func TestSubjectMissing(t *testing.T) {
	key := generateKey(t)
	keys := map[string]*rsa.PublicKey{"key-1": &key.PublicKey}
	claims := validClaims("user-1")
	delete(claims, "sub")

	token, err := ValidateJwt(signToken(t, key, "key-1", claims), keys, testIssuer)
	require.NoError(t, err)
	_, err = Subject(token)
	require.Error(t, err)
}

func TestLoadCognitoPublicKeys(t *testing.T) {
	key := generateKey(t)
	document := map[string]interface{}{
		"keys": []map[string]string{{
			"kid": "key-1",
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(document)
	}))
	defer ts.Close()

	keys, err := LoadCognitoPublicKeys(ts.URL)
	require.NoError(t, err)
	require.Contains(t, keys, "key-1")
	assert.Zero(t, keys["key-1"].N.Cmp(key.PublicKey.N))
	assert.Equal(t, key.PublicKey.E, keys["key-1"].E)

	// Keys loaded over the wire must verify real tokens.
	token, err := ValidateJwt(signToken(t, key, "key-1", validClaims("user-1")), keys, testIssuer)
	require.NoError(t, err)
	assert.True(t, token.Valid)
}
