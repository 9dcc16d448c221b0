package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// jwk is one entry of Cognito's JWKS JSON response.
type jwk struct {
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// LoadCognitoPublicKeys fetches the user pool's JWKS document and builds the
// RSA public keys used to verify connection tokens.
func LoadCognitoPublicKeys(url string) (map[string]*rsa.PublicKey, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read jwks: %w", err)
	}
	var jwks jwks
	if err := json.Unmarshal(body, &jwks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, key := range jwks.Keys {
		nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			return nil, fmt.Errorf("invalid jwk modulus: %w", err)
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil {
			return nil, fmt.Errorf("invalid jwk exponent: %w", err)
		}
		keys[key.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nBytes),
			E: int(new(big.Int).SetBytes(eBytes).Int64()),
		}
	}
	return keys, nil
}

// ValidateJwt verifies signature, expiry and issuer of a connection token.
func ValidateJwt(
	tokenString string,
	keys map[string]*rsa.PublicKey,
	issuer string,
) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("invalid token: missing kid")
		}
		if key, found := keys[kid]; found {
			return key, nil
		}
		return nil, errors.New("invalid token: unknown kid")
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Subject extracts the authenticated user id from a validated token.
func Subject(token *jwt.Token) (string, error) {
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid map claims")
	}
	v, ok := mapClaims["sub"]
	if !ok {
		return "", errors.New("user id not found")
	}
	userId, ok := v.(string)
	if !ok {
		return "", errors.New("invalid user id")
	}
	return userId, nil
}
