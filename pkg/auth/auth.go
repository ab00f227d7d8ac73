package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Wallet signs transactions for a single player address. Tokens are
// EdDSA JWTs that carry the wallet's public key; the address is derived
// from that key, so the ledger verifies any wallet's token without a
// pre-shared secret. The verified subject is the transaction sender and
// the ledger never reads a sender from the request body.
type Wallet struct {
	key ed25519.PrivateKey
}

// NewWallet creates a wallet around a signing key.
func NewWallet(key ed25519.PrivateKey) *Wallet {
	return &Wallet{
		key: key,
	}
}

func (w *Wallet) Address() string {
	return AddressFromPublicKey(w.key.Public().(ed25519.PublicKey))
}

// AddressFromPublicKey derives a player address from a public key.
func AddressFromPublicKey(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return "0x" + hex.EncodeToString(sum[:20])
}

// SignToken produces a short-lived bearer token for the wallet's address.
func (w *Wallet) SignToken() (string, error) {
	pub := w.key.Public().(ed25519.PublicKey)
	claims := jwt.MapClaims{
		"sub": AddressFromPublicKey(pub),
		"pub": hex.EncodeToString(pub),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := t.SignedString(w.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return signed, nil
}

// Verifier verifies wallet tokens and extracts the sender address.
// A token is valid exactly when its signature checks out against the
// public key it carries and its subject is the address derived from
// that same key, so the verifier holds no key material of its own.
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyToken returns the player address a token was signed for.
func (v *Verifier) VerifyToken(token string) (string, error) {
	if token == "" {
		return "", errors.New("missing token")
	}
	t, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tokenPublicKey(t)
	})
	if err != nil || !t.Valid {
		return "", errors.New("invalid token")
	}
	pub, err := tokenPublicKey(t)
	if err != nil {
		return "", err
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("bad claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("bad claims")
	}
	if sub != AddressFromPublicKey(pub) {
		return "", errors.New("subject does not match signing key")
	}
	return sub, nil
}

func tokenPublicKey(t *jwt.Token) (ed25519.PublicKey, error) {
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("bad claims")
	}
	pubHex, ok := claims["pub"].(string)
	if !ok {
		return nil, errors.New("missing public key claim")
	}
	pub, err := hex.DecodeString(pubHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return nil, errors.New("malformed public key claim")
	}
	return ed25519.PublicKey(pub), nil
}

// LoadOrCreateKey reads the wallet seed from path, generating and
// persisting a fresh one if it is missing or malformed.
func LoadOrCreateKey(path string) (ed25519.PrivateKey, error) {
	seed, err := os.ReadFile(path)
	if err != nil || len(seed) != ed25519.SeedSize {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			return nil, fmt.Errorf("failed to generate key: %v", err)
		}
		if err := os.WriteFile(path, seed, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write key: %v", err)
		}
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
