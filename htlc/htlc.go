package htlc

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"gohtlcbridge/types"
)

// SecretSize is fixed at 32 bytes; both the EVM contract and the Sui
// module verify sha256 over exactly this length.
const SecretSize = 32

// GenerateSecret returns a fresh HTLC preimage from the OS CSPRNG.
// There is no fallback source: if crypto/rand fails the swap must not
// be created.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("cannot read random secret: %w", err)
	}
	return secret, nil
}

// Hashlock computes the hex-encoded sha256 digest committed to on both
// chains. sha256 is the one digest every leg verifies natively, so the
// same hashlock links the two locks.
func Hashlock(secret []byte) string {
	sum := sha256.Sum256(secret)
	return hex.EncodeToString(sum[:])
}

// VerifySecret reports whether secret is the preimage of hashlock.
func VerifySecret(secret []byte, hashlock string) bool {
	return subtle.ConstantTimeCompare([]byte(Hashlock(secret)), []byte(hashlock)) == 1
}

// ComputeOrderID derives the order fingerprint from the swap tuple plus
// a per-attempt nonce. Formula: sha256(source|dest|amount|hashlock|timelock|nonce),
// hex encoded (64 characters).
func ComputeOrderID(source, dest types.Chain, amount, hashlock string, timelock int64, nonce string) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d|%s", source, dest, amount, hashlock, timelock, nonce)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
