package htlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gohtlcbridge/types"
)

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)
	assert.Len(t, secret, SecretSize)

	other, err := GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other, "two secrets should never collide")
}

func TestHashlockRoundTrip(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	hashlock := Hashlock(secret)
	assert.Len(t, hashlock, 64)
	assert.True(t, VerifySecret(secret, hashlock))

	tampered := append([]byte{}, secret...)
	tampered[0] ^= 0xff
	assert.False(t, VerifySecret(tampered, hashlock))
}

func TestComputeOrderID(t *testing.T) {
	base := ComputeOrderID(types.CHAIN_ETHEREUM, types.CHAIN_SUI, "1000", "ab", 1700000000, "nonce")

	assert.Len(t, base, 64)

	// deterministic for identical inputs
	assert.Equal(t, base, ComputeOrderID(types.CHAIN_ETHEREUM, types.CHAIN_SUI, "1000", "ab", 1700000000, "nonce"))

	// every field participates in the fingerprint
	assert.NotEqual(t, base, ComputeOrderID(types.CHAIN_BASE, types.CHAIN_SUI, "1000", "ab", 1700000000, "nonce"))
	assert.NotEqual(t, base, ComputeOrderID(types.CHAIN_ETHEREUM, types.CHAIN_ETHEREUM, "1000", "ab", 1700000000, "nonce"))
	assert.NotEqual(t, base, ComputeOrderID(types.CHAIN_ETHEREUM, types.CHAIN_SUI, "1001", "ab", 1700000000, "nonce"))
	assert.NotEqual(t, base, ComputeOrderID(types.CHAIN_ETHEREUM, types.CHAIN_SUI, "1000", "ac", 1700000000, "nonce"))
	assert.NotEqual(t, base, ComputeOrderID(types.CHAIN_ETHEREUM, types.CHAIN_SUI, "1000", "ab", 1700000001, "nonce"))
	assert.NotEqual(t, base, ComputeOrderID(types.CHAIN_ETHEREUM, types.CHAIN_SUI, "1000", "ab", 1700000000, "other"))
}
