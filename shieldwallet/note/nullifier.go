package note

import (
	"math/big"

	"github.com/shielded-pool/engine/shieldwallet/crypto"
)

// NullifyingKey is Poseidon(viewingPrivateKey).
func NullifyingKey(viewingPrivateKey *big.Int) *big.Int {
	return crypto.MustPoseidon(viewingPrivateKey)
}

// GetNullifier is the static nullifier function: Poseidon(nullifyingKey, position).
func GetNullifier(nullifyingKey *big.Int, position uint64) *big.Int {
	return crypto.MustPoseidon(nullifyingKey, new(big.Int).SetUint64(position))
}
