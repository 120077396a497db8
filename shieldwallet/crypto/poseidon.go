package crypto

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// Poseidon hashes an arbitrary list of field elements into a single
// field element. Grounded on github.com/iden3/go-iden3-crypto/poseidon,
// the canonical circom-compatible Poseidon implementation over the
// BN254 scalar field — the same construction RAILGUN-style commitment
// trees use for hashing tree nodes and notes.
func Poseidon(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("crypto: poseidon requires at least one input")
	}
	reduced := make([]*big.Int, len(inputs))
	for i, in := range inputs {
		reduced[i] = FieldMod(in)
	}
	h, err := poseidon.Hash(reduced)
	if err != nil {
		return nil, fmt.Errorf("crypto: poseidon hash: %w", err)
	}
	return FieldMod(h), nil
}

// MustPoseidon is Poseidon without the error return, for call sites that
// only ever pass a fixed, already-validated input arity.
func MustPoseidon(inputs ...*big.Int) *big.Int {
	h, err := Poseidon(inputs...)
	if err != nil {
		panic(err)
	}
	return h
}
