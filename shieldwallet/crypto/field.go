// Package crypto implements the pure cryptographic primitives the
// wallet engine is built on: Poseidon hashing, EdDSA over BabyJubJub,
// Ed25519 signing, BabyJubJub-ECDH, ephemeral-key blinding, and
// AES-256-GCM note encryption. Every function here is synchronous and
// side-effect free (besides drawing from crypto/rand).
package crypto

import (
	"encoding/hex"
	"math/big"
)

// SnarkPrime is the scalar field modulus of the BN254 proof system used
// by the commitment tree and the note algebra. All field arithmetic in
// this package reduces modulo this value.
var SnarkPrime, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10,
)

// FieldMod reduces x into the canonical representative of the SNARK scalar field.
func FieldMod(x *big.Int) *big.Int {
	return new(big.Int).Mod(x, SnarkPrime)
}

// FieldBytes32 serializes a field element to 32 bytes, big-endian.
func FieldBytes32(x *big.Int) [32]byte {
	var out [32]byte
	b := FieldMod(x).Bytes()
	copy(out[32-len(b):], b)
	return out
}

// FieldFromBytes32 deserializes a big-endian 32-byte field element.
func FieldFromBytes32(b [32]byte) *big.Int {
	return FieldMod(new(big.Int).SetBytes(b[:]))
}

// FieldHex returns the lowercase hex string of a field element's canonical 32-byte encoding.
func FieldHex(x *big.Int) string {
	b := FieldBytes32(x)
	return hex.EncodeToString(b[:])
}
