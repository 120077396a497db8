// Package note implements the plaintext note, its derived fields, its
// on-chain commitment forms, and the nullifier function, per spec §3
// and §4.3. Grounded in style on the teacher's
// builder/orchard/wallet.OrchardWallet note bookkeeping, replacing its
// Keccak-based placeholders with the real Poseidon/AES-GCM primitives
// from shieldwallet/crypto.
package note

import (
	"math/big"

	"github.com/shielded-pool/engine/shieldwallet/crypto"
)

// Note is the plaintext note, per spec §3.
type Note struct {
	MasterPublicKey  *big.Int
	ViewingPublicKey [32]byte
	Token            [20]byte
	Random           [16]byte
	Value            *big.Int
}

// New constructs a Note. Callers must already hold a 20-byte token id
// and a 16-byte random nonce; this constructor does not reshape them.
func New(masterPublicKey *big.Int, viewingPublicKey [32]byte, token [20]byte, random [16]byte, value *big.Int) *Note {
	return &Note{
		MasterPublicKey:  crypto.FieldMod(masterPublicKey),
		ViewingPublicKey: viewingPublicKey,
		Token:            token,
		Random:           random,
		Value:            new(big.Int).Set(value),
	}
}

// NotePublicKey is Poseidon(masterPublicKey, random).
func (n *Note) NotePublicKey() *big.Int {
	randomField := new(big.Int).SetBytes(n.Random[:])
	return crypto.MustPoseidon(n.MasterPublicKey, randomField)
}

// TokenField reinterprets the 20-byte token id as a field element for hashing.
func (n *Note) TokenField() *big.Int {
	return new(big.Int).SetBytes(n.Token[:])
}

// Hash is Poseidon(notePublicKey, token, value).
func (n *Note) Hash() *big.Int {
	return crypto.MustPoseidon(n.NotePublicKey(), n.TokenField(), crypto.FieldMod(n.Value))
}

// Clone returns a copy of the note with value replaced by a fresh copy of
// value; the MasterPublicKey pointer is shared with n. Used by the
// planner when emitting a solution-group output note of a different value
// than the caller-requested output.
func (n *Note) Clone(value *big.Int) *Note {
	clone := *n
	clone.Value = new(big.Int).Set(value)
	return &clone
}

// IsZeroValue reports whether this note carries no value, i.e. it is a
// padding note used to fill out a spending solution's output count.
func (n *Note) IsZeroValue() bool {
	return n.Value.Sign() == 0
}
