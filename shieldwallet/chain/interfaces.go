// Package chain declares the seams through which the wallet engine
// talks to everything spec.md places out of scope: the chain RPC
// client, ABI encoding, the zk-prover backend, BIP-39 mnemonic
// handling, and HD-path derivation beyond the two fixed prefixes.
// Modeled on the teacher's witness.OrchardWallet /
// witness.CommitmentProvider pattern: a small interface per
// collaborator, consumed by the core without ever importing a concrete
// RPC/ABI/prover/mnemonic package.
package chain

import (
	"context"
	"math/big"

	"github.com/shielded-pool/engine/shieldwallet/note"
)

// TxID is an on-chain transaction hash, lowercase hex when stringified.
type TxID string

// EventSource delivers batches of on-chain commitments. The scanner
// treats it as authoritative and idempotent per (tree, position).
type EventSource interface {
	NextBatch(ctx context.Context) (tree uint64, startPosition uint64, leaves []*note.Commitment, err error)
}

// NullifierIndex answers whether a nullifier has been burned on-chain.
type NullifierIndex interface {
	GetNullified(ctx context.Context, nullifier *big.Int) (txid TxID, found bool, err error)
}

// ABIEncoder encodes a spending solution group for submission to the
// on-chain verifier. Never called by the core itself; it exists purely
// as a documented seam for a host application.
type ABIEncoder interface {
	EncodeSpend(group SpendingSolutionGroup) ([]byte, error)
}

// SpendingSolutionGroup is the view of a spending group an ABIEncoder
// receives: only its spending tree. It does not import the txo
// package, and txo.SpendingSolutionGroup does not implement it (it has
// no SpendTree method), so a host passes its own wrapper.
type SpendingSolutionGroup interface {
	SpendTree() uint64
}

// CircuitShape names which of the valid nullifier-count circuits
// (1, 2, or 8 inputs) a proof request targets.
type CircuitShape int

const (
	CircuitShapeOne CircuitShape = iota + 1
	CircuitShapeTwo
	CircuitShapeEight
)

// ProverBackend generates a zk proof for a witness against a circuit shape.
type ProverBackend interface {
	Prove(circuit CircuitShape, witness []byte) (proof []byte, err error)
}

// MnemonicProvider turns a BIP-39 mnemonic into seed bytes. All BIP-39
// wordlist/checksum handling lives behind this seam; the wallet
// package only ever consumes the resulting seed.
type MnemonicProvider interface {
	Seed(mnemonic string) ([]byte, error)
}

// PathDeriver walks an HD path beyond the two fixed prefixes
// (m/44'/1984'/0'/0'/<index>', m/420'/1984'/0'/0'/<index>') and
// returns the final derived key material for each subtree.
type PathDeriver interface {
	DeriveSpendingKey(seed []byte, index uint32) (*big.Int, error)
	DeriveViewingKey(seed []byte, index uint32) ([]byte, error)
}
