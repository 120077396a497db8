// Package txo holds the wallet's shared data-model shapes — the
// stored transaction output record, balance aggregations, and spending
// solution groups — so the scanner and the planner can share them
// without importing each other. Per spec §3 and §9's note that the
// planner's mutable arguments are a request-scoped workbench, not
// global state.
package txo

import (
	"math/big"

	"github.com/shielded-pool/engine/shieldwallet/note"
)

// TXO is a stored transaction output, per spec §3.
type TXO struct {
	Tree      uint64
	Position  uint64
	Txid      string
	SpendTxid string // empty string means unspent
	Nullifier *big.Int
	Note      *note.Note
}

// Spent reports whether this TXO has an observed spend transaction.
func (t *TXO) Spent() bool { return t.SpendTxid != "" }

// TreeBalance is a single tree's aggregate balance plus the UTXOs that make it up.
type TreeBalance struct {
	Tree    uint64
	Balance *big.Int
	UTXOs   []*TXO
}

// Balances maps a token id (hex-encoded) to its aggregate TreeBalance across all trees.
type Balances map[string]*TreeBalance

// BalancesByTree maps a token id to the list of per-tree balances that carry it.
type BalancesByTree map[string][]*TreeBalance

// SpendingSolutionGroup is one emitted spend: a set of input UTXOs from
// a single tree, the output notes it funds, and any withdrawal value.
type SpendingSolutionGroup struct {
	SpendingTree  uint64
	UTXOs         []*TXO
	Outputs       []*note.Note
	WithdrawValue *big.Int
}
