// Package kvstore implements the wallet engine's sole persistence
// surface: a namespaced key-value store over arbitrary-arity keys,
// length-prefixed msgpack values, and batched writes. Grounded on the
// teacher's storage.PersistenceStore (a thin LevelDB wrapper).
package kvstore

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Key is an ordered list of components that together address a single
// stored value. Each component is rendered as a lowercase, left-padded
// 64-character hex string before being colon-joined into the on-disk
// key, per spec §6.
type Key []string

// pad64 left-pads a hex string to 64 characters, truncating from the
// left on overflow so fixed-width numeric components never grow the
// key, matching how field elements and tree indices are addressed.
func pad64(hexStr string) string {
	hexStr = strings.ToLower(hexStr)
	if len(hexStr) > 64 {
		return hexStr[len(hexStr)-64:]
	}
	return strings.Repeat("0", 64-len(hexStr)) + hexStr
}

// Label turns an arbitrary ASCII identifier (e.g. "wallet",
// "merkletree-orchard") into its 64-character hex-encoded, zero-padded
// component form.
func Label(s string) string {
	return pad64(hex.EncodeToString([]byte(s)))
}

// Num turns a numeric identifier (chain id, tree index, position,
// level) into its 64-character hex, zero-padded component form.
func Num(n uint64) string {
	return pad64(strconv.FormatUint(n, 16))
}

// Hex accepts a value already expressed as a hex string (a field
// element, a public key) and pads/truncates it to component width.
func Hex(s string) string {
	return pad64(strings.TrimPrefix(s, "0x"))
}

// Encode renders a Key as the colon-joined on-disk key string. Key
// components are expected to already be produced via Label/Num/Hex.
func (k Key) Encode() string {
	return strings.Join([]string(k), ":")
}

// WalletKey builds a ("wallet", walletId) key.
func WalletKey(walletID string) Key { return Key{Label("wallet"), Hex(walletID)} }

// WalletDetailsKey builds a ("wallet", walletId, chainId) key.
func WalletDetailsKey(walletID string, chainID uint64) Key {
	return Key{Label("wallet"), Hex(walletID), Num(chainID)}
}

// TXOKey builds a ("wallet", walletId, chainId, tree, position) key.
func TXOKey(walletID string, chainID, tree, position uint64) Key {
	return Key{Label("wallet"), Hex(walletID), Num(chainID), Num(tree), Num(position)}
}

// TXONamespace builds the prefix shared by every TXO of a
// (walletId, chainId, tree) triple, for streaming/counting.
func TXONamespace(walletID string, chainID, tree uint64) Key {
	return Key{Label("wallet"), Hex(walletID), Num(chainID), Num(tree)}
}

// WalletChainNamespace builds the prefix shared by every TXO of a
// (walletId, chainId) pair across all trees.
func WalletChainNamespace(walletID string, chainID uint64) Key {
	return Key{Label("wallet"), Hex(walletID), Num(chainID)}
}

// MerkleNodeKey builds a (chainId, "merkletree-<purpose>", tree, level, index) key.
func MerkleNodeKey(chainID uint64, purpose string, tree uint64, level uint8, index uint64) Key {
	return Key{
		Num(chainID),
		Label(fmt.Sprintf("merkletree-%s", purpose)),
		Num(tree),
		Num(uint64(level)),
		Num(index),
	}
}

// MerkleTreeNamespace builds the prefix shared by every node of a
// (chainId, purpose, tree) triple.
func MerkleTreeNamespace(chainID uint64, purpose string, tree uint64) Key {
	return Key{Num(chainID), Label(fmt.Sprintf("merkletree-%s", purpose)), Num(tree)}
}
