package wallet

import (
	"fmt"

	"github.com/shielded-pool/engine/shieldwallet/crypto"
	"github.com/shielded-pool/engine/shieldwallet/kvstore"
)

// Details is the per-chain scan cursor persisted at
// ("wallet", walletId, chainId), encrypted under the wallet's master
// public key, per spec §3 and §6.
type Details struct {
	// TreeScannedHeights holds, per tree index, the position of the
	// last leaf examined. Per DESIGN NOTES §9 ("treeScannedHeights
	// off-by-one"): Scan sets it to startPosition+len(leaves)-1 for the
	// batch it scanned, the index of the last leaf examined, not a
	// count of leaves scanned.
	TreeScannedHeights []uint32 `msgpack:"treeScannedHeights"`
}

func (w *Wallet) detailsEncKey() [32]byte {
	return crypto.FieldBytes32(w.masterPublicKey)
}

// LoadDetails reads a chain's WalletDetails record, returning a
// zero-valued Details if none has been persisted yet.
func (w *Wallet) LoadDetails(chainID uint64) (*Details, error) {
	raw, ok, err := w.store.GetEncrypted(kvstore.WalletDetailsKey(w.id, chainID), w.detailsEncKey())
	if err != nil {
		return nil, fmt.Errorf("wallet: load details: %w", err)
	}
	if !ok {
		return &Details{}, nil
	}
	var d Details
	if err := kvstore.DecodeValue(raw, &d); err != nil {
		return nil, fmt.Errorf("wallet: decode details: %w", err)
	}
	return &d, nil
}

// SaveDetails persists a chain's WalletDetails record.
func (w *Wallet) SaveDetails(chainID uint64, d *Details) error {
	body, err := kvstore.EncodeValue(d)
	if err != nil {
		return fmt.Errorf("wallet: encode details: %w", err)
	}
	if err := w.store.PutEncrypted(kvstore.WalletDetailsKey(w.id, chainID), w.detailsEncKey(), body); err != nil {
		return fmt.Errorf("wallet: persist details: %w", err)
	}
	return nil
}

// scannedHeight returns the stored height for tree, or 0 if the tree
// has never been scanned.
func (d *Details) scannedHeight(tree uint64) uint32 {
	if tree >= uint64(len(d.TreeScannedHeights)) {
		return 0
	}
	return d.TreeScannedHeights[tree]
}

// setScannedHeight grows TreeScannedHeights as needed and records height for tree.
func (d *Details) setScannedHeight(tree uint64, height uint32) {
	for uint64(len(d.TreeScannedHeights)) <= tree {
		d.TreeScannedHeights = append(d.TreeScannedHeights, 0)
	}
	d.TreeScannedHeights[tree] = height
}
