// Package wallet implements the incremental scan engine of spec §4.4:
// wallet identity/derivation, persisted WalletDetails, leaf scanning,
// TXO spend-status refresh, and balance aggregation. Grounded on the
// teacher's witness.FFIWallet adapter pattern for the external
// collaborators (mnemonic, HD derivation) this package never imports
// directly.
package wallet

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/shielded-pool/engine/shieldwallet/chain"
	"github.com/shielded-pool/engine/shieldwallet/crypto"
	"github.com/shielded-pool/engine/shieldwallet/kvstore"
)

// HD path prefixes fixed by spec §4.4; everything beyond the
// index placeholder is delegated to chain.PathDeriver.
const (
	SpendingPathPrefix = "m/44'/1984'/0'/0'"
	ViewingPathPrefix  = "m/420'/1984'/0'/0'"
)

// Wallet holds one wallet's derived key material and persistence
// handle. A Wallet is chain-agnostic; per-chain scan state lives in
// WalletDetails.
type Wallet struct {
	store kvstore.Store

	id       string
	mnemonic string
	index    uint32
	userKey  [32]byte

	spendingPrivateKey *big.Int
	spendingPublicKey  *crypto.PublicKey

	viewingPrivateKey ed25519.PrivateKey
	viewingPublicKey  ed25519.PublicKey
	viewingScalar     *big.Int // the Ed25519 seed folded into a BabyJubJub scalar, used for ECDH and the nullifying key

	nullifyingKey   *big.Int
	masterPublicKey *big.Int
}

// ID returns the wallet's sha256(mnemonic_seed || hex(index)) identifier.
func (w *Wallet) ID() string { return w.id }

// MasterPublicKey is the spending identity: Poseidon(spendingPublicKey.X, nullifyingKey).
func (w *Wallet) MasterPublicKey() *big.Int { return w.masterPublicKey }

// ViewingPublicKey is the Ed25519 public half of the viewing keypair.
func (w *Wallet) ViewingPublicKey() ed25519.PublicKey { return w.viewingPublicKey }

// NullifyingKey is Poseidon(viewingPrivateKeyScalar), per spec §3.
func (w *Wallet) NullifyingKey() *big.Int { return w.nullifyingKey }

// Address returns this wallet's public address, optionally bound to chainID.
func (w *Wallet) Address(chainID *uint64) *Address {
	var vpk [32]byte
	copy(vpk[:], w.viewingPublicKey)
	return &Address{
		MasterPublicKey:  w.masterPublicKey,
		ViewingPublicKey: vpk,
		ChainID:          chainID,
	}
}

// FromMnemonic derives a wallet's full key material from a BIP-39
// mnemonic and an account index, via the two external collaborators
// spec §1 places out of scope.
func FromMnemonic(
	store kvstore.Store,
	mnemonics chain.MnemonicProvider,
	paths chain.PathDeriver,
	mnemonic string,
	index uint32,
	userKey [32]byte,
) (*Wallet, error) {
	seed, err := mnemonics.Seed(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("wallet: derive seed: %w", err)
	}

	spendingScalar, err := paths.DeriveSpendingKey(seed, index)
	if err != nil {
		return nil, fmt.Errorf("wallet: derive spending key: %w", err)
	}
	viewingSeed, err := paths.DeriveViewingKey(seed, index)
	if err != nil {
		return nil, fmt.Errorf("wallet: derive viewing key: %w", err)
	}
	if len(viewingSeed) < ed25519.SeedSize {
		return nil, fmt.Errorf("wallet: derived viewing seed too short: %d bytes", len(viewingSeed))
	}

	w, err := newWallet(store, mnemonic, index, userKey, seed, spendingScalar, viewingSeed[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	if err := w.write(); err != nil {
		return nil, err
	}
	// Per DESIGN NOTES §9 ("Wallet write-shape duplication"): the
	// record is written a second time with the same shape, reproducing
	// the duplicated persistence of the wallet's two write paths.
	// newWallet itself does not write.
	if err := w.write(); err != nil {
		return nil, err
	}
	return w, nil
}

// newWallet assembles the derived key material for FromMnemonic. It
// persists nothing; FromMnemonic writes the record afterwards through
// write, the single serialization of the ("wallet", walletId) record.
func newWallet(store kvstore.Store, mnemonic string, index uint32, userKey [32]byte, seed []byte, spendingScalar *big.Int, viewingSeed []byte) (*Wallet, error) {
	id := walletID(seed, index)

	spendingPublicKey := crypto.ScalarMul(spendingScalar, crypto.BasePoint())

	viewingPrivateKey := ed25519.NewKeyFromSeed(viewingSeed)
	viewingPublicKey := viewingPrivateKey.Public().(ed25519.PublicKey)
	viewingScalar := crypto.DeriveScalarFromSeed(viewingSeed)

	nullifyingKey, err := crypto.Poseidon(viewingScalar)
	if err != nil {
		return nil, fmt.Errorf("wallet: nullifying key: %w", err)
	}
	masterPublicKey, err := crypto.Poseidon(spendingPublicKey.X, nullifyingKey)
	if err != nil {
		return nil, fmt.Errorf("wallet: master public key: %w", err)
	}

	return &Wallet{
		store:              store,
		id:                 id,
		mnemonic:           mnemonic,
		index:              index,
		userKey:            userKey,
		spendingPrivateKey: spendingScalar,
		spendingPublicKey:  spendingPublicKey,
		viewingPrivateKey:  viewingPrivateKey,
		viewingPublicKey:   viewingPublicKey,
		viewingScalar:      viewingScalar,
		nullifyingKey:      nullifyingKey,
		masterPublicKey:    masterPublicKey,
	}, nil
}

// walletID is sha256(mnemonic_seed || hex(index)), per spec §4.4.
func walletID(seed []byte, index uint32) string {
	h := sha256.New()
	h.Write(seed)
	h.Write([]byte(fmt.Sprintf("%08x", index)))
	return hex.EncodeToString(h.Sum(nil))
}

// walletRecord is the on-disk shape at ("wallet", walletId): an
// encrypted-under-user-key {mnemonic, index} pair, per spec §6.
type walletRecord struct {
	Mnemonic string `msgpack:"mnemonic"`
	Index    uint32 `msgpack:"index"`
}

// write persists the wallet's ("wallet", walletId) record. It is the
// single canonical persistence routine: every construction path calls
// it, even when that means writing the same shape twice.
func (w *Wallet) write() error {
	body, err := kvstore.EncodeValue(walletRecord{Mnemonic: w.mnemonic, Index: w.index})
	if err != nil {
		return fmt.Errorf("wallet: encode record: %w", err)
	}
	if err := w.store.PutEncrypted(kvstore.WalletKey(w.id), w.userKey, body); err != nil {
		return fmt.Errorf("wallet: persist record: %w", err)
	}
	return nil
}
