package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/shielded-pool/engine/log"
	"github.com/shielded-pool/engine/shieldwallet/chain"
	"github.com/shielded-pool/engine/shieldwallet/crypto"
	"github.com/shielded-pool/engine/shieldwallet/kvstore"
	"github.com/shielded-pool/engine/shieldwallet/note"
	"github.com/shielded-pool/engine/shieldwallet/txo"
	"github.com/shielded-pool/engine/shieldwallet/walleterr"
)

// storedTXO is the on-disk shape at
// ("wallet", walletId, chainId, tree, position), per spec §4.4/§6.
type storedTXO struct {
	Txid      string          `msgpack:"txid"`
	SpendTxid string          `msgpack:"spendtxid"`
	Nullifier string          `msgpack:"nullifier"`
	Note      note.StoredNote `msgpack:"note"`
}

// Scanner walks new leaves for one wallet across chains, attempting
// decryption and persisting claimed TXOs, per spec §4.4.
type Scanner struct {
	wallet *Wallet
	index  chain.NullifierIndex

	scanMu   sync.Mutex
	scanning map[uint64]bool
}

// NewScanner builds a Scanner for wallet, backed by a shared nullifier
// index collaborator.
func NewScanner(w *Wallet, index chain.NullifierIndex) *Scanner {
	return &Scanner{
		wallet:   w,
		index:    index,
		scanning: make(map[uint64]bool),
	}
}

// viewingKeyBytes is the 32-byte form of the wallet's viewing scalar,
// used both as the BabyJubJub ECDH scalar and as the AES key sealing
// encryptedRandom, per the dual-use viewing key resolution recorded in
// DESIGN.md.
func (w *Wallet) viewingKeyBytes() [32]byte {
	return crypto.FieldBytes32(w.viewingScalar)
}

// ScanLeaves attempts decryption of every leaf in leaves against this
// wallet's viewing key and persists a stored TXO for each claimed
// leaf. Per DESIGN NOTES §9 ("Full re-decryption on every scan") every
// leaf is attempted regardless of prior scan height; the persistence
// key (tree, position) makes re-writes idempotent.
func (s *Scanner) ScanLeaves(leaves []*note.Commitment, tree, chainID uint64, startPosition uint64) (claimed bool, err error) {
	var ops []kvstore.Op

	for i, leaf := range leaves {
		position := startPosition + uint64(i)

		claimedNote, encRandom, ok, err := s.claim(leaf)
		if err != nil {
			return false, err
		}
		if !ok {
			log.Debug(log.Scanner, "leaf not addressed to this wallet", "tree", tree, "position", position)
			continue
		}

		nullifier := note.GetNullifier(s.wallet.nullifyingKey, position)
		stored, err := note.Serialize(claimedNote, encRandom)
		if err != nil {
			return false, fmt.Errorf("wallet: serialize claimed note: %w", err)
		}

		rec := storedTXO{
			Txid:      leaf.Txid,
			SpendTxid: "",
			Nullifier: crypto.FieldHex(nullifier),
			Note:      *stored,
		}
		body, err := kvstore.EncodeValue(rec)
		if err != nil {
			return false, fmt.Errorf("wallet: encode txo: %w", err)
		}
		ops = append(ops, kvstore.Op{
			Key:   kvstore.TXOKey(s.wallet.id, chainID, tree, position),
			Value: body,
		})
		claimed = true
	}

	if len(ops) == 0 {
		return false, nil
	}
	if err := s.wallet.store.Batch(ops); err != nil {
		return false, fmt.Errorf("wallet: persist txos: %w", err)
	}
	return claimed, nil
}

// claim attempts to decrypt leaf against this wallet's viewing key,
// per spec §4.4's two-branch dispatch on the commitment's tag.
func (s *Scanner) claim(leaf *note.Commitment) (*note.Note, crypto.EncryptedChunks, bool, error) {
	viewingKey := s.wallet.viewingKeyBytes()

	if !leaf.IsPreimage() {
		shared, err := crypto.ECDH(s.wallet.viewingScalar, leaf.EphemeralKeys[0])
		if err != nil {
			return nil, crypto.EncryptedChunks{}, false, fmt.Errorf("wallet: ecdh: %w", err)
		}
		partial, err := note.Decrypt(leaf.Ciphertext, shared)
		if err != nil {
			return nil, crypto.EncryptedChunks{}, false, nil // decryption failure: not addressed to us
		}
		partial.ViewingPublicKey = s.wallet.vpkBytes()

		encRandom, err := note.EncryptRandom(partial.Random, viewingKey)
		if err != nil {
			return nil, crypto.EncryptedChunks{}, false, fmt.Errorf("wallet: seal random: %w", err)
		}
		return partial, encRandom, true, nil
	}

	random, err := note.DecryptRandom(leaf.EncryptedRandom, viewingKey)
	if err != nil {
		return nil, crypto.EncryptedChunks{}, false, nil // not addressed to us
	}
	n := note.New(s.wallet.masterPublicKey, s.wallet.vpkBytes(), leaf.Preimage.Token, random, leaf.Preimage.Value)
	return n, leaf.EncryptedRandom, true, nil
}

func (w *Wallet) vpkBytes() [32]byte {
	var b [32]byte
	copy(b[:], w.viewingPublicKey)
	return b
}

// TXOs range-scans this wallet's namespace for chainID across every
// tree, refreshing spend status against idx for any record still
// marked unspent.
func (s *Scanner) TXOs(ctx context.Context, chainID uint64) ([]*txo.TXO, error) {
	keys, errc := s.wallet.store.StreamNamespace(kvstore.WalletChainNamespace(s.wallet.id, chainID))

	var out []*txo.TXO
	for key := range keys {
		raw, ok, err := s.wallet.store.Get(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", walleterr.ErrStorage, err)
		}
		if !ok {
			continue // vanished between stream and read; treat as absent
		}
		var rec storedTXO
		if err := kvstore.DecodeValue(raw, &rec); err != nil {
			return nil, fmt.Errorf("wallet: decode txo: %w", err)
		}

		_, token, value, encRandom, err := note.Deserialize(&rec.Note)
		if err != nil {
			return nil, fmt.Errorf("wallet: deserialize txo note: %w", err)
		}
		random, err := note.DecryptRandom(encRandom, s.wallet.viewingKeyBytes())
		if err != nil {
			return nil, fmt.Errorf("wallet: recover txo random: %w", err)
		}
		n := note.New(s.wallet.masterPublicKey, s.wallet.vpkBytes(), token, random, value)

		nullifier, ok := new(big.Int).SetString(rec.Nullifier, 16)
		if !ok {
			return nil, fmt.Errorf("wallet: malformed stored nullifier %q", rec.Nullifier)
		}

		tree, position, err := parseTXOKey(key)
		if err != nil {
			return nil, err
		}

		t := &txo.TXO{
			Tree:      tree,
			Position:  position,
			Txid:      rec.Txid,
			SpendTxid: rec.SpendTxid,
			Nullifier: nullifier,
			Note:      n,
		}

		if t.SpendTxid == "" && s.index != nil {
			spendTxid, found, err := s.index.GetNullified(ctx, nullifier)
			if err != nil {
				return nil, fmt.Errorf("wallet: query nullifier index: %w", err)
			}
			if found {
				t.SpendTxid = string(spendTxid)
				if err := s.persistSpendStatus(key, &rec, t.SpendTxid); err != nil {
					return nil, err
				}
			}
		}

		out = append(out, t)
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	return out, nil
}

// parseTXOKey recovers (tree, position) from a TXO key's last two
// colon-joined hex components, per the ("wallet", walletId, chainId,
// tree, position) layout of spec §6.
func parseTXOKey(key kvstore.Key) (tree, position uint64, err error) {
	parts := strings.Split(key.Encode(), ":")
	if len(parts) != 5 {
		return 0, 0, fmt.Errorf("wallet: malformed txo key %q", key.Encode())
	}
	tree, err = strconv.ParseUint(parts[3], 16, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("wallet: malformed txo key tree component: %w", err)
	}
	position, err = strconv.ParseUint(parts[4], 16, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("wallet: malformed txo key position component: %w", err)
	}
	return tree, position, nil
}

func (s *Scanner) persistSpendStatus(key kvstore.Key, rec *storedTXO, spendTxid string) error {
	rec.SpendTxid = spendTxid
	body, err := kvstore.EncodeValue(*rec)
	if err != nil {
		return fmt.Errorf("wallet: encode spend status: %w", err)
	}
	if err := s.wallet.store.Put(key, body); err != nil {
		return fmt.Errorf("wallet: persist spend status: %w", err)
	}
	return nil
}

// Balances aggregates unspent TXOs per token into TreeBalance, per spec §4.4.
func (s *Scanner) Balances(ctx context.Context, chainID uint64) (txo.Balances, error) {
	txos, err := s.TXOs(ctx, chainID)
	if err != nil {
		return nil, err
	}
	out := make(txo.Balances)
	for _, t := range txos {
		if t.Spent() {
			continue
		}
		tokenKey := fmt.Sprintf("%x", t.Note.Token)
		tb, ok := out[tokenKey]
		if !ok {
			tb = &txo.TreeBalance{Balance: big.NewInt(0)}
			out[tokenKey] = tb
		}
		tb.Balance.Add(tb.Balance, t.Note.Value)
		tb.UTXOs = append(tb.UTXOs, t)
	}
	return out, nil
}

// BalancesByTree partitions unspent TXOs by token and then by tree, per spec §4.4.
func (s *Scanner) BalancesByTree(ctx context.Context, chainID uint64) (txo.BalancesByTree, error) {
	txos, err := s.TXOs(ctx, chainID)
	if err != nil {
		return nil, err
	}
	perToken := make(map[string]map[uint64]*txo.TreeBalance)
	for _, t := range txos {
		if t.Spent() {
			continue
		}
		tokenKey := fmt.Sprintf("%x", t.Note.Token)
		byTree, ok := perToken[tokenKey]
		if !ok {
			byTree = make(map[uint64]*txo.TreeBalance)
			perToken[tokenKey] = byTree
		}
		tb, ok := byTree[t.Tree]
		if !ok {
			tb = &txo.TreeBalance{Tree: t.Tree, Balance: big.NewInt(0)}
			byTree[t.Tree] = tb
		}
		tb.Balance.Add(tb.Balance, t.Note.Value)
		tb.UTXOs = append(tb.UTXOs, t)
	}

	out := make(txo.BalancesByTree)
	for tokenKey, byTree := range perToken {
		for _, tb := range byTree {
			out[tokenKey] = append(out[tokenKey], tb)
		}
	}
	return out, nil
}

// Scan runs one scan pass for chainID: it pulls the next available
// batch from source, scans its leaves against this wallet's viewing
// key, and advances the persisted scan height. Writing the same batch
// into the commitment tree is a separate, parallel consumer of
// source — this method never touches a merkle.Tree. A concurrent Scan
// call on the same chain is a no-op, per spec §5's per-chain scan lock
// — implemented as a hand-rolled try-lock rather than
// golang.org/x/sync/singleflight, since the spec's "second caller
// returns immediately without waiting" semantics differs from
// singleflight's "all callers block and share the one result" (see
// SPEC_FULL.md §5.1).
func (s *Scanner) Scan(ctx context.Context, chainID uint64, source chain.EventSource) error {
	s.scanMu.Lock()
	if s.scanning[chainID] {
		s.scanMu.Unlock()
		log.Debug(log.Scanner, "scan already in progress, dropping concurrent call", "chain", chainID)
		return nil
	}
	s.scanning[chainID] = true
	s.scanMu.Unlock()
	defer func() {
		s.scanMu.Lock()
		s.scanning[chainID] = false
		s.scanMu.Unlock()
	}()

	details, err := s.wallet.LoadDetails(chainID)
	if err != nil {
		return err
	}

	tree, startPosition, leaves, err := source.NextBatch(ctx)
	if err != nil {
		return fmt.Errorf("wallet: fetch next batch: %w", err)
	}
	if len(leaves) == 0 {
		return nil
	}

	if _, err := s.ScanLeaves(leaves, tree, chainID, startPosition); err != nil {
		return err
	}

	// Per DESIGN NOTES §9 ("treeScannedHeights off-by-one"): the
	// height is the index of the last leaf examined, reproduced
	// literally rather than corrected to a leaf count.
	details.setScannedHeight(tree, uint32(startPosition+uint64(len(leaves))-1))
	if err := s.wallet.SaveDetails(chainID, details); err != nil {
		return err
	}

	log.Info(log.Scanner, "scanned", "chain", chainID, "tree", tree, "count", len(leaves))
	return nil
}
