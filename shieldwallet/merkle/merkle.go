// Package merkle implements the append-only, fixed-depth Poseidon
// Merkle tree used for commitments, with a write cache, a mutex-guarded
// update queue, and per-tree length bookkeeping. Grounded on the
// teacher's builder/orchard/merkle.MerkleTree, generalized from its
// single fixed Keccak-placeholder tree to multiple Poseidon trees
// addressed by (chainId, purpose, tree) and backed by kvstore.Store.
package merkle

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/shielded-pool/engine/log"
	"github.com/shielded-pool/engine/shieldwallet/crypto"
	"github.com/shielded-pool/engine/shieldwallet/kvstore"
	"github.com/shielded-pool/engine/shieldwallet/walleterr"
)

// ZeroValue is MERKLE_ZERO_VALUE: keccak256("Railgun") reduced into the
// SNARK scalar field, the leaf value an empty slot is treated as.
var ZeroValue = func() *big.Int {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte("Railgun"))
	return crypto.FieldMod(new(big.Int).SetBytes(h.Sum(nil)))
}()

type levelIndex struct {
	level uint8
	index uint64
}

type queuedBatch struct {
	startIndex uint64
	leaves     []*big.Int
}

// Tree is a single named Merkle tree collection (e.g. "commitments" for
// a given chain), addressed by an integer tree id for forest-of-trees
// deployments where a new tree opens once the previous one fills.
type Tree struct {
	store   kvstore.Store
	chainID uint64
	purpose string
	depth   uint8

	zeroValues []*big.Int

	mu          sync.Mutex
	busy        bool
	queue       map[uint64][]queuedBatch
	lengths     map[uint64]uint64
	writeCache  map[uint64]map[levelIndex]*big.Int
}

// New constructs a Tree of the given depth over the given store
// namespace. depth=16 matches the reference implementation's example
// scenario (spec §8 scenario 6).
func New(store kvstore.Store, chainID uint64, purpose string, depth uint8) *Tree {
	t := &Tree{
		store:      store,
		chainID:    chainID,
		purpose:    purpose,
		depth:      depth,
		zeroValues: make([]*big.Int, depth+1),
		queue:      make(map[uint64][]queuedBatch),
		lengths:    make(map[uint64]uint64),
		writeCache: make(map[uint64]map[levelIndex]*big.Int),
	}
	t.zeroValues[0] = ZeroValue
	for level := uint8(1); level <= depth; level++ {
		t.zeroValues[level] = HashLeftRight(t.zeroValues[level-1], t.zeroValues[level-1])
	}
	return t
}

// HashLeftRight is the tree's static node-combining function.
func HashLeftRight(l, r *big.Int) *big.Int {
	return crypto.MustPoseidon(l, r)
}

// QueueLeaves enqueues a leaf batch for tree at startingIndex and
// triggers the update loop. If an update is already running (busy),
// this call deposits into the queue and returns immediately — the
// owning caller's loop will pick it up on its next iteration.
func (t *Tree) QueueLeaves(tree uint64, leaves []*big.Int, startingIndex uint64) error {
	if len(leaves) == 0 {
		return nil
	}

	t.mu.Lock()
	t.queue[tree] = append(t.queue[tree], queuedBatch{startIndex: startingIndex, leaves: leaves})
	if t.busy {
		t.mu.Unlock()
		log.Debug(log.Merkle, "deposited batch into running update", "tree", tree, "start", startingIndex)
		return nil
	}
	t.busy = true
	t.mu.Unlock()

	err := t.updateTrees()

	t.mu.Lock()
	t.busy = false
	t.mu.Unlock()
	return err
}

// updateTrees drains every queued batch that has become current,
// across every tree, dispatching at most one InsertLeaves per tree per
// iteration, until no tree has a batch ready to apply.
func (t *Tree) updateTrees() error {
	for {
		t.mu.Lock()
		var ready []struct {
			tree  uint64
			batch queuedBatch
		}
		for treeID, batches := range t.queue {
			length := t.lengths[treeID]
			filtered := batches[:0]
			var pick *queuedBatch
			for i := range batches {
				b := batches[i]
				if b.startIndex < length {
					log.Debug(log.Merkle, "discarding stale queue entry", "tree", treeID, "start", b.startIndex, "length", length)
					continue
				}
				if pick == nil && b.startIndex == length {
					picked := b
					pick = &picked
					continue
				}
				filtered = append(filtered, b)
			}
			t.queue[treeID] = filtered
			if pick != nil {
				ready = append(ready, struct {
					tree  uint64
					batch queuedBatch
				}{treeID, *pick})
			}
		}
		t.mu.Unlock()

		if len(ready) == 0 {
			return nil
		}

		for _, r := range ready {
			if err := t.InsertLeaves(r.tree, r.batch.leaves, r.batch.startIndex); err != nil {
				return err
			}
		}
	}
}

// InsertLeaves inserts leaves contiguously at startIndex, recomputes
// every ancestor up to the root, and commits the result with a single
// batched write. An empty batch (a block with no new commitments) is a
// no-op, matching the teacher's AppendBatch.
func (t *Tree) InsertLeaves(tree uint64, leaves []*big.Int, startIndex uint64) error {
	if len(leaves) == 0 {
		return nil
	}

	t.mu.Lock()
	cache := t.writeCache[tree]
	if cache == nil {
		cache = make(map[levelIndex]*big.Int)
		t.writeCache[tree] = cache
	}
	t.mu.Unlock()

	for i, leaf := range leaves {
		cache[levelIndex{level: 0, index: startIndex + uint64(i)}] = crypto.FieldMod(leaf)
	}

	loIndex := startIndex
	hiIndex := startIndex + uint64(len(leaves)) - 1

	for level := uint8(0); level < t.depth; level++ {
		parentLo := loIndex / 2
		parentHi := hiIndex / 2
		for idx := parentLo; idx <= parentHi; idx++ {
			left, err := t.sibling(tree, cache, level, idx*2)
			if err != nil {
				return err
			}
			right, err := t.sibling(tree, cache, level, idx*2+1)
			if err != nil {
				return err
			}
			cache[levelIndex{level: level + 1, index: idx}] = HashLeftRight(left, right)
		}
		loIndex = parentLo
		hiIndex = parentHi
	}

	ops := make([]kvstore.Op, 0, len(cache))
	for li, value := range cache {
		raw, err := kvstore.EncodeValue(crypto.FieldHex(value))
		if err != nil {
			return fmt.Errorf("merkle: encode node: %w", err)
		}
		ops = append(ops, kvstore.Op{
			Key:   kvstore.MerkleNodeKey(t.chainID, t.purpose, tree, li.level, li.index),
			Value: raw,
		})
	}
	if err := t.store.Batch(ops); err != nil {
		return fmt.Errorf("%w: merkle batch write: %v", walleterr.ErrStorage, err)
	}

	t.mu.Lock()
	t.lengths[tree] = startIndex + uint64(len(leaves))
	delete(t.writeCache, tree)
	t.mu.Unlock()

	log.Debug(log.Merkle, "inserted leaves", "tree", tree, "start", startIndex, "count", len(leaves))
	return nil
}

// sibling resolves a node value from the write cache, falling back to
// the persisted store, and finally to the zero value for that level.
func (t *Tree) sibling(tree uint64, cache map[levelIndex]*big.Int, level uint8, index uint64) (*big.Int, error) {
	if v, ok := cache[levelIndex{level: level, index: index}]; ok {
		return v, nil
	}
	return t.GetNode(tree, level, index)
}

// GetNode returns the persisted node at (tree, level, index), or the
// level's zero value if absent.
func (t *Tree) GetNode(tree uint64, level uint8, index uint64) (*big.Int, error) {
	raw, ok, err := t.store.Get(kvstore.MerkleNodeKey(t.chainID, t.purpose, tree, level, index))
	if err != nil {
		return nil, fmt.Errorf("%w: get node: %v", walleterr.ErrStorage, err)
	}
	if !ok {
		return t.zeroValues[level], nil
	}
	var hexStr string
	if err := kvstore.DecodeValue(raw, &hexStr); err != nil {
		return nil, fmt.Errorf("merkle: decode node: %w", err)
	}
	decoded, err := hex.DecodeString(hexStr)
	if err != nil || len(decoded) != 32 {
		return nil, fmt.Errorf("merkle: malformed node hex %q", hexStr)
	}
	var b [32]byte
	copy(b[:], decoded)
	return crypto.FieldFromBytes32(b), nil
}

// GetTreeLength returns the cached leaf count for tree.
func (t *Tree) GetTreeLength(tree uint64) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lengths[tree]
}

// GetRoot returns getNode(tree, depth, 0).
func (t *Tree) GetRoot(tree uint64) (*big.Int, error) {
	return t.GetNode(tree, t.depth, 0)
}

// Depth returns the tree's configured depth.
func (t *Tree) Depth() uint8 { return t.depth }
