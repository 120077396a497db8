package kvstore

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/shielded-pool/engine/shieldwallet/crypto"
	"github.com/shielded-pool/engine/shieldwallet/walleterr"
)

// LevelDB is the reference Store implementation, wrapping
// github.com/syndtr/goleveldb the same way the teacher's
// storage.PersistenceStore does: an empty path opens an in-memory
// database, otherwise a file-backed one.
type LevelDB struct {
	db *leveldb.DB
}

// Open opens or creates a LevelDB-backed Store at path. An empty path
// yields an in-memory store, useful for tests and ephemeral wallets.
func Open(path string) (*LevelDB, error) {
	var db *leveldb.DB
	var err error
	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", walleterr.ErrStorage, path, err)
	}
	return &LevelDB{db: db}, nil
}

func (s *LevelDB) Get(key Key) ([]byte, bool, error) {
	data, err := s.db.Get([]byte(key.Encode()), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", walleterr.ErrStorage, key.Encode(), err)
	}
	return data, true, nil
}

func (s *LevelDB) Put(key Key, value []byte) error {
	if err := s.db.Put([]byte(key.Encode()), value, nil); err != nil {
		return fmt.Errorf("%w: put %s: %v", walleterr.ErrStorage, key.Encode(), err)
	}
	return nil
}

// GetEncrypted reads a value and decrypts it with AES-256-GCM under
// encKey. The stored bytes are the raw EncryptGCM wire form: a 12-byte
// iv, a 16-byte tag, then the single ciphertext chunk.
func (s *LevelDB) GetEncrypted(key Key, encKey [32]byte) ([]byte, bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	enc, err := decodeSealed(raw)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", walleterr.ErrStorage, err)
	}
	chunks, err := crypto.DecryptGCM(encKey, enc)
	if err != nil {
		return nil, true, fmt.Errorf("%w: decrypt %s: %v", walleterr.ErrStorage, key.Encode(), err)
	}
	return chunks[0], true, nil
}

func (s *LevelDB) PutEncrypted(key Key, encKey [32]byte, value []byte) error {
	enc, err := crypto.EncryptGCM(encKey, value)
	if err != nil {
		return fmt.Errorf("%w: encrypt %s: %v", walleterr.ErrStorage, key.Encode(), err)
	}
	return s.Put(key, encodeSealed(enc))
}

func (s *LevelDB) Batch(ops []Op) error {
	batch := new(leveldb.Batch)
	for _, op := range ops {
		if op.Value == nil {
			batch.Delete([]byte(op.Key.Encode()))
		} else {
			batch.Put([]byte(op.Key.Encode()), op.Value)
		}
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("%w: batch write: %v", walleterr.ErrStorage, err)
	}
	return nil
}

func (s *LevelDB) CountNamespace(prefix Key) (int, error) {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	count := 0
	pfx := []byte(prefix.Encode())
	for ok := iter.Seek(pfx); ok; ok = iter.Next() {
		k := iter.Key()
		if !hasPrefix(k, pfx) {
			break
		}
		if len(k) == len(pfx) {
			continue // exact match is the namespace node's own value, not a child
		}
		count++
	}
	if err := iter.Error(); err != nil {
		return 0, fmt.Errorf("%w: count %s: %v", walleterr.ErrStorage, prefix.Encode(), err)
	}
	return count, nil
}

func (s *LevelDB) StreamNamespace(prefix Key) (<-chan Key, <-chan error) {
	keys := make(chan Key)
	errc := make(chan error, 1)

	go func() {
		defer close(keys)
		defer close(errc)

		iter := s.db.NewIterator(nil, nil)
		defer iter.Release()

		pfx := []byte(prefix.Encode())
		for ok := iter.Seek(pfx); ok; ok = iter.Next() {
			k := iter.Key()
			if !hasPrefix(k, pfx) {
				break
			}
			if len(k) == len(pfx) {
				continue // exact match is the namespace node's own value, not a child
			}
			kc := make([]byte, len(k))
			copy(kc, k)
			keys <- Key{string(kc)}
		}
		if err := iter.Error(); err != nil {
			errc <- fmt.Errorf("%w: stream %s: %v", walleterr.ErrStorage, prefix.Encode(), err)
		}
	}()

	return keys, errc
}

func (s *LevelDB) Close() error {
	return s.db.Close()
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}

func encodeSealed(enc crypto.EncryptedChunks) []byte {
	out := make([]byte, 0, 28+len(enc.Data[0]))
	out = append(out, enc.IV[:]...)
	out = append(out, enc.Tag[:]...)
	out = append(out, enc.Data[0]...)
	return out
}

func decodeSealed(raw []byte) (crypto.EncryptedChunks, error) {
	if len(raw) < 28 {
		return crypto.EncryptedChunks{}, fmt.Errorf("sealed value too short: %d bytes", len(raw))
	}
	var enc crypto.EncryptedChunks
	copy(enc.IV[:], raw[:12])
	copy(enc.Tag[:], raw[12:28])
	enc.Data = [][]byte{raw[28:]}
	return enc, nil
}
