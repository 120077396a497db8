package kvstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *LevelDB {
	t.Helper()
	db, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGetRoundTrip(t *testing.T) {
	db := openMem(t)
	key := WalletKey("wallet-1")

	value, err := EncodeValue(map[string]any{"mnemonic": "abandon ability able", "index": 0})
	require.NoError(t, err)

	require.NoError(t, db.Put(key, value))

	got, ok, err := db.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, value, got)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	db := openMem(t)
	_, ok, err := db.Get(WalletKey("missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEncryptedRoundTrip(t *testing.T) {
	db := openMem(t)
	var encKey [32]byte
	for i := range encKey {
		encKey[i] = byte(i)
	}

	key := WalletDetailsKey("wallet-1", 1)
	plaintext := []byte("wallet details payload")

	require.NoError(t, db.PutEncrypted(key, encKey, plaintext))

	got, ok, err := db.GetEncrypted(key, encKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, plaintext, got)

	var wrongKey [32]byte
	wrongKey[0] = 1
	_, _, err = db.GetEncrypted(key, wrongKey)
	require.Error(t, err)
}

func TestBatchWritesAndDeletes(t *testing.T) {
	db := openMem(t)
	k1 := TXOKey("w", 1, 0, 0)
	k2 := TXOKey("w", 1, 0, 1)

	require.NoError(t, db.Batch([]Op{
		{Key: k1, Value: []byte("a")},
		{Key: k2, Value: []byte("b")},
	}))

	require.NoError(t, db.Batch([]Op{{Key: k1, Value: nil}}))

	_, ok, err := db.Get(k1)
	require.NoError(t, err)
	require.False(t, ok)

	v2, ok, err := db.Get(k2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("b"), v2)
}

func TestCountAndStreamNamespace(t *testing.T) {
	db := openMem(t)
	for i := uint64(0); i < 5; i++ {
		require.NoError(t, db.Put(TXOKey("w", 1, 0, i), []byte("x")))
	}
	require.NoError(t, db.Put(TXOKey("w", 1, 1, 0), []byte("y")))

	count, err := db.CountNamespace(TXONamespace("w", 1, 0))
	require.NoError(t, err)
	require.Equal(t, 5, count)

	keys, errc := db.StreamNamespace(TXONamespace("w", 1, 0))
	seen := 0
	for range keys {
		seen++
	}
	require.NoError(t, <-errc)
	require.Equal(t, 5, seen)
}
