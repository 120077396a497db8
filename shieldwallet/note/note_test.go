package note

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleNote() *Note {
	var viewingPub [32]byte
	var token [20]byte
	var random [16]byte
	copy(token[:], []byte{1, 2, 3})
	copy(random[:], []byte{9, 9, 9})
	return New(big.NewInt(42), viewingPub, token, random, big.NewInt(1000))
}

func TestNotePublicKeyAndHashAreDeterministic(t *testing.T) {
	n := sampleNote()
	npk1 := n.NotePublicKey()
	npk2 := n.NotePublicKey()
	require.Equal(t, npk1, npk2)

	h1 := n.Hash()
	h2 := n.Hash()
	require.Equal(t, h1, h2)
}

func TestCloneReplacesValueOnly(t *testing.T) {
	n := sampleNote()
	clone := n.Clone(big.NewInt(1))
	require.Equal(t, n.MasterPublicKey, clone.MasterPublicKey)
	require.Equal(t, n.Token, clone.Token)
	require.Equal(t, big.NewInt(1), clone.Value)
	require.NotEqual(t, n.Value, clone.Value)
}

func TestIsZeroValue(t *testing.T) {
	n := sampleNote()
	require.False(t, n.IsZeroValue())
	n.Value = big.NewInt(0)
	require.True(t, n.IsZeroValue())
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	n := sampleNote()
	var sharedKey [32]byte
	for i := range sharedKey {
		sharedKey[i] = byte(i + 1)
	}

	enc, err := Encrypt(n, sharedKey)
	require.NoError(t, err)

	decrypted, err := Decrypt(enc, sharedKey)
	require.NoError(t, err)

	require.Equal(t, n.MasterPublicKey, decrypted.MasterPublicKey)
	require.Equal(t, n.Token, decrypted.Token)
	require.Equal(t, n.Random, decrypted.Random)
	require.Equal(t, n.Value, decrypted.Value)
	require.Equal(t, ViewingPublicKeySentinel, decrypted.ViewingPublicKey)
}

func TestEncryptedRandomRoundTrip(t *testing.T) {
	n := sampleNote()
	var viewingKey [32]byte
	viewingKey[0] = 7

	enc, err := EncryptRandom(n.Random, viewingKey)
	require.NoError(t, err)

	recovered, err := DecryptRandom(enc, viewingKey)
	require.NoError(t, err)
	require.Equal(t, n.Random, recovered)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	n := sampleNote()
	var viewingKey [32]byte
	viewingKey[0] = 3

	encRandom, err := EncryptRandom(n.Random, viewingKey)
	require.NoError(t, err)

	stored, err := Serialize(n, encRandom)
	require.NoError(t, err)

	npk, token, value, encRandomBack, err := Deserialize(stored)
	require.NoError(t, err)
	require.Equal(t, n.NotePublicKey(), npk)
	require.Equal(t, n.Token, token)
	require.Equal(t, n.Value, value)

	random, err := DecryptRandom(encRandomBack, viewingKey)
	require.NoError(t, err)
	require.Equal(t, n.Random, random)
}

func TestGetNullifierDeterministic(t *testing.T) {
	nk := NullifyingKey(big.NewInt(99))
	n1 := GetNullifier(nk, 5)
	n2 := GetNullifier(nk, 5)
	require.Equal(t, n1, n2)

	n3 := GetNullifier(nk, 6)
	require.NotEqual(t, n1, n3)
}
