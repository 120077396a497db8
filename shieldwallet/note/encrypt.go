package note

import (
	"fmt"
	"math/big"

	"github.com/shielded-pool/engine/shieldwallet/crypto"
)

// ViewingPublicKeySentinel is the placeholder a decrypted note's
// ViewingPublicKey is filled with: the viewing public key is never
// transmitted in the ciphertext, so the caller must rebind the
// recipient identity itself after decryption.
var ViewingPublicKeySentinel = [32]byte{}

// PartialNote is a Note missing its ViewingPublicKey, the shape
// recovered directly from decryption before the caller rebinds
// recipient identity.
type PartialNote = Note

// Encrypt packs [masterPublicKey (32B), token (20B), random‖value
// (16B‖16B)] as three AES-GCM chunks under sharedKey, per spec §4.3.
func Encrypt(n *Note, sharedKey [32]byte) (crypto.EncryptedChunks, error) {
	mpk := crypto.FieldBytes32(n.MasterPublicKey)

	valueBytes := n.Value.Bytes()
	if len(valueBytes) > 16 {
		return crypto.EncryptedChunks{}, fmt.Errorf("note: value exceeds 128 bits")
	}
	var randomValue [32]byte
	copy(randomValue[:16], n.Random[:])
	copy(randomValue[32-len(valueBytes):], valueBytes)

	return crypto.EncryptGCM(sharedKey, mpk[:], n.Token[:], randomValue[:])
}

// Decrypt recovers the {masterPublicKey, token, random, value} triple
// from enc under sharedKey. The returned note's ViewingPublicKey is
// ViewingPublicKeySentinel; the caller must rebind it.
func Decrypt(enc crypto.EncryptedChunks, sharedKey [32]byte) (*PartialNote, error) {
	chunks, err := crypto.DecryptGCM(sharedKey, enc)
	if err != nil {
		return nil, err
	}
	if len(chunks) != 3 || len(chunks[0]) != 32 || len(chunks[1]) != 20 || len(chunks[2]) != 32 {
		return nil, fmt.Errorf("note: decrypted chunk shape mismatch")
	}

	var mpkBytes [32]byte
	copy(mpkBytes[:], chunks[0])

	var token [20]byte
	copy(token[:], chunks[1])

	var random [16]byte
	copy(random[:], chunks[2][:16])
	value := new(big.Int).SetBytes(chunks[2][16:])

	return &Note{
		MasterPublicKey:  crypto.FieldFromBytes32(mpkBytes),
		ViewingPublicKey: ViewingPublicKeySentinel,
		Token:            token,
		Random:           random,
		Value:            value,
	}, nil
}

// EncryptRandom is encryptedRandom = aes-gcm([random], viewingPrivateKey):
// sealing just the random nonce under the wallet's own viewing key, so
// the wallet alone can recover it without revealing the note to anyone
// else, per spec §4.3.
func EncryptRandom(random [16]byte, viewingPrivateKey [32]byte) (crypto.EncryptedChunks, error) {
	return crypto.EncryptGCM(viewingPrivateKey, random[:])
}

// DecryptRandom is the inverse of EncryptRandom.
func DecryptRandom(enc crypto.EncryptedChunks, viewingPrivateKey [32]byte) ([16]byte, error) {
	chunks, err := crypto.DecryptGCM(viewingPrivateKey, enc)
	if err != nil {
		return [16]byte{}, err
	}
	if len(chunks) != 1 || len(chunks[0]) != 16 {
		return [16]byte{}, fmt.Errorf("note: encryptedRandom chunk shape mismatch")
	}
	var random [16]byte
	copy(random[:], chunks[0])
	return random, nil
}
