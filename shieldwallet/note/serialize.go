package note

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/shielded-pool/engine/shieldwallet/crypto"
)

// StoredNote is the persisted shape {npk, token, value, encryptedRandom}
// from spec §4.3, suitable for msgpack encoding via kvstore.EncodeValue.
type StoredNote struct {
	NotePublicKey string `msgpack:"npk"`
	Token         string `msgpack:"token"`
	Value         string `msgpack:"value"`
	EncryptedIV   []byte `msgpack:"iv"`
	EncryptedTag  []byte `msgpack:"tag"`
	EncryptedData []byte `msgpack:"data"`
}

// Serialize renders n plus its encryptedRandom sealing into the
// persisted StoredNote shape.
func Serialize(n *Note, encryptedRandom crypto.EncryptedChunks) (*StoredNote, error) {
	if len(encryptedRandom.Data) != 1 {
		return nil, fmt.Errorf("note: encryptedRandom must be a single chunk")
	}
	return &StoredNote{
		NotePublicKey: crypto.FieldHex(n.NotePublicKey()),
		Token:         fmt.Sprintf("%x", n.Token),
		Value:         n.Value.Text(16),
		EncryptedIV:   encryptedRandom.IV[:],
		EncryptedTag:  encryptedRandom.Tag[:],
		EncryptedData: encryptedRandom.Data[0],
	}, nil
}

// Deserialize reverses Serialize, recovering the note's public
// commitment fields and the sealed random nonce. It does not recover
// MasterPublicKey or ViewingPublicKey, which are not part of the
// persisted shape; the caller supplies them from wallet context.
func Deserialize(s *StoredNote) (notePublicKey *big.Int, token [20]byte, value *big.Int, encryptedRandom crypto.EncryptedChunks, err error) {
	npkBytes, ok := new(big.Int).SetString(s.NotePublicKey, 16)
	if !ok {
		return nil, token, nil, crypto.EncryptedChunks{}, fmt.Errorf("note: malformed npk hex")
	}
	tokenBytes, err := decodeHex20(s.Token)
	if err != nil {
		return nil, token, nil, crypto.EncryptedChunks{}, err
	}
	v, ok := new(big.Int).SetString(s.Value, 16)
	if !ok {
		return nil, token, nil, crypto.EncryptedChunks{}, fmt.Errorf("note: malformed value hex")
	}

	var enc crypto.EncryptedChunks
	copy(enc.IV[:], s.EncryptedIV)
	copy(enc.Tag[:], s.EncryptedTag)
	enc.Data = [][]byte{s.EncryptedData}

	return npkBytes, tokenBytes, v, enc, nil
}

func decodeHex20(s string) ([20]byte, error) {
	var out [20]byte
	if len(s) != 40 {
		return out, fmt.Errorf("note: token hex must be 40 characters")
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("note: decode token hex: %w", err)
	}
	copy(out[:], decoded)
	return out, nil
}
