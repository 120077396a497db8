package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// EncryptedChunks is the wire shape of an AES-256-GCM-sealed note
// payload: one iv and one tag authenticate the concatenation of all
// plaintext chunks, and Data holds the ciphertext re-split back into
// the original chunk boundaries so callers can address each field
// (masterPublicKey, token, random/value) independently once decrypted.
type EncryptedChunks struct {
	IV   [12]byte
	Tag  [16]byte
	Data [][]byte
}

// EncryptGCM seals plaintextChunks under key as a single AES-256-GCM
// operation over their concatenation, per spec §4.1's
// encrypt([plaintextChunks], key) -> {iv, tag, data[]}. Sealing the
// concatenation rather than each chunk independently means the chunk
// boundaries themselves are authenticated as a set, matching how the
// three-chunk note payload (masterPublicKey || token || random||value)
// is always decrypted together.
func EncryptGCM(key [32]byte, plaintextChunks ...[]byte) (EncryptedChunks, error) {
	aead, err := newGCM(key)
	if err != nil {
		return EncryptedChunks{}, err
	}

	var iv [12]byte
	if _, err := rand.Read(iv[:]); err != nil {
		return EncryptedChunks{}, fmt.Errorf("crypto: generate iv: %w", err)
	}

	plaintext := concat(plaintextChunks)
	sealed := aead.Seal(nil, iv[:], plaintext, nil)

	ciphertext := sealed[:len(sealed)-aead.Overhead()]
	var tag [16]byte
	copy(tag[:], sealed[len(sealed)-aead.Overhead():])

	data := make([][]byte, len(plaintextChunks))
	offset := 0
	for i, chunk := range plaintextChunks {
		data[i] = ciphertext[offset : offset+len(chunk)]
		offset += len(chunk)
	}

	return EncryptedChunks{IV: iv, Tag: tag, Data: data}, nil
}

// DecryptGCM is the inverse of EncryptGCM: it reassembles the sealed
// ciphertext from enc.Data, verifies the shared tag, and re-splits the
// recovered plaintext back into the original chunk boundaries.
func DecryptGCM(key [32]byte, enc EncryptedChunks) ([][]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	ciphertext := concat(enc.Data)
	sealed := append(ciphertext, enc.Tag[:]...)

	plaintext, err := aead.Open(nil, enc.IV[:], sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: decrypt: authentication failed: %w", err)
	}

	out := make([][]byte, len(enc.Data))
	offset := 0
	for i, chunk := range enc.Data {
		out[i] = plaintext[offset : offset+len(chunk)]
		offset += len(chunk)
	}
	return out, nil
}

func newGCM(key [32]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: gcm mode: %w", err)
	}
	return aead, nil
}

func concat(chunks [][]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
