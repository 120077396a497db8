package note

import (
	"math/big"

	"github.com/shielded-pool/engine/shieldwallet/crypto"
)

// Preimage is the {npk, token, value} triple carried by a Preimage
// commitment, before the recipient's viewing key rebinds identity.
type Preimage struct {
	NotePublicKey *big.Int
	Token         [20]byte
	Value         *big.Int
}

// Commitment is the on-chain tagged union of the two forms a note
// commitment can take, per spec §3.
type Commitment struct {
	Hash *big.Int
	Txid string

	// Encrypted form.
	Ciphertext     crypto.EncryptedChunks
	EphemeralKeys  [2]*crypto.PublicKey
	SenderPublicKey *crypto.PublicKey

	// Preimage form.
	Preimage        *Preimage
	EncryptedRandom crypto.EncryptedChunks

	isPreimage bool
}

// NewEncryptedCommitment builds the Encrypted variant.
func NewEncryptedCommitment(hash *big.Int, txid string, ciphertext crypto.EncryptedChunks, ephemeralKeys [2]*crypto.PublicKey, senderPublicKey *crypto.PublicKey) *Commitment {
	return &Commitment{
		Hash:            hash,
		Txid:            txid,
		Ciphertext:      ciphertext,
		EphemeralKeys:   ephemeralKeys,
		SenderPublicKey: senderPublicKey,
	}
}

// NewPreimageCommitment builds the Preimage variant.
func NewPreimageCommitment(hash *big.Int, txid string, preimage *Preimage, encryptedRandom crypto.EncryptedChunks) *Commitment {
	return &Commitment{
		Hash:            hash,
		Txid:            txid,
		Preimage:        preimage,
		EncryptedRandom: encryptedRandom,
		isPreimage:      true,
	}
}

// IsPreimage reports which variant this commitment carries.
func (c *Commitment) IsPreimage() bool { return c.isPreimage }
