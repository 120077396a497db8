package crypto

import (
	stded25519 "crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/hdevalence/ed25519consensus"
)

// ViewingPrivateKey and ViewingPublicKey alias the stdlib types, kept
// distinct by name from the BabyJubJub spending key so call sites never
// confuse the two signature schemes.
type (
	ViewingPrivateKey = stded25519.PrivateKey
	ViewingPublicKey  = stded25519.PublicKey
)

// NewViewingKeypair samples a fresh Ed25519 viewing key.
func NewViewingKeypair() (ViewingPublicKey, ViewingPrivateKey, error) {
	pub, priv, err := stded25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: generate viewing key: %w", err)
	}
	return pub, priv, nil
}

// SignViewing signs msg with an Ed25519 viewing private key.
func SignViewing(priv ViewingPrivateKey, msg []byte) []byte {
	return stded25519.Sign(priv, msg)
}

// VerifyViewing verifies an Ed25519 signature with consensus-grade
// checks: ed25519consensus additionally rejects non-canonical signature
// encodings and small-order/malformed public keys that the stdlib
// verifier accepts, which matters here because a forged or malleable
// viewing signature would let an attacker impersonate a wallet's scan
// authority.
func VerifyViewing(pub ViewingPublicKey, msg, sig []byte) bool {
	if len(pub) != stded25519.PublicKeySize || len(sig) != stded25519.SignatureSize {
		return false
	}
	return ed25519consensus.Verify(pub, msg, sig)
}
