package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"

	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/iden3/go-iden3-crypto/babyjub"
)

// PublicKey is a point on the BabyJubJub curve, used both as a spending
// public key (masterPublicKey) and as an ECDH/blinding target.
type PublicKey = babyjub.PublicKey

// Signature is an EdDSA-BabyJubJub signature.
type Signature = babyjub.Signature

// RandomScalar returns a uniform element of the BN254 scalar field
// (SNARK_PRIME), per spec §4.1. Grounded on gnark-crypto's bn254/fr
// field element, declared in the teacher's go.mod but otherwise unused
// there — this is its first real consumer.
func RandomScalar() (*big.Int, error) {
	var elem bn254fr.Element
	if _, err := elem.SetRandom(); err != nil {
		return nil, fmt.Errorf("crypto: random scalar: %w", err)
	}
	out := new(big.Int)
	elem.BigInt(out)
	return out, nil
}

// NewPoint returns the BabyJubJub identity point.
func NewPoint() *PublicKey {
	p := babyjub.NewPoint()
	return (*PublicKey)(p)
}

// ScalarMul returns scalar*point on BabyJubJub.
func ScalarMul(scalar *big.Int, point *PublicKey) *PublicKey {
	res := babyjub.NewPoint()
	res.Mul(FieldMod(scalar), (*babyjub.Point)(point))
	return (*PublicKey)(res)
}

// SignEdDSA signs msg (a field element) with a BabyJubJub private key
// using the Poseidon-based EdDSA scheme from go-iden3-crypto/babyjub.
func SignEdDSA(priv *babyjub.PrivateKey, msg *big.Int) (*Signature, error) {
	return priv.SignPoseidon(FieldMod(msg))
}

// VerifyEdDSA verifies an EdDSA-BabyJubJub signature over a field-element message.
func VerifyEdDSA(pub *PublicKey, msg *big.Int, sig *Signature) bool {
	return pub.VerifyPoseidon(FieldMod(msg), sig)
}

// ECDH derives a symmetric key shared between a BabyJubJub private
// scalar and a counterparty's public point: Poseidon(shared.X), where
// shared = scalar * pub. Both sides compute the same point by the usual
// Diffie-Hellman argument since BabyJubJub scalar multiplication is
// commutative: a*B == b*A == (a*b)*G when A = a*G, B = b*G.
func ECDH(scalar *big.Int, pub *PublicKey) ([32]byte, error) {
	shared := ScalarMul(scalar, pub)
	key, err := Poseidon(shared.X)
	if err != nil {
		return [32]byte{}, fmt.Errorf("crypto: ecdh: %w", err)
	}
	return FieldBytes32(key), nil
}

// GetEphemeralKeys blinds two public keys A and B by a freshly sampled
// ephemeral scalar r, returning (r*A, r*B). Used to derive the sender
// and receiver shared secrets for a note without revealing the true
// sender/recipient identities on-chain.
func GetEphemeralKeys(a, b *PublicKey, r *big.Int) (ra, rb *PublicKey) {
	return ScalarMul(r, a), ScalarMul(r, b)
}

// UnblindedEphemeralKey recovers the original point X from rX = r*X and
// the blinding scalar r, by multiplying by r's inverse in the prime
// subgroup order.
func UnblindedEphemeralKey(rx *PublicKey, r *big.Int) (*PublicKey, error) {
	rInv := new(big.Int).ModInverse(r, babyjub.SubOrder)
	if rInv == nil {
		return nil, fmt.Errorf("crypto: unblind: scalar has no inverse mod subgroup order")
	}
	return ScalarMul(rInv, rx), nil
}

// BasePoint returns the BabyJubJub prime-subgroup generator (B8).
func BasePoint() *PublicKey {
	return (*PublicKey)(babyjub.B8)
}

// NewRandomPrivateKey samples a fresh BabyJubJub spending key.
func NewRandomPrivateKey() (*babyjub.PrivateKey, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("crypto: generate private key: %w", err)
	}
	priv := babyjub.PrivateKey(buf)
	return &priv, nil
}

// SubOrder is the order of the BabyJubJub prime-order subgroup,
// exported for callers (e.g. wallet viewing-scalar derivation) that
// need to reduce an arbitrary scalar into the group's valid range.
var SubOrder = babyjub.SubOrder

// DeriveScalarFromSeed folds an arbitrary-length seed into a
// BabyJubJub scalar via Poseidon, for deriving a curve scalar from key
// material that did not originate as a uniform field element (e.g. an
// Ed25519 seed reused for ECDH).
func DeriveScalarFromSeed(seed []byte) *big.Int {
	h := MustPoseidon(new(big.Int).SetBytes(seed))
	return new(big.Int).Mod(h, SubOrder)
}
