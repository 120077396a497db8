package crypto

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldModWraps(t *testing.T) {
	x := new(big.Int).Add(SnarkPrime, big.NewInt(5))
	require.Equal(t, big.NewInt(5), FieldMod(x))
}

func TestFieldBytesRoundTrip(t *testing.T) {
	x := big.NewInt(123456789)
	b := FieldBytes32(x)
	require.Equal(t, x, FieldFromBytes32(b))
}

func TestPoseidonDeterministic(t *testing.T) {
	a := big.NewInt(1)
	b := big.NewInt(2)
	h1, err := Poseidon(a, b)
	require.NoError(t, err)
	h2, err := Poseidon(a, b)
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	h3, err := Poseidon(b, a)
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func TestPoseidonRequiresInput(t *testing.T) {
	_, err := Poseidon()
	require.Error(t, err)
}

func TestECDHIsSymmetric(t *testing.T) {
	aScalar, err := RandomScalar()
	require.NoError(t, err)
	bScalar, err := RandomScalar()
	require.NoError(t, err)

	aPub := ScalarMul(aScalar, basePoint(t))
	bPub := ScalarMul(bScalar, basePoint(t))

	sharedFromA, err := ECDH(aScalar, bPub)
	require.NoError(t, err)
	sharedFromB, err := ECDH(bScalar, aPub)
	require.NoError(t, err)

	require.Equal(t, sharedFromA, sharedFromB)
}

func TestEphemeralKeyBlindingInverts(t *testing.T) {
	a := ScalarMul(big.NewInt(7), basePoint(t))
	b := ScalarMul(big.NewInt(11), basePoint(t))

	r, err := RandomScalar()
	require.NoError(t, err)

	ra, rb := GetEphemeralKeys(a, b, r)

	recoveredA, err := UnblindedEphemeralKey(ra, r)
	require.NoError(t, err)
	recoveredB, err := UnblindedEphemeralKey(rb, r)
	require.NoError(t, err)

	require.Equal(t, a.X, recoveredA.X)
	require.Equal(t, a.Y, recoveredA.Y)
	require.Equal(t, b.X, recoveredB.X)
	require.Equal(t, b.Y, recoveredB.Y)
}

func TestEdDSASignVerify(t *testing.T) {
	priv, err := NewRandomPrivateKey()
	require.NoError(t, err)
	pub := priv.Public()

	msg := big.NewInt(42)
	sig, err := SignEdDSA(priv, msg)
	require.NoError(t, err)
	require.True(t, VerifyEdDSA(pub, msg, sig))
	require.False(t, VerifyEdDSA(pub, big.NewInt(43), sig))
}

func TestViewingSignVerify(t *testing.T) {
	pub, priv, err := NewViewingKeypair()
	require.NoError(t, err)

	msg := []byte("nullifier-index-commit")
	sig := SignViewing(priv, msg)
	require.True(t, VerifyViewing(pub, msg, sig))
	require.False(t, VerifyViewing(pub, []byte("tampered"), sig))
}

func TestViewingVerifyRejectsMalformedKey(t *testing.T) {
	malformed := make(ViewingPublicKey, 31)
	require.False(t, VerifyViewing(malformed, []byte("x"), make([]byte, 64)))
}

func TestAESGCMRoundTrip(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}

	mpk := make([]byte, 32)
	token := make([]byte, 20)
	randomValue := make([]byte, 32)
	for i := range mpk {
		mpk[i] = byte(i + 1)
	}
	for i := range token {
		token[i] = byte(i + 2)
	}
	for i := range randomValue {
		randomValue[i] = byte(i + 3)
	}

	enc, err := EncryptGCM(key, mpk, token, randomValue)
	require.NoError(t, err)
	require.Len(t, enc.Data, 3)

	decrypted, err := DecryptGCM(key, enc)
	require.NoError(t, err)
	require.Equal(t, mpk, decrypted[0])
	require.Equal(t, token, decrypted[1])
	require.Equal(t, randomValue, decrypted[2])
}

func TestAESGCMDetectsTamper(t *testing.T) {
	var key [32]byte
	enc, err := EncryptGCM(key, []byte("hello"))
	require.NoError(t, err)

	enc.Data[0][0] ^= 0xFF
	_, err = DecryptGCM(key, enc)
	require.Error(t, err)
}

func basePoint(t *testing.T) *PublicKey {
	t.Helper()
	return BasePoint()
}
