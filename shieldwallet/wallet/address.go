package wallet

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/shielded-pool/engine/shieldwallet/crypto"
)

// Address is the public identity a sender encrypts notes against:
// a master public key (a field element) and a 32-byte Ed25519 viewing
// public key, optionally bound to one chain.
type Address struct {
	MasterPublicKey  *big.Int
	ViewingPublicKey [32]byte
	ChainID          *uint64
}

// chainPrefixes is the closed address-family enum from spec §6, per
// DESIGN NOTES §9 ("encode chain ID -> prefix as a table").
var chainPrefixes = map[uint64]string{
	1:  "rgeth",
	56: "rgbsc",
}

const anyChainPrefix = "rgany"

func prefixForChain(chainID *uint64) string {
	if chainID == nil {
		return anyChainPrefix
	}
	if p, ok := chainPrefixes[*chainID]; ok {
		return p
	}
	return anyChainPrefix
}

func chainForPrefix(prefix string) (*uint64, bool) {
	if prefix == anyChainPrefix {
		return nil, true
	}
	for id, p := range chainPrefixes {
		if p == prefix {
			id := id
			return &id, true
		}
	}
	return nil, false
}

// Encode renders addr as a bech32 string: human-readable prefix per the
// chain family, payload = masterPublicKey (32B) || viewingPublicKey (32B).
func (addr *Address) Encode() (string, error) {
	payload := make([]byte, 0, 64)
	payload = append(payload, crypto.FieldBytes32(addr.MasterPublicKey)[:]...)
	payload = append(payload, addr.ViewingPublicKey[:]...)

	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("wallet: address encode: %w", err)
	}
	encoded, err := bech32.Encode(prefixForChain(addr.ChainID), converted)
	if err != nil {
		return "", fmt.Errorf("wallet: address encode: %w", err)
	}
	return encoded, nil
}

// DecodeAddress parses a bech32 address string produced by Encode. A
// 64-byte payload (masterPublicKey || viewingPublicKey) converts to
// 103 base-32 groups, well past BIP-173's 90-character limit, so this
// uses bech32.DecodeNoLimit rather than bech32.Decode.
func DecodeAddress(s string) (*Address, error) {
	prefix, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, fmt.Errorf("wallet: address decode: %w", err)
	}
	chainID, ok := chainForPrefix(prefix)
	if !ok {
		return nil, fmt.Errorf("wallet: address decode: unrecognized prefix %q", prefix)
	}

	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("wallet: address decode: %w", err)
	}
	if len(payload) != 64 {
		return nil, fmt.Errorf("wallet: address decode: payload length %d, want 64", len(payload))
	}

	addr := &Address{
		MasterPublicKey: new(big.Int).SetBytes(payload[:32]),
		ChainID:         chainID,
	}
	copy(addr.ViewingPublicKey[:], payload[32:])
	return addr, nil
}
