package kvstore

import (
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeValue msgpack-encodes v and prefixes the result with its
// 4-byte big-endian length, per spec §6's "length-prefixed msgpack".
func EncodeValue(v any) ([]byte, error) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("kvstore: marshal: %w", err)
	}
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(len(body)))
	copy(out[4:], body)
	return out, nil
}

// DecodeValue reverses EncodeValue into dst.
func DecodeValue(raw []byte, dst any) error {
	if len(raw) < 4 {
		return fmt.Errorf("kvstore: value too short to contain a length prefix")
	}
	n := binary.BigEndian.Uint32(raw[:4])
	if uint32(len(raw)-4) != n {
		return fmt.Errorf("kvstore: length prefix %d does not match body size %d", n, len(raw)-4)
	}
	if err := msgpack.Unmarshal(raw[4:], dst); err != nil {
		return fmt.Errorf("kvstore: unmarshal: %w", err)
	}
	return nil
}
