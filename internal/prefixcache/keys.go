package prefixcache

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"
)

// DefaultBlockSize is the number of bytes per block.
const DefaultBlockSize = 256

// BlockKey identifies a block together with every block before it.
type BlockKey uint64

// String returns the key as 16 hex digits.
func (k BlockKey) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

// InitHash returns the parent key of the first block. An empty seed gives 0;
// otherwise the seed is CBOR encoded in canonical form and hashed, so runs
// with different seeds never share blocks.
func InitHash(seed string) (uint64, error) {
	if seed == "" {
		return 0, nil
	}

	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return 0, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	b, err := encMode.Marshal(seed)
	if err != nil {
		return 0, fmt.Errorf("failed to encode hash seed: %w", err)
	}

	return xxhash.Sum64(b), nil
}

// BlockKeys cuts data into full blocks of blockSize bytes and returns their
// chained keys: key_i = xxhash(le64(key_{i-1}) || block_i) with key_{-1} =
// parent. A trailing partial block has no key.
func BlockKeys(data []byte, blockSize int, parent uint64) []BlockKey {
	if blockSize <= 0 {
		return nil
	}

	n := len(data) / blockSize
	keys := make([]BlockKey, n)

	var le [8]byte
	d := xxhash.New()
	for i := range n {
		binary.LittleEndian.PutUint64(le[:], parent)
		d.Reset()
		_, _ = d.Write(le[:])
		_, _ = d.Write(data[i*blockSize : (i+1)*blockSize])
		parent = d.Sum64()
		keys[i] = BlockKey(parent)
	}

	return keys
}
