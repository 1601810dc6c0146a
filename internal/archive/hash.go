// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package archive

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest of class content.
type Hash [32]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h was never computed.
func (h Hash) IsZero() bool { return h == Hash{} }

// Domain keys keep class hashes and group hashes from colliding.
var (
	classKey = [32]byte{'l', 'o', 'o', 'm', 's', 'r', 'c', '.', 'c', 'l', 'a', 's', 's'}
	groupKey = [32]byte{'l', 'o', 'o', 'm', 's', 'r', 'c', '.', 'g', 'r', 'o', 'u', 'p'}
)

// HashClass returns the keyed digest of one class file.
func HashClass(data []byte) Hash {
	return keyed(classKey, data)
}

func keyed(key [32]byte, parts ...[]byte) Hash {
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("archive: blake3 keyed hash initialization failed: " + err.Error())
	}
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
