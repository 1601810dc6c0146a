// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package decompiler

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/ManuGH/loomsrc/internal/archive"
	"github.com/ManuGH/loomsrc/internal/classfile"
)

// keyVersion is bumped whenever the shape of cached units changes.
const keyVersion = "loomsrc-cache-v1"

// Key addresses one cached unit.
type Key [32]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// Cache stores decompiled units across runs. Implementations live in the
// cache subpackage.
type Cache interface {
	// Name labels the store in logs and metrics.
	Name() string
	Get(ctx context.Context, key Key) (Unit, bool, error)
	Put(ctx context.Context, key Key, u Unit) error
}

// CacheStats counts cache lookups of one run.
type CacheStats struct {
	Hits   int
	Misses int
}

// keyer derives cache keys from the backend's native options, the group's
// bytes and the hashes of its supertypes present in the same archive, so
// a changed superclass invalidates its subclasses.
type keyer struct {
	arc  *archive.Archive
	base []byte

	mu        sync.Mutex
	hierarchy map[string]archive.Hash
}

func newKeyer(arc *archive.Archive, native Native) *keyer {
	h := blake3.New()
	_, _ = h.Write([]byte(keyVersion))
	_, _ = h.Write([]byte(native.Fingerprint()))
	return &keyer{arc: arc, base: h.Sum(nil), hierarchy: make(map[string]archive.Hash)}
}

func (k *keyer) key(g archive.ClassGroup) Key {
	gh := g.Hash()
	h := blake3.New()
	_, _ = h.Write(k.base)
	_, _ = h.Write(gh[:])

	k.mu.Lock()
	for _, c := range g.Classes {
		for _, super := range supertypes(c.Data) {
			if sh, ok := k.hierarchyHash(super); ok {
				_, _ = h.Write(sh[:])
			}
		}
	}
	k.mu.Unlock()

	var out Key
	copy(out[:], h.Sum(nil))
	return out
}

// hierarchyHash combines the hash of name with the hierarchy hashes of its
// own supertypes. Classes outside the archive contribute nothing. k.mu must
// be held.
func (k *keyer) hierarchyHash(name string) (archive.Hash, bool) {
	if h, ok := k.hierarchy[name]; ok {
		return h, !h.IsZero()
	}
	c, ok := k.arc.Class(name)
	if !ok {
		k.hierarchy[name] = archive.Hash{}
		return archive.Hash{}, false
	}
	// Placeholder breaks cycles in malformed hierarchies.
	k.hierarchy[name] = archive.Hash{}

	h := blake3.New()
	_, _ = h.Write(c.Hash[:])
	for _, super := range supertypes(c.Data) {
		if sh, ok := k.hierarchyHash(super); ok {
			_, _ = h.Write(sh[:])
		}
	}
	var out archive.Hash
	copy(out[:], h.Sum(nil))
	k.hierarchy[name] = out
	return out, true
}

func supertypes(data []byte) []string {
	cf, err := classfile.Parse(data)
	if err != nil {
		return nil
	}
	out := make([]string, 0, 1+len(cf.Interfaces))
	if cf.SuperClass != "" {
		out = append(out, cf.SuperClass)
	}
	return append(out, cf.Interfaces...)
}
