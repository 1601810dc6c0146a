// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cache implements decompiler.Cache over process memory, SQLite
// and Redis. Persistent stores hold zstd-compressed deterministic CBOR.
package cache

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/linemap"
	"github.com/ManuGH/loomsrc/internal/mapping"
)

// record is the stored form of a unit. Field keys are integers so the
// encoding stays compact; never renumber them.
type record struct {
	Class     string   `cbor:"1,keyasint"`
	Namespace string   `cbor:"2,keyasint"`
	Source    string   `cbor:"3,keyasint"`
	Lines     [][2]int `cbor:"4,keyasint,omitempty"`
	Inner     []string `cbor:"5,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zenc *zstd.Encoder
	zdec *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cache: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{MaxArrayElements: 1 << 20}.DecMode()
	if err != nil {
		panic("cache: CBOR decoder initialization failed: " + err.Error())
	}
	zenc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("cache: zstd encoder initialization failed: " + err.Error())
	}
	zdec, err = zstd.NewReader(nil)
	if err != nil {
		panic("cache: zstd decoder initialization failed: " + err.Error())
	}
}

// encode serializes a successful unit. Partial failures are never cached.
func encode(u decompiler.Unit) ([]byte, error) {
	if u.Failed() {
		return nil, fmt.Errorf("cache: refusing to store failed unit %s", u.ClassName)
	}
	r := record{
		Class:     u.ClassName,
		Namespace: string(u.Namespace),
		Source:    u.Source,
		Inner:     u.Inner,
	}
	for _, p := range u.Lines.Pairs() {
		r.Lines = append(r.Lines, [2]int{p.Line, p.Original})
	}
	raw, err := encMode.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("cache: encode %s: %w", u.ClassName, err)
	}
	return zenc.EncodeAll(raw, nil), nil
}

func decode(blob []byte) (decompiler.Unit, error) {
	raw, err := zdec.DecodeAll(blob, nil)
	if err != nil {
		return decompiler.Unit{}, fmt.Errorf("cache: decompress: %w", err)
	}
	var r record
	if err := decMode.Unmarshal(raw, &r); err != nil {
		return decompiler.Unit{}, fmt.Errorf("cache: decode: %w", err)
	}
	pairs := make([]linemap.Pair, len(r.Lines))
	for i, l := range r.Lines {
		pairs[i] = linemap.Pair{Line: l[0], Original: l[1]}
	}
	return decompiler.Unit{
		ClassName: r.Class,
		Namespace: mapping.Namespace(r.Namespace),
		Source:    r.Source,
		Lines:     linemap.New(pairs...),
		Inner:     r.Inner,
	}, nil
}
