// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package amt provides read access to array mapped tries: fixed-arity tries over dense
// integer indexes whose nodes may be stored in separate content-addressed blocks.
//
// A trie is decoded synchronously from its root node. Child nodes are fetched on demand
// through a caller-supplied types.Loader and decoded fresh on every access; nothing is cached.
package amt

import (
	"context"
	"fmt"

	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/blinklabs-io/actorstate/types"
)

type Version uint8

const (
	// VersionLegacy roots are [height, count, node] with a fixed bit width of 3
	VersionLegacy Version = 0
	// Version3 roots are [bitWidth, height, count, node]
	Version3 Version = 3
)

func (v Version) String() string {
	switch v {
	case VersionLegacy:
		return "legacy"
	case Version3:
		return "v3"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}

const (
	LegacyBitWidth = 3
	MinBitWidth    = 1
	MaxBitWidth    = 16

	legacyRootLength = 3
	v3RootLength     = 4
)

// AMT is a decoded trie root. It is immutable and safe for concurrent use
type AMT[T any] struct {
	version  Version
	bitWidth uint
	height   uint64
	count    uint64
	root     *Node[T]
	decode   cbor.DecodeFunc[T]
}

// Decode reads a trie root of the given version, decoding leaf values with elem. Exactly one
// root node is read; no loader is needed
func Decode[T any](
	r *cbor.Reader,
	version Version,
	elem cbor.DecodeFunc[T],
) (*AMT[T], error) {
	start := r.Offset()
	ret, err := decodeRoot(r, version, elem)
	if err != nil {
		r.Seek(start)
		return nil, err
	}
	return ret, nil
}

func decodeRoot[T any](
	r *cbor.Reader,
	version Version,
	elem cbor.DecodeFunc[T],
) (*AMT[T], error) {
	start := r.Offset()
	length, err := r.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	ret := &AMT[T]{
		version: version,
		decode:  elem,
	}
	switch version {
	case VersionLegacy:
		if length != legacyRootLength {
			return nil, cbor.NewFormatError(start, "AMT root has %d fields, expected %d", length, legacyRootLength)
		}
		ret.bitWidth = LegacyBitWidth
	case Version3:
		if length != v3RootLength {
			return nil, cbor.NewFormatError(start, "AMT root has %d fields, expected %d", length, v3RootLength)
		}
		bitWidthOffset := r.Offset()
		bitWidth, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		if bitWidth < MinBitWidth || bitWidth > MaxBitWidth {
			return nil, cbor.NewFormatError(bitWidthOffset, "AMT bit width %d out of range", bitWidth)
		}
		ret.bitWidth = uint(bitWidth)
	default:
		return nil, fmt.Errorf("unsupported AMT version %d", version)
	}
	heightOffset := r.Offset()
	if ret.height, err = r.ReadUint(); err != nil {
		return nil, err
	}
	// Every level below the root must address a whole chunk of a 64-bit index
	if ret.height >= uint64(64/ret.bitWidth) {
		return nil, cbor.NewFormatError(heightOffset, "AMT height %d too large for bit width %d", ret.height, ret.bitWidth)
	}
	if ret.count, err = r.ReadUint(); err != nil {
		return nil, err
	}
	if ret.root, err = decodeNode(r, ret.bitWidth, ret.height == 0, elem); err != nil {
		return nil, err
	}
	return ret, nil
}

// DecodeBytes decodes a trie root from data. Bytes after the root are ignored
func DecodeBytes[T any](
	data []byte,
	version Version,
	elem cbor.DecodeFunc[T],
) (*AMT[T], error) {
	return Decode(cbor.NewReader(data), version, elem)
}

// Load fetches the root block named by id and decodes it
func Load[T any](
	ctx context.Context,
	loader types.Loader,
	id types.ContentId,
	version Version,
	elem cbor.DecodeFunc[T],
) (*AMT[T], error) {
	data, err := loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	ret, err := DecodeBytes(data, version, elem)
	if err != nil {
		return nil, fmt.Errorf("decode AMT root %s: %w", id, err)
	}
	return ret, nil
}

func (a *AMT[T]) Version() Version {
	return a.version
}

// BitWidth returns log2 of the node arity
func (a *AMT[T]) BitWidth() uint {
	return a.bitWidth
}

func (a *AMT[T]) Height() uint64 {
	return a.height
}

// Count returns the number of values stored in the trie, as recorded in the root
func (a *AMT[T]) Count() uint64 {
	return a.count
}

func (a *AMT[T]) Root() *Node[T] {
	return a.root
}

// Arity returns the number of slots per node
func (a *AMT[T]) Arity() uint64 {
	return 1 << a.bitWidth
}

// inRange returns true if index falls within the arity^(height+1) slots the trie can address
func (a *AMT[T]) inRange(index uint64) bool {
	bits := a.bitWidth * uint(a.height+1)
	if bits >= 64 {
		return true
	}
	return index>>bits == 0
}

// Get returns the value stored at index. The second return value is false when nothing is
// stored there; the loader is not called for indexes outside the trie or under an unset bit.
// Loader errors are returned unmodified
func (a *AMT[T]) Get(ctx context.Context, index uint64, loader types.Loader) (T, bool, error) {
	var zero T
	if !a.inRange(index) {
		return zero, false, nil
	}
	mask := a.Arity() - 1
	node := a.root
	for level := a.height; ; level-- {
		subIndex := uint((index >> (a.bitWidth * uint(level))) & mask)
		if !node.bitmap.Has(subIndex) {
			return zero, false, nil
		}
		slot := node.bitmap.Index(subIndex)
		if level == 0 {
			return node.values[slot], true, nil
		}
		child, err := a.loadNode(ctx, loader, node.links[slot], level-1)
		if err != nil {
			return zero, false, err
		}
		node = child
	}
}

// loadNode fetches and decodes the child node named by id, which sits at the given level
func (a *AMT[T]) loadNode(
	ctx context.Context,
	loader types.Loader,
	id types.ContentId,
	level uint64,
) (*Node[T], error) {
	data, err := loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	r := cbor.NewReader(data)
	ret, err := decodeNode(r, a.bitWidth, level == 0, a.decode)
	if err != nil {
		return nil, fmt.Errorf("decode AMT node %s: %w", id, err)
	}
	if !r.Done() {
		return nil, fmt.Errorf(
			"decode AMT node %s: %w",
			id,
			cbor.NewFormatError(r.Offset(), "%d trailing bytes after node", r.Remaining()),
		)
	}
	return ret, nil
}
