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

// Package hamt provides read access to hash array mapped tries: maps whose keys are placed by
// successive chunks of a SHA-256 digest and whose nodes may be stored in separate
// content-addressed blocks.
//
// A trie is decoded synchronously from its root node. Child nodes are fetched on demand
// through a caller-supplied types.Loader and decoded fresh on every access; nothing is cached.
package hamt

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/blinklabs-io/actorstate/types"
)

type Version uint8

const (
	// Version2 pointers are single-entry maps keyed "0" for a link or "1" for a bucket
	Version2 Version = 2
	// Version3 pointers are a link or a bucket array, told apart by major type
	Version3 Version = 3
)

func (v Version) String() string {
	switch v {
	case Version2:
		return "v2"
	case Version3:
		return "v3"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}

// HAMT is a decoded trie root. It is immutable and safe for concurrent use
type HAMT[K, V any] struct {
	root    *Node[K, V]
	decoder nodeDecoder[K, V]
	config  Config
}

// Decode reads a trie root node. Keys are read and hashed with keys and values are read with elem.
// Exactly one node is read; no loader is needed
func Decode[K, V any](
	r *cbor.Reader,
	keys KeyCodec[K],
	elem cbor.DecodeFunc[V],
	opts ...OptionFunc,
) (*HAMT[K, V], error) {
	config := newConfig(opts...)
	if config.BitWidth < MinBitWidth || config.BitWidth > MaxBitWidth {
		return nil, fmt.Errorf("HAMT bit width %d out of range", config.BitWidth)
	}
	if config.Version != Version2 && config.Version != Version3 {
		return nil, fmt.Errorf("unsupported HAMT version %d", config.Version)
	}
	if config.HashProvider == nil {
		config.HashProvider = types.DefaultHashProvider
	}
	ret := &HAMT[K, V]{
		decoder: nodeDecoder[K, V]{
			keys:     keys,
			elem:     elem,
			bitWidth: config.BitWidth,
			version:  config.Version,
		},
		config: config,
	}
	start := r.Offset()
	root, err := ret.decoder.decodeNode(r)
	if err != nil {
		r.Seek(start)
		return nil, err
	}
	ret.root = root
	return ret, nil
}

// DecodeBytes decodes a trie root from data. Bytes after the root are ignored
func DecodeBytes[K, V any](
	data []byte,
	keys KeyCodec[K],
	elem cbor.DecodeFunc[V],
	opts ...OptionFunc,
) (*HAMT[K, V], error) {
	return Decode(cbor.NewReader(data), keys, elem, opts...)
}

// Load fetches the root block named by id and decodes it
func Load[K, V any](
	ctx context.Context,
	loader types.Loader,
	id types.ContentId,
	keys KeyCodec[K],
	elem cbor.DecodeFunc[V],
	opts ...OptionFunc,
) (*HAMT[K, V], error) {
	data, err := loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	ret, err := DecodeBytes(data, keys, elem, opts...)
	if err != nil {
		return nil, fmt.Errorf("decode HAMT root %s: %w", id, err)
	}
	return ret, nil
}

func (h *HAMT[K, V]) Version() Version {
	return h.config.Version
}

// BitWidth returns log2 of the node arity
func (h *HAMT[K, V]) BitWidth() uint {
	return h.config.BitWidth
}

func (h *HAMT[K, V]) Root() *Node[K, V] {
	return h.root
}

// Bitmap returns the root bitmap as an unsigned integer
func (h *HAMT[K, V]) Bitmap() *big.Int {
	return h.root.bitmap.Int()
}

// Get returns the value stored under key. The second return value is false when the key is
// absent; the loader is not called when an unset bitmap bit rules the key out. Loader errors
// are returned unmodified
func (h *HAMT[K, V]) Get(ctx context.Context, key K, loader types.Loader) (V, bool, error) {
	var zero V
	digest := h.config.HashProvider.SHA256(h.decoder.keys.Bytes(key))
	node := h.root
	for level := uint(0); ; level++ {
		idx, ok := chunk(digest[:], level, h.config.BitWidth)
		if !ok {
			// Digest exhausted
			return zero, false, nil
		}
		if !node.bitmap.Has(idx) {
			return zero, false, nil
		}
		p := node.pointers[node.bitmap.Index(idx)]
		if !p.IsLink() {
			for _, entry := range p.Bucket {
				if h.decoder.keys.Equal(entry.Key, key) {
					return entry.Value, true, nil
				}
			}
			return zero, false, nil
		}
		child, err := h.loadNode(ctx, loader, p.Link)
		if err != nil {
			return zero, false, err
		}
		node = child
	}
}

func (h *HAMT[K, V]) loadNode(ctx context.Context, loader types.Loader, id types.ContentId) (*Node[K, V], error) {
	data, err := loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	r := cbor.NewReader(data)
	ret, err := h.decoder.decodeNode(r)
	if err != nil {
		return nil, fmt.Errorf("decode HAMT node %s: %w", id, err)
	}
	if !r.Done() {
		return nil, fmt.Errorf(
			"decode HAMT node %s: %w",
			id,
			cbor.NewFormatError(r.Offset(), "%d trailing bytes after node", r.Remaining()),
		)
	}
	return ret, nil
}

// chunk returns the bitWidth bits of digest starting at bit level*bitWidth, counting from the
// most significant bit of the first byte. It returns false once the digest has too few bits left
func chunk(digest []byte, level uint, bitWidth uint) (uint, bool) {
	offset := level * bitWidth
	if offset+bitWidth > uint(len(digest))*8 {
		return 0, false
	}
	byteIdx := offset / 8
	window := uint(digest[byteIdx]) << 8
	if int(byteIdx)+1 < len(digest) {
		window |= uint(digest[byteIdx+1])
	}
	shift := 16 - offset%8 - bitWidth
	return (window >> shift) & (1<<bitWidth - 1), true
}
