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

package hamt

import (
	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/blinklabs-io/actorstate/internal/bitmap"
	"github.com/blinklabs-io/actorstate/types"
)

const (
	nodeLength       = 2
	bucketPairLength = 2

	// Keys of the single-entry pointer map used by Version2
	pointerKeyLink   = "0"
	pointerKeyBucket = "1"
)

// Entry is a key/value pair
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Pointer is a populated slot of a node: either a link to a child node or a bucket of entries
type Pointer[K, V any] struct {
	Link   types.ContentId
	Bucket []Entry[K, V]
}

func (p Pointer[K, V]) IsLink() bool {
	return p.Link.Defined()
}

// Node is a decoded trie node
type Node[K, V any] struct {
	bitmap   bitmap.Bitmap
	pointers []Pointer[K, V]
}

// Has returns true if slot i of the node is populated
func (n *Node[K, V]) Has(i uint) bool {
	return n.bitmap.Has(i)
}

// Slots returns the populated slot numbers in ascending order
func (n *Node[K, V]) Slots() []uint {
	return n.bitmap.Indices()
}

func (n *Node[K, V]) Pointers() []Pointer[K, V] {
	return n.pointers
}

type nodeDecoder[K, V any] struct {
	keys     KeyCodec[K]
	elem     cbor.DecodeFunc[V]
	bitWidth uint
	version  Version
}

// decodeNode reads [bitmap, pointers]. The bitmap is the big-endian bytes of an unsigned integer
func (d nodeDecoder[K, V]) decodeNode(r *cbor.Reader) (*Node[K, V], error) {
	start := r.Offset()
	length, err := r.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	if length != nodeLength {
		return nil, cbor.NewFormatError(start, "HAMT node has %d fields, expected %d", length, nodeLength)
	}
	bmapOffset := r.Offset()
	bmap, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}
	ret := &Node[K, V]{
		bitmap: bitmap.FromBigEndian(bmap),
	}
	arity := uint(1) << d.bitWidth
	if slots := ret.bitmap.Indices(); len(slots) > 0 && slots[len(slots)-1] >= arity {
		return nil, cbor.NewFormatError(bmapOffset, "HAMT bitmap sets slot %d beyond arity %d", slots[len(slots)-1], arity)
	}
	pointersOffset := r.Offset()
	count, err := r.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	if populated := ret.bitmap.Count(); populated != count {
		return nil, cbor.NewFormatError(
			pointersOffset,
			"HAMT bitmap has %d slots set but node holds %d pointers",
			populated,
			count,
		)
	}
	ret.pointers = make([]Pointer[K, V], 0, count)
	for range count {
		var p Pointer[K, V]
		switch d.version {
		case Version2:
			p, err = d.decodePointerV2(r)
		default:
			p, err = d.decodePointerV3(r)
		}
		if err != nil {
			return nil, err
		}
		ret.pointers = append(ret.pointers, p)
	}
	return ret, nil
}

// decodePointerV2 reads a map of one entry: "0" to a link or "1" to a bucket
func (d nodeDecoder[K, V]) decodePointerV2(r *cbor.Reader) (Pointer[K, V], error) {
	start := r.Offset()
	length, err := r.ReadMapLength()
	if err != nil {
		return Pointer[K, V]{}, err
	}
	if length != 1 {
		return Pointer[K, V]{}, cbor.NewFormatError(start, "HAMT pointer map has %d entries, expected 1", length)
	}
	keyOffset := r.Offset()
	key, err := r.ReadString()
	if err != nil {
		return Pointer[K, V]{}, err
	}
	switch key {
	case pointerKeyLink:
		link, err := types.DecodeContentId(r)
		if err != nil {
			return Pointer[K, V]{}, err
		}
		return Pointer[K, V]{Link: link}, nil
	case pointerKeyBucket:
		bucket, err := d.decodeBucket(r)
		if err != nil {
			return Pointer[K, V]{}, err
		}
		return Pointer[K, V]{Bucket: bucket}, nil
	default:
		return Pointer[K, V]{}, cbor.NewFormatError(keyOffset, "unknown HAMT pointer key %q", key)
	}
}

// decodePointerV3 reads either a link or a bucket, told apart by major type
func (d nodeDecoder[K, V]) decodePointerV3(r *cbor.Reader) (Pointer[K, V], error) {
	start := r.Offset()
	major, err := r.PeekMajor()
	if err != nil {
		return Pointer[K, V]{}, err
	}
	switch major {
	case cbor.MajorTag:
		link, err := types.DecodeContentId(r)
		if err != nil {
			return Pointer[K, V]{}, err
		}
		return Pointer[K, V]{Link: link}, nil
	case cbor.MajorArray:
		bucket, err := d.decodeBucket(r)
		if err != nil {
			return Pointer[K, V]{}, err
		}
		return Pointer[K, V]{Bucket: bucket}, nil
	default:
		return Pointer[K, V]{}, cbor.NewFormatError(start, "HAMT pointer has major type %d", major)
	}
}

// decodeBucket reads an array of [key, value] pairs
func (d nodeDecoder[K, V]) decodeBucket(r *cbor.Reader) ([]Entry[K, V], error) {
	start := r.Offset()
	count, err := r.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, cbor.NewFormatError(start, "empty HAMT bucket")
	}
	ret := make([]Entry[K, V], 0, count)
	for range count {
		pairOffset := r.Offset()
		length, err := r.ReadArrayLength()
		if err != nil {
			return nil, err
		}
		if length != bucketPairLength {
			return nil, cbor.NewFormatError(pairOffset, "HAMT bucket entry has %d fields, expected %d", length, bucketPairLength)
		}
		key, err := d.keys.Decode(r)
		if err != nil {
			return nil, err
		}
		value, err := d.elem(r)
		if err != nil {
			return nil, err
		}
		ret = append(ret, Entry[K, V]{Key: key, Value: value})
	}
	return ret, nil
}
