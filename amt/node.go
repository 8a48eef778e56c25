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

package amt

import (
	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/blinklabs-io/actorstate/internal/bitmap"
	"github.com/blinklabs-io/actorstate/types"
)

const nodeLength = 3

// Node is a decoded trie node. Internal nodes hold links to child blocks and leaf nodes hold
// values; bit i of the bitmap marks slot i as populated
type Node[T any] struct {
	bitmap bitmap.Bitmap
	links  []types.ContentId
	values []T
}

// Has returns true if slot i of the node is populated
func (n *Node[T]) Has(i uint) bool {
	return n.bitmap.Has(i)
}

// Slots returns the populated slot numbers in ascending order
func (n *Node[T]) Slots() []uint {
	return n.bitmap.Indices()
}

func (n *Node[T]) Links() []types.ContentId {
	return n.links
}

func (n *Node[T]) Values() []T {
	return n.values
}

// decodeNode reads [bitmap, links, values]. A leaf node may only hold values and an internal
// node may only hold links
func decodeNode[T any](
	r *cbor.Reader,
	bitWidth uint,
	leaf bool,
	elem cbor.DecodeFunc[T],
) (*Node[T], error) {
	start := r.Offset()
	length, err := r.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	if length != nodeLength {
		return nil, cbor.NewFormatError(start, "AMT node has %d fields, expected %d", length, nodeLength)
	}
	bmapOffset := r.Offset()
	bmap, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}
	arity := uint(1) << bitWidth
	if expected := int((arity + 7) / 8); len(bmap) != expected {
		return nil, cbor.NewFormatError(bmapOffset, "AMT bitmap has %d bytes, expected %d", len(bmap), expected)
	}
	ret := &Node[T]{
		bitmap: bitmap.FromLittleEndian(bmap),
	}
	if slots := ret.bitmap.Indices(); len(slots) > 0 && slots[len(slots)-1] >= arity {
		return nil, cbor.NewFormatError(bmapOffset, "AMT bitmap sets slot %d beyond arity %d", slots[len(slots)-1], arity)
	}
	linksOffset := r.Offset()
	linkCount, err := r.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	if linkCount > 0 {
		if leaf {
			return nil, cbor.NewFormatError(linksOffset, "AMT leaf node holds %d links", linkCount)
		}
		ret.links = make([]types.ContentId, 0, linkCount)
		for range linkCount {
			link, err := types.DecodeContentId(r)
			if err != nil {
				return nil, err
			}
			ret.links = append(ret.links, link)
		}
	}
	valuesOffset := r.Offset()
	valueCount, err := r.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	if valueCount > 0 {
		if !leaf {
			return nil, cbor.NewFormatError(valuesOffset, "AMT internal node holds %d values", valueCount)
		}
		ret.values = make([]T, 0, valueCount)
		for range valueCount {
			value, err := elem(r)
			if err != nil {
				return nil, err
			}
			ret.values = append(ret.values, value)
		}
	}
	if populated := ret.bitmap.Count(); populated != linkCount+valueCount {
		return nil, cbor.NewFormatError(
			start,
			"AMT bitmap has %d slots set but node holds %d entries",
			populated,
			linkCount+valueCount,
		)
	}
	return ret, nil
}
