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
	"context"
	"math"

	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/blinklabs-io/actorstate/internal/fetch"
	"github.com/blinklabs-io/actorstate/types"
)

// Entry is a value paired with its index
type Entry[T any] struct {
	Index uint64
	Value T
}

type frameKind uint8

const (
	frameNode frameKind = iota
	frameLink
	frameValue
)

type frame[T any] struct {
	kind  frameKind
	level uint64
	// Index of the first slot covered by the frame
	base  uint64
	node  *Node[T]
	link  types.ContentId
	value T
}

// Iterator walks a trie depth-first in ascending index order. Pending work is kept on an
// explicit stack; a linked node is fetched when it reaches the top of the stack, or together
// with its siblings when concurrency is enabled.
//
// An Iterator is not safe for concurrent use
type Iterator[T any] struct {
	amt     *AMT[T]
	loader  types.Loader
	config  Config
	stack   []frame[T]
	index   uint64
	value   T
	err     error
	yielded uint64
}

// Iterator returns an iterator over every value in the trie
func (a *AMT[T]) Iterator(loader types.Loader, opts ...OptionFunc) *Iterator[T] {
	it := &Iterator[T]{
		amt:    a,
		loader: loader,
		config: newConfig(opts...),
	}
	it.Reset()
	return it
}

// Reset restarts the iteration from the root
func (it *Iterator[T]) Reset() {
	var zero T
	it.stack = append(it.stack[:0], frame[T]{
		kind:  frameNode,
		level: it.amt.height,
		node:  it.amt.root,
	})
	it.index = 0
	it.value = zero
	it.err = nil
	it.yielded = 0
}

// Next advances to the next value and returns false once the trie is exhausted or an error
// occurs. Loader errors are reported unmodified by Err
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	for len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		switch top.kind {
		case frameValue:
			it.index = top.base
			it.value = top.value
			it.yielded++
			return true
		case frameLink:
			node, err := it.amt.loadNode(ctx, it.loader, top.link, top.level)
			if err != nil {
				it.fail(err)
				return false
			}
			if err := it.expand(ctx, node, top.level, top.base); err != nil {
				it.fail(err)
				return false
			}
		case frameNode:
			if err := it.expand(ctx, top.node, top.level, top.base); err != nil {
				it.fail(err)
				return false
			}
		}
	}
	if it.yielded != it.amt.count {
		it.fail(cbor.NewFormatError(0, "AMT root records %d values but trie holds %d", it.amt.count, it.yielded))
	}
	return false
}

func (it *Iterator[T]) fail(err error) {
	var zero T
	it.err = err
	it.stack = it.stack[:0]
	it.value = zero
}

// Index returns the index of the current value
func (it *Iterator[T]) Index() uint64 {
	return it.index
}

// Value returns the current value
func (it *Iterator[T]) Value() T {
	return it.value
}

// Err returns the error that stopped the iteration, if any
func (it *Iterator[T]) Err() error {
	return it.err
}

// expand pushes the populated slots of node in descending order so they pop in ascending order
func (it *Iterator[T]) expand(ctx context.Context, node *Node[T], level uint64, base uint64) error {
	slots := node.bitmap.Indices()
	shift := it.amt.bitWidth * uint(level)
	for _, slot := range slots {
		if uint64(slot) > (math.MaxUint64-base)>>shift {
			return cbor.NewFormatError(0, "AMT slot %d at level %d overflows the index space", slot, level)
		}
	}
	if level == 0 {
		for i := len(slots) - 1; i >= 0; i-- {
			it.stack = append(it.stack, frame[T]{
				kind:  frameValue,
				base:  base + uint64(slots[i]),
				value: node.values[i],
			})
		}
		return nil
	}
	if it.config.Concurrency > 1 && len(node.links) > 1 {
		children, err := fetch.Ordered(
			ctx,
			len(node.links),
			it.config.Concurrency,
			func(ctx context.Context, idx int) (*Node[T], error) {
				return it.amt.loadNode(ctx, it.loader, node.links[idx], level-1)
			},
		)
		if err != nil {
			return err
		}
		for i := len(slots) - 1; i >= 0; i-- {
			it.stack = append(it.stack, frame[T]{
				kind:  frameNode,
				level: level - 1,
				base:  base + uint64(slots[i])<<shift,
				node:  children[i],
			})
		}
		return nil
	}
	for i := len(slots) - 1; i >= 0; i-- {
		it.stack = append(it.stack, frame[T]{
			kind:  frameLink,
			level: level - 1,
			base:  base + uint64(slots[i])<<shift,
			link:  node.links[i],
		})
	}
	return nil
}

// ForEach calls fn for every value in ascending index order. An error from fn stops the walk
// and is returned unmodified
func (a *AMT[T]) ForEach(
	ctx context.Context,
	loader types.Loader,
	fn func(index uint64, value T) error,
	opts ...OptionFunc,
) error {
	it := a.Iterator(loader, opts...)
	for it.Next(ctx) {
		if err := fn(it.Index(), it.Value()); err != nil {
			return err
		}
	}
	return it.Err()
}

// Entries returns every value paired with its index in ascending index order
func (a *AMT[T]) Entries(ctx context.Context, loader types.Loader, opts ...OptionFunc) ([]Entry[T], error) {
	var ret []Entry[T]
	err := a.ForEach(
		ctx,
		loader,
		func(index uint64, value T) error {
			ret = append(ret, Entry[T]{Index: index, Value: value})
			return nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Values returns every value in ascending index order
func (a *AMT[T]) Values(ctx context.Context, loader types.Loader, opts ...OptionFunc) ([]T, error) {
	var ret []T
	err := a.ForEach(
		ctx,
		loader,
		func(_ uint64, value T) error {
			ret = append(ret, value)
			return nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}
