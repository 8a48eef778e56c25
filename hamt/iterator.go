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
	"context"

	"github.com/blinklabs-io/actorstate/internal/fetch"
	"github.com/blinklabs-io/actorstate/types"
)

type frameKind uint8

const (
	frameNode frameKind = iota
	frameLink
	frameEntry
)

type frame[K, V any] struct {
	kind  frameKind
	node  *Node[K, V]
	link  types.ContentId
	entry Entry[K, V]
}

// Iterator walks a trie depth-first in bitmap order, yielding the entries of each bucket in
// stored order. Entries are not sorted by key. Pending work is kept on an explicit stack; a
// linked node is fetched when it reaches the top of the stack, or together with its siblings
// when concurrency is enabled.
//
// An Iterator is not safe for concurrent use
type Iterator[K, V any] struct {
	hamt        *HAMT[K, V]
	loader      types.Loader
	concurrency int
	stack       []frame[K, V]
	entry       Entry[K, V]
	err         error
}

// Iterator returns an iterator over every entry in the trie. Only WithConcurrency has an effect
// on the options given here
func (h *HAMT[K, V]) Iterator(loader types.Loader, opts ...OptionFunc) *Iterator[K, V] {
	config := h.config
	for _, opt := range opts {
		opt(&config)
	}
	it := &Iterator[K, V]{
		hamt:        h,
		loader:      loader,
		concurrency: config.Concurrency,
	}
	it.Reset()
	return it
}

// Reset restarts the iteration from the root
func (it *Iterator[K, V]) Reset() {
	it.stack = append(it.stack[:0], frame[K, V]{
		kind: frameNode,
		node: it.hamt.root,
	})
	it.entry = Entry[K, V]{}
	it.err = nil
}

// Next advances to the next entry and returns false once the trie is exhausted or an error
// occurs. Loader errors are reported unmodified by Err
func (it *Iterator[K, V]) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	for len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		switch top.kind {
		case frameEntry:
			it.entry = top.entry
			return true
		case frameLink:
			node, err := it.hamt.loadNode(ctx, it.loader, top.link)
			if err != nil {
				it.fail(err)
				return false
			}
			if err := it.expand(ctx, node); err != nil {
				it.fail(err)
				return false
			}
		case frameNode:
			if err := it.expand(ctx, top.node); err != nil {
				it.fail(err)
				return false
			}
		}
	}
	return false
}

func (it *Iterator[K, V]) fail(err error) {
	it.err = err
	it.stack = it.stack[:0]
	it.entry = Entry[K, V]{}
}

// Key returns the key of the current entry
func (it *Iterator[K, V]) Key() K {
	return it.entry.Key
}

// Value returns the value of the current entry
func (it *Iterator[K, V]) Value() V {
	return it.entry.Value
}

// Entry returns the current entry
func (it *Iterator[K, V]) Entry() Entry[K, V] {
	return it.entry
}

// Err returns the error that stopped the iteration, if any
func (it *Iterator[K, V]) Err() error {
	return it.err
}

// expand pushes the pointers of node in reverse so they pop in bitmap order
func (it *Iterator[K, V]) expand(ctx context.Context, node *Node[K, V]) error {
	var children []*Node[K, V]
	if it.concurrency > 1 {
		var links []types.ContentId
		for _, p := range node.pointers {
			if p.IsLink() {
				links = append(links, p.Link)
			}
		}
		if len(links) > 1 {
			var err error
			children, err = fetch.Ordered(
				ctx,
				len(links),
				it.concurrency,
				func(ctx context.Context, idx int) (*Node[K, V], error) {
					return it.hamt.loadNode(ctx, it.loader, links[idx])
				},
			)
			if err != nil {
				return err
			}
		}
	}
	for i := len(node.pointers) - 1; i >= 0; i-- {
		p := node.pointers[i]
		if !p.IsLink() {
			for j := len(p.Bucket) - 1; j >= 0; j-- {
				it.stack = append(it.stack, frame[K, V]{
					kind:  frameEntry,
					entry: p.Bucket[j],
				})
			}
			continue
		}
		if children != nil {
			// Prefetched children are consumed from the end as pointers are walked in reverse
			it.stack = append(it.stack, frame[K, V]{
				kind: frameNode,
				node: children[len(children)-1],
			})
			children = children[:len(children)-1]
			continue
		}
		it.stack = append(it.stack, frame[K, V]{
			kind: frameLink,
			link: p.Link,
		})
	}
	return nil
}

// ForEach calls fn for every entry in bitmap order. An error from fn stops the walk and is
// returned unmodified
func (h *HAMT[K, V]) ForEach(
	ctx context.Context,
	loader types.Loader,
	fn func(key K, value V) error,
	opts ...OptionFunc,
) error {
	it := h.Iterator(loader, opts...)
	for it.Next(ctx) {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Err()
}

// Entries returns every entry in bitmap order
func (h *HAMT[K, V]) Entries(ctx context.Context, loader types.Loader, opts ...OptionFunc) ([]Entry[K, V], error) {
	var ret []Entry[K, V]
	err := h.ForEach(
		ctx,
		loader,
		func(key K, value V) error {
			ret = append(ret, Entry[K, V]{Key: key, Value: value})
			return nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Keys returns every key in bitmap order
func (h *HAMT[K, V]) Keys(ctx context.Context, loader types.Loader, opts ...OptionFunc) ([]K, error) {
	var ret []K
	err := h.ForEach(
		ctx,
		loader,
		func(key K, _ V) error {
			ret = append(ret, key)
			return nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Values returns every value in bitmap order
func (h *HAMT[K, V]) Values(ctx context.Context, loader types.Loader, opts ...OptionFunc) ([]V, error) {
	var ret []V
	err := h.ForEach(
		ctx,
		loader,
		func(_ K, value V) error {
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

// Map returns every entry keyed by the text form of its key
func (h *HAMT[K, V]) Map(ctx context.Context, loader types.Loader, opts ...OptionFunc) (map[string]V, error) {
	ret := make(map[string]V)
	err := h.ForEach(
		ctx,
		loader,
		func(key K, value V) error {
			ret[h.decoder.keys.String(key)] = value
			return nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}
