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

package amt_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/blinklabs-io/actorstate/amt"
	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/blinklabs-io/actorstate/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testStore is a map-backed loader that counts calls
type testStore struct {
	sync.Mutex
	blocks map[types.ContentId][]byte
	loads  int
	err    error
}

func newTestStore() *testStore {
	return &testStore{blocks: make(map[types.ContentId][]byte)}
}

func (s *testStore) Load(_ context.Context, id types.ContentId) ([]byte, error) {
	s.Lock()
	defer s.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.blocks[id]
	if !ok {
		return nil, fmt.Errorf("block %s not found", id)
	}
	return data, nil
}

func (s *testStore) put(name string, data []byte) types.ContentId {
	id := types.NewContentId(append([]byte{0x01, 0x71}, name...))
	s.blocks[id] = data
	return id
}

func readString(r *cbor.Reader) (string, error) {
	return r.ReadString()
}

func writeNode(w *cbor.Writer, bmap []byte, links []types.ContentId, values []string) {
	w.WriteArrayLength(3)
	w.WriteBytes(bmap)
	w.WriteArrayLength(len(links))
	for _, link := range links {
		link.EncodeTo(w)
	}
	w.WriteArrayLength(len(values))
	for _, value := range values {
		w.WriteString(value)
	}
}

func encodeNode(bmap []byte, links []types.ContentId, values []string) []byte {
	w := cbor.NewWriter()
	writeNode(w, bmap, links, values)
	return w.Bytes()
}

func legacyRoot(height, count uint64, bmap []byte, links []types.ContentId, values []string) []byte {
	w := cbor.NewWriter()
	w.WriteArrayLength(3)
	w.WriteUint(height)
	w.WriteUint(count)
	writeNode(w, bmap, links, values)
	return w.Bytes()
}

// multiLevel builds a legacy trie of height 1 holding indexes 0, 1, 9 and 63
func multiLevel(t *testing.T) (*amt.AMT[string], *testStore) {
	store := newTestStore()
	childA := store.put("a", encodeNode([]byte{0x03}, nil, []string{"a0", "a1"}))
	childB := store.put("b", encodeNode([]byte{0x02}, nil, []string{"b9"}))
	childC := store.put("c", encodeNode([]byte{0x80}, nil, []string{"c63"}))
	root, err := amt.DecodeBytes(
		legacyRoot(1, 4, []byte{0x83}, []types.ContentId{childA, childB, childC}, nil),
		amt.VersionLegacy,
		readString,
	)
	require.NoError(t, err)
	return root, store
}

func TestGetSingleLevel(t *testing.T) {
	store := newTestStore()
	root, err := amt.DecodeBytes(
		legacyRoot(0, 1, []byte{0x08}, nil, []string{"x"}),
		amt.VersionLegacy,
		readString,
	)
	require.NoError(t, err)
	assert.Equal(t, uint(3), root.BitWidth())
	assert.Equal(t, uint64(8), root.Arity())
	value, ok, err := root.Get(context.Background(), 3, store)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", value)
	// Unset bit
	_, ok, err = root.Get(context.Background(), 5, store)
	require.NoError(t, err)
	assert.False(t, ok)
	// Beyond the index domain
	_, ok, err = root.Get(context.Background(), 9999, store)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, store.loads)
}

func TestGetVersion3(t *testing.T) {
	bmap := make([]byte, 32)
	bmap[0] = 0x08
	bmap[31] = 0x80
	w := cbor.NewWriter()
	w.WriteArrayLength(4)
	w.WriteUint(8)
	w.WriteUint(0)
	w.WriteUint(2)
	writeNode(w, bmap, nil, []string{"x", "y"})
	root, err := amt.DecodeBytes(w.Bytes(), amt.Version3, readString)
	require.NoError(t, err)
	assert.Equal(t, amt.Version3, root.Version())
	assert.Equal(t, uint64(256), root.Arity())
	store := newTestStore()
	for index, expected := range map[uint64]string{3: "x", 255: "y"} {
		value, ok, err := root.Get(context.Background(), index, store)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, expected, value)
	}
	for _, index := range []uint64{0, 5, 256, 9999} {
		_, ok, err := root.Get(context.Background(), index, store)
		require.NoError(t, err)
		assert.False(t, ok, "index %d", index)
	}
	assert.Equal(t, 0, store.loads)
}

func TestGetMultiLevel(t *testing.T) {
	root, store := multiLevel(t)
	for index, expected := range map[uint64]string{0: "a0", 1: "a1", 9: "b9", 63: "c63"} {
		value, ok, err := root.Get(context.Background(), index, store)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, expected, value)
	}
	assert.Equal(t, 4, store.loads)
	// Unset in the child
	_, ok, err := root.Get(context.Background(), 2, store)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5, store.loads)
	// Unset in the root
	_, ok, err = root.Get(context.Background(), 20, store)
	require.NoError(t, err)
	assert.False(t, ok)
	// Beyond 8^2
	_, ok, err = root.Get(context.Background(), 64, store)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5, store.loads)
}

func TestEnumerate(t *testing.T) {
	expected := []amt.Entry[string]{
		{Index: 0, Value: "a0"},
		{Index: 1, Value: "a1"},
		{Index: 9, Value: "b9"},
		{Index: 63, Value: "c63"},
	}
	for _, concurrency := range []int{0, 4} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			root, store := multiLevel(t)
			entries, err := root.Entries(context.Background(), store, amt.WithConcurrency(concurrency))
			require.NoError(t, err)
			assert.Equal(t, expected, entries)
			assert.Equal(t, 3, store.loads)
			// Enumeration agrees with point lookups
			for _, entry := range entries {
				value, ok, err := root.Get(context.Background(), entry.Index, store)
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, entry.Value, value)
			}
			values, err := root.Values(context.Background(), store, amt.WithConcurrency(concurrency))
			require.NoError(t, err)
			assert.Equal(t, []string{"a0", "a1", "b9", "c63"}, values)
		})
	}
}

func TestIteratorReset(t *testing.T) {
	root, store := multiLevel(t)
	it := root.Iterator(store)
	require.True(t, it.Next(context.Background()))
	require.True(t, it.Next(context.Background()))
	assert.Equal(t, uint64(1), it.Index())
	it.Reset()
	var indexes []uint64
	for it.Next(context.Background()) {
		indexes = append(indexes, it.Index())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []uint64{0, 1, 9, 63}, indexes)
	assert.False(t, it.Next(context.Background()))
}

func TestForEachStops(t *testing.T) {
	root, store := multiLevel(t)
	stopErr := errors.New("stop")
	var seen []uint64
	err := root.ForEach(context.Background(), store, func(index uint64, _ string) error {
		seen = append(seen, index)
		if index == 1 {
			return stopErr
		}
		return nil
	})
	assert.Same(t, stopErr, err)
	assert.Equal(t, []uint64{0, 1}, seen)
	// The second child is never fetched
	assert.Equal(t, 1, store.loads)
}

func TestLoaderError(t *testing.T) {
	loaderErr := errors.New("block unavailable")
	for _, concurrency := range []int{0, 4} {
		root, store := multiLevel(t)
		store.err = loaderErr
		_, _, err := root.Get(context.Background(), 9, store)
		assert.Same(t, loaderErr, err)
		assert.Equal(t, 1, store.loads)
		_, err = root.Entries(context.Background(), store, amt.WithConcurrency(concurrency))
		assert.Same(t, loaderErr, err)
		it := root.Iterator(store, amt.WithConcurrency(concurrency))
		assert.False(t, it.Next(context.Background()))
		assert.Same(t, loaderErr, it.Err())
	}
}

func TestLoad(t *testing.T) {
	store := newTestStore()
	id := store.put("root", legacyRoot(0, 1, []byte{0x08}, nil, []string{"x"}))
	root, err := amt.Load(context.Background(), store, id, amt.VersionLegacy, readString)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), root.Count())
	assert.Equal(t, []uint{3}, root.Root().Slots())
}

func TestCountMismatch(t *testing.T) {
	root, err := amt.DecodeBytes(
		legacyRoot(0, 2, []byte{0x08}, nil, []string{"x"}),
		amt.VersionLegacy,
		readString,
	)
	require.NoError(t, err)
	_, err = root.Entries(context.Background(), newTestStore())
	assert.ErrorIs(t, err, cbor.ErrFormat)
}

func TestChildDecodeError(t *testing.T) {
	store := newTestStore()
	// Bitmap claims two values but the node holds one
	child := store.put("bad", encodeNode([]byte{0x03}, nil, []string{"a0"}))
	root, err := amt.DecodeBytes(
		legacyRoot(1, 1, []byte{0x01}, []types.ContentId{child}, nil),
		amt.VersionLegacy,
		readString,
	)
	require.NoError(t, err)
	_, _, err = root.Get(context.Background(), 0, store)
	assert.ErrorIs(t, err, cbor.ErrFormat)
}

func TestDecodeErrors(t *testing.T) {
	link := types.NewContentId([]byte{0x01, 0x71, 0x00})
	testDefs := []struct {
		name    string
		data    []byte
		version amt.Version
	}{
		{
			name:    "popcount mismatch",
			data:    legacyRoot(0, 1, []byte{0x09}, nil, []string{"x"}),
			version: amt.VersionLegacy,
		},
		{
			name:    "bitmap too long",
			data:    legacyRoot(0, 1, []byte{0x08, 0x00}, nil, []string{"x"}),
			version: amt.VersionLegacy,
		},
		{
			name:    "leaf holds links",
			data:    legacyRoot(0, 1, []byte{0x08}, []types.ContentId{link}, nil),
			version: amt.VersionLegacy,
		},
		{
			name:    "internal node holds values",
			data:    legacyRoot(1, 1, []byte{0x08}, nil, []string{"x"}),
			version: amt.VersionLegacy,
		},
		{
			name:    "legacy root read as v3",
			data:    legacyRoot(0, 1, []byte{0x08}, nil, []string{"x"}),
			version: amt.Version3,
		},
		{
			name:    "height too large",
			data:    legacyRoot(22, 0, []byte{0x00}, nil, nil),
			version: amt.VersionLegacy,
		},
		{
			name:    "empty input",
			data:    cbor.NewWriter().Bytes(),
			version: amt.VersionLegacy,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			r := cbor.NewReader(testDef.data)
			_, err := amt.Decode(r, testDef.version, readString)
			assert.ErrorIs(t, err, cbor.ErrFormat)
			assert.Equal(t, 0, r.Offset())
		})
	}
}
