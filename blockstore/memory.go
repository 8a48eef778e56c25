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

package blockstore

import (
	"bytes"
	"context"
	"sync"

	"github.com/blinklabs-io/actorstate/types"
)

// MemoryStore is a map backed block store. It is safe for concurrent use
type MemoryStore struct {
	mutex  sync.RWMutex
	blocks map[types.ContentId][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blocks: make(map[types.ContentId][]byte),
	}
}

// Put stores data under its computed content identifier and returns it
func (s *MemoryStore) Put(data []byte) (types.ContentId, error) {
	id, err := ComputeId(data)
	if err != nil {
		return types.ContentId{}, err
	}
	s.PutWithId(id, data)
	return id, nil
}

// PutWithId stores data under the given id without checking that it matches
func (s *MemoryStore) PutWithId(id types.ContentId, data []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.blocks[id] = bytes.Clone(data)
}

func (s *MemoryStore) Load(ctx context.Context, id types.ContentId) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	data, ok := s.blocks[id]
	if !ok {
		return nil, notFound(id)
	}
	return bytes.Clone(data), nil
}

// Len returns the number of stored blocks
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.blocks)
}
