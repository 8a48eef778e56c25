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

// Package blockstore provides content addressed block stores that satisfy types.Loader, for
// resolving trie links in tests and tools.
package blockstore

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/actorstate/types"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ErrNotFound is returned by Load when no block is stored under the requested id
var ErrNotFound = errors.New("block not found")

// blake2b256Size is the digest size of the multihash used for stored blocks
const blake2b256Size = 32

// ComputeId returns the content identifier of a DAG-CBOR block: a CIDv1 with a BLAKE2b-256 multihash
func ComputeId(data []byte) (types.ContentId, error) {
	digest, err := types.DefaultHashProvider.Blake2b(data, blake2b256Size)
	if err != nil {
		return types.ContentId{}, err
	}
	mh, err := multihash.Encode(digest, multihash.BLAKE2B_MIN+blake2b256Size-1)
	if err != nil {
		return types.ContentId{}, fmt.Errorf("encode multihash: %w", err)
	}
	return types.ContentIdFromCid(cid.NewCidV1(cid.DagCBOR, mh)), nil
}

func notFound(id types.ContentId) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
