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

package types

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// HashProvider supplies the digest primitives used for HAMT key hashing and address checksums
type HashProvider interface {
	SHA256(data []byte) [32]byte
	Blake2b(data []byte, size int) ([]byte, error)
}

// DefaultHashProvider uses SHA-256 from the standard library and unkeyed BLAKE2b from x/crypto
var DefaultHashProvider HashProvider = defaultHashProvider{}

type defaultHashProvider struct{}

func (defaultHashProvider) SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Blake2b returns an unkeyed BLAKE2b digest of the given size (1 to 64 bytes)
func (defaultHashProvider) Blake2b(data []byte, size int) ([]byte, error) {
	tmpHash, err := blake2b.New(size, nil)
	if err != nil {
		return nil, fmt.Errorf("blake2b digest size %d: %w", size, err)
	}
	tmpHash.Write(data)
	return tmpHash.Sum(nil), nil
}
