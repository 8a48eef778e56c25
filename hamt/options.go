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
	"github.com/blinklabs-io/actorstate/types"
)

const (
	DefaultBitWidth = 5
	MinBitWidth     = 1
	MaxBitWidth     = 8
)

// Config holds the trie parameters that are not stored on the wire
type Config struct {
	BitWidth     uint
	Version      Version
	HashProvider types.HashProvider
	// Concurrency is the number of sibling nodes fetched at once during enumeration
	Concurrency int
}

// OptionFunc is a type that represents functions that modify the trie config
type OptionFunc func(*Config)

// WithBitWidth specifies log2 of the node arity
func WithBitWidth(bitWidth uint) OptionFunc {
	return func(c *Config) {
		c.BitWidth = bitWidth
	}
}

// WithVersion specifies the pointer layout. The default is Version2
func WithVersion(version Version) OptionFunc {
	return func(c *Config) {
		c.Version = version
	}
}

// WithHashProvider specifies the digest used to place keys
func WithHashProvider(hashProvider types.HashProvider) OptionFunc {
	return func(c *Config) {
		c.HashProvider = hashProvider
	}
}

// WithConcurrency specifies how many sibling nodes may be fetched concurrently during enumeration.
// Enumeration order is unaffected
func WithConcurrency(concurrency int) OptionFunc {
	return func(c *Config) {
		c.Concurrency = concurrency
	}
}

func newConfig(opts ...OptionFunc) Config {
	ret := Config{
		BitWidth:     DefaultBitWidth,
		Version:      Version2,
		HashProvider: types.DefaultHashProvider,
	}
	for _, opt := range opts {
		opt(&ret)
	}
	return ret
}
