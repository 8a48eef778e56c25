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

// Config holds enumeration settings
type Config struct {
	// Concurrency is the number of sibling nodes fetched at once when a node's links are
	// expanded. Values below 2 fetch each link when it is reached
	Concurrency int
}

// OptionFunc is a type that represents functions that modify the enumeration config
type OptionFunc func(*Config)

// WithConcurrency specifies how many sibling nodes may be fetched concurrently during enumeration.
// Enumeration order is unaffected
func WithConcurrency(concurrency int) OptionFunc {
	return func(c *Config) {
		c.Concurrency = concurrency
	}
}

func newConfig(opts ...OptionFunc) Config {
	var ret Config
	for _, opt := range opts {
		opt(&ret)
	}
	return ret
}
