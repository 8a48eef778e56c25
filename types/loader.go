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
	"context"
)

// Loader resolves a content identifier to the raw bytes of the block it names.
// Errors returned by a Loader pass through trie traversals unmodified
type Loader interface {
	Load(ctx context.Context, id ContentId) ([]byte, error)
}

// LoaderFunc adapts an ordinary function to the Loader interface
type LoaderFunc func(ctx context.Context, id ContentId) ([]byte, error)

func (f LoaderFunc) Load(ctx context.Context, id ContentId) ([]byte, error) {
	return f(ctx, id)
}
