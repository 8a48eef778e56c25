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
	"fmt"

	"github.com/multiformats/go-multibase"
)

// base32Encode returns the RFC 4648 lowercase, unpadded base32 encoding of data
func base32Encode(data []byte) string {
	encoded, err := multibase.Encode(multibase.Base32, data)
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding data as base32: %s", err))
	}
	// Strip the multibase prefix character
	return encoded[1:]
}

// base32Decode reverses base32Encode
func base32Decode(s string) ([]byte, error) {
	encoding, data, err := multibase.Decode(string(rune(multibase.Base32)) + s)
	if err != nil {
		return nil, err
	}
	if encoding != multibase.Base32 {
		return nil, fmt.Errorf("unexpected multibase encoding %q", rune(encoding))
	}
	return data, nil
}
