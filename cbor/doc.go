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

// Package cbor implements the restricted CBOR profile used for actor state.
//
// # Key Types
//
//   - Reader: cursor over an immutable byte slice. One method per wire primitive
//     (ReadHeader, ReadNumber, ReadBigInt, ReadBytes, ReadString, ReadArrayLength,
//     ReadNull, ...). Any structural mismatch returns a FormatError and the
//     decode is abandoned.
//   - Writer: mirror of Reader. Headers are always written at their minimal width.
//   - DecodeFunc / EncodeFunc: element codecs passed to the trie packages.
//
// # Interop
//
// Encode, Decode and Diagnose wrap github.com/fxamacker/cbor/v2. The identifier
// types in package types implement MarshalCBOR/UnmarshalCBOR on top of Reader and
// Writer, so Go structs that embed StructAsArray bind to the same bytes the
// schema dispatcher reads.
//
// # Wire Gotchas
//
//  1. Big integers are byte strings: a sign byte (0x00 or 0x01) then the magnitude.
//  2. Content identifiers are tag 42 around a byte string with a leading 0x00.
//  3. Optional values are null (0xf6) when absent; there is no undefined.
package cbor
