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

package cbor

import (
	_cbor "github.com/fxamacker/cbor/v2"
)

// Major types. Only the top 3 bits of the initial byte select the type
const (
	MajorUnsigned uint8 = 0
	MajorNegative uint8 = 1
	MajorBytes    uint8 = 2
	MajorText     uint8 = 3
	MajorArray    uint8 = 4
	MajorMap      uint8 = 5
	MajorTag      uint8 = 6
	MajorSimple   uint8 = 7
)

const (
	CborTypeMask uint8 = 0xe0
	CborInfoMask uint8 = 0x1f

	// Max value able to be stored in a single byte without a trailing length
	CborMaxUintSimple uint8 = 0x17

	// Length selectors for 1, 2, 4 and 8 byte extra values
	CborInfoUint8  uint8 = 24
	CborInfoUint16 uint8 = 25
	CborInfoUint32 uint8 = 26
	CborInfoUint64 uint8 = 27

	// Simple values (major type 7)
	SimpleFalse uint8 = 20
	SimpleTrue  uint8 = 21
	SimpleNull  uint8 = 22

	// Encoded null, used for optional values
	CborNull byte = 0xf6
)

// Create an alias for RawMessage for convenience
type RawMessage = _cbor.RawMessage

// Alias for Tag for convenience
type Tag = _cbor.Tag

// Useful for embedding and easier to remember
type StructAsArray struct {
	// Tells the CBOR decoder to convert to/from a struct and a CBOR array
	_ struct{} `cbor:",toarray"`
}

// DecodeFunc reads a single value of type T from the reader
type DecodeFunc[T any] func(*Reader) (T, error)

// EncodeFunc writes a single value of type T to the writer
type EncodeFunc[T any] func(*Writer, T) error
