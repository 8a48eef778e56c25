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
	"bytes"
	"errors"
	"sync"

	_cbor "github.com/fxamacker/cbor/v2"
)

var (
	cachedDecMode     _cbor.DecMode
	cachedDecModeErr  error
	cachedDecModeOnce sync.Once

	cachedDiagMode     _cbor.DiagMode
	cachedDiagModeErr  error
	cachedDiagModeOnce sync.Once
)

// getDecMode returns a cached DecMode, initializing it on first use.
// Returns the cached error if initialization failed.
func getDecMode() (_cbor.DecMode, error) {
	cachedDecModeOnce.Do(func() {
		decOptions := _cbor.DecOptions{
			ExtraReturnErrors: _cbor.ExtraDecErrorUnknownField,
			// Actor state nests deeper than the library default of 32 in places
			MaxNestedLevels: 256,
			// Integers decode into empty interfaces as int64, matching Reader.ReadNumber
			IntDec: _cbor.IntDecConvertSigned,
		}
		cachedDecMode, cachedDecModeErr = decOptions.DecMode()
	})
	return cachedDecMode, cachedDecModeErr
}

func getDiagMode() (_cbor.DiagMode, error) {
	cachedDiagModeOnce.Do(func() {
		diagOptions := _cbor.DiagOptions{
			ByteStringEncoding: _cbor.ByteStringBase16Encoding,
			MaxNestedLevels:    256,
		}
		cachedDiagMode, cachedDiagModeErr = diagOptions.DiagMode()
	})
	return cachedDiagMode, cachedDiagModeErr
}

// Decode decodes the first data item in dataBytes into dest using the generic
// struct binding of the underlying CBOR library. It returns the number of bytes read.
// Types in this module that implement UnmarshalCBOR use the cursor Reader internally,
// so the result matches the schema dispatcher byte for byte
func Decode(dataBytes []byte, dest any) (int, error) {
	data := bytes.NewReader(dataBytes)
	decMode, err := getDecMode()
	if err != nil {
		return 0, err
	}
	if decMode == nil {
		return 0, errors.New("CBOR decoder mode not initialized")
	}
	dec := decMode.NewDecoder(data)
	err = dec.Decode(dest)
	return dec.NumBytesRead(), err
}

// Diagnose returns the RFC 8949 diagnostic notation for the first data item in data
func Diagnose(data []byte) (string, error) {
	diagMode, err := getDiagMode()
	if err != nil {
		return "", err
	}
	ret, _, err := diagMode.DiagnoseFirst(data)
	return ret, err
}
