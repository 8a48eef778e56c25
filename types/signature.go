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
	"bytes"
	"fmt"

	"github.com/blinklabs-io/actorstate/cbor"
)

type SigType uint8

const (
	SigTypeSecp256k1 SigType = 1
	SigTypeBLS       SigType = 2
	SigTypeDelegated SigType = 3
)

func (t SigType) String() string {
	switch t {
	case SigTypeSecp256k1:
		return "secp256k1"
	case SigTypeBLS:
		return "bls"
	case SigTypeDelegated:
		return "delegated"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Signature is a type byte followed by the raw signature bytes
type Signature struct {
	Type SigType
	Data []byte
}

func (s Signature) Equal(other Signature) bool {
	return s.Type == other.Type && bytes.Equal(s.Data, other.Data)
}

// Bytes returns the binary form of the signature
func (s Signature) Bytes() []byte {
	ret := make([]byte, 0, 1+len(s.Data))
	ret = append(ret, byte(s.Type))
	ret = append(ret, s.Data...)
	return ret
}

// DecodeSignature reads a signature stored as a byte string
func DecodeSignature(r *cbor.Reader) (Signature, error) {
	start := r.Offset()
	data, err := r.ReadBytes()
	if err != nil {
		return Signature{}, err
	}
	if len(data) == 0 {
		r.Seek(start)
		return Signature{}, cbor.WrapFormatError(
			start,
			"signature",
			fmt.Errorf("%w: empty", ErrInvalidSignature),
		)
	}
	return Signature{
		Type: SigType(data[0]),
		Data: bytes.Clone(data[1:]),
	}, nil
}

// EncodeTo writes the signature as a byte string
func (s Signature) EncodeTo(w *cbor.Writer) {
	w.WriteBytes(s.Bytes())
}

func (s Signature) MarshalCBOR() ([]byte, error) {
	w := cbor.NewWriter()
	s.EncodeTo(w)
	return w.Bytes(), nil
}

func (s *Signature) UnmarshalCBOR(data []byte) error {
	tmp, err := DecodeSignature(cbor.NewReader(data))
	if err != nil {
		return err
	}
	*s = tmp
	return nil
}
