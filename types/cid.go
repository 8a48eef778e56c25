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

	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ContentIdTextPrefix is the multibase marker of the text form
const ContentIdTextPrefix = "b"

// ContentId identifies an immutable block by its content. It holds the binary CID that follows
// the identity multibase marker on the wire. ContentId values are comparable and may be used as
// map keys
type ContentId struct {
	// We use a string because []byte isn't comparable
	data string
}

// NewContentId returns a ContentId holding a copy of data
func NewContentId(data []byte) ContentId {
	return ContentId{data: string(data)}
}

// ContentIdFromCid returns the ContentId for a parsed CID
func ContentIdFromCid(c cid.Cid) ContentId {
	return ContentId{data: c.KeyString()}
}

func (c ContentId) Bytes() []byte {
	return []byte(c.data)
}

// Defined reports whether the ContentId holds any bytes
func (c ContentId) Defined() bool {
	return c.data != ""
}

func (c ContentId) Equal(other ContentId) bool {
	return c.data == other.data
}

// String returns the text form: "b" followed by the lowercase unpadded base32 of the bytes
func (c ContentId) String() string {
	return ContentIdTextPrefix + base32Encode([]byte(c.data))
}

// Cid parses the bytes as a CID
func (c ContentId) Cid() (cid.Cid, error) {
	ret, err := cid.Cast([]byte(c.data))
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: %w", ErrInvalidContentId, err)
	}
	return ret, nil
}

// Multihash returns the decoded multihash carried by the CID
func (c ContentId) Multihash() (*multihash.DecodedMultihash, error) {
	tmpCid, err := c.Cid()
	if err != nil {
		return nil, err
	}
	return multihash.Decode(tmpCid.Hash())
}

// ParseContentId returns a ContentId from its text form. Besides the "b" base32 form, any multibase
// CID string understood by go-cid (including base58 CIDv0) is accepted
func ParseContentId(s string) (ContentId, error) {
	if s == "" {
		return ContentId{}, fmt.Errorf("%w: empty string", ErrInvalidContentId)
	}
	if s[:1] == ContentIdTextPrefix {
		data, err := base32Decode(s[1:])
		if err != nil {
			return ContentId{}, fmt.Errorf("%w: %w", ErrInvalidContentId, err)
		}
		if len(data) == 0 {
			return ContentId{}, fmt.Errorf("%w: no data", ErrInvalidContentId)
		}
		return NewContentId(data), nil
	}
	tmpCid, err := cid.Decode(s)
	if err != nil {
		return ContentId{}, fmt.Errorf("%w: %w", ErrInvalidContentId, err)
	}
	return ContentIdFromCid(tmpCid), nil
}

// DecodeContentId reads a tag 42 wrapping a byte string that starts with the identity multibase marker
func DecodeContentId(r *cbor.Reader) (ContentId, error) {
	start := r.Offset()
	if err := r.ReadTag(cbor.CborTagCid); err != nil {
		return ContentId{}, err
	}
	data, err := r.ReadBytes()
	if err != nil {
		r.Seek(start)
		return ContentId{}, err
	}
	if len(data) < 2 || data[0] != cbor.CidMultibaseIdentity {
		r.Seek(start)
		return ContentId{}, cbor.WrapFormatError(
			start,
			"content identifier",
			fmt.Errorf("%w: missing identity multibase prefix", ErrInvalidContentId),
		)
	}
	return NewContentId(data[1:]), nil
}

// EncodeTo writes the ContentId as a tag 42 wrapping the identity-prefixed bytes
func (c ContentId) EncodeTo(w *cbor.Writer) {
	tmp := make([]byte, 0, 1+len(c.data))
	tmp = append(tmp, cbor.CidMultibaseIdentity)
	tmp = append(tmp, c.data...)
	w.WriteTag(cbor.CborTagCid)
	w.WriteBytes(tmp)
}

func (c ContentId) MarshalCBOR() ([]byte, error) {
	w := cbor.NewWriter()
	c.EncodeTo(w)
	return w.Bytes(), nil
}

func (c *ContentId) UnmarshalCBOR(data []byte) error {
	tmp, err := DecodeContentId(cbor.NewReader(data))
	if err != nil {
		return err
	}
	*c = tmp
	return nil
}

func (c ContentId) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ContentId) UnmarshalText(text []byte) error {
	tmp, err := ParseContentId(string(text))
	if err != nil {
		return err
	}
	*c = tmp
	return nil
}
