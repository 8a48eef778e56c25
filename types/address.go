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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/multiformats/go-varint"
)

type Protocol uint8

const (
	ProtocolID        Protocol = 0
	ProtocolSecp256k1 Protocol = 1
	ProtocolActor     Protocol = 2
	ProtocolBLS       Protocol = 3
	ProtocolDelegated Protocol = 4
)

type Network uint8

const (
	NetworkMainnet Network = 0
	NetworkTestnet Network = 1
)

const (
	MainnetPrefix = "f"
	TestnetPrefix = "t"

	AddressChecksumSize = 4
	// Largest encoded address, protocol byte included
	MaxAddressSize = 64
	// Largest key material (or delegated sub-address) carried by protocols 1-4
	MaxAddressPayloadSize = 54

	// String form of the zero Address
	UndefAddressString = "<empty>"
)

// Address identifies an account: a protocol byte followed by a protocol-specific payload.
// Address values are comparable and may be used as map keys. The zero value is the
// undefined address
type Address struct {
	protocol Protocol
	// We use a string because []byte isn't comparable
	payload string
}

// NewAddress returns an Address from its protocol and payload after validating the payload
func NewAddress(protocol Protocol, payload []byte) (Address, error) {
	if err := validateAddress(protocol, payload); err != nil {
		return Address{}, err
	}
	return Address{
		protocol: protocol,
		payload:  string(payload),
	}, nil
}

// NewIDAddress returns a protocol 0 address for the given actor ID
func NewIDAddress(id uint64) (Address, error) {
	if id > varint.MaxValueUvarint63 {
		return Address{}, fmt.Errorf("%w: actor ID %d too large", ErrInvalidAddress, id)
	}
	return NewAddress(ProtocolID, varint.ToUvarint(id))
}

// NewDelegatedAddress returns a protocol 4 address for the given namespace actor ID and sub-address
func NewDelegatedAddress(namespace uint64, subAddress []byte) (Address, error) {
	if namespace > varint.MaxValueUvarint63 {
		return Address{}, fmt.Errorf("%w: namespace %d too large", ErrInvalidAddress, namespace)
	}
	payload := varint.ToUvarint(namespace)
	payload = append(payload, subAddress...)
	return NewAddress(ProtocolDelegated, payload)
}

// AddressFromBytes returns an Address from its binary form: the protocol byte then the payload.
// An empty input is the undefined address
func AddressFromBytes(data []byte) (Address, error) {
	if len(data) == 0 {
		return Address{}, nil
	}
	if len(data) > MaxAddressSize {
		return Address{}, fmt.Errorf(
			"%w: %d bytes exceeds maximum of %d",
			ErrInvalidAddress,
			len(data),
			MaxAddressSize,
		)
	}
	return NewAddress(Protocol(data[0]), data[1:])
}

func validateAddress(protocol Protocol, payload []byte) error {
	if len(payload)+1 > MaxAddressSize {
		return fmt.Errorf("%w: payload of %d bytes too large", ErrInvalidAddress, len(payload))
	}
	switch protocol {
	case ProtocolID:
		if _, err := readUvarint(payload, true); err != nil {
			return fmt.Errorf("%w: actor ID: %w", ErrInvalidAddress, err)
		}
	case ProtocolSecp256k1, ProtocolActor, ProtocolBLS:
		if len(payload) == 0 || len(payload) > MaxAddressPayloadSize {
			return fmt.Errorf("%w: payload length %d", ErrInvalidAddress, len(payload))
		}
	case ProtocolDelegated:
		_, n, err := varint.FromUvarint(payload)
		if err != nil {
			return fmt.Errorf("%w: namespace: %w", ErrInvalidAddress, err)
		}
		if len(payload)-n > MaxAddressPayloadSize {
			return fmt.Errorf("%w: sub-address length %d", ErrInvalidAddress, len(payload)-n)
		}
	default:
		return fmt.Errorf("%w: unknown protocol %d", ErrInvalidAddress, protocol)
	}
	return nil
}

// readUvarint decodes a ULEB128 value. When whole is set the value must span all of buf
func readUvarint(buf []byte, whole bool) (uint64, error) {
	v, n, err := varint.FromUvarint(buf)
	if err != nil {
		return 0, err
	}
	if whole && n != len(buf) {
		return 0, fmt.Errorf("%d trailing bytes after varint", len(buf)-n)
	}
	return v, nil
}

func (a Address) Protocol() Protocol {
	return a.protocol
}

// Payload returns a copy of the protocol-specific payload
func (a Address) Payload() []byte {
	return []byte(a.payload)
}

// Bytes returns the binary form of the address. The undefined address has no bytes
func (a Address) Bytes() []byte {
	if a.IsUndef() {
		return nil
	}
	ret := make([]byte, 0, 1+len(a.payload))
	ret = append(ret, byte(a.protocol))
	ret = append(ret, a.payload...)
	return ret
}

func (a Address) IsUndef() bool {
	return a.protocol == ProtocolID && a.payload == ""
}

func (a Address) Equal(other Address) bool {
	return a == other
}

// ID returns the actor ID of a protocol 0 address
func (a Address) ID() (uint64, error) {
	if a.protocol != ProtocolID || a.IsUndef() {
		return 0, fmt.Errorf("%w: not an ID address", ErrInvalidAddress)
	}
	return readUvarint([]byte(a.payload), true)
}

// Namespace returns the namespace actor ID of a protocol 4 address
func (a Address) Namespace() (uint64, error) {
	if a.protocol != ProtocolDelegated {
		return 0, fmt.Errorf("%w: not a delegated address", ErrInvalidAddress)
	}
	return readUvarint([]byte(a.payload), false)
}

// SubAddress returns the part of a protocol 4 payload that follows the namespace
func (a Address) SubAddress() ([]byte, error) {
	if a.protocol != ProtocolDelegated {
		return nil, fmt.Errorf("%w: not a delegated address", ErrInvalidAddress)
	}
	_, n, err := varint.FromUvarint([]byte(a.payload))
	if err != nil {
		return nil, err
	}
	return []byte(a.payload[n:]), nil
}

// Checksum returns the 4-byte BLAKE2b checksum over the protocol byte and payload
func (a Address) Checksum() ([]byte, error) {
	return addressChecksum(a.protocol, []byte(a.payload))
}

func addressChecksum(protocol Protocol, payload []byte) ([]byte, error) {
	tmp := make([]byte, 0, 1+len(payload))
	tmp = append(tmp, byte(protocol))
	tmp = append(tmp, payload...)
	return DefaultHashProvider.Blake2b(tmp, AddressChecksumSize)
}

// String returns the mainnet text form of the address
func (a Address) String() string {
	return a.Format(NetworkMainnet)
}

// Format returns the text form of the address for the given network
func (a Address) Format(network Network) string {
	if a.IsUndef() {
		return UndefAddressString
	}
	prefix := MainnetPrefix
	if network == NetworkTestnet {
		prefix = TestnetPrefix
	}
	payload := []byte(a.payload)
	switch a.protocol {
	case ProtocolID:
		id, err := readUvarint(payload, true)
		if err != nil {
			// Only reachable for addresses built without validation
			return UndefAddressString
		}
		return prefix + "0" + strconv.FormatUint(id, 10)
	case ProtocolDelegated:
		namespace, n, err := varint.FromUvarint(payload)
		if err != nil {
			return UndefAddressString
		}
		checksum, err := addressChecksum(a.protocol, payload)
		if err != nil {
			panic(fmt.Sprintf("unexpected error computing address checksum: %s", err))
		}
		return prefix + "4" + strconv.FormatUint(namespace, 10) + MainnetPrefix +
			base32Encode(append(payload[n:], checksum...))
	default:
		checksum, err := addressChecksum(a.protocol, payload)
		if err != nil {
			panic(fmt.Sprintf("unexpected error computing address checksum: %s", err))
		}
		return prefix + strconv.Itoa(int(a.protocol)) + base32Encode(append(payload, checksum...))
	}
}

// ParseAddress returns an Address from its text form. Both the mainnet ("f") and testnet ("t")
// prefixes are accepted. The checksum of protocol 1-4 addresses is verified
func ParseAddress(addr string) (Address, error) {
	if addr == UndefAddressString {
		return Address{}, nil
	}
	if len(addr) < 3 {
		return Address{}, fmt.Errorf("%w: %q too short", ErrInvalidAddress, addr)
	}
	if prefix := addr[:1]; prefix != MainnetPrefix && prefix != TestnetPrefix {
		return Address{}, fmt.Errorf("%w: unknown network prefix %q", ErrInvalidAddress, prefix)
	}
	if addr[1] < '0' || addr[1] > '4' {
		return Address{}, fmt.Errorf("%w: unknown protocol %q", ErrInvalidAddress, addr[1])
	}
	protocol := Protocol(addr[1] - '0')
	raw := addr[2:]
	switch protocol {
	case ProtocolID:
		id, err := parseDecimal(raw)
		if err != nil {
			return Address{}, fmt.Errorf("%w: actor ID: %w", ErrInvalidAddress, err)
		}
		return NewIDAddress(id)
	case ProtocolDelegated:
		idx := strings.IndexByte(raw, MainnetPrefix[0])
		if idx < 0 {
			return Address{}, fmt.Errorf("%w: missing namespace separator", ErrInvalidAddress)
		}
		namespace, err := parseDecimal(raw[:idx])
		if err != nil {
			return Address{}, fmt.Errorf("%w: namespace: %w", ErrInvalidAddress, err)
		}
		sub, checksum, err := splitChecksum(raw[idx+1:])
		if err != nil {
			return Address{}, err
		}
		ret, err := NewDelegatedAddress(namespace, sub)
		if err != nil {
			return Address{}, err
		}
		if err := verifyChecksum(ret, checksum); err != nil {
			return Address{}, err
		}
		return ret, nil
	default:
		payload, checksum, err := splitChecksum(raw)
		if err != nil {
			return Address{}, err
		}
		ret, err := NewAddress(protocol, payload)
		if err != nil {
			return Address{}, err
		}
		if err := verifyChecksum(ret, checksum); err != nil {
			return Address{}, err
		}
		return ret, nil
	}
}

// parseDecimal parses an unsigned decimal without sign, whitespace or leading zeros
func parseDecimal(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("empty number")
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, fmt.Errorf("leading zero in %q", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid digit in %q", s)
		}
	}
	return strconv.ParseUint(s, 10, 64)
}

func splitChecksum(s string) ([]byte, []byte, error) {
	raw, err := base32Decode(s)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(raw) <= AddressChecksumSize {
		return nil, nil, fmt.Errorf("%w: payload too short", ErrInvalidAddress)
	}
	split := len(raw) - AddressChecksumSize
	return raw[:split], raw[split:], nil
}

func verifyChecksum(a Address, checksum []byte) error {
	expected, err := a.Checksum()
	if err != nil {
		return err
	}
	if !bytes.Equal(expected, checksum) {
		return ErrInvalidChecksum
	}
	return nil
}

// DecodeAddress reads an address stored as a byte string
func DecodeAddress(r *cbor.Reader) (Address, error) {
	start := r.Offset()
	data, err := r.ReadBytes()
	if err != nil {
		return Address{}, err
	}
	ret, err := AddressFromBytes(data)
	if err != nil {
		r.Seek(start)
		return Address{}, cbor.WrapFormatError(start, "address", err)
	}
	return ret, nil
}

// EncodeTo writes the address as a byte string
func (a Address) EncodeTo(w *cbor.Writer) {
	w.WriteBytes(a.Bytes())
}

func (a Address) MarshalCBOR() ([]byte, error) {
	w := cbor.NewWriter()
	a.EncodeTo(w)
	return w.Bytes(), nil
}

func (a *Address) UnmarshalCBOR(data []byte) error {
	tmp, err := DecodeAddress(cbor.NewReader(data))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	tmp, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}
