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
	"math/big"
)

// Writer builds an encoded buffer. Every header is written at its minimal width
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded data written so far
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteHeader writes a header using the smallest encoding that fits extra
func (w *Writer) WriteHeader(major uint8, extra uint64) {
	w.buf = AppendHeader(w.buf, major, extra)
}

func (w *Writer) WriteBoolean(v bool) {
	if v {
		w.WriteHeader(MajorSimple, uint64(SimpleTrue))
	} else {
		w.WriteHeader(MajorSimple, uint64(SimpleFalse))
	}
}

func (w *Writer) WriteNumber(n int64) {
	if n >= 0 {
		w.WriteHeader(MajorUnsigned, uint64(n))
	} else {
		// -1-n can't overflow for any negative int64
		w.WriteHeader(MajorNegative, uint64(-(n + 1)))
	}
}

func (w *Writer) WriteUint(n uint64) {
	w.WriteHeader(MajorUnsigned, n)
}

// WriteBigInt writes n as a byte string of a sign byte (0x00 positive, 0x01 negative)
// followed by the big-endian magnitude. Zero (and nil) is an empty byte string
func (w *Writer) WriteBigInt(n *big.Int) {
	if n == nil || n.Sign() == 0 {
		w.WriteBytes(nil)
		return
	}
	magnitude := new(big.Int).Abs(n).Bytes()
	tmp := make([]byte, 0, len(magnitude)+1)
	if n.Sign() > 0 {
		tmp = append(tmp, 0x00)
	} else {
		tmp = append(tmp, 0x01)
	}
	tmp = append(tmp, magnitude...)
	w.WriteBytes(tmp)
}

func (w *Writer) WriteBytes(data []byte) {
	w.WriteHeader(MajorBytes, uint64(len(data)))
	w.buf = append(w.buf, data...)
}

// WriteString writes a text string. The header carries the UTF-8 byte length
func (w *Writer) WriteString(s string) {
	w.WriteHeader(MajorText, uint64(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) WriteArrayLength(length int) {
	w.WriteHeader(MajorArray, uint64(length))
}

func (w *Writer) WriteMapLength(length int) {
	w.WriteHeader(MajorMap, uint64(length))
}

func (w *Writer) WriteTag(num uint64) {
	w.WriteHeader(MajorTag, num)
}

func (w *Writer) WriteNull() {
	w.WriteHeader(MajorSimple, uint64(SimpleNull))
}

// WriteRaw appends already encoded data
func (w *Writer) WriteRaw(data []byte) {
	w.buf = append(w.buf, data...)
}
