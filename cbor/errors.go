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
	"errors"
	"fmt"
)

// ErrFormat is the sentinel matched by every FormatError so callers can use errors.Is
var ErrFormat = errors.New("cbor: format error")

// FormatError indicates bytes that do not follow the expected wire layout. A decode
// that returns a FormatError produces no partial value
type FormatError struct {
	Offset int
	Msg    string
	Err    error
}

func (e FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cbor: format error at offset %d: %s: %v", e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("cbor: format error at offset %d: %s", e.Offset, e.Msg)
}

func (FormatError) Is(target error) bool {
	return target == ErrFormat
}

func (e FormatError) Unwrap() error { return e.Err }

// NewFormatError returns a FormatError for the given offset
func NewFormatError(offset int, format string, args ...any) error {
	return FormatError{
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// WrapFormatError returns a FormatError for the given offset that wraps err
func WrapFormatError(offset int, msg string, err error) error {
	return FormatError{
		Offset: offset,
		Msg:    msg,
		Err:    err,
	}
}
