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

package schema

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrUnsupported is wrapped by the SchemaMismatchError returned when encoding a trie
	ErrUnsupported = errors.New("unsupported operation")
)

// SchemaMismatchError indicates a value or encoded data that does not fit its schema. Path
// locates the offending value, starting at "$" for the top level
type SchemaMismatchError struct {
	Path string
	Msg  string
	Err  error
}

func (e SchemaMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema mismatch at %s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("schema mismatch at %s: %s", e.Path, e.Msg)
}

func (SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

func (e SchemaMismatchError) Unwrap() error {
	return e.Err
}

func newMismatch(path string, format string, args ...any) error {
	return SchemaMismatchError{
		Path: path,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func wrapMismatch(path string, msg string, err error) error {
	return SchemaMismatchError{
		Path: path,
		Msg:  msg,
		Err:  err,
	}
}
