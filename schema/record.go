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
	"fmt"
	"strings"
)

// Record is a decoded struct: field values in schema order, addressable by name
type Record struct {
	names  []string
	values []any
}

// NewRecord returns an empty record
func NewRecord() *Record {
	return &Record{}
}

// Set appends a field, or replaces its value if the name is already present
func (r *Record) Set(name string, value any) *Record {
	for i, n := range r.names {
		if n == name {
			r.values[i] = value
			return r
		}
	}
	r.names = append(r.names, name)
	r.values = append(r.values, value)
	return r
}

// Get returns the value of the named field
func (r *Record) Get(name string) (any, bool) {
	for i, n := range r.names {
		if n == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Len returns the number of fields
func (r *Record) Len() int {
	return len(r.names)
}

// Names returns the field names in order
func (r *Record) Names() []string {
	ret := make([]string, len(r.names))
	copy(ret, r.names)
	return ret
}

// Values returns the field values in order
func (r *Record) Values() []any {
	ret := make([]any, len(r.values))
	copy(ret, r.values)
	return ret
}

// Map returns the fields as a map
func (r *Record) Map() map[string]any {
	ret := make(map[string]any, len(r.names))
	for i, n := range r.names {
		ret[n] = r.values[i]
	}
	return ret
}

func (r *Record) String() string {
	parts := make([]string, 0, len(r.names))
	for i, n := range r.names {
		parts = append(parts, fmt.Sprintf("%s: %v", n, r.values[i]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
