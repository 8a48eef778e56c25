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

// Package types provides the identifier types carried in actor state: Address,
// ContentId and Signature, plus the collaborator interfaces the tries depend on
// (Loader for blocks, HashProvider for digests).
package types

import (
	"errors"
)

var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidChecksum  = errors.New("invalid address checksum")
	ErrInvalidContentId = errors.New("invalid content identifier")
	ErrInvalidSignature = errors.New("invalid signature")
)
