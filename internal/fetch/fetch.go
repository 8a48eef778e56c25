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

// Package fetch runs independent loads concurrently while keeping their results in input order
package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ordered calls fn for each index in [0, n) with at most limit calls in flight and returns the
// results in index order. A limit below 2 runs the calls sequentially. The first error returned
// by fn is returned unmodified and no results are returned with it. Concurrent calls receive a
// context that is canceled once any call fails
func Ordered[T any](
	ctx context.Context,
	n int,
	limit int,
	fn func(ctx context.Context, idx int) (T, error),
) ([]T, error) {
	ret := make([]T, n)
	if limit < 2 || n < 2 {
		for i := range n {
			tmp, err := fn(ctx, i)
			if err != nil {
				return nil, err
			}
			ret[i] = tmp
		}
		return ret, nil
	}
	// The group context is canceled as soon as one call fails so the others can stop early
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range n {
		g.Go(func() error {
			tmp, err := fn(gctx, i)
			if err != nil {
				return err
			}
			// Each goroutine owns its own slot
			ret[i] = tmp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}
