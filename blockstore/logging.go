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

package blockstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/blinklabs-io/actorstate/types"
)

type loggingLoader struct {
	next   types.Loader
	logger *slog.Logger
}

// LoggingLoader wraps next and logs every fetch at debug level. Errors from next are returned unmodified
func LoggingLoader(next types.Loader, logger *slog.Logger) types.Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return loggingLoader{
		next:   next,
		logger: logger,
	}
}

func (l loggingLoader) Load(ctx context.Context, id types.ContentId) ([]byte, error) {
	start := time.Now()
	data, err := l.next.Load(ctx, id)
	if err != nil {
		l.logger.Debug(
			"block load failed",
			"cid", id.String(),
			"duration", time.Since(start),
			"error", err,
		)
		return nil, err
	}
	l.logger.Debug(
		"block loaded",
		"cid", id.String(),
		"size", len(data),
		"duration", time.Since(start),
	)
	return data, nil
}
