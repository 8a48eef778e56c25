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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blinklabs-io/actorstate/types"
	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig configures a BadgerStore. Path is ignored when InMemory is set
type BadgerConfig struct {
	Path     string
	InMemory bool
	Logger   *slog.Logger
}

// BadgerStore is a block store backed by a badger database, keyed by the binary content
// identifier. It is safe for concurrent use
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

func NewBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger store path must not be empty")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(badgerLogger{logger: logger.With("component", "badger")})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{
		db:     db,
		logger: logger,
	}, nil
}

// Put stores data under its computed content identifier and returns it
func (s *BadgerStore) Put(data []byte) (types.ContentId, error) {
	id, err := ComputeId(data)
	if err != nil {
		return types.ContentId{}, err
	}
	if err := s.PutWithId(id, data); err != nil {
		return types.ContentId{}, err
	}
	return id, nil
}

// PutWithId stores data under the given id without checking that it matches
func (s *BadgerStore) PutWithId(id types.ContentId, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(id.Bytes(), data)
	})
	if err != nil {
		return fmt.Errorf("store block %s: %w", id, err)
	}
	return nil
}

func (s *BadgerStore) Load(ctx context.Context, id types.ContentId) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ret []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(id.Bytes())
		if err != nil {
			return err
		}
		ret, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("load block %s: %w", id, err)
	}
	return ret, nil
}

// Close closes the underlying database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's own log output to slog
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) format(format string, args ...any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(l.format(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(l.format(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(l.format(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(l.format(format, args...))
}
