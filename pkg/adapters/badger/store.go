package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"

	"github.com/aretw0/recoma/pkg/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const keyPrefix = "result/"

// Config selects where and how the database is opened.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	// TTL expires results after the given duration; zero keeps them forever.
	TTL    time.Duration
	Logger *slog.Logger
}

// Store implements ports.ResultStore on an embedded BadgerDB.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Open creates the database directory if needed and opens the store.
// The caller must Close it.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("path is required for a persistent store")
		}
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&logger{cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db, ttl: cfg.TTL}, nil
}

func key(taskID string) []byte { return []byte(keyPrefix + taskID) }

// Save persists the result under its task ID.
func (s *Store) Save(ctx context.Context, result *domain.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key(result.Task.ID), data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Load retrieves a result.
func (s *Store) Load(ctx context.Context, taskID string) (*domain.Result, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(taskID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	var res domain.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &res, nil
}

// Delete removes a result.
func (s *Store) Delete(ctx context.Context, taskID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(taskID))
	})
}

// List returns the stored task IDs in key order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return ids, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// logger adapts slog to badger's logging interface.
type logger struct {
	l *slog.Logger
}

func (l *logger) Errorf(format string, args ...any)   { l.l.Error(fmt.Sprintf(format, args...)) }
func (l *logger) Warningf(format string, args ...any) { l.l.Warn(fmt.Sprintf(format, args...)) }
func (l *logger) Infof(format string, args ...any)    { l.l.Info(fmt.Sprintf(format, args...)) }
func (l *logger) Debugf(format string, args ...any)   { l.l.Debug(fmt.Sprintf(format, args...)) }
