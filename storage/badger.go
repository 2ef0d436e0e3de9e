// Package storage opens the embedded badger database and exposes prefixed
// key/value namespaces on top of it.
//
// The cache and the favorites set each get their own Namespace, so clearing
// the cache after a capacity failure never touches favorites.
package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Common errors
var (
	// ErrNotFound indicates the key does not exist
	ErrNotFound = errors.New("key not found")
	// ErrNoSpace indicates the write was rejected for capacity reasons
	ErrNoSpace = errors.New("storage capacity exceeded")
)

// Config holds configuration for the database
type Config struct {
	// Path is the directory for database files. Ignored when InMemory is true.
	Path string
	// InMemory keeps everything in RAM (tests, --cache-backend memory)
	InMemory bool
	// SyncWrites fsyncs every write
	SyncWrites bool
	Logger     zerolog.Logger
}

// badgerLogger adapts zerolog to badger's Logger interface
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Trace().Msgf(strings.TrimSpace(format), args...)
}

// Open opens a badger database with the given configuration.
// Caller must call Close() when done.
func Open(cfg Config) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{logger: cfg.Logger.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	return db, nil
}

// Namespace is a key prefix inside one database
type Namespace struct {
	db     *badger.DB
	prefix []byte
}

// NewNamespace scopes all operations to keys beginning with prefix
func NewNamespace(db *badger.DB, prefix string) *Namespace {
	return &Namespace{db: db, prefix: []byte(prefix)}
}

func (n *Namespace) key(k string) []byte {
	out := make([]byte, 0, len(n.prefix)+len(k))
	out = append(out, n.prefix...)
	return append(out, k...)
}

// Get returns a copy of the value stored under key
func (n *Namespace) Get(key string) ([]byte, error) {
	var val []byte
	err := n.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(n.key(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value under key
func (n *Namespace) Set(key string, value []byte) error {
	err := n.db.Update(func(txn *badger.Txn) error {
		return txn.Set(n.key(key), value)
	})
	if err != nil {
		return classifyWrite(key, err)
	}
	return nil
}

// Delete removes key; a missing key is not an error
func (n *Namespace) Delete(key string) error {
	err := n.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(n.key(key))
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Clear drops every key in the namespace
func (n *Namespace) Clear() error {
	if err := n.db.DropPrefix(n.prefix); err != nil {
		return fmt.Errorf("clear namespace %q: %w", n.prefix, err)
	}
	return nil
}

// Each calls fn for every key/value in the namespace in key order.
// Keys are passed without the prefix.
func (n *Namespace) Each(fn func(key string, value []byte) error) error {
	return n.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(n.prefix); it.ValidForPrefix(n.prefix); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			key := string(item.Key()[len(n.prefix):])
			if err := fn(key, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// classifyWrite maps capacity failures onto ErrNoSpace
func classifyWrite(key string, err error) error {
	if errors.Is(err, badger.ErrTxnTooBig) || errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("set %s: %w: %v", key, ErrNoSpace, err)
	}
	return fmt.Errorf("set %s: %w", key, err)
}
