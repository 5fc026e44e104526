// Package storage provides the durable key-value facility backing cache
// snapshots. A KV holds opaque byte values under string slots; the cache
// rewrites its whole snapshot into a single slot on every mutation.
//
// Three implementations are provided: Memory (tests, ephemeral), File
// (one file per slot, atomic replace), and SQLite (single-file database
// for larger deployments).
package storage

import "errors"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// KV is a synchronous durable key-value store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Get returns (nil, false, nil) on miss; errors are reserved for I/O
//   failures, not absence.
// - Set overwrites; Delete is idempotent.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
