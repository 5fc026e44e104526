package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/graphdash/sparqlkit/codec"
	"github.com/graphdash/sparqlkit/storage"
)

// Default store parameters.
const (
	DefaultMaxEntries = 100
	DefaultTTL        = 5 * time.Minute
	DefaultStorageKey = "sparqlkit:results"
)

// Entry is one persisted cache record. Payload is the raw serialized
// query-result document; the store never inspects it.
type Entry struct {
	Key        string `json:"key" msgpack:"key"`
	Instance   string `json:"instance" msgpack:"instance"`
	InsertedAt int64  `json:"insertedAt" msgpack:"insertedAt"` // unix milliseconds
	Payload    []byte `json:"payload" msgpack:"payload"`
}

// Config configures a Store.
type Config struct {
	// MaxEntries bounds the store size. Default: 100
	MaxEntries int

	// TTL is the uniform entry lifetime. An entry is stale once its age
	// reaches the TTL. Default: 5 minutes
	TTL time.Duration

	// StorageKey is the durable-storage slot the snapshot is written to.
	// Default: "sparqlkit:results"
	StorageKey string

	// Store is the durable backing store for snapshots.
	// If nil, the cache is memory-only.
	Store storage.KV

	// Codec serializes the snapshot. Default: codec.JSON
	Codec codec.Codec[[]Entry]

	// Logger receives best-effort persistence failures at Warn level.
	// Default: zap.NewNop()
	Logger *zap.Logger

	// Clock supplies the current time. Default: time.Now
	Clock func() time.Time
}

type record struct {
	payload    []byte
	instance   string
	insertedAt time.Time
}

// Store is the bounded TTL result cache. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]*record
	cfg     Config
}

// Stats is a read-only snapshot of store shape.
type Stats struct {
	Entries    int
	MaxEntries int
	TTL        time.Duration
}

// NewStore creates a store and reloads the persisted snapshot, if any.
// Entries already expired at load time are discarded. A missing or
// corrupted snapshot is not an error; the store starts empty.
func NewStore(cfg Config) *Store {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if cfg.Codec == nil {
		cfg.Codec = codec.JSON[[]Entry]{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	s := &Store{
		entries: make(map[string]*record),
		cfg:     cfg,
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.cfg.Store == nil {
		return
	}
	raw, ok, err := s.cfg.Store.Get(s.cfg.StorageKey)
	if err != nil {
		s.cfg.Logger.Warn("cache: snapshot load failed, starting empty", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	snapshot, err := s.cfg.Codec.Decode(raw)
	if err != nil {
		s.cfg.Logger.Warn("cache: snapshot corrupt, starting empty", zap.Error(err))
		return
	}

	now := s.cfg.Clock()
	for _, e := range snapshot {
		insertedAt := time.UnixMilli(e.InsertedAt)
		if now.Sub(insertedAt) >= s.cfg.TTL {
			continue
		}
		s.entries[e.Key] = &record{
			payload:    e.Payload,
			instance:   e.Instance,
			insertedAt: insertedAt,
		}
	}

	// A snapshot written under a larger bound must not leave the store
	// over capacity.
	for len(s.entries) > s.cfg.MaxEntries {
		s.evictOldestLocked()
	}
}

// Get returns the payload stored under key, or (nil, false) if the key
// is absent or its entry has reached the TTL. Stale entries are removed
// on access, not swept in the background.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.cfg.Clock().Sub(rec.insertedAt) >= s.cfg.TTL {
		delete(s.entries, key)
		s.persistLocked()
		return nil, false
	}
	return rec.payload, true
}

// Set stores payload under key for the given instance and persists the
// snapshot. When the store is full and key is new, the entry with the
// oldest insertion time is evicted first. Overwriting an existing key
// replaces the payload in place and keeps the original insertion time,
// so a re-set entry expires on its original schedule.
func (s *Store) Set(key string, payload []byte, instanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.entries[key]; ok {
		rec.payload = payload
		rec.instance = instanceID
		s.persistLocked()
		return
	}

	if len(s.entries) >= s.cfg.MaxEntries {
		s.evictOldestLocked()
	}
	s.entries[key] = &record{
		payload:    payload,
		instance:   instanceID,
		insertedAt: s.cfg.Clock(),
	}
	s.persistLocked()
}

func (s *Store) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, rec := range s.entries {
		if first || rec.insertedAt.Before(oldest) {
			oldestKey, oldest = k, rec.insertedAt
			first = false
		}
	}
	if !first {
		delete(s.entries, oldestKey)
	}
}

// InvalidateInstance removes every entry belonging to the instance and
// returns the number removed.
func (s *Store) InvalidateInstance(instanceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, rec := range s.entries {
		if rec.instance == instanceID {
			delete(s.entries, k)
			removed++
		}
	}
	if removed > 0 {
		s.persistLocked()
	}
	return removed
}

// Clear empties the store and removes the persisted snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*record)
	if s.cfg.Store == nil {
		return
	}
	if err := s.cfg.Store.Delete(s.cfg.StorageKey); err != nil {
		s.cfg.Logger.Warn("cache: snapshot delete failed", zap.Error(err))
	}
}

// Stats reports current shape. No side effects: stale entries still
// counted here are dropped on their next Get.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Entries:    len(s.entries),
		MaxEntries: s.cfg.MaxEntries,
		TTL:        s.cfg.TTL,
	}
}

// persistLocked rewrites the full snapshot. Failures are logged and
// swallowed; the in-memory store stays authoritative. Caller must hold mu.
func (s *Store) persistLocked() {
	if s.cfg.Store == nil {
		return
	}
	snapshot := make([]Entry, 0, len(s.entries))
	for k, rec := range s.entries {
		snapshot = append(snapshot, Entry{
			Key:        k,
			Instance:   rec.instance,
			InsertedAt: rec.insertedAt.UnixMilli(),
			Payload:    rec.payload,
		})
	}
	raw, err := s.cfg.Codec.Encode(snapshot)
	if err != nil {
		s.cfg.Logger.Warn("cache: snapshot encode failed", zap.Error(err))
		return
	}
	if err := s.cfg.Store.Set(s.cfg.StorageKey, raw); err != nil {
		s.cfg.Logger.Warn("cache: snapshot write failed", zap.Error(err))
	}
}
