// Package cache provides the bounded, TTL-expiring result store for
// SPARQL query payloads.
//
// Keys are derived from (instance id, normalized query text), so the
// same query with different whitespace layout shares one entry. The
// store holds at most MaxEntries entries, evicting the oldest-inserted
// entry when full, and persists its full snapshot to a durable storage
// slot after every mutation. Persistence is best-effort: a store whose
// backing storage fails keeps serving from memory.
package cache
