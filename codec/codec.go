// Package codec provides pluggable serialization for persisted cache
// snapshots. JSON is the default; msgpack trades readability for size.
package codec

// Codec encodes and decodes values of type V to bytes for durable storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
