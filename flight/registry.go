// Package flight deduplicates concurrent query executions. At most one
// network operation per cache key is ever outstanding; callers arriving
// while one is in flight share its eventual result or failure.
package flight

import (
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Registry is the process-wide in-flight request tracker. The zero value
// is ready to use. Not persisted: restarting the process clears it.
type Registry struct {
	group  singleflight.Group
	shared atomic.Int64
}

// Do executes fn under key, or joins an execution already in flight for
// the same key. The returned shared flag reports whether the result was
// delivered to more than one caller. The registration is removed when fn
// settles, success or failure alike, so a failed query can be retried
// from scratch by the next caller.
func (r *Registry) Do(key string, fn func() ([]byte, error)) ([]byte, bool, error) {
	v, err, shared := r.group.Do(key, func() (any, error) {
		return fn()
	})
	if shared {
		r.shared.Add(1)
	}
	if err != nil {
		return nil, shared, err
	}
	payload, _ := v.([]byte)
	return payload, shared, nil
}

// SharedCount reports how many Do calls were resolved by joining another
// caller's in-flight operation.
func (r *Registry) SharedCount() int64 {
	return r.shared.Load()
}
