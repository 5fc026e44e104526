package cache

import "strings"

// Key derives the cache key for a query against an instance.
// Runs of whitespace (including newlines) in the query text collapse to
// a single space and leading/trailing whitespace is trimmed, so two
// queries differing only in layout share a key. Keys from different
// instances never collide because the instance id is a prefix.
func Key(instanceID, queryText string) string {
	return instanceID + ":" + strings.Join(strings.Fields(queryText), " ")
}
