// Package sparql executes queries against a configured SPARQL endpoint.
//
// The client classifies every failure into a Kind, retries transient
// kinds with linearly increasing backoff, and shares a per-instance
// concurrency gate with all other queries against the same endpoint.
// The gate slot is held only for the duration of one network attempt,
// never across a backoff wait, so queued queries are not starved while
// a failing one backs off.
package sparql
