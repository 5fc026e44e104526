// Package client composes the cache, in-flight registry, concurrency
// gate, and retrying transport into the query path that dashboard
// collaborators call.
//
// A Client serves one instance. A Registry owns the shared cache and
// in-flight registry and one Client per configured instance, so load on
// one endpoint never starves another while all instances share one
// bounded result store.
package client
