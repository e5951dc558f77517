// Package cache holds the bounded in-memory byte cache that sits in front of
// the forge tree. Each store instance owns exactly one EntryCache keyed by the
// joined request path; entries are created lazily on a miss and leave either
// through least-recently-used eviction or a full Clear on reload. The cache is
// not safe for concurrent use on its own: callers serialize access through the
// owning instance's lock.
package cache
