// Package store couples a forge tree with an LRU entry cache (Instance) and
// shards that pair across a fixed-size Pool dispatched in strict round robin.
// Instances never share state: each holds its own tree, cache and lock, so two
// requests that land on different instances never contend. A background
// Watcher turns filesystem events into coordinated reloads of every instance,
// and an optional cron schedule forces a periodic full resync.
package store
