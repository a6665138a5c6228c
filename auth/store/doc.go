// Package store defines the token store shared by the request gateway and the
// session controller.
//
// A Store holds the current Credential (access and refresh token) and the cached
// Session. It is a write-through cache: reads are served from memory, writes are
// persisted to a Backend so the credential survives a process restart. Shipped
// backends are in-memory, an afs-backed JSON file, SQLite (sub-package sqlite)
// and Redis (sub-package redis).
package store
