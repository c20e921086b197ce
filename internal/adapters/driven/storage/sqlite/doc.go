// Package sqlite is the default single-file storage backend, built on the
// pure Go modernc.org/sqlite driver.
//
// One database at ~/.docchat/data/docchat.db holds the content records,
// the per-namespace summary vectors and the document statuses. Vector
// search loads a namespace's vectors and ranks them with the bruteforce
// package, which is fast enough for the few thousand records a chat
// channel accumulates. Larger deployments use the postgres backend.
//
// Schema changes are numbered files in migrations/. Each one is applied
// in a transaction with its schema_migrations row.
package sqlite
