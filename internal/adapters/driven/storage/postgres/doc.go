// Package postgres provides the PostgreSQL storage backend for shared
// deployments. Content records and document statuses are plain tables;
// summary embeddings live in a pgvector column and are ranked by cosine
// distance.
//
// The schema is created on startup and requires the vector extension.
package postgres
