// Package sqlite provides the durable embedding store backed by a
// single SQLite database file. Vectors are serialised with the
// fixed-width binary codec and kept in WAL mode so search reads and
// indexing writes can proceed concurrently.
package sqlite
