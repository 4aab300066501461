// Package store keeps a SQLite-backed history of translation requests.
//
// Each request is recorded once under its request ID together with the
// query text, the hash of the schema it ran against, the outcome, the
// printed relational algebra, the derivation steps and the diagnostics.
//
// # Ordering
//
// Rows carry a logical sequence number assigned on insert. Listings are
// ordered by seq, newest first; wall-clock time is never stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
