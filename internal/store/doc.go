// Package store provides a SQLite-backed catalog of trace documents.
//
// Each row holds one document under a unique name:
//   - id: UUIDv7, stable across replacements
//   - digest: BLAKE3 digest of the canonical document
//   - node/modification/increment counts, for listings
//   - body: canonical JSON, zstd-compressed
//   - seq: logical clock value of the last write
//
// # Ordering
//
// Listings use seq (logical clock), never timestamps, and always
// ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// # Integrity
//
// Bodies are checked against their digest on every Get.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - Single connection: SQLite has one writer
package store
