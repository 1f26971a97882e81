// Package sqlite provides a SQLite-based implementation of the persistence ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two store interfaces
// through a single database connection:
//
//   - IndexStore: Vector index snapshot persistence
//   - HistoryStore: Query history persistence
//
// # Schema
//
// The schema comes from the numbered migrations in migrations/. The highest
// applied number is kept in PRAGMA user_version.
//
// # Snapshot Replacement
//
// IndexStore.Save writes the new snapshot into staging tables and renames them
// over the live tables inside one transaction. A failed or interrupted save
// leaves the previous snapshot readable.
//
// # Data Location
//
// By default, the database is stored at ~/.hotelrag/data/hotelrag.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
