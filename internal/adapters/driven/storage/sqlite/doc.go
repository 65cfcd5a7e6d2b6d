// Package sqlite persists the dual index in SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. Text and image
// index entries live in separate tables sharing the (document_id,
// page_number, unit_id) key, so retrieval can join hits from either
// modality back to the same location in the document.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory. Embedding vectors are stored as
// little-endian float32 BLOBs.
//
// # Data Location
//
// By default, the database is stored at ~/.tessera/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
