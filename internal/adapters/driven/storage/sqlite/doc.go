// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - VectorStore: Named collections of embedded document chunks
//   - PromptVersionRepository: Versioned prompt templates
//   - HistoryStore: Chat sessions and conversation turns
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.citeqa/data/citeqa.db
//
// # Thread Safety
//
// All operations are thread-safe. Multi-row writes run in a single transaction
// that opens with a write, so readers never observe a partial write and writers
// never share a prompt version number.
package sqlite
