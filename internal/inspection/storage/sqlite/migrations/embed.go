package migrations

import "embed"

// FS contains embedded SQLite migrations for inspection storage.
//
//go:embed *.sql
var FS embed.FS
