// Package migrations embeds the schema migration files for the
// embedding store, applied in filename order at startup.
package migrations

import "embed"

// FS holds every .up.sql migration embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
