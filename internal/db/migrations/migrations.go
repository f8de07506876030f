// Package migrations embeds taskhub's goose migrations.
package migrations

import "embed"

// FS holds the SQL migrations at its root, ready for db.Migrate.
//
//go:embed *.sql
var FS embed.FS
