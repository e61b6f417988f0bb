// Package migrations embeds the SQL migration files so the migrate
// binary ships them without a filesystem dependency.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
