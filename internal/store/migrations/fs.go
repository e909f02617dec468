// Package migrations embeds the archive database schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
