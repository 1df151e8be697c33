// Package migrations embeds the schema of the sqlite state database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
