// Package migrations embeds the goose SQL migrations, one directory per SQL dialect.
package migrations

import "embed"

//go:embed mysql/*.sql sqlite/*.sql
var FS embed.FS
