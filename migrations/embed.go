// Package migrations embeds the PostgreSQL schema migrations so the server,
// the migrate CLI and the integration tests apply the same files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
